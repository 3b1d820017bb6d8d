package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
)

var testSecret = []byte("test-signing-secret")

func TestSignAndParse_RoundTrip(t *testing.T) {
	issued := time.Now().Truncate(time.Second)
	claims := NewClaims("client-1", "tokenkeeper", "tokenkeeper-api", GrantClientCredentials, "read", issued, time.Hour)

	raw, err := SignToken(claims, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	parsed, err := ParseToken(raw, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "client-1", parsed.Subject)
	assert.Equal(t, "tokenkeeper", parsed.Issuer)
	assert.Equal(t, []string{"tokenkeeper-api"}, []string(parsed.Audience))
	assert.Equal(t, GrantClientCredentials, parsed.GrantType)
	assert.Equal(t, "read", parsed.Scope)
	assert.Equal(t, time.Hour, parsed.ExpiresAt.Sub(parsed.IssuedAt.Time))
}

func TestParseToken_WrongSecret(t *testing.T) {
	claims := NewClaims("client-1", "tokenkeeper", "tokenkeeper-api", GrantClientCredentials, "", time.Now(), time.Hour)

	raw, err := SignToken(claims, testSecret)
	require.NoError(t, err)

	_, err = ParseToken(raw, []byte("another-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_Malformed(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_ExpiredSignatureStillParses(t *testing.T) {
	// expiry is checked by the validation pipeline, not by the parser
	claims := NewClaims("client-1", "tokenkeeper", "tokenkeeper-api", GrantClientCredentials, "", time.Now().Add(-2*time.Hour), time.Hour)

	raw, err := SignToken(claims, testSecret)
	require.NoError(t, err)

	parsed, err := ParseToken(raw, testSecret)
	require.NoError(t, err)
	assert.True(t, parsed.ExpiresAt.Before(time.Now()))
}
