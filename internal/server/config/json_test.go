package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJson(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	content := `{
		"endpoint_addr": ":7070",
		"database_dsn": "postgres://x",
		"secret_name": "prod/signing-secret",
		"secret_bucket": "prod-secrets",
		"issuer": "issuer-json",
		"audience": "aud-json",
		"access_token_ttl": "1h",
		"refresh_token_ttl": "24h",
		"allowed_clock_skew": "5s",
		"decision_cache_ttl": "300s",
		"s3_access_key": "ak",
		"s3_secret_key": "sk",
		"s3_region": "eu-west-1",
		"s3_base_endpoint": "http://minio:9000/"
	}`

	file := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	os.Args = []string{"server", "-c", file}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
	assert.Equal(t, "prod/signing-secret", cfg.SecretName)
	assert.Equal(t, "issuer-json", cfg.Issuer)
	assert.Equal(t, "aud-json", cfg.Audience)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.AllowedClockSkew)
	assert.Equal(t, "eu-west-1", cfg.S3Region)
}

func TestParseJson_NoFile(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"server"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	// nothing changes without -c/-config
	assert.Equal(t, ":8080", cfg.EndpointAddr)
}
