package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/authorizer"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/clients"
	repo "github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/clients"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/secrets"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/tokens"
)

var testSecret = []byte("httpapi-test-secret")

func newTestServer(t *testing.T) (*Server, *clients.Service) {
	t.Helper()

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	sp := &secrets.StaticProvider{Secret: testSecret}

	cs := clients.NewService(repo.NewInMemoryRepository(), logger)
	ts := tokens.NewService(cs, sp, "tokenkeeper", "tokenkeeper-api", 3600*time.Second, 86400*time.Second, 0, logger)
	az := authorizer.New(authorizer.NewValidator(sp, cs, "tokenkeeper", "tokenkeeper-api", 0, logger))

	return NewServer(":0", logger, ts, cs, az), cs
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func bearerFor(t *testing.T, s *Server, cs *clients.Service) string {
	t.Helper()

	client, secret, err := cs.Create(context.Background(), clients.CreateSpec{Name: "admin"})
	require.NoError(t, err)

	resp, issueErr := s.tokens.Issue(context.Background(), &tokens.IssueRequest{
		GrantType:    auth.GrantClientCredentials,
		ClientID:     client.ID,
		ClientSecret: secret,
	})
	require.Nil(t, issueErr)
	return "Bearer " + resp.AccessToken
}

func TestHandleToken_Success(t *testing.T) {
	s, cs := newTestServer(t)
	router := s.routes()

	client, secret, err := cs.Create(context.Background(), clients.CreateSpec{Name: "billing"})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/oauth/token", map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     client.ID,
		"client_secret": secret,
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokens.IssueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "client_credentials", resp.GrantType)
}

func TestHandleToken_InvalidClient(t *testing.T) {
	s, cs := newTestServer(t)
	router := s.routes()

	client, _, err := cs.Create(context.Background(), clients.CreateSpec{Name: "billing"})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/oauth/token", map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     client.ID,
		"client_secret": "wrong",
	}, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_client", body["error"])
}

func TestHandleToken_ExpiredRefreshToken(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.routes()

	expired := auth.NewClaims("abc", "tokenkeeper", "tokenkeeper-api", auth.GrantRefreshToken, "", time.Now().Add(-48*time.Hour), time.Hour)
	raw, err := auth.SignToken(expired, testSecret)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, "/oauth/token", map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": raw,
	}, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_grant", body["error"])
}

func TestHandleToken_MalformedBody(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.routes()

	req := httptest.NewRequest(http.MethodPost, "/oauth/token", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminClients_RequiresBearer(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.routes()

	rec := doJSON(t, router, http.MethodPost, "/admin/clients/", createClientRequest{Name: "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/admin/clients/", createClientRequest{Name: "x"},
		map[string]string{"Authorization": "Basic dXNlcjpwYXNz"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminClients_CreateReturnsSecretOnce(t *testing.T) {
	s, cs := newTestServer(t)
	router := s.routes()
	bearer := bearerFor(t, s, cs)

	rec := doJSON(t, router, http.MethodPost, "/admin/clients/", createClientRequest{
		Name:          "billing",
		AllowedScopes: []string{"read"},
	}, map[string]string{"Authorization": bearer})

	require.Equal(t, http.StatusCreated, rec.Code)

	var created clientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ClientID)
	assert.NotEmpty(t, created.ClientSecret)

	// the secret never appears in subsequent reads
	rec = doJSON(t, router, http.MethodGet, "/admin/clients/"+created.ClientID, nil,
		map[string]string{"Authorization": bearer})
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched clientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Empty(t, fetched.ClientSecret)
	assert.Equal(t, "billing", fetched.Name)
}

func TestAdminClients_DeleteThenTokenDenied(t *testing.T) {
	s, cs := newTestServer(t)
	router := s.routes()
	bearer := bearerFor(t, s, cs)

	// register a client and obtain its token
	client, secret, err := cs.Create(context.Background(), clients.CreateSpec{Name: "doomed"})
	require.NoError(t, err)

	tokenRec := doJSON(t, router, http.MethodPost, "/oauth/token", map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     client.ID,
		"client_secret": secret,
	}, nil)
	require.Equal(t, http.StatusOK, tokenRec.Code)

	var issued tokens.IssueResponse
	require.NoError(t, json.Unmarshal(tokenRec.Body.Bytes(), &issued))

	// revoke the client via the admin API
	rec := doJSON(t, router, http.MethodDelete, "/admin/clients/"+client.ID, nil,
		map[string]string{"Authorization": bearer})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// the outstanding token no longer authorizes requests
	rec = doJSON(t, router, http.MethodGet, "/admin/clients/"+client.ID, nil,
		map[string]string{"Authorization": "Bearer " + issued.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// repeated delete reports not found
	rec = doJSON(t, router, http.MethodDelete, "/admin/clients/"+client.ID, nil,
		map[string]string{"Authorization": bearer})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminClients_Update(t *testing.T) {
	s, cs := newTestServer(t)
	router := s.routes()
	bearer := bearerFor(t, s, cs)

	client, _, err := cs.Create(context.Background(), clients.CreateSpec{Name: "old-name"})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPut, "/admin/clients/"+client.ID, createClientRequest{
		Name:        "new-name",
		Description: "updated",
	}, map[string]string{"Authorization": bearer})

	require.Equal(t, http.StatusOK, rec.Code)

	var updated clientResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "new-name", updated.Name)
	assert.Equal(t, client.ID, updated.ClientID)
}

func TestPing(t *testing.T) {
	s, _ := newTestServer(t)
	router := s.routes()

	rec := doJSON(t, router, http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
