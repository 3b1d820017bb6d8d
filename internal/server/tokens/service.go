// Package tokens implements the token issuer: it exchanges client
// credentials or a refresh token for a signed access/refresh token pair.
//
// A request moves through a fixed sequence of states — parse, grant
// validation, credential verification, issuance — and any failure drops into
// a terminal reject carrying the HTTP status and error code for the caller.
package tokens

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/secrets"
)

// Error codes returned in token responses. Credential and format problems
// map to 400/401; only a dependency failure maps to 500.
const (
	CodeMissingField         = "missing_field"
	CodeUnsupportedGrantType = "unsupported_grant_type"
	CodeInvalidClient        = "invalid_client"
	CodeInvalidGrant         = "invalid_grant"
	CodeInternalError        = "internal_error"
)

// IssueRequest is the parsed body of a token request.
type IssueRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// IssueResponse is the success body of the token endpoint.
type IssueResponse struct {
	AccessToken           string `json:"access_token"`
	TokenType             string `json:"token_type"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in,omitempty"`
	GrantType             string `json:"grant_type"`
}

// IssueError is the terminal reject state of the issuance flow.
type IssueError struct {
	Status int
	Code   string
}

func (e *IssueError) Error() string {
	return e.Code
}

func reject(status int, code string) *IssueError {
	return &IssueError{Status: status, Code: code}
}

// ClientVerifier is the slice of the client store consumed by the issuer.
type ClientVerifier interface {
	VerifyCredentials(ctx context.Context, id, secret string) bool
	IsActive(ctx context.Context, id string) (bool, error)
}

type Service struct {
	clients    ClientVerifier
	secrets    secrets.Provider
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	skew       time.Duration
	logger     logging.Logger

	// now is a seam for tests
	now func() time.Time
}

func NewService(cv ClientVerifier, sp secrets.Provider, issuer, audience string, accessTTL, refreshTTL, skew time.Duration, logger logging.Logger) *Service {
	return &Service{
		clients:    cv,
		secrets:    sp,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		skew:       skew,
		logger:     logger.With("module", "tokens"),
		now:        time.Now,
	}
}

// Issue runs the issuance state machine for one request. On failure it
// returns an IssueError with the HTTP status and a generic error code; no
// internal detail reaches the response.
func (s *Service) Issue(ctx context.Context, req *IssueRequest) (*IssueResponse, *IssueError) {

	// ParseRequest
	if req.GrantType == "" {
		return nil, reject(http.StatusBadRequest, CodeMissingField)
	}

	// ValidateGrant
	switch req.GrantType {
	case auth.GrantClientCredentials, auth.GrantRefreshToken:
	default:
		s.logger.Warn(ctx, "token request rejected", "reason", CodeUnsupportedGrantType, "grant_type", req.GrantType)
		return nil, reject(http.StatusBadRequest, CodeUnsupportedGrantType)
	}

	// VerifyCredentials
	var clientID string
	switch req.GrantType {
	case auth.GrantClientCredentials:
		if req.ClientID == "" || req.ClientSecret == "" {
			return nil, reject(http.StatusBadRequest, CodeMissingField)
		}
		if !s.clients.VerifyCredentials(ctx, req.ClientID, req.ClientSecret) {
			s.logger.Warn(ctx, "token request rejected", "reason", CodeInvalidClient, "client_id", req.ClientID)
			return nil, reject(http.StatusUnauthorized, CodeInvalidClient)
		}
		clientID = req.ClientID

	case auth.GrantRefreshToken:
		if req.RefreshToken == "" {
			return nil, reject(http.StatusBadRequest, CodeMissingField)
		}
		subject, issueErr := s.verifyRefreshToken(ctx, req.RefreshToken)
		if issueErr != nil {
			return nil, issueErr
		}
		clientID = subject
	}

	// IssueTokens
	resp, issueErr := s.issueTokens(ctx, clientID, req.GrantType, req.Scope)
	if issueErr != nil {
		return nil, issueErr
	}

	s.logger.Info(ctx, "tokens issued", "client_id", clientID, "grant_type", req.GrantType)
	return resp, nil
}

// verifyRefreshToken checks signature, expiry, issuer, audience and grant
// binding of a presented refresh token, then re-checks that the embedded
// client is still active. Every credential problem collapses into a single
// invalid_grant answer.
func (s *Service) verifyRefreshToken(ctx context.Context, raw string) (string, *IssueError) {

	secret, err := s.secrets.CurrentSecret(ctx)
	if err != nil {
		s.logger.Error(ctx, "secret provider failure", "error", err.Error())
		return "", reject(http.StatusInternalServerError, CodeInternalError)
	}

	claims, err := auth.ParseToken(raw, secret)
	if err != nil {
		s.logger.Warn(ctx, "token request rejected", "reason", CodeInvalidGrant, "detail", "bad signature")
		return "", reject(http.StatusUnauthorized, CodeInvalidGrant)
	}

	now := s.now()
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Add(s.skew).After(now) {
		s.logger.Warn(ctx, "token request rejected", "reason", CodeInvalidGrant, "detail", "expired")
		return "", reject(http.StatusUnauthorized, CodeInvalidGrant)
	}
	if claims.Issuer != s.issuer || !containsAudience(claims.Audience, s.audience) {
		s.logger.Warn(ctx, "token request rejected", "reason", CodeInvalidGrant, "detail", "claims mismatch")
		return "", reject(http.StatusUnauthorized, CodeInvalidGrant)
	}
	if claims.GrantType != auth.GrantRefreshToken {
		// an access token presented as a refresh token
		s.logger.Warn(ctx, "token request rejected", "reason", CodeInvalidGrant, "detail", "not a refresh token")
		return "", reject(http.StatusUnauthorized, CodeInvalidGrant)
	}

	active, err := s.clients.IsActive(ctx, claims.Subject)
	if err != nil {
		s.logger.Error(ctx, "client store failure", "error", err.Error())
		return "", reject(http.StatusInternalServerError, CodeInternalError)
	}
	if !active {
		s.logger.Warn(ctx, "token request rejected", "reason", CodeInvalidGrant, "detail", "client revoked", "client_id", claims.Subject)
		return "", reject(http.StatusUnauthorized, CodeInvalidGrant)
	}

	return claims.Subject, nil
}

func (s *Service) issueTokens(ctx context.Context, clientID, grantType, scope string) (*IssueResponse, *IssueError) {

	secret, err := s.secrets.CurrentSecret(ctx)
	if err != nil {
		s.logger.Error(ctx, "secret provider failure", "error", err.Error())
		return nil, reject(http.StatusInternalServerError, CodeInternalError)
	}

	now := s.now()

	accessClaims := auth.NewClaims(clientID, s.issuer, s.audience, grantType, scope, now, s.accessTTL)
	accessToken, err := auth.SignToken(accessClaims, secret)
	if err != nil {
		s.logger.Error(ctx, "token signing failure", "error", err.Error())
		return nil, reject(http.StatusInternalServerError, CodeInternalError)
	}

	resp := &IssueResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		GrantType:   grantType,
	}

	// Only the client_credentials grant hands out a refresh token; the
	// refresh grant returns a fresh access token alone.
	if grantType == auth.GrantClientCredentials {
		refreshClaims := auth.NewClaims(clientID, s.issuer, s.audience, auth.GrantRefreshToken, scope, now, s.refreshTTL)
		refreshToken, err := auth.SignToken(refreshClaims, secret)
		if err != nil {
			s.logger.Error(ctx, "token signing failure", "error", err.Error())
			return nil, reject(http.StatusInternalServerError, CodeInternalError)
		}
		resp.RefreshToken = refreshToken
		resp.RefreshTokenExpiresIn = int64(s.refreshTTL.Seconds())
	}

	return resp, nil
}

func containsAudience(aud []string, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
