package authorizer

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/secrets"
)

// bearerScheme is matched case-sensitively, per the header contract.
const bearerScheme = "Bearer"

// ClientChecker is the slice of the client store used for revocation checks.
type ClientChecker interface {
	IsActive(ctx context.Context, id string) (bool, error)
}

// Validator runs the claim-check pipeline over a bearer token. Checks are
// ordered cheapest first: header shape, then signature, then time and claim
// comparisons, and only then the client-store revocation lookup, so a token
// that fails locally never costs a network call.
type Validator struct {
	secrets  secrets.Provider
	clients  ClientChecker
	issuer   string
	audience string
	skew     time.Duration
	logger   logging.Logger

	// now is a seam for tests
	now func() time.Time
}

// NewValidator constructs a Validator. The clients checker may be nil, in
// which case the revocation step is skipped.
func NewValidator(sp secrets.Provider, cc ClientChecker, issuer, audience string, skew time.Duration, logger logging.Logger) *Validator {
	return &Validator{
		secrets:  sp,
		clients:  cc,
		issuer:   issuer,
		audience: audience,
		skew:     skew,
		logger:   logger.With("module", "authorizer"),
		now:      time.Now,
	}
}

// ExtractToken runs the structural header checks (steps 1–2 of the
// pipeline) and returns the raw token. On failure the returned Decision is
// the terminal Deny.
func ExtractToken(headerValues []string) (string, Decision, bool) {
	if len(headerValues) == 0 {
		return "", deny(ReasonMissingHeader), false
	}
	if len(headerValues) > 1 {
		return "", deny(ReasonMultipleHeaders), false
	}

	value := headerValues[0]
	scheme, token, found := strings.Cut(value, " ")
	if scheme != bearerScheme {
		return "", deny(ReasonBadScheme), false
	}
	if !found || strings.TrimSpace(token) == "" {
		return "", deny(ReasonEmptyToken), false
	}

	return token, Decision{}, true
}

// Validate runs the full pipeline over the Authorization header values.
func (v *Validator) Validate(ctx context.Context, headerValues []string) Decision {
	token, d, ok := ExtractToken(headerValues)
	if !ok {
		v.logDecision(ctx, d)
		return d
	}
	return v.ValidateToken(ctx, token)
}

// ValidateToken runs the cryptographic and claim checks (steps 3–8) over an
// already extracted raw token. Any internal fault degrades to Deny; the
// validator never fails open.
func (v *Validator) ValidateToken(ctx context.Context, rawToken string) Decision {
	d := v.validateToken(ctx, rawToken)
	v.logDecision(ctx, d)
	return d
}

func (v *Validator) validateToken(ctx context.Context, rawToken string) Decision {

	secret, err := v.secrets.CurrentSecret(ctx)
	if err != nil {
		return deny(ReasonDepUnavailable)
	}

	// Signature
	claims, err := auth.ParseToken(rawToken, secret)
	if err != nil {
		return deny(ReasonBadSignature)
	}

	// Expiration: exp must be strictly in the future, modulo allowed skew.
	now := v.now()
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Add(v.skew).After(now) {
		return deny(ReasonExpired)
	}

	// Issuer
	if claims.Issuer != v.issuer {
		return deny(ReasonBadIssuer)
	}

	// Audience
	if !containsAudience(claims.Audience, v.audience) {
		return deny(ReasonBadAudience)
	}

	// Revocation: last because it is the only check that leaves the process.
	if v.clients != nil {
		active, err := v.clients.IsActive(ctx, claims.Subject)
		if err != nil {
			return deny(ReasonDepUnavailable)
		}
		if !active {
			return deny(ReasonClientRevoked)
		}
	}

	return Decision{
		Effect:  EffectAllow,
		Subject: claims.Subject,
		Context: claimContext(claims),
	}
}

func (v *Validator) logDecision(ctx context.Context, d Decision) {
	if d.Effect == EffectAllow {
		v.logger.Info(ctx, "authorized", "subject", d.Subject)
		return
	}
	v.logger.Warn(ctx, "denied", "reason", d.Reason)
}

// claimContext flattens the token claims into the decision context,
// restricted to the closed scalar set (string, number, boolean).
func claimContext(claims *auth.Claims) map[string]any {
	context := map[string]any{
		"sub": claims.Subject,
		"iss": claims.Issuer,
	}
	if claims.IssuedAt != nil {
		context["iat"] = float64(claims.IssuedAt.Unix())
	}
	if claims.ExpiresAt != nil {
		context["exp"] = float64(claims.ExpiresAt.Unix())
	}
	if len(claims.Audience) == 1 {
		context["aud"] = claims.Audience[0]
	}
	if claims.GrantType != "" {
		context["grant_type"] = claims.GrantType
	}
	if claims.Scope != "" {
		context["scope"] = claims.Scope
	}
	return context
}

func containsAudience(aud []string, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
