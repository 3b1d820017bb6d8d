// Package authorizer validates bearer tokens on incoming requests and turns
// them into allow/deny decisions with an attached identity context.
package authorizer

// Effect is the outcome of validating one token.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// Deny reason tags. Each pipeline check carries its own tag so that logs
// distinguish why a request was rejected; the caller only ever sees a 401.
const (
	ReasonMissingHeader   = "missing_header"
	ReasonMultipleHeaders = "multiple_headers"
	ReasonBadScheme       = "bad_scheme"
	ReasonEmptyToken      = "empty_token"
	ReasonBadSignature    = "bad_signature"
	ReasonExpired         = "expired"
	ReasonBadIssuer       = "bad_issuer"
	ReasonBadAudience     = "bad_audience"
	ReasonClientRevoked   = "client_revoked"
	ReasonDepUnavailable  = "dependency_unavailable"
)

// Decision is the result of validating one bearer token. Context carries the
// extracted claims restricted to scalar values (string, number, boolean).
type Decision struct {
	Effect  Effect
	Subject string
	Context map[string]any
	Reason  string
}

func deny(reason string) Decision {
	return Decision{Effect: EffectDeny, Reason: reason}
}

// PolicyResponse is the allow/deny contract consumed by the routing front
// door. A Deny response maps to a 401 for the original caller; an Allow
// response hands subject and context to the downstream handler.
type PolicyResponse struct {
	Effect  string         `json:"effect"`
	Subject string         `json:"subject,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// Emit translates a Decision into the policy response contract. It is a
// pure translation step and performs no validation of its own.
func Emit(d Decision) PolicyResponse {
	resp := PolicyResponse{Effect: string(d.Effect)}
	if d.Effect == EffectAllow {
		resp.Subject = d.Subject
		resp.Context = d.Context
	}
	return resp
}
