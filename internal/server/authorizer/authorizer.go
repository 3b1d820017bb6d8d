package authorizer

import "context"

// Authorizer produces allow/deny policy responses for incoming requests.
// One Invocation corresponds to handling exactly one request; its decision
// cache lives and dies with it.
type Authorizer struct {
	validator *Validator
}

func New(v *Validator) *Authorizer {
	return &Authorizer{validator: v}
}

// Invocation scopes a decision cache to the handling of one request. It is
// a plain value passed explicitly into validation calls, never stored in
// package state, so stale Allow/Deny results cannot leak across requests.
type Invocation struct {
	a     *Authorizer
	cache decisionCache
}

// Begin starts a new invocation with a fresh, empty decision cache.
func (a *Authorizer) Begin() *Invocation {
	return &Invocation{a: a, cache: make(decisionCache)}
}

// Decide validates the Authorization header values and returns the decision.
// Within one invocation, repeated checks of the same raw token are answered
// from the cache — denials included — without re-running the pipeline.
// Structural header failures carry no token and are not cached; they cost
// nothing to recompute.
func (inv *Invocation) Decide(ctx context.Context, headerValues []string) Decision {
	token, d, ok := ExtractToken(headerValues)
	if !ok {
		inv.a.validator.logDecision(ctx, d)
		return d
	}

	if cached, hit := inv.cache.get(token); hit {
		return cached
	}

	d = inv.a.validator.ValidateToken(ctx, token)
	inv.cache.put(token, d)
	return d
}

// Authorize runs Decide and emits the policy response for the front door.
func (inv *Invocation) Authorize(ctx context.Context, headerValues []string) PolicyResponse {
	return Emit(inv.Decide(ctx, headerValues))
}
