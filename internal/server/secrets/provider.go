// Package secrets supplies the JWT signing secret to the issuer and the
// authorizer. The secret lives in an external store and is cached for the
// lifetime of the hosting process; rotation becomes visible only after the
// process is recycled.
package secrets

import "context"

// Provider returns the current signing secret. Implementations cache
// process-wide; a store failure wraps common.ErrSecretUnavailable and must
// be treated as fatal for the current request, not retried.
type Provider interface {
	CurrentSecret(ctx context.Context) ([]byte, error)
}

// StaticProvider serves a fixed secret. Used in tests and local runs
// without a secrets store.
type StaticProvider struct {
	Secret []byte
}

func (p *StaticProvider) CurrentSecret(ctx context.Context) ([]byte, error) {
	return p.Secret, nil
}
