// Package models holds the persistent data structures of the server.
package models

import "time"

// Client status values. A deleted client keeps its row so that outstanding
// tokens can still be checked for revocation.
const (
	ClientStatusActive  = "active"
	ClientStatusDeleted = "deleted"
)

// Client is a registered OAuth client. Only the argon2id hash of the client
// secret is stored; the plaintext is returned to the creator exactly once.
type Client struct {
	ID            string
	SecretHash    []byte
	SecretSalt    []byte
	Name          string
	Description   string
	AllowedScopes []string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive reports whether the client may authenticate and whether its
// previously issued tokens are still honored.
func (c *Client) IsActive() bool {
	return c.Status == ClientStatusActive
}
