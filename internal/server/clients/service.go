// Package clients implements the client store: registration, mutation,
// revocation and credential verification of OAuth clients.
package clients

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	repo "github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/clients"
)

const (
	secretBytes = 32
	saltBytes   = 16
)

// CreateSpec describes a client registration request.
type CreateSpec struct {
	Name          string
	Description   string
	AllowedScopes []string
}

// UpdateSpec carries the mutable client fields. The client ID and secret
// are never updated.
type UpdateSpec struct {
	Name          string
	Description   string
	AllowedScopes []string
}

type Service struct {
	repo   repo.Repository
	logger logging.Logger
}

func NewService(r repo.Repository, logger logging.Logger) *Service {
	return &Service{repo: r, logger: logger.With("module", "clients")}
}

func hashSecret(secret string, salt []byte) []byte {
	return argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, 32)
}

// Create registers a new client and returns the record together with the
// generated plaintext secret. The plaintext is returned exactly once; only
// its argon2id hash is persisted.
func (s *Service) Create(ctx context.Context, spec CreateSpec) (*models.Client, string, error) {

	secret, err := common.MakeRandHexString(secretBytes)
	if err != nil {
		return nil, "", common.ErrorInternal
	}

	salt := common.GenerateRandByteArray(saltBytes)

	client := &models.Client{
		ID:            uuid.NewString(),
		SecretHash:    hashSecret(secret, salt),
		SecretSalt:    salt,
		Name:          spec.Name,
		Description:   spec.Description,
		AllowedScopes: spec.AllowedScopes,
		Status:        models.ClientStatusActive,
	}

	client, err = s.repo.Create(ctx, client)
	if err != nil {
		return nil, "", fmt.Errorf("error creating client: %w", err)
	}

	s.logger.Info(ctx, "client created", "client_id", client.ID)
	return client, secret, nil
}

// Get returns the client record for the given ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Client, error) {
	return s.repo.Get(ctx, id)
}

// Update mutates name, description and allowed scopes of an active client.
func (s *Service) Update(ctx context.Context, id string, spec UpdateSpec) (*models.Client, error) {
	client := &models.Client{
		ID:            id,
		Name:          spec.Name,
		Description:   spec.Description,
		AllowedScopes: spec.AllowedScopes,
	}
	return s.repo.Update(ctx, client)
}

// Delete revokes a client. The record is kept with status "deleted" so that
// outstanding tokens fail validation on their next check. Deleting an
// unknown or already-deleted client returns common.ErrorNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.MarkDeleted(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "client revoked", "client_id", id)
	return nil
}

// dummySalt keeps the not-found path of VerifyCredentials doing the same
// amount of hashing work as the found path.
var dummySalt = make([]byte, saltBytes)

// VerifyCredentials compares the supplied secret against the stored hash in
// constant time. It returns false for unknown and deleted clients alike, so
// callers cannot enumerate client IDs by timing or by distinct errors.
func (s *Service) VerifyCredentials(ctx context.Context, id, secret string) bool {

	client, err := s.repo.Get(ctx, id)
	if err != nil || !client.IsActive() {
		// burn the same hashing cost as the happy path
		candidate := hashSecret(secret, dummySalt)
		subtle.ConstantTimeCompare(candidate, candidate)
		common.WipeByteArray(candidate)
		return false
	}

	candidate := hashSecret(secret, client.SecretSalt)
	ok := subtle.ConstantTimeCompare(client.SecretHash, candidate) == 1
	common.WipeByteArray(candidate)
	return ok
}

// IsActive reports whether the client exists and has not been revoked.
// A missing record counts as revoked (fail closed); any other repository
// failure is surfaced so callers can treat the store as unavailable.
func (s *Service) IsActive(ctx context.Context, id string) (bool, error) {
	client, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return client.IsActive(), nil
}
