// Package clients provides a PostgreSQL-backed repository for registered
// OAuth clients, including soft deletion used for token revocation.
package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Scopes are stored as a single space-separated column.
func joinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

func splitScopes(s string) []string {
	return strings.Fields(s)
}

// Create inserts a new client row and returns it with the timestamps
// assigned by the database.
func (r *PostgresRepository) Create(ctx context.Context, client *models.Client) (*models.Client, error) {

	query :=
		`INSERT INTO clients (id, secret_hash, secret_salt, name, description, allowed_scopes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		client.ID, client.SecretHash, client.SecretSalt, client.Name,
		client.Description, joinScopes(client.AllowedScopes), client.Status).
		Scan(&client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return client, nil
}

// Get returns the client row for the given ID regardless of status, so
// callers can distinguish deleted clients from unknown ones. If no row
// exists, it returns common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Client, error) {
	query :=
		`SELECT id, secret_hash, secret_salt, name, description, allowed_scopes, status, created_at, updated_at
		 FROM clients
		 WHERE id = $1
		 `

	client := &models.Client{}
	var scopes string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&client.ID, &client.SecretHash, &client.SecretSalt, &client.Name,
		&client.Description, &scopes, &client.Status, &client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	client.AllowedScopes = splitScopes(scopes)
	return client, nil
}

// Update mutates name, description and allowed scopes of an active client.
// The client ID and secret are immutable. Unknown or deleted clients yield
// common.ErrorNotFound.
func (r *PostgresRepository) Update(ctx context.Context, client *models.Client) (*models.Client, error) {
	query :=
		`UPDATE clients
		 SET name = $2, description = $3, allowed_scopes = $4, updated_at = now()
		 WHERE id = $1 AND status = 'active'
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		client.ID, client.Name, client.Description, joinScopes(client.AllowedScopes)).
		Scan(&client.CreatedAt, &client.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	client.Status = models.ClientStatusActive
	return client, nil
}

// MarkDeleted soft-deletes an active client. The row is kept so validation
// lookups for outstanding tokens observe the revoked state. Deleting an
// unknown or already-deleted client returns common.ErrorNotFound.
func (r *PostgresRepository) MarkDeleted(ctx context.Context, id string) error {
	query :=
		`UPDATE clients
		 SET status = 'deleted', updated_at = now()
		 WHERE id = $1 AND status = 'active'
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}

	return nil
}
