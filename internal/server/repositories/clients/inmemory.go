package clients

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// InMemoryRepository is a map-backed Repository used in tests and local runs
// without a database. Writes are serialized by a mutex, matching the
// conflicting-write guarantees of the Postgres implementation.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*models.Client
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{records: make(map[string]*models.Client)}
}

func cloneClient(c *models.Client) *models.Client {
	cp := *c
	cp.SecretHash = append([]byte(nil), c.SecretHash...)
	cp.SecretSalt = append([]byte(nil), c.SecretSalt...)
	cp.AllowedScopes = append([]string(nil), c.AllowedScopes...)
	return &cp
}

func (r *InMemoryRepository) Create(ctx context.Context, client *models.Client) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	client.CreatedAt = now
	client.UpdatedAt = now
	r.records[client.ID] = cloneClient(client)
	return client, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.records[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneClient(c), nil
}

func (r *InMemoryRepository) Update(ctx context.Context, client *models.Client) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[client.ID]
	if !ok || existing.Status != models.ClientStatusActive {
		return nil, common.ErrorNotFound
	}

	existing.Name = client.Name
	existing.Description = client.Description
	existing.AllowedScopes = append([]string(nil), client.AllowedScopes...)
	existing.UpdatedAt = time.Now()
	return cloneClient(existing), nil
}

func (r *InMemoryRepository) MarkDeleted(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[id]
	if !ok || existing.Status != models.ClientStatusActive {
		return common.ErrorNotFound
	}

	existing.Status = models.ClientStatusDeleted
	existing.UpdatedAt = time.Now()
	return nil
}
