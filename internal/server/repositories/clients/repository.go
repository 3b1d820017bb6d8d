package clients

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// Repository is the persistence contract for registered OAuth clients.
// Implementations must return common.ErrorNotFound for unknown IDs and keep
// deleted rows resolvable by Get so revocation checks can observe them.
type Repository interface {
	Create(ctx context.Context, client *models.Client) (*models.Client, error)
	Get(ctx context.Context, id string) (*models.Client, error)
	Update(ctx context.Context, client *models.Client) (*models.Client, error)
	MarkDeleted(ctx context.Context, id string) error
}
