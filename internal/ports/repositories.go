package ports

import (
	"context"

	"github.com/cloudtodo/core/internal/domain/entities"
)

// UserRecordRepository is the durable per-user store. A record is read and rewritten
// as a whole; there are no partial updates and no transactions.
type UserRecordRepository interface {
	// Get returns entities.ErrRecordNotFound when the user has no record yet.
	Get(ctx context.Context, userID string) (*entities.UserRecord, error)
	Save(ctx context.Context, record *entities.UserRecord) error
	Ping(ctx context.Context) error
	Close() error
}
