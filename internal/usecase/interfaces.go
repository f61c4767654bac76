package usecase

import (
	"context"
	"time"

	"github.com/mver/payflow/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// GetByIDsForUpdate reads the accounts with exclusive row locks,
	// acquired in ascending id order inside the given transaction.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []int64) ([]*domain.Account, error)
	// Debit decrements the balance by amount, guarded at the storage
	// layer by balance >= amount. Returns false when the guard rejects
	// the update.
	Debit(ctx context.Context, tx Transaction, id int64, amount domain.Money, updatedAt time.Time) (bool, error)
	Credit(ctx context.Context, tx Transaction, id int64, amount domain.Money, updatedAt time.Time) error
	Search(ctx context.Context, excludeID int64, query string, limit, offset int) ([]*domain.Account, error)
}

// TransferRepository defines data access for the transfer ledger.
type TransferRepository interface {
	// Create appends the transfer record and assigns its identity.
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id int64) (*domain.Transfer, error)
	ListByParticipant(ctx context.Context, accountID int64, includeDeleted bool, limit, offset int) ([]*domain.Transfer, error)
	// SoftDelete sets the tombstone; it never touches balances.
	SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs for outbox events.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs a unit of work when it fails with a transient
// storage error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete removes a key, releasing its claim.
	Delete(ctx context.Context, key string) error
}
