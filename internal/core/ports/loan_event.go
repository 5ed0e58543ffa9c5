package ports

import (
	"context"

	"github.com/isitech/bibliotheque/internal/core/domain"
)

// LoanEventPublisher hands audit events off the request path.
type LoanEventPublisher interface {
	Publish(event domain.LoanEvent)
}

// LoanEventRepository persists the loan audit trail.
type LoanEventRepository interface {
	InsertEvent(ctx context.Context, event *domain.LoanEvent) error
	// ListByBook returns the events of one book, oldest first.
	ListByBook(ctx context.Context, bookID string, limit int64) ([]domain.LoanEvent, error)
}

// IdempotencyStore remembers request keys for a bounded time.
type IdempotencyStore interface {
	// Claim returns true when the key was not seen before.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
