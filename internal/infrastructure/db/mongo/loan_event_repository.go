package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/isitech/bibliotheque/internal/core/domain"
	"github.com/isitech/bibliotheque/internal/core/ports"
)

const collectionLoanEvents = "loan_events"

const defaultHistoryLimit = 100

// LoanEventRepository implements ports.LoanEventRepository on the loan_events collection.
type LoanEventRepository struct {
	col *mongo.Collection
}

var _ ports.LoanEventRepository = (*LoanEventRepository)(nil)

func NewLoanEventRepository(db *mongo.Database) *LoanEventRepository {
	return &LoanEventRepository{col: db.Collection(collectionLoanEvents)}
}

// InsertEvent appends one audit record.
func (r *LoanEventRepository) InsertEvent(ctx context.Context, event *domain.LoanEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *event
	doc.OccurredAt = doc.OccurredAt.UTC()
	doc.DueDate = doc.DueDate.UTC()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert loan event: %w", err)
	}
	return nil
}

// ListByBook returns up to limit events of one book, oldest first.
func (r *LoanEventRepository) ListByBook(ctx context.Context, bookID string, limit int64) ([]domain.LoanEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: 1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, bson.M{"book_id": bookID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find loan events: %w", err)
	}
	defer cur.Close(ctx)

	events := make([]domain.LoanEvent, 0)
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("decode loan events: %w", err)
	}
	return events, nil
}

// EnsureIndexes creates the indexes used by history lookups.
func (r *LoanEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "book_id", Value: 1}, {Key: "occurred_at", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
