package sequence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/metrics"
	"github.com/princinho/hrmbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const (
	// EmployeeID numbers users in creation order starting at 1.
	EmployeeID = "employeeId"

	Collection = "counters"

	defaultAttempts = 3
	defaultBackoff  = 20 * time.Millisecond
)

var ErrEmptyName = errors.New("sequence: empty name")

// Generator hands out strictly increasing values per name. Each call is one
// findAndModify with $inc and upsert, so the store serializes concurrent
// callers on the counter document.
type Generator struct {
	store    *database.Store
	col      *mongo.Collection
	attempts int
	backoff  time.Duration
	log      *zap.Logger
}

type Option func(*Generator)

func WithAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.attempts = n
		}
	}
}

func WithBackoff(d time.Duration) Option {
	return func(g *Generator) {
		if d >= 0 {
			g.backoff = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

func New(store *database.Store, opts ...Option) *Generator {
	g := &Generator{
		store:    store,
		col:      store.Collection(Collection),
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next increments the named counter and returns the new value. A counter
// that does not exist yet is created by the same operation and yields 1.
func (g *Generator) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrEmptyName
	}

	filter := bson.M{models.FieldID: name}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		start := time.Now()
		value, err := g.increment(ctx, filter, update, opts)
		metrics.ObserveStore(Collection, "next", start, err)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if attempt == g.attempts || !retryable(err) || ctx.Err() != nil {
			break
		}
		metrics.SequenceRetries.WithLabelValues(name).Inc()
		g.log.Warn("retrying sequence increment",
			zap.String("sequence", name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if err := sleep(ctx, g.backoff*time.Duration(attempt)); err != nil {
			break
		}
	}
	return 0, lastErr
}

func (g *Generator) increment(ctx context.Context, filter, update bson.M, opts *options.FindOneAndUpdateOptionsBuilder) (int64, error) {
	ctx, cancel := g.store.WithTimeout(ctx)
	defer cancel()

	var c models.Counter
	if err := g.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c); err != nil {
		return 0, database.Wrap("next", Collection, err)
	}
	return c.Value, nil
}

// retryable is limited to failures where the increment cannot have been
// applied: the duplicate key raised when two first callers race on the
// upsert, server selection failures (nothing was sent) and errors the server
// labels NoWritesPerformed. A closed store is not retried.
func retryable(err error) bool {
	if errors.Is(err, database.ErrClosed) {
		return false
	}
	if database.IsDuplicateKey(err) || database.IsServerSelection(err) {
		return true
	}
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel("NoWritesPerformed")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("sequence: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
