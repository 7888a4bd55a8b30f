package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/princinho/hrmbackend/config"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

var ErrClosed = errors.New("database: store is closed")

// Store owns the single client connection shared by every repository.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	log     *zap.Logger
	closed  atomic.Bool
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Connect dials the deployment described by cfg and pings the primary
// before returning.
func Connect(ctx context.Context, cfg config.MongoConfig, opts ...Option) (*Store, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("database: missing database name")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	clientOpts := options.Client().
		ApplyURI(cfg.ConnectionString()).
		SetServerAPIOptions(serverAPI).
		SetTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, Wrap("connect", "", err)
	}

	s := &Store{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: timeout,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s.log.Info("connected to mongodb", zap.String("database", cfg.Database))
	return s, nil
}

// FromDatabase wraps an existing database handle. Close disconnects its client.
func FromDatabase(db *mongo.Database, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{client: db.Client(), db: db, timeout: timeout, log: zap.NewNop()}
}

func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return Wrap("ping", "", ErrClosed)
	}
	ctx, cancel := s.WithTimeout(ctx)
	defer cancel()
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return Wrap("ping", "", err)
	}
	return nil
}

func (s *Store) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) Database() *mongo.Database {
	return s.db
}

func (s *Store) Logger() *zap.Logger {
	return s.log
}

// WithTimeout bounds ctx by the configured per-call timeout unless ctx
// already carries an earlier deadline.
func (s *Store) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) <= s.timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	return s.closed.Load()
}

// Close disconnects the client once. Calls made afterwards fail with a
// StorageError of kind unavailable.
func (s *Store) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return Wrap("disconnect", "", err)
	}
	s.log.Info("disconnected from mongodb")
	return nil
}
