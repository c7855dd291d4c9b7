// Package mongostore is the MongoDB implementation of store.Store. Resource
// transactions need a replica set.
package mongostore

import (
	"context"
	"fmt"
	"time"

	migrations "reservations/internal/migrations/mongo"
	"reservations/internal/store"
	"reservations/pkg/config"
	mongotx "reservations/pkg/db/mongo"
	"reservations/pkg/logger"
	"reservations/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Store struct {
	db        *mongo.Database
	resources *mongo.Collection
	bookings  *mongo.Collection
	counters  *mongo.Collection
	txManager mongotx.TransactionManager

	readTimeout  time.Duration
	writeTimeout time.Duration
	log          *logger.Logger
	now          func() time.Time
}

var _ store.Store = (*Store)(nil)

func NewStore(cfg *config.Config) *Store {
	return New(cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.ReadTimeout, cfg.WriteTimeout, cfg.Log)
}

func New(client *mongo.Client, dbName string, readTimeout, writeTimeout time.Duration, log *logger.Logger) *Store {
	db := client.Database(dbName)
	return &Store{
		db:           db,
		resources:    db.Collection(migrations.ResourcesCollection),
		bookings:     db.Collection(migrations.BookingsCollection),
		counters:     db.Collection(migrations.CountersCollection),
		txManager:    mongotx.NewTransactionManager(client),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		log:          log,
		now:          time.Now,
	}
}

func (s *Store) Init(ctx context.Context) error {
	if err := migrations.RunMigration(ctx, s.db, s.log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := migrations.Verify(ctx, s.db); err != nil {
		return fmt.Errorf("schema verification failed: %w", err)
	}
	s.log.Info("Mongo store initialized", "database", s.db.Name())
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// withTimeout bounds ctx unless it carries a session. Session contexts are
// bounded by the transaction itself.
func (s *Store) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

// nextID allocates from the Counters collection outside any session, so
// concurrent transactions never conflict on the counter document.
func (s *Store) nextID(ctx context.Context, sequence string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": sequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", sequence, err)
	}
	return counter.Seq, nil
}

func (s *Store) WithinResourceTx(ctx context.Context, resourceID int64, fn store.TxFunc) error {
	if mongo.SessionFromContext(ctx) != nil {
		if err := s.lockResource(ctx, resourceID); err != nil {
			return err
		}
		return fn(ctx)
	}

	return s.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.lockResource(sessCtx, resourceID); err != nil {
			return err
		}
		return fn(sessCtx)
	})
}

// lockResource bumps lock_version so that any concurrent transaction on the
// same resource hits a write conflict and is retried by the driver.
func (s *Store) lockResource(ctx context.Context, resourceID int64) error {
	res, err := s.resources.UpdateOne(ctx,
		bson.M{"_id": resourceID},
		bson.M{"$inc": bson.M{"lock_version": int64(1)}},
	)
	if err != nil {
		return fmt.Errorf("lock resource %d: %w", resourceID, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrResourceNotFound
	}
	return nil
}

func timestamp(t time.Time) time.Time {
	return model.Normalize(t).UTC()
}
