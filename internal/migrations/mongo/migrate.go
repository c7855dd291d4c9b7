package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"reservations/internal/migrations/mongo/validators"
	"reservations/pkg/lock"
	"reservations/pkg/logger"
)

const (
	ResourcesCollection = "Resources"
	BookingsCollection  = "Bookings"
	CountersCollection  = "Counters"
)

var (
	ResourcesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "name", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "resource_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "start_time", Value: -1}}},
	}

	LeasesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

type Collection struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections is every collection the service reads or writes.
var Collections = map[string]Collection{
	ResourcesCollection: {
		Indexes:   ResourcesIndexes,
		Validator: validators.ResourceValidator,
	},
	BookingsCollection: {
		Indexes:   BookingsIndexes,
		Validator: validators.BookingValidator,
	},
	CountersCollection: {},
	lock.CollectionName: {
		Indexes:   LeasesIndexes,
		Validator: validators.LeaseValidator,
	},
}

// sequences maps counter ids to the collection whose _id they allocate.
var sequences = map[string]string{
	"resources": ResourcesCollection,
	"bookings":  BookingsCollection,
}

// RunMigration creates collections, validators, indexes and counters. It is
// idempotent and must run outside any transaction.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, name := range collectionNames() {
		def := Collections[name]
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	if err := ensureCounters(ctx, db); err != nil {
		return fmt.Errorf("failed to ensure counters: %w", err)
	}

	log.Info("All migrations applied successfully")
	return nil
}

// Verify reports every registered collection missing from db.
func Verify(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	var errs []error
	for _, name := range collectionNames() {
		if !present[name] {
			errs = append(errs, fmt.Errorf("collection %s is missing", name))
		}
	}
	return errors.Join(errs...)
}

func collectionNames() []string {
	names := make([]string, 0, len(Collections))
	for name := range Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	_, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	return err
}

// ensureCounters raises each counter to at least the highest _id already
// stored, so ids stay unique after imports or restores.
func ensureCounters(ctx context.Context, db *mongo.Database) error {
	counters := db.Collection(CountersCollection)
	for counter, collection := range sequences {
		var top struct {
			ID int64 `bson:"_id"`
		}
		opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.M{"_id": 1})
		err := db.Collection(collection).FindOne(ctx, bson.M{}, opts).Decode(&top)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}

		_, err = counters.UpdateOne(ctx,
			bson.M{"_id": counter},
			bson.M{"$max": bson.M{"seq": top.ID}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
