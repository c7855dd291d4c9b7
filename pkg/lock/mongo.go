package lock

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Resource_locks"

type leaseDocument struct {
	ID        string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

type mongoBackend struct {
	collection *mongo.Collection
}

// NewMongoBackend stores leases in the Resource_locks collection. A duplicate
// _id means the lease is held; an expired holder is taken over in place.
func NewMongoBackend(db *mongo.Database) Backend {
	return &mongoBackend{collection: db.Collection(CollectionName)}
}

func (b *mongoBackend) TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	now := time.Now().UTC()
	doc := leaseDocument{
		ID:        key,
		Owner:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := b.collection.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to insert lease: %w", err)
	}

	// The TTL monitor runs once a minute, so expired leases can linger.
	res, err := b.collection.UpdateOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"owner": token, "expires_at": doc.ExpiresAt, "created_at": now}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to take over expired lease: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (b *mongoBackend) Release(ctx context.Context, key, token string) error {
	_, err := b.collection.DeleteOne(ctx, bson.M{"_id": key, "owner": token})
	return err
}
