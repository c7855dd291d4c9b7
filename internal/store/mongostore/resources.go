package mongostore

import (
	"context"
	"errors"
	"fmt"

	"reservations/internal/store"
	"reservations/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type resourceDocument struct {
	model.Resource `bson:",inline"`
	LockVersion    int64 `bson:"lock_version"`
}

func (s *Store) ListResources(ctx context.Context, resourceType string) ([]*model.Resource, error) {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()

	filter := bson.M{}
	if resourceType != "" {
		filter["type"] = resourceType
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.resources.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer cursor.Close(ctx)

	var resources []*model.Resource
	if err := cursor.All(ctx, &resources); err != nil {
		return nil, fmt.Errorf("failed to decode resources: %w", err)
	}
	return resources, nil
}

func (s *Store) GetResource(ctx context.Context, id int64) (*model.Resource, error) {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()

	var r model.Resource
	if err := s.resources.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return &r, nil
}

func (s *Store) InsertResource(ctx context.Context, r *model.Resource) (int64, error) {
	id, err := s.nextID(ctx, "resources")
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	r.ID = id
	r.CreatedAt = timestamp(s.now())
	if _, err := s.resources.InsertOne(ctx, resourceDocument{Resource: *r}); err != nil {
		r.ID = 0
		return 0, fmt.Errorf("failed to insert resource: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateResource(ctx context.Context, r *model.Resource) error {
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	res, err := s.resources.UpdateOne(ctx,
		bson.M{"_id": r.ID},
		bson.M{"$set": bson.M{
			"name":     r.Name,
			"type":     r.Type,
			"capacity": r.Capacity,
			"location": r.Location,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrResourceNotFound
	}
	return nil
}

func (s *Store) DeleteResource(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	res, err := s.resources.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrResourceNotFound
	}
	return nil
}

func (s *Store) CountResources(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()

	n, err := s.resources.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return n, nil
}
