package mongostore

import (
	"context"
	"errors"
	"fmt"

	migrations "reservations/internal/migrations/mongo"
	"reservations/internal/store"
	"reservations/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookingRecordDocument struct {
	model.Booking `bson:",inline"`
	ResourceName  string `bson:"resource_name"`
	ResourceType  string `bson:"resource_type"`
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()

	var b model.Booking
	if err := s.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (s *Store) ListBookings(ctx context.Context) ([]*model.BookingRecord, error) {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         migrations.ResourcesCollection,
			"localField":   "resource_id",
			"foreignField": "_id",
			"as":           "resource",
		}}},
		{{Key: "$unwind", Value: "$resource"}},
		{{Key: "$addFields", Value: bson.M{
			"resource_name": "$resource.name",
			"resource_type": "$resource.type",
		}}},
		{{Key: "$project", Value: bson.M{"resource": 0}}},
	}

	cursor, err := s.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookingRecordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	records := make([]*model.BookingRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, &model.BookingRecord{
			Booking:      d.Booking,
			ResourceName: d.ResourceName,
			ResourceType: d.ResourceType,
		})
	}
	return records, nil
}

func (s *Store) ListBookingsForResource(ctx context.Context, resourceID int64, filter store.BookingFilter) ([]*model.Booking, error) {
	ctx, cancel := s.withTimeout(ctx, s.readTimeout)
	defer cancel()

	query := bson.M{"resource_id": resourceID}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.Window != nil {
		query["start_time"] = bson.M{"$lt": timestamp(filter.Window.End)}
		query["end_time"] = bson.M{"$gt": timestamp(filter.Window.Start)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.bookings.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for resource: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) (int64, error) {
	id, err := s.nextID(ctx, "bookings")
	if err != nil {
		return 0, err
	}

	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	doc := *b
	doc.ID = id
	doc.Start = timestamp(b.Start)
	doc.End = timestamp(b.End)
	doc.CreatedAt = timestamp(s.now())
	if _, err := s.bookings.InsertOne(ctx, &doc); err != nil {
		return 0, fmt.Errorf("failed to insert booking: %w", err)
	}

	b.ID = id
	b.CreatedAt = doc.CreatedAt
	return id, nil
}

func (s *Store) UpdateBooking(ctx context.Context, b *model.Booking) error {
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	res, err := s.bookings.UpdateOne(ctx,
		bson.M{"_id": b.ID},
		bson.M{"$set": bson.M{
			"resource_id": b.ResourceID,
			"booked_by":   b.BookedBy,
			"start_time":  timestamp(b.Start),
			"end_time":    timestamp(b.End),
			"status":      string(b.Status),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrBookingNotFound
	}
	return nil
}

func (s *Store) SetBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	res, err := s.bookings.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return fmt.Errorf("failed to set booking status: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrBookingNotFound
	}
	return nil
}

func (s *Store) DeleteBooking(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	res, err := s.bookings.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrBookingNotFound
	}
	return nil
}

func (s *Store) DeleteBookingsForResource(ctx context.Context, resourceID int64) (int64, error) {
	ctx, cancel := s.withTimeout(ctx, s.writeTimeout)
	defer cancel()

	res, err := s.bookings.DeleteMany(ctx, bson.M{"resource_id": resourceID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings for resource: %w", err)
	}
	return res.DeletedCount, nil
}
