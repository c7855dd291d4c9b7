package mongostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"reservations/internal/store"
	"reservations/pkg/logger"
	"reservations/pkg/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// These tests need a replica set, e.g.
// MONGO_TEST_URI="mongodb://localhost:27017/?replicaSet=rs0".
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	dbName := "reservations_test_" + uuid.NewString()[:8]
	s := New(client, dbName, 5*time.Second, 5*time.Second, logger.Discard())
	require.NoError(t, s.Init(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = client.Database(dbName).Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return s
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func TestInit_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
}

func TestResources_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room := &model.Resource{Name: "Room A", Type: "room", Capacity: 6}
	id, err := s.InsertResource(ctx, room)
	require.NoError(t, err)
	assert.Positive(t, id)

	desk := &model.Resource{Name: "Desk 1", Type: "desk", Capacity: 1}
	_, err = s.InsertResource(ctx, desk)
	require.NoError(t, err)
	assert.Greater(t, desk.ID, room.ID)

	all, err := s.ListResources(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Desk 1", all[0].Name)

	rooms, err := s.ListResources(ctx, "room")
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	room.Capacity = 8
	require.NoError(t, s.UpdateResource(ctx, room))
	got, err := s.GetResource(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Capacity)

	require.NoError(t, s.DeleteResource(ctx, desk.ID))
	_, err = s.GetResource(ctx, desk.ID)
	assert.ErrorIs(t, err, store.ErrResourceNotFound)

	n, err := s.CountResources(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBookings_QueriesAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room := &model.Resource{Name: "Room A", Type: "room"}
	_, err := s.InsertResource(ctx, room)
	require.NoError(t, err)

	first := &model.Booking{ResourceID: room.ID, BookedBy: "alice", Start: at(9, 0), End: at(10, 0), Status: model.StatusConfirmed}
	second := &model.Booking{ResourceID: room.ID, BookedBy: "bob", Start: at(11, 0), End: at(12, 0), Status: model.StatusCancelled}
	_, err = s.InsertBooking(ctx, first)
	require.NoError(t, err)
	_, err = s.InsertBooking(ctx, second)
	require.NoError(t, err)

	confirmed, err := s.ListBookingsForResource(ctx, room.ID, store.BookingFilter{Status: model.StatusConfirmed})
	require.NoError(t, err)
	require.Len(t, confirmed, 1)
	assert.Equal(t, first.ID, confirmed[0].ID)

	window := model.Interval{Start: at(10, 0), End: at(11, 0)}
	touching, err := s.ListBookingsForResource(ctx, room.ID, store.BookingFilter{Window: &window})
	require.NoError(t, err)
	assert.Empty(t, touching)

	history, err := s.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, "Room A", history[0].ResourceName)
	assert.Equal(t, "room", history[0].ResourceType)

	require.NoError(t, s.SetBookingStatus(ctx, first.ID, model.StatusCancelled))
	got, err := s.GetBooking(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.True(t, got.Start.Equal(at(9, 0)))

	n, err := s.DeleteBookingsForResource(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.ErrorIs(t, s.DeleteBooking(ctx, first.ID), store.ErrBookingNotFound)
}

func TestWithinResourceTx_RollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room := &model.Resource{Name: "Room A", Type: "room"}
	_, err := s.InsertResource(ctx, room)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithinResourceTx(ctx, room.ID, func(ctx context.Context) error {
		b := &model.Booking{ResourceID: room.ID, BookedBy: "alice", Start: at(9, 0), End: at(10, 0), Status: model.StatusConfirmed}
		if _, err := s.InsertBooking(ctx, b); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	bookings, err := s.ListBookingsForResource(ctx, room.ID, store.BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, bookings)

	err = s.WithinResourceTx(ctx, 999999, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, store.ErrResourceNotFound)
}

func TestWithinResourceTx_SerializesCheckThenInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room := &model.Resource{Name: "Room A", Type: "room"}
	_, err := s.InsertResource(ctx, room)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithinResourceTx(ctx, room.ID, func(ctx context.Context) error {
				window := model.Interval{Start: at(9, 0), End: at(10, 0)}
				existing, err := s.ListBookingsForResource(ctx, room.ID, store.BookingFilter{
					Status: model.StatusConfirmed,
					Window: &window,
				})
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					return nil
				}
				_, err = s.InsertBooking(ctx, &model.Booking{
					ResourceID: room.ID,
					BookedBy:   fmt.Sprintf("user-%d", i),
					Start:      window.Start,
					End:        window.End,
					Status:     model.StatusConfirmed,
				})
				return err
			})
		}()
	}
	wg.Wait()

	bookings, err := s.ListBookingsForResource(ctx, room.ID, store.BookingFilter{Status: model.StatusConfirmed})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}
