package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"reservations/internal/resources/validator"
	"reservations/internal/store/sqlstore"
	"reservations/pkg/client"
	"reservations/pkg/config"
	apperrors "reservations/pkg/errors"
	"reservations/pkg/logger"
	"reservations/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (ResourceService, *sqlstore.Store) {
	t.Helper()
	db, err := client.OpenSQLite(filepath.Join(t.TempDir(), "resources.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st := sqlstore.New(db, logger.Discard())
	require.NoError(t, st.Init(context.Background()))

	log := logger.Discard()
	cfg := &config.Config{Log: log, Location: time.UTC}
	return NewResourceService(st, validator.NewResourceValidator(log), cfg), st
}

func ptr[T any](v T) *T { return &v }

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.True(t, apperrors.IsAppError(err), "expected AppError, got %v", err)
	assert.Equal(t, code, apperrors.AsAppError(err).Code)
}

func book(t *testing.T, st *sqlstore.Store, resourceID int64, status model.BookingStatus) {
	t.Helper()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	b := &model.Booking{
		ResourceID: resourceID,
		BookedBy:   "alice",
		Start:      start,
		End:        start.Add(time.Hour),
		Status:     status,
	}
	_, err := st.InsertBooking(context.Background(), b)
	require.NoError(t, err)
}

func TestResourceService_Create(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, &model.Resource{Name: "  Conference   Room A ", Type: "meeting room", Capacity: 10, Location: " Floor 1 "})
	require.NoError(t, err)
	assert.Positive(t, r.ID)
	assert.Equal(t, "Conference Room A", r.Name)
	assert.Equal(t, "MEETING_ROOM", r.Type)
	assert.Equal(t, "Floor 1", r.Location)

	got, err := svc.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Name, got.Name)
}

func TestResourceService_Create_Invalid(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		resource *model.Resource
		code     string
	}{
		{"nil", nil, apperrors.CodeInvalidInput},
		{"blank name", &model.Resource{Name: "   ", Type: "ROOM"}, apperrors.CodeValidation},
		{"blank type", &model.Resource{Name: "Room", Type: "!!"}, apperrors.CodeValidation},
		{"negative capacity", &model.Resource{Name: "Room", Type: "ROOM", Capacity: -1}, apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.resource)
			assertCode(t, err, tt.code)
		})
	}
}

func TestResourceService_GetByID(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.GetByID(context.Background(), 0)
	assertCode(t, err, apperrors.CodeInvalidInput)

	_, err = svc.GetByID(context.Background(), 999)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestResourceService_List(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	for _, r := range []*model.Resource{
		{Name: "Projector", Type: "EQUIPMENT", Capacity: 1},
		{Name: "Room B", Type: "ROOM", Capacity: 6},
		{Name: "Room A", Type: "ROOM", Capacity: 4},
	} {
		_, err := svc.Create(ctx, r)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Projector", all[0].Name)
	assert.Equal(t, "Room A", all[1].Name)

	rooms, err := svc.List(ctx, "room")
	require.NoError(t, err)
	assert.Len(t, rooms, 2)

	none, err := svc.List(ctx, "VENUE")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestResourceService_Update(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	r, err := svc.Create(ctx, &model.Resource{Name: "Room A", Type: "ROOM", Capacity: 4})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, r.ID, &model.ResourceUpdate{Capacity: ptr(8), Location: ptr("Floor 3")})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.Capacity)
	assert.Equal(t, "Floor 3", updated.Location)
	assert.Equal(t, "Room A", updated.Name)

	got, err := svc.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Capacity)

	_, err = svc.Update(ctx, r.ID, &model.ResourceUpdate{})
	assertCode(t, err, apperrors.CodeValidation)

	_, err = svc.Update(ctx, r.ID, &model.ResourceUpdate{Name: ptr("  ")})
	assertCode(t, err, apperrors.CodeValidation)

	_, err = svc.Update(ctx, 999, &model.ResourceUpdate{Capacity: ptr(2)})
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestResourceService_Delete(t *testing.T) {
	t.Run("refused with confirmed bookings", func(t *testing.T) {
		svc, st := setup(t)
		ctx := context.Background()

		r, err := svc.Create(ctx, &model.Resource{Name: "Room A", Type: "ROOM"})
		require.NoError(t, err)
		book(t, st, r.ID, model.StatusConfirmed)

		err = svc.Delete(ctx, r.ID)
		assertCode(t, err, apperrors.CodeConflict)
		assert.Contains(t, apperrors.AsAppError(err).Details, "conflicting_bookings")

		_, err = svc.GetByID(ctx, r.ID)
		require.NoError(t, err)
	})

	t.Run("removes cancelled history", func(t *testing.T) {
		svc, st := setup(t)
		ctx := context.Background()

		r, err := svc.Create(ctx, &model.Resource{Name: "Room A", Type: "ROOM"})
		require.NoError(t, err)
		book(t, st, r.ID, model.StatusCancelled)

		require.NoError(t, svc.Delete(ctx, r.ID))

		_, err = svc.GetByID(ctx, r.ID)
		assertCode(t, err, apperrors.CodeNotFound)

		records, err := st.ListBookings(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("missing resource", func(t *testing.T) {
		svc, _ := setup(t)
		assertCode(t, svc.Delete(context.Background(), 42), apperrors.CodeNotFound)
		assertCode(t, svc.Delete(context.Background(), -1), apperrors.CodeInvalidInput)
	})
}

func TestResourceService_Seed(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	n, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(sampleResources), n)

	n, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	count, err := st.CountResources(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(sampleResources)), count)

}
