package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reservations/pkg/config"
	apperrors "reservations/pkg/errors"
	"reservations/pkg/logger"
	"reservations/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBookingService struct {
	CreateFunc          func(ctx context.Context, req *model.BookingCreate) (*model.Booking, error)
	GetByIDFunc         func(ctx context.Context, id int64) (*model.Booking, error)
	HistoryFunc         func(ctx context.Context) ([]*model.BookingRecord, error)
	ListForResourceFunc func(ctx context.Context, resourceID int64) ([]*model.Booking, error)
	UpdateFunc          func(ctx context.Context, id int64, updates *model.BookingUpdate) (*model.Booking, error)
	CancelFunc          func(ctx context.Context, id int64) (*model.Booking, error)
	DeleteFunc          func(ctx context.Context, id int64) error
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingCreate) (*model.Booking, error) {
	return m.CreateFunc(ctx, req)
}

func (m *mockBookingService) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockBookingService) History(ctx context.Context) ([]*model.BookingRecord, error) {
	return m.HistoryFunc(ctx)
}

func (m *mockBookingService) ListForResource(ctx context.Context, resourceID int64) ([]*model.Booking, error) {
	return m.ListForResourceFunc(ctx, resourceID)
}

func (m *mockBookingService) Update(ctx context.Context, id int64, updates *model.BookingUpdate) (*model.Booking, error) {
	return m.UpdateFunc(ctx, id, updates)
}

func (m *mockBookingService) Cancel(ctx context.Context, id int64) (*model.Booking, error) {
	return m.CancelFunc(ctx, id)
}

func (m *mockBookingService) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

var nine = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func sampleBooking(id int64) *model.Booking {
	return &model.Booking{ID: id, ResourceID: 1, BookedBy: "alice", Start: nine, End: nine.Add(time.Hour), Status: model.StatusConfirmed}
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	cfg := &config.Config{Log: logger.Discard(), Location: time.UTC}
	router := httprouter.New()
	NewBookingHandler(svc, cfg).RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreate(t *testing.T) {
	svc := &mockBookingService{
		CreateFunc: func(_ context.Context, req *model.BookingCreate) (*model.Booking, error) {
			assert.Equal(t, int64(1), req.ResourceID)
			assert.Equal(t, "2026-03-02 09:00", req.Start)
			return sampleBooking(5), nil
		},
	}

	rec := do(newRouter(svc), http.MethodPost, "/api/v1/bookings",
		`{"resource_id":1,"booked_by":"alice","start":"2026-03-02 09:00","end":"2026-03-02 10:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data model.BookingView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body.Data.ID)
	assert.Equal(t, "2026-03-02 09:00", body.Data.Start)
	assert.Equal(t, "2026-03-02 10:00", body.Data.End)
}

func TestCreate_Errors(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		rec := do(newRouter(&mockBookingService{}), http.MethodPost, "/api/v1/bookings", `{"resource_id":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conflict carries offending bookings", func(t *testing.T) {
		svc := &mockBookingService{
			CreateFunc: func(context.Context, *model.BookingCreate) (*model.Booking, error) {
				return nil, apperrors.ConflictWith("Booking time conflicts with 1 existing booking(s)", "conflicting_bookings",
					model.NewBookingViews([]*model.Booking{sampleBooking(2)}, time.UTC))
			},
		}
		rec := do(newRouter(svc), http.MethodPost, "/api/v1/bookings",
			`{"resource_id":1,"booked_by":"bob","start":"2026-03-02 09:30","end":"2026-03-02 10:30"}`)
		require.Equal(t, http.StatusConflict, rec.Code)

		var body struct {
			Code    string `json:"code"`
			Details struct {
				ConflictingBookings []model.BookingView `json:"conflicting_bookings"`
			} `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, apperrors.CodeConflict, body.Code)
		require.Len(t, body.Details.ConflictingBookings, 1)
		assert.Equal(t, int64(2), body.Details.ConflictingBookings[0].ID)
	})

	t.Run("validation", func(t *testing.T) {
		svc := &mockBookingService{
			CreateFunc: func(context.Context, *model.BookingCreate) (*model.Booking, error) {
				return nil, apperrors.Validation("Booking validation failed", nil)
			},
		}
		rec := do(newRouter(svc), http.MethodPost, "/api/v1/bookings", `{}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestGetByID(t *testing.T) {
	svc := &mockBookingService{
		GetByIDFunc: func(_ context.Context, id int64) (*model.Booking, error) {
			if id == 5 {
				return sampleBooking(5), nil
			}
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
	}
	router := newRouter(svc)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/bookings/5", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/v1/bookings/6", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/v1/bookings/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/v1/bookings/-1", "").Code)
}

func TestHistory(t *testing.T) {
	svc := &mockBookingService{
		HistoryFunc: func(context.Context) ([]*model.BookingRecord, error) {
			return []*model.BookingRecord{{Booking: *sampleBooking(1), ResourceName: "Room A", ResourceType: "ROOM"}}, nil
		},
	}

	rec := do(newRouter(svc), http.MethodGet, "/api/v1/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []model.BookingView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Room A", body.Data[0].ResourceName)
	assert.Equal(t, "ROOM", body.Data[0].ResourceType)
}

func TestUpdateCancelDelete(t *testing.T) {
	svc := &mockBookingService{
		UpdateFunc: func(_ context.Context, id int64, updates *model.BookingUpdate) (*model.Booking, error) {
			require.NotNil(t, updates.End)
			assert.Equal(t, "2026-03-02 11:00", *updates.End)
			b := sampleBooking(id)
			b.End = nine.Add(2 * time.Hour)
			return b, nil
		},
		CancelFunc: func(_ context.Context, id int64) (*model.Booking, error) {
			b := sampleBooking(id)
			b.Status = model.StatusCancelled
			return b, nil
		},
		DeleteFunc: func(context.Context, int64) error { return nil },
	}
	router := newRouter(svc)

	rec := do(router, http.MethodPatch, "/api/v1/bookings/3", `{"end":"2026-03-02 11:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"end":"2026-03-02 11:00"`)

	rec = do(router, http.MethodPost, "/api/v1/bookings/3/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CANCELLED"`)

	rec = do(router, http.MethodDelete, "/api/v1/bookings/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListForResource(t *testing.T) {
	svc := &mockBookingService{
		ListForResourceFunc: func(_ context.Context, resourceID int64) ([]*model.Booking, error) {
			assert.Equal(t, int64(4), resourceID)
			return nil, nil
		},
	}

	rec := do(newRouter(svc), http.MethodGet, "/api/v1/resources/4/bookings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())
}
