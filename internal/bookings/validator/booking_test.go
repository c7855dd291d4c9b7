package validator

import (
	"errors"
	"testing"
	"time"

	"reservations/pkg/logger"
	"reservations/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func fields(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	out := make([]string, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	valid := model.BookingCreate{ResourceID: 1, BookedBy: "alice", Start: "2026-03-02 09:00", End: "2026-03-02 10:00"}
	require.NoError(t, v.Validate(&valid))

	tests := []struct {
		name   string
		mutate func(*model.BookingCreate)
		field  string
	}{
		{name: "missing resource", mutate: func(b *model.BookingCreate) { b.ResourceID = 0 }, field: "ResourceID"},
		{name: "negative resource", mutate: func(b *model.BookingCreate) { b.ResourceID = -3 }, field: "ResourceID"},
		{name: "missing booked_by", mutate: func(b *model.BookingCreate) { b.BookedBy = "" }, field: "BookedBy"},
		{name: "iso start", mutate: func(b *model.BookingCreate) { b.Start = "2026-03-02T09:00:00Z" }, field: "Start"},
		{name: "missing end", mutate: func(b *model.BookingCreate) { b.End = "" }, field: "End"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			assert.Contains(t, fields(t, v.Validate(&req)), tt.field)
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := NewBookingValidator(logger.Discard())

	require.NoError(t, v.ValidateUpdate(&model.BookingUpdate{Start: ptr("2026-03-02 09:00")}))
	require.NoError(t, v.ValidateUpdate(&model.BookingUpdate{Status: ptr(model.StatusCancelled)}))

	assert.Contains(t, fields(t, v.ValidateUpdate(&model.BookingUpdate{})), "BookingUpdate")
	assert.Contains(t, fields(t, v.ValidateUpdate(&model.BookingUpdate{Status: ptr(model.BookingStatus("PENDING"))})), "Status")
	assert.Contains(t, fields(t, v.ValidateUpdate(&model.BookingUpdate{End: ptr("tomorrow")})), "End")
}

func TestValidateInterval(t *testing.T) {
	v := NewBookingValidator(logger.Discard())
	start, err := model.ParseTimestamp("2026-03-02 09:00", nil)
	require.NoError(t, err)

	assert.Error(t, v.ValidateInterval(model.Interval{Start: start, End: start}))
	assert.Error(t, v.ValidateInterval(model.Interval{Start: start.Add(time.Minute), End: start}))
	assert.NoError(t, v.ValidateInterval(model.Interval{Start: start, End: start.Add(time.Hour)}))
}
