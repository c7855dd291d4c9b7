// Package conflict decides whether an interval collides with CONFIRMED
// bookings of a resource. It only reads; callers that gate a write pass the
// transaction context they got from store.WithinResourceTx.
package conflict

import (
	"context"
	"errors"

	"reservations/internal/store"
	apperrors "reservations/pkg/errors"
	"reservations/pkg/model"
)

// NoExclusion disables self-exclusion. Booking ids are always positive.
const NoExclusion int64 = 0

type BookingLister interface {
	ListBookingsForResource(ctx context.Context, resourceID int64, filter store.BookingFilter) ([]*model.Booking, error)
}

type Detector struct {
	bookings BookingLister
}

func NewDetector(bookings BookingLister) *Detector {
	return &Detector{bookings: bookings}
}

func (d *Detector) HasConflict(ctx context.Context, resourceID int64, interval model.Interval, excludeBookingID int64) (bool, error) {
	conflicts, err := d.FindConflicts(ctx, resourceID, interval, excludeBookingID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// FindConflicts returns the CONFIRMED bookings overlapping interval, ordered
// by start. Touching bookings are not conflicts.
func (d *Detector) FindConflicts(ctx context.Context, resourceID int64, interval model.Interval, excludeBookingID int64) ([]*model.Booking, error) {
	if err := interval.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error(), map[string]any{
			"start": interval.Start,
			"end":   interval.End,
		})
	}

	candidates, err := d.bookings.ListBookingsForResource(ctx, resourceID, store.BookingFilter{
		Status: model.StatusConfirmed,
		Window: &interval,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			appErr := apperrors.Timeout("Request ended before the conflict check completed")
			appErr.Err = err
			return nil, appErr
		}
		return nil, apperrors.Persistence("failed to load bookings for conflict check", err)
	}

	conflicts := make([]*model.Booking, 0, len(candidates))
	for _, b := range candidates {
		if excludeBookingID != NoExclusion && b.ID == excludeBookingID {
			continue
		}
		// The store filter already narrows by window; re-check so a lax
		// backend can never report a touching booking as a conflict.
		if !b.IsConfirmed() || !b.Interval().Overlaps(interval) {
			continue
		}
		conflicts = append(conflicts, b)
	}
	return conflicts, nil
}
