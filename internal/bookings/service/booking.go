package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	bookingserrors "reservations/internal/bookings/errors"
	"reservations/internal/bookings/events"
	"reservations/internal/bookings/validator"
	"reservations/internal/conflict"
	"reservations/internal/store"
	"reservations/pkg/config"
	apperrors "reservations/pkg/errors"
	"reservations/pkg/lock"
	"reservations/pkg/model"
	"reservations/pkg/sanitizer"
)

type BookingService interface {
	Create(ctx context.Context, req *model.BookingCreate) (*model.Booking, error)
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	History(ctx context.Context) ([]*model.BookingRecord, error)
	ListForResource(ctx context.Context, resourceID int64) ([]*model.Booking, error)
	Update(ctx context.Context, id int64, updates *model.BookingUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, id int64) (*model.Booking, error)
	Delete(ctx context.Context, id int64) error
}

type bookingService struct {
	store     store.Store
	detector  *conflict.Detector
	locker    lock.Locker
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	st store.Store,
	detector *conflict.Detector,
	locker lock.Locker,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		store:     st,
		detector:  detector,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Create books an interval on a resource. The conflict check and the insert
// run in one transaction scoped to the resource, so two racing requests for
// the same slot cannot both succeed.
func (s *bookingService) Create(ctx context.Context, req *model.BookingCreate) (*model.Booking, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Booking request cannot be empty")
	}

	req.BookedBy = sanitizer.SanitizeName(req.BookedBy)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	interval, err := s.parseInterval(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		ResourceID: req.ResourceID,
		BookedBy:   req.BookedBy,
		Start:      interval.Start,
		End:        interval.End,
		Status:     model.StatusConfirmed,
	}

	err = s.withResource(ctx, booking.ResourceID, func(txCtx context.Context) error {
		if err := s.ensureNoConflict(txCtx, booking.ResourceID, interval, conflict.NoExclusion); err != nil {
			return err
		}
		_, err := s.store.InsertBooking(txCtx, booking)
		return err
	})
	if err != nil {
		return nil, s.mapError(err, "create", 0, booking.ResourceID)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"resource_id", booking.ResourceID,
		"start", booking.Start,
		"end", booking.End,
	)
	s.publisher.Publish(ctx, events.BookingCreated, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Booking ID must be a positive integer")
	}

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "retrieve", id, 0)
	}
	return booking, nil
}

func (s *bookingService) History(ctx context.Context) ([]*model.BookingRecord, error) {
	records, err := s.store.ListBookings(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list booking history", "error", err)
		return nil, apperrors.Persistence("Failed to retrieve booking history", err)
	}
	return records, nil
}

func (s *bookingService) ListForResource(ctx context.Context, resourceID int64) ([]*model.Booking, error) {
	if resourceID <= 0 {
		return nil, apperrors.InvalidInput("Resource ID must be a positive integer")
	}
	if _, err := s.store.GetResource(ctx, resourceID); err != nil {
		return nil, s.mapError(err, "list", 0, resourceID)
	}

	bookings, err := s.store.ListBookingsForResource(ctx, resourceID, store.BookingFilter{})
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings for resource", "resource_id", resourceID, "error", err)
		return nil, apperrors.Persistence("Failed to retrieve bookings", err)
	}
	return bookings, nil
}

// Update rewrites a CONFIRMED booking. The merged interval is re-checked
// against the target resource with the booking itself excluded. Setting the
// status to CANCELLED skips the check.
func (s *bookingService) Update(ctx context.Context, id int64, updates *model.BookingUpdate) (*model.Booking, error) {
	if updates == nil {
		return nil, apperrors.InvalidInput("Booking update cannot be empty")
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsConfirmed() {
		return nil, cancelledError(id)
	}

	target := existing.ResourceID
	if updates.ResourceID != nil {
		target = *updates.ResourceID
	}

	var updated *model.Booking
	err = s.withResource(ctx, target, func(txCtx context.Context) error {
		current, err := s.store.GetBooking(txCtx, id)
		if err != nil {
			return err
		}
		if !current.IsConfirmed() {
			return cancelledError(id)
		}
		if updates.ResourceID == nil && current.ResourceID != target {
			return concurrentMoveError(id)
		}

		merged, err := s.merge(current, updates)
		if err != nil {
			return err
		}
		if merged.IsConfirmed() {
			if err := s.ensureNoConflict(txCtx, merged.ResourceID, merged.Interval(), id); err != nil {
				return err
			}
		}
		if err := s.store.UpdateBooking(txCtx, merged); err != nil {
			return err
		}
		updated = merged
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "update", id, target)
	}

	eventType := events.BookingUpdated
	if !updated.IsConfirmed() {
		eventType = events.BookingCancelled
	}
	s.cfg.Log.Info("Booking updated successfully", "id", id, "resource_id", updated.ResourceID, "status", updated.Status)
	s.publisher.Publish(ctx, eventType, updated)
	return updated, nil
}

// Cancel marks a booking CANCELLED and frees its slot. Cancelling twice is
// not an error; there is no way back to CONFIRMED.
func (s *bookingService) Cancel(ctx context.Context, id int64) (*model.Booking, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsConfirmed() {
		return existing, nil
	}

	var cancelled *model.Booking
	var changed bool
	err = s.withResource(ctx, existing.ResourceID, func(txCtx context.Context) error {
		changed = false
		current, err := s.store.GetBooking(txCtx, id)
		if err != nil {
			return err
		}
		if current.ResourceID != existing.ResourceID {
			return concurrentMoveError(id)
		}
		if !current.IsConfirmed() {
			cancelled = current
			return nil
		}
		if err := s.store.SetBookingStatus(txCtx, id, model.StatusCancelled); err != nil {
			return err
		}
		current.Status = model.StatusCancelled
		cancelled = current
		changed = true
		return nil
	})
	if err != nil {
		return nil, s.mapError(err, "cancel", id, existing.ResourceID)
	}

	if changed {
		s.cfg.Log.Info("Booking cancelled successfully", "id", id, "resource_id", cancelled.ResourceID)
		s.publisher.Publish(ctx, events.BookingCancelled, cancelled)
	}
	return cancelled, nil
}

// Delete removes a booking regardless of status.
func (s *bookingService) Delete(ctx context.Context, id int64) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.withResource(ctx, existing.ResourceID, func(txCtx context.Context) error {
		if err := s.store.DeleteBooking(txCtx, id); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return s.mapError(err, "delete", id, existing.ResourceID)
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id, "resource_id", existing.ResourceID)
	s.publisher.Publish(ctx, events.BookingDeleted, existing)
	return nil
}

// --- Helpers ---

// withResource holds the advisory lease, if one can be had, around the
// resource transaction. The transaction stays the authority.
func (s *bookingService) withResource(ctx context.Context, resourceID int64, fn store.TxFunc) error {
	lease, err := s.locker.Acquire(ctx, leaseKey(resourceID))
	switch {
	case err == nil:
		defer s.locker.Release(lease)
	case errors.Is(err, lock.ErrWaitTimeout):
		s.cfg.Log.Warn("Timed out waiting for resource lease", "resource_id", resourceID)
		return apperrors.Timeout("Resource is busy, please retry")
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		s.cfg.Log.Warn("Resource lease unavailable, continuing without it", "resource_id", resourceID, "error", err)
	}

	return s.store.WithinResourceTx(ctx, resourceID, fn)
}

func leaseKey(resourceID int64) string {
	return "resource:" + strconv.FormatInt(resourceID, 10)
}

func (s *bookingService) ensureNoConflict(ctx context.Context, resourceID int64, interval model.Interval, exclude int64) error {
	conflicts, err := s.detector.FindConflicts(ctx, resourceID, interval, exclude)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}

	appErr := apperrors.ConflictWith(
		fmt.Sprintf("Booking time conflicts with %d existing booking(s)", len(conflicts)),
		"conflicting_bookings",
		model.NewBookingViews(conflicts, s.cfg.Location),
	)
	appErr.Err = bookingserrors.ErrTimeConflict
	return appErr
}

func (s *bookingService) parseInterval(startStr, endStr string) (model.Interval, error) {
	start, err := model.ParseTimestamp(startStr, s.cfg.Location)
	if err != nil {
		return model.Interval{}, apperrors.Validation("Invalid start", map[string]any{"error": err.Error()})
	}
	end, err := model.ParseTimestamp(endStr, s.cfg.Location)
	if err != nil {
		return model.Interval{}, apperrors.Validation("Invalid end", map[string]any{"error": err.Error()})
	}

	interval := model.NewInterval(start, end)
	if err := s.validator.ValidateInterval(interval); err != nil {
		s.cfg.Log.Warn("Booking interval rejected", "start", startStr, "end", endStr)
		return model.Interval{}, apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
			"start": startStr,
			"end":   endStr,
		})
	}
	return interval, nil
}

func (s *bookingService) merge(current *model.Booking, updates *model.BookingUpdate) (*model.Booking, error) {
	merged := *current

	if updates.ResourceID != nil {
		merged.ResourceID = *updates.ResourceID
	}
	if updates.Status != nil {
		merged.Status = *updates.Status
	}

	startStr := model.FormatTimestamp(current.Start, s.cfg.Location)
	endStr := model.FormatTimestamp(current.End, s.cfg.Location)
	if updates.Start != nil {
		startStr = *updates.Start
	}
	if updates.End != nil {
		endStr = *updates.End
	}
	if updates.Start != nil || updates.End != nil {
		interval, err := s.parseInterval(startStr, endStr)
		if err != nil {
			return nil, err
		}
		merged.Start, merged.End = interval.Start, interval.End
	}

	return &merged, nil
}

// mapError turns store and context errors into AppErrors. bookingID and
// resourceID name the missing record on not-found and may be zero.
func (s *bookingService) mapError(err error, op string, bookingID, resourceID int64) error {
	if apperrors.IsAppError(err) {
		appErr := apperrors.AsAppError(err)
		if appErr.Code == apperrors.CodePersistence || appErr.Code == apperrors.CodeInternal {
			s.cfg.Log.Error("Failed to "+op+" booking", "id", bookingID, "resource_id", resourceID, "error", appErr)
		}
		return appErr
	}

	switch {
	case errors.Is(err, store.ErrBookingNotFound):
		return apperrors.NotFoundWithID("Booking", bookingID)
	case errors.Is(err, store.ErrResourceNotFound):
		return apperrors.NotFoundWithID("Resource", resourceID)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.cfg.Log.Warn("Booking request aborted", "operation", op, "id", bookingID, "error", err)
		return apperrors.Timeout("Request ended before the booking " + op + " completed")
	}

	s.cfg.Log.Error("Failed to "+op+" booking", "id", bookingID, "resource_id", resourceID, "error", err)
	return apperrors.Persistence("Failed to "+op+" booking", err)
}

func cancelledError(id int64) error {
	appErr := apperrors.Validation("Cancelled bookings cannot be updated", map[string]any{
		"id":     id,
		"status": model.StatusCancelled,
	})
	appErr.Err = bookingserrors.ErrCancelled
	return appErr
}

func concurrentMoveError(id int64) error {
	appErr := apperrors.Conflict("Booking was modified concurrently, please retry")
	appErr.Err = bookingserrors.ErrConcurrentMove
	return appErr.WithDetails(map[string]any{"id": id})
}
