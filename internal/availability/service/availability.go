package service

import (
	"context"
	"errors"
	"iter"
	"time"

	"reservations/internal/conflict"
	"reservations/internal/store"
	"reservations/pkg/config"
	apperrors "reservations/pkg/errors"
	"reservations/pkg/model"
	"reservations/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

// maxParallelChecks bounds the conflict queries a listing runs at once.
const maxParallelChecks = 8

type AvailabilityService interface {
	ResourceStatusNow(ctx context.Context, resourceID int64) (*model.ResourceStatus, error)
	ResourceStatuses(ctx context.Context) ([]*model.ResourceStatus, error)
	ListAvailableResources(ctx context.Context, interval model.Interval, resourceType string) ([]*model.Resource, error)
	ListAvailability(ctx context.Context, interval model.Interval, resourceType string) ([]*model.ResourceAvailability, error)
	FindAvailableSlots(ctx context.Context, resourceID int64, query model.SlotQuery) (iter.Seq[model.Slot], error)
	FindResourceAvailability(ctx context.Context, resourceID int64, interval model.Interval) (*model.ResourceAvailability, error)
}

type availabilityService struct {
	store    store.Store
	detector *conflict.Detector
	cfg      *config.Config
	now      func() time.Time
}

func NewAvailabilityService(st store.Store, detector *conflict.Detector, cfg *config.Config) AvailabilityService {
	return &availabilityService{
		store:    st,
		detector: detector,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *availabilityService) ResourceStatusNow(ctx context.Context, resourceID int64) (*model.ResourceStatus, error) {
	resource, err := s.getResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	return s.statusAt(ctx, resource, model.Normalize(s.now()))
}

func (s *availabilityService) ResourceStatuses(ctx context.Context) ([]*model.ResourceStatus, error) {
	resources, err := s.store.ListResources(ctx, "")
	if err != nil {
		s.cfg.Log.Error("Failed to list resources", "error", err)
		return nil, apperrors.Persistence("Failed to list resources", err)
	}

	now := model.Normalize(s.now())
	statuses := make([]*model.ResourceStatus, len(resources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)
	for i, r := range resources {
		g.Go(func() error {
			status, err := s.statusAt(gctx, r, now)
			if err != nil {
				return err
			}
			statuses[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// statusAt counts CONFIRMED bookings with start <= now < end.
func (s *availabilityService) statusAt(ctx context.Context, resource *model.Resource, now time.Time) (*model.ResourceStatus, error) {
	instant := model.Interval{Start: now, End: now.Add(time.Second)}
	bookings, err := s.store.ListBookingsForResource(ctx, resource.ID, store.BookingFilter{
		Status: model.StatusConfirmed,
		Window: &instant,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to load active bookings", "resource_id", resource.ID, "error", err)
		return nil, apperrors.Persistence("Failed to load active bookings", err)
	}

	active := 0
	for _, b := range bookings {
		if b.IsConfirmed() && b.Interval().Contains(now) {
			active++
		}
	}

	return &model.ResourceStatus{
		ResourceID:         resource.ID,
		Name:               resource.Name,
		IsAvailable:        active == 0,
		ActiveBookingCount: active,
	}, nil
}

func (s *availabilityService) ListAvailableResources(ctx context.Context, interval model.Interval, resourceType string) ([]*model.Resource, error) {
	all, err := s.ListAvailability(ctx, interval, resourceType)
	if err != nil {
		return nil, err
	}

	available := make([]*model.Resource, 0, len(all))
	for _, a := range all {
		if a.IsAvailable {
			r := a.Resource
			available = append(available, &r)
		}
	}
	return available, nil
}

// ListAvailability reports every resource of the given type, ordered by name,
// with whether interval is free on it. An empty type matches all resources.
func (s *availabilityService) ListAvailability(ctx context.Context, interval model.Interval, resourceType string) ([]*model.ResourceAvailability, error) {
	interval = model.NewInterval(interval.Start, interval.End)
	if err := validateInterval(interval); err != nil {
		return nil, err
	}

	resourceType = sanitizer.SanitizeType(resourceType)
	resources, err := s.store.ListResources(ctx, resourceType)
	if err != nil {
		s.cfg.Log.Error("Failed to list resources", "type", resourceType, "error", err)
		return nil, apperrors.Persistence("Failed to list resources", err)
	}

	results := make([]*model.ResourceAvailability, len(resources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)
	for i, r := range resources {
		g.Go(func() error {
			conflicts, err := s.detector.FindConflicts(gctx, r.ID, interval, conflict.NoExclusion)
			if err != nil {
				return err
			}
			results[i] = &model.ResourceAvailability{
				Resource:            *r,
				IsAvailable:         len(conflicts) == 0,
				ConflictingBookings: conflicts,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to check availability", "error", err)
		return nil, err
	}
	return results, nil
}

func (s *availabilityService) FindResourceAvailability(ctx context.Context, resourceID int64, interval model.Interval) (*model.ResourceAvailability, error) {
	interval = model.NewInterval(interval.Start, interval.End)
	if err := validateInterval(interval); err != nil {
		return nil, err
	}

	resource, err := s.getResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.detector.FindConflicts(ctx, resourceID, interval, conflict.NoExclusion)
	if err != nil {
		return nil, err
	}

	return &model.ResourceAvailability{
		Resource:            *resource,
		IsAvailable:         len(conflicts) == 0,
		ConflictingBookings: conflicts,
	}, nil
}

// FindAvailableSlots loads the day's CONFIRMED bookings once and returns a
// lazy sequence over the free slots within business hours.
func (s *availabilityService) FindAvailableSlots(ctx context.Context, resourceID int64, query model.SlotQuery) (iter.Seq[model.Slot], error) {
	if query.SlotDuration <= 0 {
		return nil, apperrors.Validation("Slot duration must be positive", map[string]any{
			"slot_duration": query.SlotDuration.String(),
		})
	}
	if query.BusinessStart < 0 || query.BusinessEnd > 24*time.Hour || query.BusinessStart >= query.BusinessEnd {
		return nil, apperrors.Validation("Business hours must satisfy start < end within one day", map[string]any{
			"business_start": query.BusinessStart.String(),
			"business_end":   query.BusinessEnd.String(),
		})
	}

	if _, err := s.getResource(ctx, resourceID); err != nil {
		return nil, err
	}

	window := query.Window()
	bookings, err := s.store.ListBookingsForResource(ctx, resourceID, store.BookingFilter{
		Status: model.StatusConfirmed,
		Window: &window,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for slots", "resource_id", resourceID, "error", err)
		return nil, apperrors.Persistence("Failed to load bookings", err)
	}

	return FreeSlots(window, query.SlotDuration, bookings), nil
}

func (s *availabilityService) getResource(ctx context.Context, resourceID int64) (*model.Resource, error) {
	resource, err := s.store.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, store.ErrResourceNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", resourceID)
		}
		s.cfg.Log.Error("Failed to get resource", "resource_id", resourceID, "error", err)
		return nil, apperrors.Persistence("Failed to get resource", err)
	}
	return resource, nil
}

func validateInterval(interval model.Interval) error {
	if err := interval.Validate(); err != nil {
		return apperrors.Validation(err.Error(), map[string]any{
			"start": interval.Start,
			"end":   interval.End,
		})
	}
	return nil
}
