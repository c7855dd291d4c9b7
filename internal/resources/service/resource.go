package service

import (
	"context"
	"errors"
	"fmt"

	"reservations/internal/resources/validator"
	"reservations/internal/store"
	"reservations/pkg/config"
	apperrors "reservations/pkg/errors"
	"reservations/pkg/model"
	"reservations/pkg/sanitizer"
)

type ResourceService interface {
	Create(ctx context.Context, r *model.Resource) (*model.Resource, error)
	GetByID(ctx context.Context, id int64) (*model.Resource, error)
	List(ctx context.Context, resourceType string) ([]*model.Resource, error)
	Update(ctx context.Context, id int64, updates *model.ResourceUpdate) (*model.Resource, error)
	Delete(ctx context.Context, id int64) error
	Seed(ctx context.Context) (int, error)
}

type resourceService struct {
	store     store.Store
	validator *validator.ResourceValidator
	cfg       *config.Config
}

func NewResourceService(st store.Store, validator *validator.ResourceValidator, cfg *config.Config) ResourceService {
	return &resourceService{
		store:     st,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *resourceService) Create(ctx context.Context, r *model.Resource) (*model.Resource, error) {
	if r == nil {
		return nil, apperrors.InvalidInput("Resource cannot be empty")
	}
	s.sanitize(r)

	if err := s.validator.Validate(r); err != nil {
		s.cfg.Log.Warn("Resource validation failed", "name", r.Name, "type", r.Type, "error", err)
		return nil, apperrors.Validation("Resource validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	r.ID = 0
	if _, err := s.store.InsertResource(ctx, r); err != nil {
		s.cfg.Log.Error("Failed to create resource", "name", r.Name, "error", err)
		return nil, apperrors.Persistence("Failed to create resource", err)
	}

	s.cfg.Log.Info("Resource created successfully", "id", r.ID, "name", r.Name, "type", r.Type)
	return r, nil
}

func (s *resourceService) GetByID(ctx context.Context, id int64) (*model.Resource, error) {
	if id <= 0 {
		return nil, apperrors.InvalidInput("Resource ID must be a positive integer")
	}

	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrResourceNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		s.cfg.Log.Error("Failed to get resource by ID", "id", id, "error", err)
		return nil, apperrors.Persistence("Failed to retrieve resource", err)
	}
	return r, nil
}

// List returns resources ordered by name. An empty type matches all.
func (s *resourceService) List(ctx context.Context, resourceType string) ([]*model.Resource, error) {
	resources, err := s.store.ListResources(ctx, sanitizer.SanitizeType(resourceType))
	if err != nil {
		s.cfg.Log.Error("Failed to list resources", "type", resourceType, "error", err)
		return nil, apperrors.Persistence("Failed to retrieve resources", err)
	}
	if resources == nil {
		resources = []*model.Resource{}
	}
	return resources, nil
}

func (s *resourceService) Update(ctx context.Context, id int64, updates *model.ResourceUpdate) (*model.Resource, error) {
	if updates == nil {
		return nil, apperrors.InvalidInput("Resource update cannot be empty")
	}
	s.sanitizeUpdate(updates)
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Resource update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := mergeResourceUpdates(existing, updates)
	if err := s.store.UpdateResource(ctx, merged); err != nil {
		if errors.Is(err, store.ErrResourceNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		s.cfg.Log.Error("Failed to update resource", "id", id, "error", err)
		return nil, apperrors.Persistence("Failed to update resource", err)
	}

	s.cfg.Log.Info("Resource updated successfully", "id", id)
	return merged, nil
}

// Delete refuses while CONFIRMED bookings exist. Otherwise the resource and
// its cancelled history go in one transaction.
func (s *resourceService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.InvalidInput("Resource ID must be a positive integer")
	}

	var removed int64
	err := s.store.WithinResourceTx(ctx, id, func(txCtx context.Context) error {
		confirmed, err := s.store.ListBookingsForResource(txCtx, id, store.BookingFilter{Status: model.StatusConfirmed})
		if err != nil {
			return err
		}
		if len(confirmed) > 0 {
			return apperrors.ConflictWith(
				fmt.Sprintf("Resource has %d confirmed booking(s)", len(confirmed)),
				"conflicting_bookings",
				model.NewBookingViews(confirmed, s.cfg.Location),
			)
		}

		if removed, err = s.store.DeleteBookingsForResource(txCtx, id); err != nil {
			return err
		}
		return s.store.DeleteResource(txCtx, id)
	})
	if err != nil {
		switch {
		case apperrors.IsAppError(err):
			return apperrors.AsAppError(err)
		case errors.Is(err, store.ErrResourceNotFound):
			return apperrors.NotFoundWithID("Resource", id)
		}
		s.cfg.Log.Error("Failed to delete resource", "id", id, "error", err)
		return apperrors.Persistence("Failed to delete resource", err)
	}

	s.cfg.Log.Info("Resource deleted successfully", "id", id, "cancelled_bookings_removed", removed)
	return nil
}

func (s *resourceService) sanitize(r *model.Resource) {
	r.Name = sanitizer.SanitizeName(r.Name)
	r.Type = sanitizer.SanitizeType(r.Type)
	r.Location = sanitizer.SanitizeLocation(r.Location)
}

func (s *resourceService) sanitizeUpdate(u *model.ResourceUpdate) {
	if u.Name != nil {
		name := sanitizer.SanitizeName(*u.Name)
		u.Name = &name
	}
	if u.Type != nil {
		typ := sanitizer.SanitizeType(*u.Type)
		u.Type = &typ
	}
	if u.Location != nil {
		location := sanitizer.SanitizeLocation(*u.Location)
		u.Location = &location
	}
}

func mergeResourceUpdates(existing *model.Resource, updates *model.ResourceUpdate) *model.Resource {
	merged := *existing

	if updates.Name != nil {
		merged.Name = *updates.Name
	}
	if updates.Type != nil {
		merged.Type = *updates.Type
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.Location != nil {
		merged.Location = *updates.Location
	}

	return &merged
}
