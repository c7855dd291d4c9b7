package service

import (
	"context"

	apperrors "reservations/pkg/errors"
	"reservations/pkg/model"
)

var sampleResources = []model.Resource{
	{Name: "Conference Room A", Type: "ROOM", Capacity: 12, Location: "Floor 1"},
	{Name: "Conference Room B", Type: "ROOM", Capacity: 8, Location: "Floor 1"},
	{Name: "Meeting Pod", Type: "ROOM", Capacity: 4, Location: "Floor 2"},
	{Name: "Projector", Type: "EQUIPMENT", Capacity: 1, Location: "IT Desk"},
	{Name: "Laptop Cart", Type: "EQUIPMENT", Capacity: 20, Location: "IT Desk"},
	{Name: "Main Hall", Type: "VENUE", Capacity: 200, Location: "Ground Floor"},
}

// Seed inserts the sample resources when the store has none and reports how
// many were added.
func (s *resourceService) Seed(ctx context.Context) (int, error) {
	count, err := s.store.CountResources(ctx)
	if err != nil {
		return 0, apperrors.Persistence("Failed to count resources", err)
	}
	if count > 0 {
		s.cfg.Log.Debug("Skipping resource seed, store not empty", "count", count)
		return 0, nil
	}

	for _, sample := range sampleResources {
		r := sample
		if _, err := s.Create(ctx, &r); err != nil {
			return 0, err
		}
	}

	s.cfg.Log.Info("Seeded sample resources", "count", len(sampleResources))
	return len(sampleResources), nil
}
