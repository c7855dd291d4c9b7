package validator

import (
	"testing"

	"reservations/pkg/logger"
	"reservations/pkg/model"
)

func TestValidate(t *testing.T) {
	validator := NewResourceValidator(logger.Discard())

	tests := []struct {
		name      string
		resource  *model.Resource
		wantError bool
	}{
		{
			name:     "valid room",
			resource: &model.Resource{Name: "Room A", Type: "ROOM", Capacity: 8, Location: "Floor 2"},
		},
		{
			name:     "zero capacity allowed",
			resource: &model.Resource{Name: "Projector", Type: "EQUIPMENT"},
		},
		{
			name:      "missing name",
			resource:  &model.Resource{Type: "ROOM"},
			wantError: true,
		},
		{
			name:      "missing type",
			resource:  &model.Resource{Name: "Room A"},
			wantError: true,
		},
		{
			name:      "negative capacity",
			resource:  &model.Resource{Name: "Room A", Type: "ROOM", Capacity: -1},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.resource)
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	validator := NewResourceValidator(logger.Discard())
	name := "Room B"
	empty := ""
	negative := -4

	if err := validator.ValidateUpdate(&model.ResourceUpdate{Name: &name}); err != nil {
		t.Errorf("ValidateUpdate() unexpected error = %v", err)
	}
	if err := validator.ValidateUpdate(&model.ResourceUpdate{}); err == nil {
		t.Error("ValidateUpdate() expected error for empty update")
	}
	if err := validator.ValidateUpdate(&model.ResourceUpdate{Name: &empty}); err == nil {
		t.Error("ValidateUpdate() expected error for empty name")
	}
	if err := validator.ValidateUpdate(&model.ResourceUpdate{Capacity: &negative}); err == nil {
		t.Error("ValidateUpdate() expected error for negative capacity")
	}
}
