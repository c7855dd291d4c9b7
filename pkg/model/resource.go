package model

import "time"

type Resource struct {
	ID        int64     `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Type      string    `json:"type" bson:"type" validate:"required,min=1,max=50"`
	Capacity  int       `json:"capacity" bson:"capacity" validate:"min=0,max=100000"`
	Location  string    `json:"location" bson:"location" validate:"max=200"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ResourceUpdate carries the fields to rewrite; nil fields keep their current value.
type ResourceUpdate struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Type     *string `json:"type,omitempty" validate:"omitempty,min=1,max=50"`
	Capacity *int    `json:"capacity,omitempty" validate:"omitempty,min=0,max=100000"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=200"`
}
