package model

import (
	"time"
)

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) Valid() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

type Booking struct {
	ID         int64         `json:"id" bson:"_id"`
	ResourceID int64         `json:"resource_id" bson:"resource_id"`
	BookedBy   string        `json:"booked_by" bson:"booked_by"`
	Start      time.Time     `json:"start" bson:"start_time"`
	End        time.Time     `json:"end" bson:"end_time"`
	Status     BookingStatus `json:"status" bson:"status"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// BookingCreate is the boundary payload for a new booking. Times use TimestampLayout.
type BookingCreate struct {
	ResourceID int64  `json:"resource_id" validate:"required,gt=0"`
	BookedBy   string `json:"booked_by" validate:"required,min=1,max=100"`
	Start      string `json:"start" validate:"required,timestamp"`
	End        string `json:"end" validate:"required,timestamp"`
}

// BookingUpdate carries the fields to rewrite; nil fields keep their current value.
type BookingUpdate struct {
	ResourceID *int64         `json:"resource_id,omitempty" validate:"omitempty,gt=0"`
	Start      *string        `json:"start,omitempty" validate:"omitempty,timestamp"`
	End        *string        `json:"end,omitempty" validate:"omitempty,timestamp"`
	Status     *BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=CONFIRMED CANCELLED"`
}

// BookingRecord is a history row joined with its resource.
type BookingRecord struct {
	Booking
	ResourceName string `json:"resource_name"`
	ResourceType string `json:"resource_type"`
}
