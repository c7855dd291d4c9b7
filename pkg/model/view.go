package model

import "time"

// BookingView is the wire shape of a booking with times rendered in TimestampLayout.
type BookingView struct {
	ID           int64         `json:"id"`
	ResourceID   int64         `json:"resource_id"`
	ResourceName string        `json:"resource_name,omitempty"`
	ResourceType string        `json:"resource_type,omitempty"`
	BookedBy     string        `json:"booked_by"`
	Start        string        `json:"start"`
	End          string        `json:"end"`
	Status       BookingStatus `json:"status"`
}

type SlotView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ResourceAvailabilityView struct {
	Resource
	IsAvailable         bool          `json:"is_available"`
	ConflictingBookings []BookingView `json:"conflicting_bookings,omitempty"`
}

func NewBookingView(b *Booking, loc *time.Location) BookingView {
	return BookingView{
		ID:         b.ID,
		ResourceID: b.ResourceID,
		BookedBy:   b.BookedBy,
		Start:      FormatTimestamp(b.Start, loc),
		End:        FormatTimestamp(b.End, loc),
		Status:     b.Status,
	}
}

func NewBookingViews(bookings []*Booking, loc *time.Location) []BookingView {
	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, NewBookingView(b, loc))
	}
	return views
}

func NewRecordView(r *BookingRecord, loc *time.Location) BookingView {
	v := NewBookingView(&r.Booking, loc)
	v.ResourceName = r.ResourceName
	v.ResourceType = r.ResourceType
	return v
}

func NewSlotView(s Slot, loc *time.Location) SlotView {
	return SlotView{Start: FormatTimestamp(s.Start, loc), End: FormatTimestamp(s.End, loc)}
}

func NewAvailabilityView(a *ResourceAvailability, loc *time.Location) ResourceAvailabilityView {
	return ResourceAvailabilityView{
		Resource:            a.Resource,
		IsAvailable:         a.IsAvailable,
		ConflictingBookings: NewBookingViews(a.ConflictingBookings, loc),
	}
}
