package model

import "time"

type ResourceStatus struct {
	ResourceID         int64  `json:"resource_id"`
	Name               string `json:"name,omitempty"`
	IsAvailable        bool   `json:"is_available"`
	ActiveBookingCount int    `json:"active_booking_count"`
}

type ResourceAvailability struct {
	Resource
	IsAvailable         bool       `json:"is_available"`
	ConflictingBookings []*Booking `json:"conflicting_bookings,omitempty"`
}

// Slot is a fixed-width candidate window produced for availability browsing.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// SlotQuery describes a free-slot search within one day.
type SlotQuery struct {
	Day           time.Time
	SlotDuration  time.Duration
	BusinessStart time.Duration
	BusinessEnd   time.Duration
}

// Window returns the business-hours interval of the queried day.
// Wall-clock offsets are applied per calendar day so DST transitions keep 08:00 at 08:00.
func (q SlotQuery) Window() Interval {
	return Interval{Start: q.at(q.BusinessStart), End: q.at(q.BusinessEnd)}
}

func (q SlotQuery) at(offset time.Duration) time.Time {
	y, m, d := q.Day.Date()
	h := int(offset / time.Hour)
	mins := int(offset % time.Hour / time.Minute)
	return time.Date(y, m, d, h, mins, 0, 0, q.Day.Location())
}
