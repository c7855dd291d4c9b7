package service

import (
	"iter"
	"time"

	"reservations/pkg/model"
)

// FreeSlots yields the fixed-width windows of window that overlap none of
// bookings. Windows start at window.Start and step by step; a trailing window
// that would run past window.End is not generated.
//
// bookings must be CONFIRMED and ordered by start. The scan keeps a cursor
// that only moves forward, so a full pass is O(len(bookings) + slots).
func FreeSlots(window model.Interval, step time.Duration, bookings []*model.Booking) iter.Seq[model.Slot] {
	return func(yield func(model.Slot) bool) {
		if step <= 0 {
			return
		}

		cursor := 0
		for start := window.Start; !start.Add(step).After(window.End); start = start.Add(step) {
			slot := model.Slot{Start: start, End: start.Add(step)}

			for cursor < len(bookings) && !bookings[cursor].End.After(slot.Start) {
				cursor++
			}

			busy := false
			for i := cursor; i < len(bookings) && bookings[i].Start.Before(slot.End); i++ {
				if bookings[i].End.After(slot.Start) {
					busy = true
					break
				}
			}
			if busy {
				continue
			}

			if !yield(slot) {
				return
			}
		}
	}
}
