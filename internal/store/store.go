// Package store defines the durable interval store behind resources and
// bookings. Implementations live in mongostore and sqlstore.
package store

import (
	"context"
	"errors"

	"reservations/pkg/model"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrBookingNotFound  = errors.New("booking not found")
)

// BookingFilter narrows ListBookingsForResource. Zero values match everything.
type BookingFilter struct {
	Status model.BookingStatus
	// Window keeps bookings overlapping [Start, End).
	Window *model.Interval
}

// TxFunc runs inside WithinResourceTx. It must use the ctx it is given for
// every store call and may be invoked more than once.
type TxFunc func(ctx context.Context) error

type Store interface {
	// Init applies migrations, verifies the schema and is safe to call repeatedly.
	Init(ctx context.Context) error
	Ping(ctx context.Context) error

	ListResources(ctx context.Context, resourceType string) ([]*model.Resource, error)
	GetResource(ctx context.Context, id int64) (*model.Resource, error)
	InsertResource(ctx context.Context, r *model.Resource) (int64, error)
	UpdateResource(ctx context.Context, r *model.Resource) error
	DeleteResource(ctx context.Context, id int64) error
	CountResources(ctx context.Context) (int64, error)

	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	// ListBookings returns every booking joined with its resource, newest start first.
	ListBookings(ctx context.Context) ([]*model.BookingRecord, error)
	// ListBookingsForResource returns matching bookings ordered by start.
	ListBookingsForResource(ctx context.Context, resourceID int64, filter BookingFilter) ([]*model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) (int64, error)
	UpdateBooking(ctx context.Context, b *model.Booking) error
	SetBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error
	DeleteBooking(ctx context.Context, id int64) error
	// DeleteBookingsForResource removes every booking of the resource and returns the count.
	DeleteBookingsForResource(ctx context.Context, resourceID int64) (int64, error)

	// WithinResourceTx runs fn in one transaction that serializes with every
	// other transaction on resourceID. It commits when fn returns nil and rolls
	// back otherwise, including on panic and context cancellation. A missing
	// resource yields ErrResourceNotFound without calling fn.
	WithinResourceTx(ctx context.Context, resourceID int64, fn TxFunc) error
}
