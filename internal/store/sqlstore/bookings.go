package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"reservations/internal/store"
	"reservations/pkg/model"
)

const bookingColumns = `id, resource_id, booked_by, start_time, end_time, status, created_at`

func scanBooking(row interface{ Scan(...any) error }, extra ...any) (*model.Booking, error) {
	var b model.Booking
	var start, end, createdAt int64
	dest := append([]any{&b.ID, &b.ResourceID, &b.BookedBy, &start, &end, &b.Status, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	b.Start = fromUnix(start)
	b.End = fromUnix(end)
	b.CreatedAt = fromUnix(createdAt)
	return &b, nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

func (s *Store) ListBookings(ctx context.Context) ([]*model.BookingRecord, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT b.id, b.resource_id, b.booked_by, b.start_time, b.end_time, b.status, b.created_at, r.name, r.type
		FROM bookings b
		JOIN resources r ON r.id = b.resource_id
		ORDER BY b.start_time DESC, b.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var records []*model.BookingRecord
	for rows.Next() {
		var name, typ string
		b, err := scanBooking(rows, &name, &typ)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		records = append(records, &model.BookingRecord{Booking: *b, ResourceName: name, ResourceType: typ})
	}
	return records, rows.Err()
}

func (s *Store) ListBookingsForResource(ctx context.Context, resourceID int64, filter store.BookingFilter) ([]*model.Booking, error) {
	clauses := []string{"resource_id = ?"}
	args := []any{resourceID}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Window != nil {
		clauses = append(clauses, "start_time < ?", "end_time > ?")
		args = append(args, toUnix(filter.Window.End), toUnix(filter.Window.Start))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY start_time, id`
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for resource: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) (int64, error) {
	b.CreatedAt = model.Normalize(s.now().UTC())
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO bookings (resource_id, booked_by, start_time, end_time, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ResourceID, b.BookedBy, toUnix(b.Start), toUnix(b.End), string(b.Status), toUnix(b.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read booking id: %w", err)
	}
	b.ID = id
	return id, nil
}

func (s *Store) UpdateBooking(ctx context.Context, b *model.Booking) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE bookings SET resource_id = ?, booked_by = ?, start_time = ?, end_time = ?, status = ? WHERE id = ?`,
		b.ResourceID, b.BookedBy, toUnix(b.Start), toUnix(b.End), string(b.Status), b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return affectedOrNotFound(res, store.ErrBookingNotFound)
}

func (s *Store) SetBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error {
	res, err := s.q(ctx).ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to set booking status: %w", err)
	}
	return affectedOrNotFound(res, store.ErrBookingNotFound)
}

func (s *Store) DeleteBooking(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return affectedOrNotFound(res, store.ErrBookingNotFound)
}

func (s *Store) DeleteBookingsForResource(ctx context.Context, resourceID int64) (int64, error) {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM bookings WHERE resource_id = ?`, resourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings for resource: %w", err)
	}
	return res.RowsAffected()
}
