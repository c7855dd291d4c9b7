package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reservations/internal/store"
	"reservations/pkg/model"
)

const resourceColumns = `id, name, type, capacity, location, created_at`

func scanResource(row interface{ Scan(...any) error }) (*model.Resource, error) {
	var r model.Resource
	var createdAt int64
	if err := row.Scan(&r.ID, &r.Name, &r.Type, &r.Capacity, &r.Location, &createdAt); err != nil {
		return nil, err
	}
	r.CreatedAt = fromUnix(createdAt)
	return &r, nil
}

func (s *Store) ListResources(ctx context.Context, resourceType string) ([]*model.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources`
	var args []any
	if resourceType != "" {
		query += ` WHERE type = ?`
		args = append(args, resourceType)
	}
	query += ` ORDER BY name, id`

	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []*model.Resource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (s *Store) GetResource(ctx context.Context, id int64) (*model.Resource, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	r, err := scanResource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrResourceNotFound
		}
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return r, nil
}

func (s *Store) InsertResource(ctx context.Context, r *model.Resource) (int64, error) {
	r.CreatedAt = model.Normalize(s.now().UTC())
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO resources (name, type, capacity, location, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.Name, r.Type, r.Capacity, r.Location, toUnix(r.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert resource: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read resource id: %w", err)
	}
	r.ID = id
	return id, nil
}

func (s *Store) UpdateResource(ctx context.Context, r *model.Resource) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE resources SET name = ?, type = ?, capacity = ?, location = ? WHERE id = ?`,
		r.Name, r.Type, r.Capacity, r.Location, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	return affectedOrNotFound(res, store.ErrResourceNotFound)
}

func (s *Store) DeleteResource(ctx context.Context, id int64) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return affectedOrNotFound(res, store.ErrResourceNotFound)
}

func (s *Store) CountResources(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count resources: %w", err)
	}
	return n, nil
}
