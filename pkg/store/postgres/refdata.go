package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/models"
)

type categoryRepo struct {
	db *sql.DB
}

func (r *categoryRepo) Get(ctx context.Context, id int) (*models.Category, error) {
	var c models.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, keywords FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, pq.Array(&c.Keywords))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("category")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, keywords FROM categories ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, pq.Array(&c.Keywords)); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

type locationRepo struct {
	db *sql.DB
}

func (r *locationRepo) Get(ctx context.Context, id int) (*models.Location, error) {
	var l models.Location
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, city, region FROM locations WHERE id = $1`, id).
		Scan(&l.ID, &l.Name, &l.City, &l.Region)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("location")
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *locationRepo) List(ctx context.Context) ([]*models.Location, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, city, region FROM locations ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var out []*models.Location
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.City, &l.Region); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
