package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/models"
)

const leadColumns = `id, name, website, social_url, phone, email, address,
	category_id, location_id, campaign_id, status, last_contacted_at,
	score_heuristic, score_ai, score_total, created_at, updated_at`

type leadRepo struct {
	db *sql.DB
}

func (r *leadRepo) Create(ctx context.Context, input models.LeadInput) (*models.Lead, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO leads (name, website, social_url, phone, email, address, category_id, location_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+leadColumns,
		input.Name, input.Website, input.SocialURL, input.Phone, input.Email, input.Address,
		nullableInt(input.CategoryID), nullableInt(input.LocationID))

	lead, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lead: %w", err)
	}
	return lead, nil
}

func (r *leadRepo) Get(ctx context.Context, id int) (*models.Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("lead")
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepo) List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+arg(pq.Array(statuses))+")")
	}
	if filter.Unassigned {
		where = append(where, "campaign_id IS NULL")
	}
	if filter.CampaignID != nil {
		where = append(where, "campaign_id = "+arg(*filter.CampaignID))
	}
	if filter.ContactedBefore != nil {
		where = append(where, "last_contacted_at IS NOT NULL")
		where = append(where, "last_contacted_at <= "+arg(*filter.ContactedBefore))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	return r.queryLeads(ctx, query, args...)
}

func (r *leadRepo) ListRecent(ctx context.Context, limit int) ([]*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY id DESC`
	if limit > 0 {
		return r.queryLeads(ctx, query+` LIMIT $1`, limit)
	}
	return r.queryLeads(ctx, query)
}

func (r *leadRepo) ListByCreation(ctx context.Context) ([]*models.Lead, error) {
	return r.queryLeads(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY id ASC`)
}

func (r *leadRepo) Update(ctx context.Context, id int, patch models.LeadPatch) (*models.Lead, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Website != nil {
		set("website", *patch.Website)
	}
	if patch.SocialURL != nil {
		set("social_url", *patch.SocialURL)
	}
	if patch.Phone != nil {
		set("phone", *patch.Phone)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.Address != nil {
		set("address", *patch.Address)
	}
	if patch.CategoryID != nil {
		set("category_id", *patch.CategoryID)
	}
	if patch.LocationID != nil {
		set("location_id", *patch.LocationID)
	}
	if patch.CampaignID != nil {
		set("campaign_id", *patch.CampaignID)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.LastContactedAt != nil {
		set("last_contacted_at", *patch.LastContactedAt)
	}
	if patch.ScoreHeuristic != nil {
		set("score_heuristic", *patch.ScoreHeuristic)
	}
	if patch.ScoreAI != nil {
		set("score_ai", *patch.ScoreAI)
	}
	if patch.ScoreTotal != nil {
		set("score_total", *patch.ScoreTotal)
	}

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE leads SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), leadColumns)

	lead, err := scanLead(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("lead")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return lead, nil
}

func (r *leadRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFoundError("lead")
	}
	return nil
}

func (r *leadRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *leadRepo) queryLeads(ctx context.Context, query string, args ...any) ([]*models.Lead, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var out []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLead(s scanner) (*models.Lead, error) {
	var (
		l               models.Lead
		categoryID      sql.NullInt64
		locationID      sql.NullInt64
		campaignID      sql.NullInt64
		lastContactedAt sql.NullTime
		scoreHeuristic  sql.NullInt64
		scoreAI         sql.NullInt64
		scoreTotal      sql.NullInt64
	)

	err := s.Scan(
		&l.ID, &l.Name, &l.Website, &l.SocialURL, &l.Phone, &l.Email, &l.Address,
		&categoryID, &locationID, &campaignID, &l.Status, &lastContactedAt,
		&scoreHeuristic, &scoreAI, &scoreTotal, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.CategoryID = intPtr(categoryID)
	l.LocationID = intPtr(locationID)
	l.CampaignID = intPtr(campaignID)
	if lastContactedAt.Valid {
		t := lastContactedAt.Time
		l.LastContactedAt = &t
	}
	l.ScoreHeuristic = intPtr(scoreHeuristic)
	l.ScoreAI = intPtr(scoreAI)
	l.ScoreTotal = intPtr(scoreTotal)
	return &l, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
