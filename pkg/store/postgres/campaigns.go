package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/models"
)

const campaignColumns = `id, name, category_id, location_id, language, tone, angle,
	min_quality_score, daily_send_target, follow_up_days, status, created_at, updated_at`

const playbookColumns = `id, name, category_id, location_id, language, tone, angle,
	min_quality_score, daily_send_target, follow_up_days, created_at`

type campaignRepo struct {
	db *sql.DB
}

func (r *campaignRepo) Create(ctx context.Context, input models.CampaignInput) (*models.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO campaigns (name, category_id, location_id, language, tone, angle,
			min_quality_score, daily_send_target, follow_up_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+campaignColumns,
		input.Name, nullableInt(input.CategoryID), nullableInt(input.LocationID),
		input.Language, input.Tone, input.Angle,
		input.MinQualityScore, input.DailySendTarget, input.FollowUpDays)

	c, err := scanCampaign(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert campaign: %w", err)
	}
	return c, nil
}

func (r *campaignRepo) Get(ctx context.Context, id int) (*models.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("campaign")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *campaignRepo) List(ctx context.Context, status *models.CampaignStatus) ([]*models.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var out []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *campaignRepo) Update(ctx context.Context, id int, patch models.CampaignPatch) (*models.Campaign, error) {
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
	if patch.CategoryID != nil {
		set("category_id", *patch.CategoryID)
	}
	if patch.LocationID != nil {
		set("location_id", *patch.LocationID)
	}
	if patch.Language != nil {
		set("language", *patch.Language)
	}
	if patch.Tone != nil {
		set("tone", *patch.Tone)
	}
	if patch.Angle != nil {
		set("angle", *patch.Angle)
	}
	if patch.MinQualityScore != nil {
		set("min_quality_score", *patch.MinQualityScore)
	}
	if patch.DailySendTarget != nil {
		set("daily_send_target", *patch.DailySendTarget)
	}
	if patch.FollowUpDays != nil {
		set("follow_up_days", *patch.FollowUpDays)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE campaigns SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), campaignColumns)

	c, err := scanCampaign(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("campaign")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return c, nil
}

func (r *campaignRepo) CreatePlaybook(ctx context.Context, pb models.CampaignPlaybook) (*models.CampaignPlaybook, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO campaign_playbooks (name, category_id, location_id, language, tone, angle,
			min_quality_score, daily_send_target, follow_up_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+playbookColumns,
		pb.Name, nullableInt(pb.CategoryID), nullableInt(pb.LocationID),
		pb.Language, pb.Tone, pb.Angle,
		pb.MinQualityScore, pb.DailySendTarget, pb.FollowUpDays)

	out, err := scanPlaybook(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert playbook: %w", err)
	}
	return out, nil
}

func (r *campaignRepo) GetPlaybook(ctx context.Context, id int) (*models.CampaignPlaybook, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playbookColumns+` FROM campaign_playbooks WHERE id = $1`, id)
	pb, err := scanPlaybook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("campaign playbook")
	}
	if err != nil {
		return nil, err
	}
	return pb, nil
}

func (r *campaignRepo) ListPlaybooks(ctx context.Context) ([]*models.CampaignPlaybook, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+playbookColumns+` FROM campaign_playbooks ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playbooks: %w", err)
	}
	defer rows.Close()

	var out []*models.CampaignPlaybook
	for rows.Next() {
		pb, err := scanPlaybook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pb)
	}
	return out, rows.Err()
}

func scanCampaign(s scanner) (*models.Campaign, error) {
	var (
		c          models.Campaign
		categoryID sql.NullInt64
		locationID sql.NullInt64
	)
	err := s.Scan(
		&c.ID, &c.Name, &categoryID, &locationID, &c.Language, &c.Tone, &c.Angle,
		&c.MinQualityScore, &c.DailySendTarget, &c.FollowUpDays, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.CategoryID = intPtr(categoryID)
	c.LocationID = intPtr(locationID)
	return &c, nil
}

func scanPlaybook(s scanner) (*models.CampaignPlaybook, error) {
	var (
		pb         models.CampaignPlaybook
		categoryID sql.NullInt64
		locationID sql.NullInt64
	)
	err := s.Scan(
		&pb.ID, &pb.Name, &categoryID, &locationID, &pb.Language, &pb.Tone, &pb.Angle,
		&pb.MinQualityScore, &pb.DailySendTarget, &pb.FollowUpDays, &pb.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	pb.CategoryID = intPtr(categoryID)
	pb.LocationID = intPtr(locationID)
	return &pb, nil
}
