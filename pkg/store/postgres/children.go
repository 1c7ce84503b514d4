package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/models"
)

type messageRepo struct {
	db *sql.DB
}

func (r *messageRepo) Create(ctx context.Context, msg models.OutreachMessage) (*models.OutreachMessage, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO outreach_messages (lead_id, kind, variant_label, language, angle, text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, lead_id, kind, variant_label, language, angle, text, created_at`,
		msg.LeadID, string(msg.Kind), msg.VariantLabel, msg.Language, msg.Angle, msg.Text)

	var out models.OutreachMessage
	err := row.Scan(&out.ID, &out.LeadID, &out.Kind, &out.VariantLabel,
		&out.Language, &out.Angle, &out.Text, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &out, nil
}

func (r *messageRepo) ListByLead(ctx context.Context, leadID int) ([]*models.OutreachMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, kind, variant_label, language, angle, text, created_at
		FROM outreach_messages WHERE lead_id = $1 ORDER BY id ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []*models.OutreachMessage
	for rows.Next() {
		var m models.OutreachMessage
		if err := rows.Scan(&m.ID, &m.LeadID, &m.Kind, &m.VariantLabel,
			&m.Language, &m.Angle, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *messageRepo) CountByLeadAndKind(ctx context.Context, leadID int, kind models.MessageKind) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outreach_messages WHERE lead_id = $1 AND kind = $2`,
		leadID, string(kind)).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *messageRepo) DeleteByLeadAndKind(ctx context.Context, leadID int, kind models.MessageKind) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM outreach_messages WHERE lead_id = $1 AND kind = $2`,
		leadID, string(kind))
	return err
}

func (r *messageRepo) Reparent(ctx context.Context, fromLeadID, toLeadID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outreach_messages SET lead_id = $1 WHERE lead_id = $2`,
		toLeadID, fromLeadID)
	return err
}

type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) Append(ctx context.Context, event models.OutreachEvent) (*models.OutreachEvent, error) {
	metadata, err := marshalMap(event.Metadata)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO outreach_events (lead_id, event_type, metadata)
		VALUES ($1, $2, $3)
		RETURNING id, lead_id, event_type, metadata, created_at`,
		event.LeadID, event.EventType, metadata)

	return scanEvent(row)
}

func (r *eventRepo) ListByLead(ctx context.Context, leadID int) ([]*models.OutreachEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lead_id, event_type, metadata, created_at
		FROM outreach_events WHERE lead_id = $1 ORDER BY id ASC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []*models.OutreachEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) Reparent(ctx context.Context, fromLeadID, toLeadID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outreach_events SET lead_id = $1 WHERE lead_id = $2`,
		toLeadID, fromLeadID)
	return err
}

type enrichmentRepo struct {
	db *sql.DB
}

func (r *enrichmentRepo) Append(ctx context.Context, e models.LeadEnrichment) (*models.LeadEnrichment, error) {
	data, err := marshalMap(e.Data)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO lead_enrichments (lead_id, source, data)
		VALUES ($1, $2, $3)
		RETURNING id, lead_id, source, data, created_at`,
		e.LeadID, e.Source, data)

	return scanEnrichment(row)
}

func (r *enrichmentRepo) LatestByLead(ctx context.Context, leadID int) (*models.LeadEnrichment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, lead_id, source, data, created_at
		FROM lead_enrichments WHERE lead_id = $1 ORDER BY id DESC LIMIT 1`, leadID)

	e, err := scanEnrichment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("enrichment")
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *enrichmentRepo) Reparent(ctx context.Context, fromLeadID, toLeadID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE lead_enrichments SET lead_id = $1 WHERE lead_id = $2`,
		toLeadID, fromLeadID)
	return err
}

func scanEvent(s scanner) (*models.OutreachEvent, error) {
	var (
		e   models.OutreachEvent
		raw []byte
	)
	if err := s.Scan(&e.ID, &e.LeadID, &e.EventType, &raw, &e.CreatedAt); err != nil {
		return nil, err
	}
	m, err := unmarshalMap(raw)
	if err != nil {
		return nil, err
	}
	e.Metadata = m
	return &e, nil
}

func scanEnrichment(s scanner) (*models.LeadEnrichment, error) {
	var (
		e   models.LeadEnrichment
		raw []byte
	)
	if err := s.Scan(&e.ID, &e.LeadID, &e.Source, &raw, &e.CreatedAt); err != nil {
		return nil, err
	}
	m, err := unmarshalMap(raw)
	if err != nil {
		return nil, err
	}
	e.Data = m
	return &e, nil
}

func marshalMap(m map[string]string) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return b, nil
}

func unmarshalMap(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return m, nil
}
