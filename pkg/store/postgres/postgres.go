// Package postgres provides the production Store implementation on top of
// PostgreSQL. Every repository shares one *sql.DB pool.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/prospectra/leadcrm/pkg/domain"
)

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns sensible defaults for connection pooling.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// Store implements domain.Store against PostgreSQL.
type Store struct {
	db *sql.DB
}

// New opens a connection pool, verifies connectivity and ensures the schema.
func New(databaseURL string, pool PoolConfig) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Printf("✅ PostgreSQL connected (max_open=%d, max_idle=%d)", pool.MaxOpenConns, pool.MaxIdleConns)
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the underlying pool for stats reporting.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Leads() domain.LeadRepository             { return &leadRepo{db: s.db} }
func (s *Store) Campaigns() domain.CampaignRepository     { return &campaignRepo{db: s.db} }
func (s *Store) Messages() domain.MessageRepository       { return &messageRepo{db: s.db} }
func (s *Store) Events() domain.EventRepository           { return &eventRepo{db: s.db} }
func (s *Store) Enrichments() domain.EnrichmentRepository { return &enrichmentRepo{db: s.db} }
func (s *Store) Categories() domain.CategoryRepository    { return &categoryRepo{db: s.db} }
func (s *Store) Locations() domain.LocationRepository     { return &locationRepo{db: s.db} }

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	keywords TEXT[] NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS locations (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	region TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS campaigns (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	category_id INTEGER REFERENCES categories(id),
	location_id INTEGER REFERENCES locations(id),
	language TEXT NOT NULL DEFAULT '',
	tone TEXT NOT NULL DEFAULT '',
	angle TEXT NOT NULL DEFAULT '',
	min_quality_score INTEGER NOT NULL DEFAULT 0,
	daily_send_target INTEGER NOT NULL DEFAULT 20,
	follow_up_days INTEGER NOT NULL DEFAULT 4,
	status TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);

CREATE TABLE IF NOT EXISTS campaign_playbooks (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	category_id INTEGER REFERENCES categories(id),
	location_id INTEGER REFERENCES locations(id),
	language TEXT NOT NULL DEFAULT '',
	tone TEXT NOT NULL DEFAULT '',
	angle TEXT NOT NULL DEFAULT '',
	min_quality_score INTEGER NOT NULL DEFAULT 0,
	daily_send_target INTEGER NOT NULL DEFAULT 20,
	follow_up_days INTEGER NOT NULL DEFAULT 4,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	website TEXT NOT NULL DEFAULT '',
	social_url TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	category_id INTEGER REFERENCES categories(id),
	location_id INTEGER REFERENCES locations(id),
	campaign_id INTEGER REFERENCES campaigns(id),
	status TEXT NOT NULL DEFAULT 'NEW',
	last_contacted_at TIMESTAMPTZ,
	score_heuristic INTEGER,
	score_ai INTEGER,
	score_total INTEGER,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_campaign_id ON leads(campaign_id);
CREATE INDEX IF NOT EXISTS idx_leads_last_contacted_at ON leads(last_contacted_at);

CREATE TABLE IF NOT EXISTS outreach_messages (
	id SERIAL PRIMARY KEY,
	lead_id INTEGER NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	variant_label TEXT NOT NULL DEFAULT '',
	language TEXT NOT NULL DEFAULT '',
	angle TEXT NOT NULL DEFAULT '',
	text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_messages_lead_kind ON outreach_messages(lead_id, kind);

CREATE TABLE IF NOT EXISTS outreach_events (
	id SERIAL PRIMARY KEY,
	lead_id INTEGER NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	event_type TEXT NOT NULL,
	metadata JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_events_lead_id ON outreach_events(lead_id);

CREATE TABLE IF NOT EXISTS lead_enrichments (
	id SERIAL PRIMARY KEY,
	lead_id INTEGER NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	source TEXT NOT NULL,
	data JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_enrichments_lead_id ON lead_enrichments(lead_id);
`

func migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
