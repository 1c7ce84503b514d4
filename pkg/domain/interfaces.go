package domain

import (
	"context"

	"github.com/prospectra/leadcrm/pkg/models"
)

// LeadRepository defines data access operations for leads.
//
// ListRecent returns the newest rows first and is the capped scan window the
// duplicate resolver fingerprints against; ListByCreation returns rows in
// stable creation order for the merge engine's full scan.
type LeadRepository interface {
	Create(ctx context.Context, input models.LeadInput) (*models.Lead, error)
	Get(ctx context.Context, id int) (*models.Lead, error)
	List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error)
	ListRecent(ctx context.Context, limit int) ([]*models.Lead, error)
	ListByCreation(ctx context.Context) ([]*models.Lead, error)
	Update(ctx context.Context, id int, patch models.LeadPatch) (*models.Lead, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

// CampaignRepository defines data access operations for campaigns and
// campaign playbooks.
type CampaignRepository interface {
	Create(ctx context.Context, input models.CampaignInput) (*models.Campaign, error)
	Get(ctx context.Context, id int) (*models.Campaign, error)
	List(ctx context.Context, status *models.CampaignStatus) ([]*models.Campaign, error)
	Update(ctx context.Context, id int, patch models.CampaignPatch) (*models.Campaign, error)

	CreatePlaybook(ctx context.Context, pb models.CampaignPlaybook) (*models.CampaignPlaybook, error)
	GetPlaybook(ctx context.Context, id int) (*models.CampaignPlaybook, error)
	ListPlaybooks(ctx context.Context) ([]*models.CampaignPlaybook, error)
}

// MessageRepository stores generated outreach drafts. Reparent moves every
// message from one lead to another without deleting or duplicating rows.
type MessageRepository interface {
	Create(ctx context.Context, msg models.OutreachMessage) (*models.OutreachMessage, error)
	ListByLead(ctx context.Context, leadID int) ([]*models.OutreachMessage, error)
	CountByLeadAndKind(ctx context.Context, leadID int, kind models.MessageKind) (int, error)
	DeleteByLeadAndKind(ctx context.Context, leadID int, kind models.MessageKind) error
	Reparent(ctx context.Context, fromLeadID, toLeadID int) error
}

// EventRepository is the append-only outreach action log.
type EventRepository interface {
	Append(ctx context.Context, event models.OutreachEvent) (*models.OutreachEvent, error)
	ListByLead(ctx context.Context, leadID int) ([]*models.OutreachEvent, error)
	Reparent(ctx context.Context, fromLeadID, toLeadID int) error
}

// EnrichmentRepository stores append-only external-data snapshots.
type EnrichmentRepository interface {
	Append(ctx context.Context, e models.LeadEnrichment) (*models.LeadEnrichment, error)
	LatestByLead(ctx context.Context, leadID int) (*models.LeadEnrichment, error)
	Reparent(ctx context.Context, fromLeadID, toLeadID int) error
}

// CategoryRepository resolves weak category references.
type CategoryRepository interface {
	Get(ctx context.Context, id int) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
}

// LocationRepository resolves weak location references.
type LocationRepository interface {
	Get(ctx context.Context, id int) (*models.Location, error)
	List(ctx context.Context) ([]*models.Location, error)
}

// Store aggregates every repository behind one injection point.
type Store interface {
	Leads() LeadRepository
	Campaigns() CampaignRepository
	Messages() MessageRepository
	Events() EventRepository
	Enrichments() EnrichmentRepository
	Categories() CategoryRepository
	Locations() LocationRepository
}

// AIScorer is the external AI scoring collaborator. Implementations may be
// unavailable; callers must degrade to a neutral fallback rather than fail.
type AIScorer interface {
	ScoreLead(ctx context.Context, lead *models.Lead, campaign *models.Campaign) (*models.AIScore, error)
}

// FollowUpGenerator produces follow-up text variants for a stale lead.
type FollowUpGenerator interface {
	GenerateFollowUps(ctx context.Context, lead *models.Lead, campaign *models.Campaign) ([]models.MessageVariant, error)
}

// HomepageFetcher retrieves a lead's homepage HTML under a short timeout.
// An error means the site was unreachable, which is itself a scoring signal.
type HomepageFetcher interface {
	FetchHomepage(ctx context.Context, rawURL string) (string, error)
}

// ContactRefresher re-gathers contact data for a lead from external sources.
type ContactRefresher interface {
	RefreshContact(ctx context.Context, lead *models.Lead) (*models.ContactUpdate, error)
}
