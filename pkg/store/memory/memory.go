// Package memory provides an in-memory Store implementation. It backs the
// service tests and local development; production runs against the postgres
// store behind the same interfaces.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/models"
)

// Store holds every table in process memory behind one mutex. Operations on
// a single record are atomic with respect to each other, which is all the
// merge engine needs for its per-duplicate atomicity.
type Store struct {
	mu sync.RWMutex

	nextLeadID       int
	nextCampaignID   int
	nextPlaybookID   int
	nextMessageID    int
	nextEventID      int
	nextEnrichmentID int

	leads       map[int]*models.Lead
	leadOrder   []int // creation order
	campaigns   map[int]*models.Campaign
	playbooks   map[int]*models.CampaignPlaybook
	messages    map[int]*models.OutreachMessage
	events      map[int]*models.OutreachEvent
	enrichments map[int]*models.LeadEnrichment
	categories  map[int]*models.Category
	locations   map[int]*models.Location

	// Clock is swappable so tests can control timestamps.
	Clock func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		nextLeadID:       1,
		nextCampaignID:   1,
		nextPlaybookID:   1,
		nextMessageID:    1,
		nextEventID:      1,
		nextEnrichmentID: 1,
		leads:            make(map[int]*models.Lead),
		campaigns:        make(map[int]*models.Campaign),
		playbooks:        make(map[int]*models.CampaignPlaybook),
		messages:         make(map[int]*models.OutreachMessage),
		events:           make(map[int]*models.OutreachEvent),
		enrichments:      make(map[int]*models.LeadEnrichment),
		categories:       make(map[int]*models.Category),
		locations:        make(map[int]*models.Location),
		Clock:            time.Now,
	}
}

func (s *Store) Leads() domain.LeadRepository             { return (*leadRepo)(s) }
func (s *Store) Campaigns() domain.CampaignRepository     { return (*campaignRepo)(s) }
func (s *Store) Messages() domain.MessageRepository       { return (*messageRepo)(s) }
func (s *Store) Events() domain.EventRepository           { return (*eventRepo)(s) }
func (s *Store) Enrichments() domain.EnrichmentRepository { return (*enrichmentRepo)(s) }
func (s *Store) Categories() domain.CategoryRepository    { return (*categoryRepo)(s) }
func (s *Store) Locations() domain.LocationRepository     { return (*locationRepo)(s) }

// SeedCategory registers a category reference row.
func (s *Store) SeedCategory(c models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cc := c
	s.categories[c.ID] = &cc
}

// SeedLocation registers a location reference row.
func (s *Store) SeedLocation(l models.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ll := l
	s.locations[l.ID] = &ll
}

// leadRepo implements domain.LeadRepository.
type leadRepo Store

func (r *leadRepo) Create(_ context.Context, input models.LeadInput) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Clock()
	l := &models.Lead{
		ID:         r.nextLeadID,
		Name:       input.Name,
		Website:    input.Website,
		SocialURL:  input.SocialURL,
		Phone:      input.Phone,
		Email:      input.Email,
		Address:    input.Address,
		CategoryID: copyInt(input.CategoryID),
		LocationID: copyInt(input.LocationID),
		Status:     models.StatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.nextLeadID++
	r.leads[l.ID] = l
	r.leadOrder = append(r.leadOrder, l.ID)

	return copyLead(l), nil
}

func (r *leadRepo) Get(_ context.Context, id int) (*models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.leads[id]
	if !ok {
		return nil, domain.NewNotFoundError("lead")
	}
	return copyLead(l), nil
}

func (r *leadRepo) List(_ context.Context, filter models.LeadFilter) ([]*models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Lead
	for _, id := range r.leadOrder {
		l, ok := r.leads[id]
		if !ok {
			continue
		}
		if !matchesFilter(l, filter) {
			continue
		}
		out = append(out, copyLead(l))
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *leadRepo) ListRecent(_ context.Context, limit int) ([]*models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Lead, 0, len(r.leadOrder))
	for i := len(r.leadOrder) - 1; i >= 0; i-- {
		if l, ok := r.leads[r.leadOrder[i]]; ok {
			out = append(out, copyLead(l))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *leadRepo) ListByCreation(_ context.Context) ([]*models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Lead, 0, len(r.leadOrder))
	for _, id := range r.leadOrder {
		if l, ok := r.leads[id]; ok {
			out = append(out, copyLead(l))
		}
	}
	return out, nil
}

func (r *leadRepo) Update(_ context.Context, id int, patch models.LeadPatch) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[id]
	if !ok {
		return nil, domain.NewNotFoundError("lead")
	}

	applyPatch(l, patch)
	l.UpdatedAt = r.Clock()
	return copyLead(l), nil
}

func (r *leadRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[id]; !ok {
		return domain.NewNotFoundError("lead")
	}
	delete(r.leads, id)
	return nil
}

func (r *leadRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads), nil
}

func matchesFilter(l *models.Lead, f models.LeadFilter) bool {
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if l.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Unassigned && l.CampaignID != nil {
		return false
	}
	if f.CampaignID != nil {
		if l.CampaignID == nil || *l.CampaignID != *f.CampaignID {
			return false
		}
	}
	if f.ContactedBefore != nil {
		if l.LastContactedAt == nil || l.LastContactedAt.After(*f.ContactedBefore) {
			return false
		}
	}
	return true
}

func applyPatch(l *models.Lead, p models.LeadPatch) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Website != nil {
		l.Website = *p.Website
	}
	if p.SocialURL != nil {
		l.SocialURL = *p.SocialURL
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Address != nil {
		l.Address = *p.Address
	}
	if p.CategoryID != nil {
		l.CategoryID = copyInt(p.CategoryID)
	}
	if p.LocationID != nil {
		l.LocationID = copyInt(p.LocationID)
	}
	if p.CampaignID != nil {
		l.CampaignID = copyInt(p.CampaignID)
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.LastContactedAt != nil {
		t := *p.LastContactedAt
		l.LastContactedAt = &t
	}
	if p.ScoreHeuristic != nil {
		l.ScoreHeuristic = copyInt(p.ScoreHeuristic)
	}
	if p.ScoreAI != nil {
		l.ScoreAI = copyInt(p.ScoreAI)
	}
	if p.ScoreTotal != nil {
		l.ScoreTotal = copyInt(p.ScoreTotal)
	}
}

// campaignRepo implements domain.CampaignRepository.
type campaignRepo Store

func (r *campaignRepo) Create(_ context.Context, input models.CampaignInput) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Clock()
	c := &models.Campaign{
		ID:              r.nextCampaignID,
		Name:            input.Name,
		CategoryID:      copyInt(input.CategoryID),
		LocationID:      copyInt(input.LocationID),
		Language:        input.Language,
		Tone:            input.Tone,
		Angle:           input.Angle,
		MinQualityScore: input.MinQualityScore,
		DailySendTarget: input.DailySendTarget,
		FollowUpDays:    input.FollowUpDays,
		Status:          models.CampaignActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.nextCampaignID++
	r.campaigns[c.ID] = c

	cc := *c
	return &cc, nil
}

func (r *campaignRepo) Get(_ context.Context, id int) (*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.campaigns[id]
	if !ok {
		return nil, domain.NewNotFoundError("campaign")
	}
	cc := *c
	return &cc, nil
}

func (r *campaignRepo) List(_ context.Context, status *models.CampaignStatus) ([]*models.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Campaign
	for _, c := range r.campaigns {
		if status != nil && c.Status != *status {
			continue
		}
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *campaignRepo) Update(_ context.Context, id int, patch models.CampaignPatch) (*models.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.campaigns[id]
	if !ok {
		return nil, domain.NewNotFoundError("campaign")
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.CategoryID != nil {
		c.CategoryID = copyInt(patch.CategoryID)
	}
	if patch.LocationID != nil {
		c.LocationID = copyInt(patch.LocationID)
	}
	if patch.Language != nil {
		c.Language = *patch.Language
	}
	if patch.Tone != nil {
		c.Tone = *patch.Tone
	}
	if patch.Angle != nil {
		c.Angle = *patch.Angle
	}
	if patch.MinQualityScore != nil {
		c.MinQualityScore = *patch.MinQualityScore
	}
	if patch.DailySendTarget != nil {
		c.DailySendTarget = *patch.DailySendTarget
	}
	if patch.FollowUpDays != nil {
		c.FollowUpDays = *patch.FollowUpDays
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	c.UpdatedAt = r.Clock()

	cc := *c
	return &cc, nil
}

func (r *campaignRepo) CreatePlaybook(_ context.Context, pb models.CampaignPlaybook) (*models.CampaignPlaybook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pb.ID = r.nextPlaybookID
	pb.CreatedAt = r.Clock()
	r.nextPlaybookID++

	stored := pb
	r.playbooks[pb.ID] = &stored

	out := pb
	return &out, nil
}

func (r *campaignRepo) GetPlaybook(_ context.Context, id int) (*models.CampaignPlaybook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pb, ok := r.playbooks[id]
	if !ok {
		return nil, domain.NewNotFoundError("campaign playbook")
	}
	out := *pb
	return &out, nil
}

func (r *campaignRepo) ListPlaybooks(_ context.Context) ([]*models.CampaignPlaybook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.CampaignPlaybook
	for _, pb := range r.playbooks {
		cp := *pb
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// messageRepo implements domain.MessageRepository.
type messageRepo Store

func (r *messageRepo) Create(_ context.Context, msg models.OutreachMessage) (*models.OutreachMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	msg.ID = r.nextMessageID
	msg.CreatedAt = r.Clock()
	r.nextMessageID++

	stored := msg
	r.messages[msg.ID] = &stored

	out := msg
	return &out, nil
}

func (r *messageRepo) ListByLead(_ context.Context, leadID int) ([]*models.OutreachMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.OutreachMessage
	for _, m := range r.messages {
		if m.LeadID == leadID {
			mm := *m
			out = append(out, &mm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *messageRepo) CountByLeadAndKind(_ context.Context, leadID int, kind models.MessageKind) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, m := range r.messages {
		if m.LeadID == leadID && m.Kind == kind {
			n++
		}
	}
	return n, nil
}

func (r *messageRepo) DeleteByLeadAndKind(_ context.Context, leadID int, kind models.MessageKind) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, m := range r.messages {
		if m.LeadID == leadID && m.Kind == kind {
			delete(r.messages, id)
		}
	}
	return nil
}

func (r *messageRepo) Reparent(_ context.Context, fromLeadID, toLeadID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages {
		if m.LeadID == fromLeadID {
			m.LeadID = toLeadID
		}
	}
	return nil
}

// eventRepo implements domain.EventRepository.
type eventRepo Store

func (r *eventRepo) Append(_ context.Context, event models.OutreachEvent) (*models.OutreachEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = r.nextEventID
	event.CreatedAt = r.Clock()
	r.nextEventID++

	stored := event
	r.events[event.ID] = &stored

	out := event
	return &out, nil
}

func (r *eventRepo) ListByLead(_ context.Context, leadID int) ([]*models.OutreachEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.OutreachEvent
	for _, e := range r.events {
		if e.LeadID == leadID {
			ee := *e
			out = append(out, &ee)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *eventRepo) Reparent(_ context.Context, fromLeadID, toLeadID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.events {
		if e.LeadID == fromLeadID {
			e.LeadID = toLeadID
		}
	}
	return nil
}

// enrichmentRepo implements domain.EnrichmentRepository.
type enrichmentRepo Store

func (r *enrichmentRepo) Append(_ context.Context, e models.LeadEnrichment) (*models.LeadEnrichment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = r.nextEnrichmentID
	e.CreatedAt = r.Clock()
	r.nextEnrichmentID++

	stored := e
	r.enrichments[e.ID] = &stored

	out := e
	return &out, nil
}

func (r *enrichmentRepo) LatestByLead(_ context.Context, leadID int) (*models.LeadEnrichment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.LeadEnrichment
	for _, e := range r.enrichments {
		if e.LeadID != leadID {
			continue
		}
		if latest == nil || e.ID > latest.ID {
			latest = e
		}
	}
	if latest == nil {
		return nil, domain.NewNotFoundError("enrichment")
	}
	out := *latest
	return &out, nil
}

func (r *enrichmentRepo) Reparent(_ context.Context, fromLeadID, toLeadID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.enrichments {
		if e.LeadID == fromLeadID {
			e.LeadID = toLeadID
		}
	}
	return nil
}

// categoryRepo implements domain.CategoryRepository.
type categoryRepo Store

func (r *categoryRepo) Get(_ context.Context, id int) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, domain.NewNotFoundError("category")
	}
	cc := *c
	return &cc, nil
}

func (r *categoryRepo) List(_ context.Context) ([]*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Category
	for _, c := range r.categories {
		cc := *c
		out = append(out, &cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// locationRepo implements domain.LocationRepository.
type locationRepo Store

func (r *locationRepo) Get(_ context.Context, id int) (*models.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.locations[id]
	if !ok {
		return nil, domain.NewNotFoundError("location")
	}
	ll := *l
	return &ll, nil
}

func (r *locationRepo) List(_ context.Context) ([]*models.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Location
	for _, l := range r.locations {
		ll := *l
		out = append(out, &ll)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyLead(l *models.Lead) *models.Lead {
	cc := *l
	cc.CategoryID = copyInt(l.CategoryID)
	cc.LocationID = copyInt(l.LocationID)
	cc.CampaignID = copyInt(l.CampaignID)
	cc.ScoreHeuristic = copyInt(l.ScoreHeuristic)
	cc.ScoreAI = copyInt(l.ScoreAI)
	cc.ScoreTotal = copyInt(l.ScoreTotal)
	if l.LastContactedAt != nil {
		t := *l.LastContactedAt
		cc.LastContactedAt = &t
	}
	return &cc
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
