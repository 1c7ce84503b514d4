package dedupe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectra/leadcrm/pkg/domain"
	"github.com/prospectra/leadcrm/pkg/models"
	"github.com/prospectra/leadcrm/pkg/store/memory"
)

func intPtr(v int) *int { return &v }

func setup(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewService(store), store
}

func TestInsertLead_RequiresNameOrSocial(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.InsertLead(context.Background(), models.LeadInput{
		Website: "https://nameless.example",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestInsertLead_RejectsSecondInsertByWebsite(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	_, err := svc.InsertLead(ctx, models.LeadInput{
		Name:    "Lead A",
		Website: "https://a.com",
	})
	require.NoError(t, err)

	// Trailing slash is a cosmetic variant of the same website.
	_, err = svc.InsertLead(ctx, models.LeadInput{
		Name:    "Lead B",
		Website: "https://a.com/",
	})
	require.Error(t, err)
	assert.True(t, domain.IsDuplicate(err))
	assert.Contains(t, err.Error(), "website")

	count, err := store.Leads().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "population size must be unchanged")
}

func TestInsertLead_NoSignalAlwaysInserts(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	// Name without location yields no fingerprint keys, so two identical
	// no-signal records are not considered duplicates of each other.
	for i := 0; i < 2; i++ {
		_, err := svc.InsertLead(ctx, models.LeadInput{Name: "Unreachable Business"})
		require.NoError(t, err)
	}

	count, err := store.Leads().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBulkInsert_CatchesDuplicatesWithinBatch(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	result, err := svc.BulkInsert(ctx, []models.LeadInput{
		{Name: "First", Phone: "+1 (555) 010-2233"},
		{Name: "Second", Website: "https://second.example"},
		{Name: "Third", Phone: "15550102233"}, // same digits as First
	})
	require.NoError(t, err)

	assert.Len(t, result.Inserted, 2)
	assert.Equal(t, 1, result.SkippedDuplicates)
	assert.Equal(t, "First", result.Inserted[0].Name, "first occurrence wins")

	count, err := store.Leads().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestBulkInsert_AgainstExistingPopulation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.InsertLead(ctx, models.LeadInput{Name: "Existing", Website: "https://dup.example"})
	require.NoError(t, err)

	result, err := svc.BulkInsert(ctx, []models.LeadInput{
		{Name: "Copy", Website: "http://www.dup.example/"},
		{Name: "Fresh", Website: "https://fresh.example"},
	})
	require.NoError(t, err)
	assert.Len(t, result.Inserted, 1)
	assert.Equal(t, 1, result.SkippedDuplicates)
}

func TestBulkInsert_InvalidRowsReportedNotSkipped(t *testing.T) {
	svc, _ := setup(t)

	result, err := svc.BulkInsert(context.Background(), []models.LeadInput{
		{Website: "https://no-name.example"}, // fails creation invariant
		{Name: "Valid", Website: "https://valid.example"},
	})
	require.NoError(t, err)

	assert.Len(t, result.Inserted, 1)
	assert.Equal(t, 0, result.SkippedDuplicates)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Row)
}

func TestFindMatches_RankedWithReasons(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.InsertLead(ctx, models.LeadInput{
		Name: "Bella Vista", Website: "https://bella.example", LocationID: intPtr(1),
	})
	require.NoError(t, err)
	_, err = svc.InsertLead(ctx, models.LeadInput{
		Name: "Bella Vista", Phone: "+1 555 010 9999", LocationID: intPtr(2),
	})
	require.NoError(t, err)

	matches, err := svc.FindMatches(ctx, DuplicateQuery{
		Name:       "bella  vista",
		Website:    "HTTPS://Bella.example/",
		LocationID: intPtr(1),
	}, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Website + name+location beats bare name match.
	assert.Equal(t, weightWebsite+weightNameLocation, matches[0].Score)
	assert.Contains(t, matches[0].Reasons, "same website")
	assert.Contains(t, matches[0].Reasons, "same name in same location")

	assert.Equal(t, weightNameOnly, matches[1].Score)
	assert.Equal(t, []string{"same name"}, matches[1].Reasons)
}

func TestFindMatches_AddressIsAdditiveOnly(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.InsertLead(ctx, models.LeadInput{
		Name: "Corner Cafe", Phone: "+1 555 010 2233", Address: "12 Main St",
	})
	require.NoError(t, err)

	matches, err := svc.FindMatches(ctx, DuplicateQuery{
		Phone:   "(555) 010-2233",
		Address: "12  main st",
	}, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, weightPhone+weightAddress, matches[0].Score)
}

func TestFindMatches_NoUsableSignal(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.InsertLead(ctx, models.LeadInput{Name: "Someone", Website: "https://x.example"})
	require.NoError(t, err)

	matches, err := svc.FindMatches(ctx, DuplicateQuery{Address: "12 Main St"}, 0)
	require.NoError(t, err)
	assert.Empty(t, matches, "address alone is not a usable query signal")
}

func TestFindMatches_LimitClamped(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := svc.InsertLead(ctx, models.LeadInput{
			Name:       "Chain Store",
			LocationID: intPtr(i),
			Website:    "",
		})
		require.NoError(t, err)
	}

	matches, err := svc.FindMatches(ctx, DuplicateQuery{Name: "Chain Store"}, 50)
	require.NoError(t, err)
	assert.Len(t, matches, MaxMatchLimit)
}
