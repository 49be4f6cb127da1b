package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "briefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestCreateAndGetBrief(t *testing.T) {
	database := newTestDB(t)

	created, err := database.CreateBrief(&Brief{
		UserID:           "user-1",
		Title:            "Développeur React",
		Missions:         []string{"Développement logiciel"},
		HardSkills:       []string{"JavaScript", "React"},
		Location:         "Télétravail possible",
		ConversationData: `[{"id":"1","content":"Bonjour","isAI":true}]`,
		BriefSummary:     `{"missions":true}`,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := database.GetBrief(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Développeur React", got.Title)
	assert.Equal(t, []string{"Développement logiciel"}, got.Missions)
	assert.Equal(t, []string{"JavaScript", "React"}, got.HardSkills)
	assert.Equal(t, []string{}, got.SoftSkills)
	assert.Equal(t, []string{}, got.Constraints)
	assert.Equal(t, "Télétravail possible", got.Location)
	assert.Equal(t, `{"missions":true}`, got.BriefSummary)
	assert.Empty(t, got.GeneratedJobPostingID)
}

func TestGetBriefNotFound(t *testing.T) {
	database := newTestDB(t)

	_, err := database.GetBrief("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBriefReplacesWholeRecord(t *testing.T) {
	database := newTestDB(t)

	created, err := database.CreateBrief(&Brief{
		UserID:     "user-1",
		Title:      "Product Owner",
		Missions:   []string{"Gestion de produit"},
		SoftSkills: []string{"Communication"},
	})
	require.NoError(t, err)

	created.Title = "Product Manager"
	created.SoftSkills = nil
	created.IsComplete = true
	updated, err := database.UpdateBrief(created)
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Product Manager", updated.Title)
	assert.Equal(t, []string{"Gestion de produit"}, updated.Missions)
	assert.Equal(t, []string{}, updated.SoftSkills)
	assert.True(t, updated.IsComplete)
}

func TestUpdateBriefUnknownID(t *testing.T) {
	database := newTestDB(t)

	_, err := database.UpdateBrief(&Brief{ID: "nope", UserID: "user-1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndDeleteBriefs(t *testing.T) {
	database := newTestDB(t)

	for _, title := range []string{"first", "second", "third"} {
		_, err := database.CreateBrief(&Brief{UserID: "user-1", Title: title})
		require.NoError(t, err)
	}
	_, err := database.CreateBrief(&Brief{UserID: "user-2", Title: "other"})
	require.NoError(t, err)

	briefs, err := database.ListBriefs("user-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, briefs, 3)
	assert.Equal(t, "third", briefs[0].Title)

	count, err := database.CountBriefs("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, database.DeleteBrief("user-1", briefs[0].ID))
	assert.ErrorIs(t, database.DeleteBrief("user-2", briefs[1].ID), ErrNotFound)

	count, err = database.CountBriefs("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestJobPostingLinkedToBrief(t *testing.T) {
	database := newTestDB(t)

	brief, err := database.CreateBrief(&Brief{UserID: "user-1", Title: "Data engineer", IsComplete: true})
	require.NoError(t, err)

	posting, err := database.CreateJobPosting(&JobPosting{
		UserID:        "user-1",
		Title:         brief.Title,
		Requirements:  []string{"SQL", "Rigueur"},
		SourceBriefID: brief.ID,
	})
	require.NoError(t, err)
	brief.GeneratedJobPostingID = posting.ID
	_, err = database.UpdateBrief(brief)
	require.NoError(t, err)

	got, err := database.GetBrief(brief.ID)
	require.NoError(t, err)
	assert.Equal(t, posting.ID, got.GeneratedJobPostingID)

	stored, err := database.GetJobPosting(posting.ID)
	require.NoError(t, err)
	assert.Equal(t, brief.ID, stored.SourceBriefID)
	assert.Equal(t, []string{"SQL", "Rigueur"}, stored.Requirements)

	postings, err := database.ListJobPostings("user-1")
	require.NoError(t, err)
	assert.Len(t, postings, 1)

	stats, err := database.GetStats("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalBriefs)
	assert.Equal(t, int64(1), stats.CompleteBriefs)
	assert.Equal(t, int64(0), stats.InProgressBriefs)
	assert.Equal(t, int64(1), stats.JobPostings)
	assert.Positive(t, stats.DBSizeBytes)
}

func TestSearchBriefs(t *testing.T) {
	database := newTestDB(t)

	_, err := database.CreateBrief(&Brief{UserID: "user-1", Title: "Développeur backend", ProjectContext: "équipe paiement"})
	require.NoError(t, err)
	b, err := database.CreateBrief(&Brief{UserID: "user-1", Title: "Designer"})
	require.NoError(t, err)

	b.ProjectContext = "refonte paiement mobile"
	_, err = database.UpdateBrief(b)
	require.NoError(t, err)

	results, err := database.SearchBriefs("user-1", "paiement", 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = database.SearchBriefs("user-1", "mobile", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Designer", results[0].Brief.Title)
	assert.Contains(t, results[0].Snippet, "<mark>mobile</mark>")
}
