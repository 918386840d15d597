package plevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func eventInput(title string) EventInput {
	return EventInput{
		Title:     title,
		Content:   "**contenu**",
		StartDate: "2026-03-01",
		EndDate:   "2026-03-05",
		Status:    StatusDraft,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := setupStore(t)

	in := eventInput("Main Event")
	in.Tags = "holdem,seoul"
	require.NoError(t, in.Validate())

	created, err := store.Create(in)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.PublishedAt)

	got, err := store.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main Event", got.Title)
	assert.Equal(t, []string{"holdem", "seoul"}, got.TagsList)
	assert.Contains(t, string(got.ContentHTML), "<strong>contenu</strong>")
}

func TestGetBySlug(t *testing.T) {
	store := setupStore(t)

	in := eventInput("Satellite")
	in.Slug = "satellite-2026"
	_, err := store.Create(in)
	require.NoError(t, err)

	got, err := store.GetBySlug("satellite-2026")
	require.NoError(t, err)
	assert.Equal(t, "Satellite", got.Title)

	_, err = store.GetBySlug("inconnu")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublishedAtFollowsStatus(t *testing.T) {
	store := setupStore(t)

	in := eventInput("Deepstack")
	in.Status = StatusPublished
	created, err := store.Create(in)
	require.NoError(t, err)
	require.NotNil(t, created.PublishedAt)

	// Repasser en draft efface published_at
	in.Status = StatusDraft
	updated, err := store.Update(created.ID, in)
	require.NoError(t, err)
	assert.Nil(t, updated.PublishedAt)

	// Republier le recalcule
	in.Status = StatusPublished
	updated, err = store.Update(created.ID, in)
	require.NoError(t, err)
	assert.NotNil(t, updated.PublishedAt)
}

func TestDuplicateSlug(t *testing.T) {
	store := setupStore(t)

	in := eventInput("Premier")
	in.Slug = "gros-tournoi"
	_, err := store.Create(in)
	require.NoError(t, err)

	in2 := eventInput("Second")
	in2.Slug = "gros-tournoi"
	_, err = store.Create(in2)
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestNilSlugsNeverCollide(t *testing.T) {
	store := setupStore(t)

	_, err := store.Create(eventInput("Sans slug 1"))
	require.NoError(t, err)
	_, err = store.Create(eventInput("Sans slug 2"))
	require.NoError(t, err)

	plan := ListParams{}.Normalize()
	total, err := store.Count(plan)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestUpdateSlugConflictAndSelf(t *testing.T) {
	store := setupStore(t)

	a := eventInput("A")
	a.Slug = "slug-a"
	createdA, err := store.Create(a)
	require.NoError(t, err)

	b := eventInput("B")
	b.Slug = "slug-b"
	createdB, err := store.Create(b)
	require.NoError(t, err)

	// Reprendre le slug d'un autre événement échoue
	b.Slug = "slug-a"
	_, err = store.Update(createdB.ID, b)
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	// Garder son propre slug n'est pas une collision
	a.Title = "A bis"
	updated, err := store.Update(createdA.ID, a)
	require.NoError(t, err)
	assert.Equal(t, "A bis", updated.Title)
}

func TestUpdateNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.Update(9999, eventInput("Fantôme"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := setupStore(t)

	created, err := store.Create(eventInput("Éphémère"))
	require.NoError(t, err)

	deleted, err := store.Delete(created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Supprimer un id déjà parti n'est pas une erreur
	deleted, err = store.Delete(created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListFilters(t *testing.T) {
	store := setupStore(t)

	published := eventInput("Grand Final Seoul")
	published.Status = StatusPublished
	_, err := store.Create(published)
	require.NoError(t, err)

	draft := eventInput("Petit tournoi")
	_, err = store.Create(draft)
	require.NoError(t, err)

	plan := ListParams{Status: StatusPublished}.Normalize()
	events, err := store.List(plan)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Grand Final Seoul", events[0].Title)

	// Recherche insensible à la casse sur le titre uniquement
	plan = ListParams{Search: "SEOUL"}.Normalize()
	events, err = store.List(plan)
	require.NoError(t, err)
	require.Len(t, events, 1)

	total, err := store.Count(plan)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestListCombinedFilters(t *testing.T) {
	store := setupStore(t)

	target := eventInput("JOPT 2025 메인 이벤트")
	target.Status = StatusPublished
	_, err := store.Create(target)
	require.NoError(t, err)

	other := eventInput("Autre tournoi")
	other.Status = StatusPublished
	_, err = store.Create(other)
	require.NoError(t, err)

	plan := ListParams{
		Status:   StatusPublished,
		Search:   "JOPT",
		Sort:     "start_date",
		Order:    "asc",
		Page:     1,
		PageSize: 12,
	}.Normalize()

	events, err := store.List(plan)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "JOPT 2025 메인 이벤트", events[0].Title)

	total, err := store.Count(plan)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), plan.TotalPages(total))
}

func TestListDateOverlap(t *testing.T) {
	store := setupStore(t)

	mk := func(title, start, end string) {
		in := eventInput(title)
		in.StartDate = start
		in.EndDate = end
		_, err := store.Create(in)
		require.NoError(t, err)
	}

	mk("Avant", "2026-01-01", "2026-01-05")
	mk("Chevauche le début", "2026-02-25", "2026-03-03")
	mk("Dedans", "2026-03-10", "2026-03-12")
	mk("Chevauche la fin", "2026-03-28", "2026-04-02")
	mk("Après", "2026-05-01", "2026-05-02")

	plan := ListParams{From: "2026-03-01", To: "2026-03-31", Sort: "start_date", Order: "asc"}.Normalize()
	events, err := store.List(plan)
	require.NoError(t, err)

	titles := make([]string, len(events))
	for i, e := range events {
		titles[i] = e.Title
	}
	assert.Equal(t, []string{"Chevauche le début", "Dedans", "Chevauche la fin"}, titles)

	total, err := store.Count(plan)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestListPagination(t *testing.T) {
	store := setupStore(t)

	for i := 0; i < 5; i++ {
		in := eventInput("Événement " + string(rune('A'+i)))
		_, err := store.Create(in)
		require.NoError(t, err)
	}

	plan := ListParams{Page: 2, PageSize: 2, Sort: "created_at", Order: "asc"}.Normalize()
	events, err := store.List(plan)
	require.NoError(t, err)
	assert.Len(t, events, 2)

	total, err := store.Count(plan)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, int64(3), plan.TotalPages(total))
}

func TestExtractExcerpt(t *testing.T) {
	assert.Equal(t, "court", ExtractExcerpt("court", 150))

	long := "mot "
	for len(long) < 200 {
		long += "mot "
	}
	excerpt := ExtractExcerpt(long, 150)
	assert.LessOrEqual(t, len(excerpt), 154)
	assert.Contains(t, excerpt, "...")
}
