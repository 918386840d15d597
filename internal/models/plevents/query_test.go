package plevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDefaults(t *testing.T) {
	plan := ListParams{}.Normalize()

	assert.Equal(t, "published_at DESC", plan.OrderBy)
	assert.Equal(t, 1, plan.Page)
	assert.Equal(t, DefaultPageSize, plan.PageSize)
	assert.Equal(t, 0, plan.Offset)
	assert.Equal(t, DefaultPageSize, plan.Limit)
}

func TestNormalizeSortWhitelist(t *testing.T) {
	plan := ListParams{Sort: "start_date", Order: "ASC"}.Normalize()
	assert.Equal(t, "start_date ASC", plan.OrderBy)

	plan = ListParams{Sort: "title", Order: "desc"}.Normalize()
	assert.Equal(t, "title DESC", plan.OrderBy)

	// Colonne hors liste blanche: retour au tri par défaut
	plan = ListParams{Sort: "content; DROP TABLE events", Order: "asc"}.Normalize()
	assert.Equal(t, "published_at DESC", plan.OrderBy)

	// Ordre invalide: idem
	plan = ListParams{Sort: "title", Order: "sideways"}.Normalize()
	assert.Equal(t, "published_at DESC", plan.OrderBy)
}

func TestNormalizePageBounds(t *testing.T) {
	plan := ListParams{Page: -3, PageSize: 0}.Normalize()
	assert.Equal(t, 1, plan.Page)
	assert.Equal(t, DefaultPageSize, plan.PageSize)

	plan = ListParams{Page: 5, PageSize: 1000}.Normalize()
	assert.Equal(t, 5, plan.Page)
	assert.Equal(t, MaxPageSize, plan.PageSize)
	assert.Equal(t, 4*MaxPageSize, plan.Offset)
}

func TestNormalizeDateWindow(t *testing.T) {
	// Les deux bornes présentes: fenêtre appliquée
	plan := ListParams{From: "2026-01-01", To: "2026-01-31"}.Normalize()
	assert.Equal(t, "2026-01-01", plan.From)
	assert.Equal(t, "2026-01-31", plan.To)

	// Une seule borne: filtre entièrement ignoré
	plan = ListParams{From: "2026-01-01"}.Normalize()
	assert.Empty(t, plan.From)
	assert.Empty(t, plan.To)

	plan = ListParams{To: "2026-01-31"}.Normalize()
	assert.Empty(t, plan.From)
	assert.Empty(t, plan.To)
}

func TestTotalPages(t *testing.T) {
	plan := ListPlan{PageSize: 12}
	assert.Equal(t, int64(0), plan.TotalPages(0))
	assert.Equal(t, int64(1), plan.TotalPages(1))
	assert.Equal(t, int64(1), plan.TotalPages(12))
	assert.Equal(t, int64(2), plan.TotalPages(13))
	assert.Equal(t, int64(3), plan.TotalPages(25))
}
