package plevents

import (
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

var validSorts = []string{"title", "start_date", "end_date", "status", "published_at", "created_at"}

// ListParams est le sac de paramètres brut reçu de la query string.
type ListParams struct {
	Status   string
	Search   string
	From     string
	To       string
	Sort     string
	Order    string
	Page     int
	PageSize int
}

// ListPlan est le plan normalisé consommé par le store. Le même prédicat
// (Status/Search/From/To) sert à la fois à List et à Count pour que le total
// et la page retournée ne divergent jamais.
type ListPlan struct {
	Status   string
	Search   string
	From     string
	To       string
	OrderBy  string
	Page     int
	PageSize int
	Offset   int
	Limit    int
}

// ParamsFromContext extrait les paramètres de liste d'une requête gin.
func ParamsFromContext(c *gin.Context) ListParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "12"))
	return ListParams{
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Sort:     c.DefaultQuery("sort", "published_at"),
		Order:    c.DefaultQuery("order", "desc"),
		Page:     page,
		PageSize: pageSize,
	}
}

// Normalize valide et borne les paramètres bruts.
//
// Quirk documenté: le filtre de dates ne s'applique que si from ET to sont
// fournis; un seul des deux est ignoré entièrement, jamais appliqué à moitié.
func (p ListParams) Normalize() ListPlan {
	plan := ListPlan{
		Status: strings.TrimSpace(p.Status),
		Search: strings.TrimSpace(p.Search),
	}

	if p.From != "" && p.To != "" {
		plan.From = p.From
		plan.To = p.To
	}

	order := strings.ToLower(p.Order)
	if slices.Contains(validSorts, p.Sort) && (order == "asc" || order == "desc") {
		plan.OrderBy = p.Sort + " " + strings.ToUpper(order)
	} else {
		plan.OrderBy = "published_at DESC"
	}

	plan.Page = p.Page
	if plan.Page < 1 {
		plan.Page = 1
	}
	plan.PageSize = p.PageSize
	if plan.PageSize < 1 {
		plan.PageSize = DefaultPageSize
	}
	if plan.PageSize > MaxPageSize {
		plan.PageSize = MaxPageSize
	}

	plan.Offset = (plan.Page - 1) * plan.PageSize
	plan.Limit = plan.PageSize

	return plan
}

// TotalPages calcule ceil(total / pageSize) pour l'enveloppe de pagination.
func (p ListPlan) TotalPages(total int64) int64 {
	return (total + int64(p.PageSize) - 1) / int64(p.PageSize)
}
