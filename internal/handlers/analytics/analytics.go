package handlers_analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pople/internal/models/planalytics"
)

type AnalyticsHandler struct {
	aggregator *planalytics.Aggregator
	reporter   *planalytics.Reporter
}

func NewAnalyticsHandler(aggregator *planalytics.Aggregator, reporter *planalytics.Reporter) *AnalyticsHandler {
	return &AnalyticsHandler{
		aggregator: aggregator,
		reporter:   reporter,
	}
}

// refresh recalcule les rollups avant de servir, pour que le tableau
// de bord ne traîne jamais plus d'une requête de retard.
func (ah *AnalyticsHandler) refresh(c *gin.Context) bool {
	if err := ah.aggregator.Aggregate(); err != nil {
		log.Error().Err(err).Msg("on-demand rollup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "통계를 불러오지 못했습니다."})
		return false
	}
	return true
}

// Timeseries sert la série journalière pv/uv, ordre chronologique.
func (ah *AnalyticsHandler) Timeseries(c *gin.Context) {
	if !ah.refresh(c) {
		return
	}
	rows, err := ah.reporter.Timeseries()
	if err != nil {
		serverError(c, err, "timeseries query failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
}

// TopPaths sert le classement des chemins les plus vus.
func (ah *AnalyticsHandler) TopPaths(c *gin.Context) {
	if !ah.refresh(c) {
		return
	}
	rows, err := ah.reporter.TopPaths()
	if err != nil {
		serverError(c, err, "top paths query failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "rows": rows})
}

// Summary sert le détail d'une journée, ?day=YYYY-MM-DD. Sans
// paramètre day, la réponse est vide.
func (ah *AnalyticsHandler) Summary(c *gin.Context) {
	if !ah.refresh(c) {
		return
	}
	day := c.Query("day")
	if day == "" {
		c.JSON(http.StatusOK, gin.H{"ok": true, "rows": []planalytics.DailyStat{}})
		return
	}
	rows, err := ah.reporter.Summary(day)
	if err != nil {
		serverError(c, err, "summary query failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "day": day, "rows": rows})
}

// Realtime sert les compteurs redis du jour courant.
func (ah *AnalyticsHandler) Realtime(c *gin.Context) {
	rt, err := ah.reporter.RealtimeToday(c.Request.Context())
	if err != nil {
		serverError(c, err, "realtime query failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "realtime": rt})
}

func serverError(c *gin.Context, err error, msg string) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "통계를 불러오지 못했습니다."})
}
