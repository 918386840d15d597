package plmiddleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"pople/internal/models/planalytics"
)

// Chemins jamais comptés : administration, assets et sondes.
var excludedPrefixes = []string{
	"/admin",
	"/assets",
	"/static",
	"/images",
	"/favicon",
	"/healthz",
	"/uploads",
	"/files",
	"/metrics",
}

func isExcludedPath(path string) bool {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// clientIP retient la première entrée X-Forwarded-For quand le proxy
// en fournit une, sinon l'adresse vue par gin.
func clientIP(c *gin.Context) string {
	if xff := c.Request.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}

// Analytics enregistre chaque requête entrante après la réponse,
// toutes méthodes confondues, sans jamais retarder ni faire échouer
// la requête.
func Analytics(rec *planalytics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		path := c.Request.URL.Path
		if isExcludedPath(path) {
			return
		}

		var userID string
		if username, ok := sessions.Default(c).Get("username").(string); ok {
			userID = username
		}

		query := c.Request.URL.Query()
		rec.Record(planalytics.Hit{
			Path:        path,
			Referrer:    c.Request.Referer(),
			UtmSource:   query.Get("utm_source"),
			UtmMedium:   query.Get("utm_medium"),
			UtmCampaign: query.Get("utm_campaign"),
			UserAgent:   c.Request.UserAgent(),
			IP:          clientIP(c),
			UserID:      userID,
		})
	}
}
