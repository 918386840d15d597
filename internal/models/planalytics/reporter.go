package planalytics

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	timeseriesLimit = 180
	topPathsLimit   = 50
)

// TimeseriesRow agrège tous les chemins d'une journée.
type TimeseriesRow struct {
	Day string `gorm:"column:day" json:"day"`
	PV  int64  `gorm:"column:pv" json:"pv"`
	UV  int64  `gorm:"column:uv" json:"uv"`
}

// PathRow agrège un chemin sur toute la fenêtre conservée.
type PathRow struct {
	Path string `gorm:"column:path" json:"path"`
	PV   int64  `gorm:"column:pv" json:"pv"`
	UV   int64  `gorm:"column:uv" json:"uv"`
}

// Realtime expose les compteurs redis du jour courant.
type Realtime struct {
	Day string `json:"day"`
	PV  int64  `json:"pv"`
	UV  int64  `json:"uv"`
}

// Reporter lit les rollups pour les écrans d'administration. Il ne
// touche jamais aux lignes brutes.
type Reporter struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewReporter(db *gorm.DB, redisClient *redis.Client) *Reporter {
	return &Reporter{db: db, redis: redisClient}
}

// Timeseries retourne la série journalière, du plus ancien au plus
// récent, bornée à 180 jours. Les uv sont sommés sur les chemins du
// jour, comme chaque ligne porte déjà l'uv du jour entier la somme
// dépasse le nombre réel de visiteurs.
func (r *Reporter) Timeseries() ([]TimeseriesRow, error) {
	var rows []TimeseriesRow
	err := r.db.Model(&DailyStat{}).
		Select("day, SUM(pv) AS pv, SUM(uv) AS uv").
		Group("day").
		Order("day ASC").
		Limit(timeseriesLimit).
		Scan(&rows).Error
	return rows, err
}

// TopPaths retourne les chemins les plus vus, bornés à 50.
func (r *Reporter) TopPaths() ([]PathRow, error) {
	var rows []PathRow
	err := r.db.Model(&DailyStat{}).
		Select("path, SUM(pv) AS pv, SUM(uv) AS uv").
		Group("path").
		Order("pv DESC").
		Limit(topPathsLimit).
		Scan(&rows).Error
	return rows, err
}

// Summary retourne le détail par chemin d'une journée, trié par vues.
func (r *Reporter) Summary(day string) ([]DailyStat, error) {
	var stats []DailyStat
	err := r.db.Where("day = ?", day).
		Order("pv DESC").
		Find(&stats).Error
	return stats, err
}

// RealtimeToday lit les compteurs redis du jour. Sans redis configuré,
// les compteurs restent à zéro.
func (r *Reporter) RealtimeToday(ctx context.Context) (Realtime, error) {
	day := time.Now().UTC().Format("2006-01-02")
	rt := Realtime{Day: day}
	if r.redis == nil {
		return rt, nil
	}
	pv, err := r.redis.Get(ctx, "analytics:pv:"+day).Int64()
	if err != nil && err != redis.Nil {
		return rt, err
	}
	uv, err := r.redis.SCard(ctx, "analytics:uv:"+day).Result()
	if err != nil && err != redis.Nil {
		return rt, err
	}
	rt.PV = pv
	rt.UV = uv
	return rt, nil
}
