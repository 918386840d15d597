package planalytics

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Aggregator recalcule les rollups journaliers sur une fenêtre
// glissante. L'opération est idempotente : chaque passage réécrit
// entièrement les lignes (day, path) de la fenêtre.
type Aggregator struct {
	db       *gorm.DB
	lookback int
}

func NewAggregator(db *gorm.DB, lookbackDays int) *Aggregator {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &Aggregator{db: db, lookback: lookbackDays}
}

type dayPath struct {
	day  string
	path string
}

// windowStart borne la fenêtre au minuit UTC du jour le plus ancien:
// un jour est toujours agrégé en entier, jamais à partir d'un
// timestamp en milieu de journée qui écraserait un rollup complet.
func (a *Aggregator) windowStart() time.Time {
	since := time.Now().UTC().AddDate(0, 0, -a.lookback)
	return time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)
}

// Aggregate lit les lignes brutes non-bot de la fenêtre, les met en
// seau par jour calendaire UTC et upsert les rollups. Les visiteurs
// uniques sont comptés par jour entier, pas par chemin : chaque chemin
// d'un jour porte le même uv.
func (a *Aggregator) Aggregate() error {
	since := a.windowStart()

	var rows []RawEvent
	err := a.db.Select("ts", "path", "ip_hash").
		Where("ts >= ? AND is_bot = ?", since, false).
		Find(&rows).Error
	if err != nil {
		return err
	}

	pv := make(map[dayPath]int64)
	visitors := make(map[string]map[string]struct{})
	for _, ev := range rows {
		day := ev.Ts.UTC().Format("2006-01-02")
		pv[dayPath{day, ev.Path}]++
		if visitors[day] == nil {
			visitors[day] = make(map[string]struct{})
		}
		visitors[day][ev.IPHash] = struct{}{}
	}

	stats := make([]DailyStat, 0, len(pv))
	for key, count := range pv {
		stats = append(stats, DailyStat{
			Day:  key.day,
			Path: key.path,
			PV:   count,
			UV:   int64(len(visitors[key.day])),
		})
	}
	if len(stats) == 0 {
		return nil
	}

	err = a.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}, {Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"pv", "uv"}),
	}).Create(&stats).Error
	if err != nil {
		return err
	}
	log.Info().Int("rows", len(stats)).Int("lookback_days", a.lookback).Msg("analytics rollup completed")
	return nil
}

// CleanupRaw purge les lignes brutes sorties de la fenêtre. Les
// rollups déjà calculés les survivent.
func (a *Aggregator) CleanupRaw() error {
	res := a.db.Where("ts < ?", a.windowStart()).Delete(&RawEvent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Info().Int64("rows", res.RowsAffected).Msg("old analytics events purged")
	}
	return nil
}

// Schedule lance l'agrégation toutes les heures et la purge chaque
// nuit. Le cron retourné doit être arrêté au shutdown.
func (a *Aggregator) Schedule() *cron.Cron {
	c := cron.New()
	c.AddFunc("@hourly", func() {
		if err := a.Aggregate(); err != nil {
			log.Error().Err(err).Msg("scheduled rollup failed")
		}
	})
	c.AddFunc("15 2 * * *", func() {
		if err := a.CleanupRaw(); err != nil {
			log.Error().Err(err).Msg("scheduled cleanup failed")
		}
	})
	c.Start()
	return c
}
