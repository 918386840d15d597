package planalytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupAnalyticsDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&RawEvent{}, &DailyStat{}))
	return db
}

func TestIsBot(t *testing.T) {
	bots := []string{
		"Googlebot/2.1 (+http://www.google.com/bot.html)",
		"Mozilla/5.0 AppleWebKit/537.36 HeadlessChrome/120.0",
		"curl/8.4.0",
		"Wget/1.21",
		"python-requests/2.31.0",
		"Chrome-Lighthouse",
		"UptimeMonitor/1.0",
	}
	for _, ua := range bots {
		assert.True(t, IsBot(ua), "devrait être un bot: %q", ua)
	}

	humans := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Safari/604.1",
		// Un user-agent vide ne matche aucun mot-clé
		"",
	}
	for _, ua := range humans {
		assert.False(t, IsBot(ua), "ne devrait pas être un bot: %q", ua)
	}
}

func TestHashIP(t *testing.T) {
	h := HashIP("203.0.113.7")
	assert.Len(t, h, 48)
	// Déterministe
	assert.Equal(t, h, HashIP("203.0.113.7"))
	assert.NotEqual(t, h, HashIP("203.0.113.8"))
}

func TestRecorderWritesEvents(t *testing.T) {
	db := setupAnalyticsDB(t)
	rec := NewRecorder(db, nil, "")

	rec.Record(Hit{
		Path:      "/events/1",
		Referrer:  "https://search.example",
		UtmSource: "newsletter",
		UserAgent: "Mozilla/5.0 Chrome/120.0",
		IP:        "203.0.113.7",
	})
	rec.Record(Hit{
		Path:      "/events/1",
		UserAgent: "Googlebot/2.1",
		IP:        "203.0.113.9",
	})
	rec.Close()

	var events []RawEvent
	require.NoError(t, db.Order("id").Find(&events).Error)
	require.Len(t, events, 2)

	assert.Equal(t, "/events/1", events[0].Path)
	assert.Equal(t, "newsletter", events[0].UtmSource)
	assert.False(t, events[0].IsBot)
	assert.Len(t, events[0].IPHash, 48)
	assert.NotContains(t, events[0].IPHash, "203.0.113.7")

	assert.True(t, events[1].IsBot)
}

func TestRecorderCloseIsIdempotent(t *testing.T) {
	db := setupAnalyticsDB(t)
	rec := NewRecorder(db, nil, "")

	rec.Record(Hit{Path: "/", UserAgent: "Mozilla/5.0 Chrome/120.0", IP: "203.0.113.7"})
	rec.Close()
	rec.Close()

	// Un hit arrivant après le shutdown est ignoré sans paniquer
	rec.Record(Hit{Path: "/tardif", IP: "203.0.113.8"})

	var count int64
	require.NoError(t, db.Model(&RawEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func seedRaw(t *testing.T, db *gorm.DB, ts time.Time, path, ip string, isBot bool) {
	t.Helper()
	require.NoError(t, db.Create(&RawEvent{
		Ts:     ts,
		Path:   path,
		IPHash: HashIP(ip),
		IsBot:  isBot,
	}).Error)
}

func TestAggregateRollups(t *testing.T) {
	db := setupAnalyticsDB(t)
	agg := NewAggregator(db, 30)

	now := time.Now().UTC()
	day := now.Format("2006-01-02")

	seedRaw(t, db, now, "/", "ip-1", false)
	seedRaw(t, db, now, "/", "ip-2", false)
	seedRaw(t, db, now, "/events/1", "ip-1", false)
	// Les bots ne comptent jamais
	seedRaw(t, db, now, "/", "ip-3", true)
	// Hors fenêtre
	seedRaw(t, db, now.AddDate(0, 0, -40), "/", "ip-4", false)

	require.NoError(t, agg.Aggregate())

	var stats []DailyStat
	require.NoError(t, db.Order("path").Find(&stats).Error)
	require.Len(t, stats, 2)

	assert.Equal(t, day, stats[0].Day)
	assert.Equal(t, "/", stats[0].Path)
	assert.Equal(t, int64(2), stats[0].PV)

	assert.Equal(t, "/events/1", stats[1].Path)
	assert.Equal(t, int64(1), stats[1].PV)

	// uv compte les visiteurs du jour entier, répété sur chaque chemin
	assert.Equal(t, int64(2), stats[0].UV)
	assert.Equal(t, int64(2), stats[1].UV)
}

func TestAggregateIsIdempotent(t *testing.T) {
	db := setupAnalyticsDB(t)
	agg := NewAggregator(db, 30)

	now := time.Now().UTC()
	seedRaw(t, db, now, "/", "ip-1", false)

	require.NoError(t, agg.Aggregate())
	require.NoError(t, agg.Aggregate())

	var stats []DailyStat
	require.NoError(t, db.Find(&stats).Error)
	require.Len(t, stats, 1)
	// Deux passages ne doublent pas les compteurs
	assert.Equal(t, int64(1), stats[0].PV)
	assert.Equal(t, int64(1), stats[0].UV)
}

func TestAggregateWindowAlignedToMidnight(t *testing.T) {
	db := setupAnalyticsDB(t)
	agg := NewAggregator(db, 30)

	// Petit matin du jour le plus ancien de la fenêtre: avec une borne
	// en milieu de journée cet événement serait perdu et le rollup du
	// jour réécrit partiel
	oldest := time.Now().UTC().AddDate(0, 0, -30)
	earlyMorning := time.Date(oldest.Year(), oldest.Month(), oldest.Day(), 0, 0, 1, 0, time.UTC)
	seedRaw(t, db, earlyMorning, "/archives", "ip-1", false)

	require.NoError(t, agg.Aggregate())

	var stat DailyStat
	err := db.Where("day = ? AND path = ?", earlyMorning.Format("2006-01-02"), "/archives").
		First(&stat).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), stat.PV)

	// La purge respecte la même borne
	require.NoError(t, agg.CleanupRaw())
	var count int64
	require.NoError(t, db.Model(&RawEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCleanupRaw(t *testing.T) {
	db := setupAnalyticsDB(t)
	agg := NewAggregator(db, 30)

	now := time.Now().UTC()
	seedRaw(t, db, now, "/", "ip-1", false)
	seedRaw(t, db, now.AddDate(0, 0, -45), "/", "ip-2", false)

	require.NoError(t, agg.CleanupRaw())

	var count int64
	require.NoError(t, db.Model(&RawEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReporter(t *testing.T) {
	db := setupAnalyticsDB(t)
	agg := NewAggregator(db, 30)
	rep := NewReporter(db, nil)

	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)

	seedRaw(t, db, now, "/", "ip-1", false)
	seedRaw(t, db, now, "/", "ip-2", false)
	seedRaw(t, db, now, "/events/1", "ip-1", false)
	seedRaw(t, db, yesterday, "/events/1", "ip-3", false)
	seedRaw(t, db, yesterday, "/events/1", "ip-4", false)

	require.NoError(t, agg.Aggregate())

	series, err := rep.Timeseries()
	require.NoError(t, err)
	require.Len(t, series, 2)
	// Ordre chronologique
	assert.Equal(t, yesterday.Format("2006-01-02"), series[0].Day)
	assert.Equal(t, int64(2), series[0].PV)
	assert.Equal(t, now.Format("2006-01-02"), series[1].Day)
	assert.Equal(t, int64(3), series[1].PV)
	// uv sommé sur les chemins du jour: chaque ligne porte l'uv du
	// jour entier, la somme les cumule
	assert.Equal(t, int64(4), series[1].UV)

	top, err := rep.TopPaths()
	require.NoError(t, err)
	require.Len(t, top, 2)
	// Classés par vues décroissantes, toutes journées confondues
	assert.Equal(t, "/events/1", top[0].Path)
	assert.Equal(t, int64(3), top[0].PV)

	summary, err := rep.Summary(now.Format("2006-01-02"))
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "/", summary[0].Path)

	rt, err := rep.RealtimeToday(t.Context())
	require.NoError(t, err)
	assert.Zero(t, rt.PV)
}
