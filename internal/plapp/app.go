package plapp

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pople/internal/gormzerologger"
	"pople/internal/models/pladmin"
	"pople/internal/models/planalytics"
	"pople/internal/models/plcaptchas"
	"pople/internal/models/plcontacts"
	"pople/internal/models/plevents"
	"pople/internal/models/plimages"
	"pople/internal/plconfig"
)

// App assemble toutes les dépendances de l'application. Tout est
// construit ici, une fois, puis injecté dans les handlers.
type App struct {
	Conf        *plconfig.Config
	DB          *gorm.DB
	AnalyticsDB *gorm.DB
	Redis       *redis.Client

	Events   *plevents.Store
	Admins   *pladmin.Store
	Contacts *plcontacts.Store
	Captchas *plcaptchas.Captchas
	Images   *plimages.Saver

	Recorder   *planalytics.Recorder
	Aggregator *planalytics.Aggregator
	Reporter   *planalytics.Reporter

	cron *cron.Cron
}

func openDatabase(conf plconfig.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	gormConf := &gorm.Config{
		Logger:         gormzerologger.New(logLevel),
		TranslateError: true,
	}
	switch conf.Db {
	case "sqlite":
		return gorm.Open(sqlite.Open(conf.Path), gormConf)
	case "mysql":
		return gorm.Open(mysql.Open(conf.Dsn), gormConf)
	default:
		return nil, fmt.Errorf("le type de database doit etre sqlite ou mysql")
	}
}

// New ouvre les bases, migre les schémas, crée l'admin par défaut et
// démarre les tâches de fond.
func New(conf *plconfig.Config) (*App, error) {
	db, err := openDatabase(conf.Database, conf.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("erreur connexion base de données: %w", err)
	}

	// Base analytics séparée quand configurée, sinon la principale.
	analyticsDB := db
	if conf.Analytics.Db != "" {
		analyticsDB, err = openDatabase(plconfig.DatabaseConfig{
			Db:   conf.Analytics.Db,
			Path: conf.Analytics.Path,
			Dsn:  conf.Analytics.Dsn,
		}, conf.Logger.Level)
		if err != nil {
			return nil, fmt.Errorf("erreur connexion base analytics: %w", err)
		}
	}

	app := &App{
		Conf:        conf,
		DB:          db,
		AnalyticsDB: analyticsDB,
		Events:      plevents.NewStore(db),
		Admins:      pladmin.NewStore(db),
		Contacts:    plcontacts.NewStore(db),
		Images:      plimages.NewSaver(conf.Uploads.Path, conf.Uploads.MaxBytes, conf.Uploads.MaxWidth),
	}

	if err := app.Events.Migrate(); err != nil {
		return nil, fmt.Errorf("erreur migration: %w", err)
	}
	if err := app.Admins.Migrate(); err != nil {
		return nil, fmt.Errorf("erreur migration: %w", err)
	}
	if err := app.Contacts.Migrate(); err != nil {
		return nil, fmt.Errorf("erreur migration: %w", err)
	}
	if err := analyticsDB.AutoMigrate(&planalytics.RawEvent{}, &planalytics.DailyStat{}); err != nil {
		return nil, fmt.Errorf("erreur migration analytics: %w", err)
	}

	if err := app.Admins.EnsureDefault(conf.Admin); err != nil {
		return nil, fmt.Errorf("erreur création admin: %w", err)
	}

	if conf.Analytics.Redis.Addr != "" {
		app.Redis = redis.NewClient(&redis.Options{
			Addr: conf.Analytics.Redis.Addr,
			DB:   conf.Analytics.Redis.Db,
		})
	}

	app.Captchas = plcaptchas.New(app.Redis)
	app.Recorder = planalytics.NewRecorder(analyticsDB, app.Redis, conf.Analytics.GeoIPPath)
	app.Aggregator = planalytics.NewAggregator(analyticsDB, conf.Analytics.Lookback)
	app.Reporter = planalytics.NewReporter(analyticsDB, app.Redis)
	app.cron = app.Aggregator.Schedule()

	log.Info().Msg("application initialisée")
	return app, nil
}

// Close arrête les tâches de fond puis ferme les connexions, dans
// l'ordre inverse du démarrage.
func (a *App) Close() {
	if a.cron != nil {
		a.cron.Stop()
	}
	if a.Recorder != nil {
		a.Recorder.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.AnalyticsDB != nil && a.AnalyticsDB != a.DB {
		if sqlDB, err := a.AnalyticsDB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
