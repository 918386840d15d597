package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/penglongli/gin-metrics/ginmetrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	handlers_analytics "pople/internal/handlers/analytics"
	handlers_auth "pople/internal/handlers/auth"
	handlers_contacts "pople/internal/handlers/contacts"
	handlers_events "pople/internal/handlers/events"
	handlers_uploads "pople/internal/handlers/uploads"
	"pople/internal/models/pladmin"
	"pople/internal/models/plmarkdown"
	"pople/internal/plapp"
	"pople/internal/plconfig"
	"pople/internal/pllog"
	"pople/internal/plmiddleware"
)

var VERSION = "1.0.0"
var BuildID = ""

func parseCommandLineArgs() (configFile string, shouldCreateExample bool, versionDisplay bool, err error) {
	var config = flag.String("config", "", "Fichier de configuration YAML")
	var example = flag.Bool("example", false, "Créer un fichier de configuration exemple")
	var version = flag.Bool("version", false, "version du produit")
	flag.Parse()

	if *version {
		return "", false, true, nil
	}

	if *example {
		return "", true, false, nil
	}

	if *config == "" {
		return "", false, false, fmt.Errorf("fichier de configuration requis")
	}

	return *config, false, false, nil
}

func initConfiguration() *plconfig.Config {
	configFile, shouldCreateExample, versionDisplay, err := parseCommandLineArgs()
	if err != nil {
		fmt.Println("Usage:")
		fmt.Println("  pople -config pople.yaml")
		fmt.Println("  pople -example  (pour créer un fichier exemple)")
		fmt.Println("  pople -version  (affiche la version)")
		os.Exit(1)
	}

	if versionDisplay {
		println(VERSION)
		os.Exit(0)
	}

	plconfig.CreateExample(shouldCreateExample, configFile)

	conf, err := plconfig.LoadConfig(configFile)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	if err := conf.HashAdminPassword(configFile); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	return conf
}

func newServer(conf *plconfig.Config) *gin.Engine {
	if conf.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	if conf.TrustedProxies != nil {
		r.SetTrustedProxies(conf.TrustedProxies)
	}
	if conf.TrustedPlatform != "" {
		switch conf.TrustedPlatform {
		case "cloudflare":
			r.TrustedPlatform = gin.PlatformCloudflare
		case "google":
			r.TrustedPlatform = gin.PlatformGoogleAppEngine
		case "flyio":
			r.TrustedPlatform = gin.PlatformFlyIO
		default:
			r.TrustedPlatform = conf.TrustedPlatform
		}
	}

	return r
}

// ServeMinifiedStatic sert les assets css/js/svg du répertoire
// statique avec minification et cache agressif.
func ServeMinifiedStatic(m *minify.M, staticPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, "/files/")
		if strings.Contains(path, "..") {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		content, err := os.ReadFile(filepath.Join(staticPath, path))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "파일을 찾을 수 없습니다."})
			return
		}

		ext := filepath.Ext(path)
		var contentType string
		var minified []byte

		switch ext {
		case ".css":
			contentType = "text/css"
			minified, err = m.Bytes("text/css", content)
		case ".js":
			contentType = "application/javascript"
			minified, err = m.Bytes("application/javascript", content)
		case ".svg":
			c.Header("Cache-Control", "public, max-age=31536000, immutable")
			c.Header("ETag", generateETag(content))
			c.Data(http.StatusOK, "image/svg+xml", content)
			return
		default:
			c.Data(http.StatusOK, "application/octet-stream", content)
			return
		}

		if err != nil {
			minified = content
		}

		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Header("ETag", generateETag(minified))

		c.Data(http.StatusOK, contentType, minified)
	}
}

func generateETag(content []byte) string {
	hash := sha256.Sum256(content)
	return fmt.Sprintf(`"%x"`, hash[:16])
}

func setRoutes(r *gin.Engine, app *plapp.App) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)

	// middleware rate limiter
	middlewareLimiter := plmiddleware.NewLimiter()

	// metrics routes
	metrics := ginmetrics.GetMonitor()
	metrics.Use(r)

	// journalisation des pages vues
	r.Use(plmiddleware.Analytics(app.Recorder))

	eventsHandler := handlers_events.NewEventsHandler(app.Events)
	analyticsHandler := handlers_analytics.NewAnalyticsHandler(app.Aggregator, app.Reporter)
	contactsHandler := handlers_contacts.NewContactsHandler(app.Contacts, app.Captchas, app.Conf.Contact.Captcha)
	uploadsHandler := handlers_uploads.NewUploadsHandler(app.Images)
	authHandler := handlers_auth.NewAuthHandler(app.Admins)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Routes statiques
	r.Static("/uploads/", app.Conf.Uploads.Path)
	if app.Conf.StaticPath != "" {
		r.Static("/static/", app.Conf.StaticPath)
		r.GET("/files/css/*css", ServeMinifiedStatic(m, app.Conf.StaticPath))
		r.GET("/files/js/*js", ServeMinifiedStatic(m, app.Conf.StaticPath))
		r.GET("/files/img/*svg", ServeMinifiedStatic(m, app.Conf.StaticPath))
	}
	r.GET("/files/captcha", func(c *gin.Context) {
		app.Captchas.CaptchaHandler(c, app.Conf.Production)
	})

	// Routes d'authentification
	r.POST("/admin/login", middlewareLimiter, authHandler.Login)
	r.POST("/admin/logout", authHandler.Logout)
	r.GET("/admin/me", authHandler.Me)

	// API publique
	api := r.Group("/api")
	{
		api.GET("/events", eventsHandler.List)
		api.GET("/events/:id", eventsHandler.Get)
		api.POST("/contact", middlewareLimiter, contactsHandler.Submit)
	}

	// Routes d'administration protégées
	admin := r.Group("/admin")
	admin.Use(pladmin.RequireAuth())
	{
		admin.POST("/events", eventsHandler.Create)
		admin.PUT("/events/:id", eventsHandler.Update)
		admin.DELETE("/events/:id", eventsHandler.Delete)
		admin.POST("/upload", uploadsHandler.Upload)
		admin.GET("/contacts", contactsHandler.List)
		admin.GET("/analytics/timeseries", analyticsHandler.Timeseries)
		admin.GET("/analytics/top-paths", analyticsHandler.TopPaths)
		admin.GET("/analytics/summary", analyticsHandler.Summary)
		admin.GET("/analytics/realtime", analyticsHandler.Realtime)
	}
}

func startServer(r *gin.Engine, app *plapp.App) {
	conf := app.Conf
	if conf.Listen.Metrics != "" {
		log.Info().Msgf("Metrics disponible sur http://%s/metrics", conf.Listen.Metrics)
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			http.ListenAndServe(conf.Listen.Metrics, nil)
		}()
	}

	// Fermer proprement recorder, cron et connexions sur SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info().Msg("arrêt en cours")
		app.Close()
		os.Exit(0)
	}()

	log.Info().Msgf("Website démarré sur http://%s", conf.Listen.Website)
	r.Run(conf.Listen.Website)
}

func main() {
	if BuildID == "" {
		BuildID = VERSION
	}

	conf := initConfiguration()
	pllog.InitLogger(conf.Logger, conf.Production)
	plmarkdown.InitMarkdown()

	app, err := plapp.New(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("initialisation impossible")
	}

	r := newServer(conf)
	plmiddleware.InitMiddleware(r, conf.Production)
	setRoutes(r, app)

	startServer(r, app)
}
