package planalytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	hitBufferSize  = 1024
	realtimeExpiry = 31 * 24 * time.Hour
)

var botKeywords = []string{
	"bot", "spider", "crawl", "crawler", "fetch", "headless",
	"curl", "wget", "python-requests", "httpclient", "lighthouse", "monitor",
}

// IsBot classifie un user-agent par correspondance de mots-clés.
// Un user-agent vide ne matche rien, donc compte comme humain.
func IsBot(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, kw := range botKeywords {
		if strings.Contains(ua, kw) {
			return true
		}
	}
	return false
}

// HashIP retourne l'empreinte sha256 hex tronquée à 48 caractères.
func HashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:48]
}

// Hit est une vue de page telle que reçue par le middleware, avant
// anonymisation. Seul le Recorder voit l'IP en clair.
type Hit struct {
	Path        string
	Referrer    string
	UtmSource   string
	UtmMedium   string
	UtmCampaign string
	UserAgent   string
	IP          string
	UserID      string
}

// Recorder écrit les hits en arrière-plan via un canal borné.
// Record ne bloque jamais le chemin de la requête : si le tampon est
// plein, le hit est perdu et un warning est loggé.
type Recorder struct {
	db    *gorm.DB
	redis *redis.Client
	geoip *geoip2.Reader
	hits  chan Hit
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewRecorder démarre le worker. redisClient et geoipPath sont
// optionnels : nil/vide désactive les compteurs temps réel et la
// résolution pays.
func NewRecorder(db *gorm.DB, redisClient *redis.Client, geoipPath string) *Recorder {
	r := &Recorder{
		db:    db,
		redis: redisClient,
		hits:  make(chan Hit, hitBufferSize),
		done:  make(chan struct{}),
	}
	if geoipPath != "" {
		reader, err := geoip2.Open(geoipPath)
		if err != nil {
			log.Warn().Err(err).Str("path", geoipPath).Msg("geoip database unavailable, country lookup disabled")
		} else {
			r.geoip = reader
		}
	}
	go r.worker()
	return r
}

// Record enfile un hit sans jamais bloquer l'appelant. Après Close,
// les hits sont silencieusement ignorés: une requête encore en vol
// pendant le shutdown ne doit pas paniquer sur un canal fermé.
func (r *Recorder) Record(h Hit) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.hits <- h:
	default:
		log.Warn().Str("path", h.Path).Msg("analytics buffer full, hit dropped")
	}
}

// Close draine le tampon puis arrête le worker. Idempotent, à appeler
// au shutdown.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.hits)
	r.mu.Unlock()

	<-r.done
	if r.geoip != nil {
		r.geoip.Close()
	}
}

func (r *Recorder) worker() {
	defer close(r.done)
	for h := range r.hits {
		r.store(h)
	}
}

func (r *Recorder) store(h Hit) {
	ev := RawEvent{
		Ts:          time.Now().UTC(),
		Path:        h.Path,
		Referrer:    h.Referrer,
		UtmSource:   h.UtmSource,
		UtmMedium:   h.UtmMedium,
		UtmCampaign: h.UtmCampaign,
		UserAgent:   h.UserAgent,
		IPHash:      HashIP(h.IP),
		IsBot:       IsBot(h.UserAgent),
		UserID:      h.UserID,
		Country:     r.country(h.IP),
	}
	if err := r.db.Create(&ev).Error; err != nil {
		log.Error().Err(err).Str("path", ev.Path).Msg("analytics insert failed")
		return
	}
	if !ev.IsBot {
		r.bumpRealtime(ev)
	}
}

func (r *Recorder) country(ip string) string {
	if r.geoip == nil {
		return ""
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ""
	}
	record, err := r.geoip.Country(addr)
	if err != nil || record == nil {
		return ""
	}
	return record.Country.ISOCode
}

// bumpRealtime incrémente les compteurs du jour dans redis. Les clés
// expirent après la fenêtre de rétention, pas de nettoyage à faire.
func (r *Recorder) bumpRealtime(ev RawEvent) {
	if r.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	day := ev.Ts.Format("2006-01-02")
	pvKey := "analytics:pv:" + day
	uvKey := "analytics:uv:" + day

	pipe := r.redis.Pipeline()
	pipe.Incr(ctx, pvKey)
	pipe.Expire(ctx, pvKey, realtimeExpiry)
	pipe.SAdd(ctx, uvKey, ev.IPHash)
	pipe.Expire(ctx, uvKey, realtimeExpiry)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Msg("realtime counters update failed")
	}
}
