package planalytics

import "time"

// RawEvent est une ligne brute, append-only, écrite par le Recorder.
// L'IP n'est jamais persistée, seulement son empreinte.
type RawEvent struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Ts          time.Time `gorm:"index;not null" json:"ts"`
	Path        string    `gorm:"index;not null" json:"path"`
	Referrer    string    `json:"referrer"`
	UtmSource   string    `gorm:"size:120" json:"utm_source"`
	UtmMedium   string    `gorm:"size:120" json:"utm_medium"`
	UtmCampaign string    `gorm:"size:120" json:"utm_campaign"`
	UserAgent   string    `json:"user_agent"`
	IPHash      string    `gorm:"size:64;index" json:"ip_hash"`
	IsBot       bool      `gorm:"index" json:"is_bot"`
	UserID      string    `json:"user_id"`
	Country     string    `gorm:"size:8" json:"country"`
}

// DailyStat est le rollup journalier par chemin, dérivé des lignes brutes.
// Toujours reconstructible en relançant l'agrégation sur la fenêtre.
type DailyStat struct {
	Day  string `gorm:"primaryKey;size:10" json:"day"`
	Path string `gorm:"primaryKey;size:191" json:"path"`
	PV   int64  `gorm:"column:pv;default:0" json:"pv"`
	UV   int64  `gorm:"column:uv;default:0" json:"uv"`
}

func (RawEvent) TableName() string {
	return "analytics_events"
}

func (DailyStat) TableName() string {
	return "analytics_daily"
}
