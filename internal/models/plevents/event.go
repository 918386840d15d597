package plevents

import (
	"html/template"
	"pople/internal/models/plmarkdown"
	"strings"
	"time"
	"unicode/utf8"

	stripmd "github.com/writeas/go-strip-markdown"
	"gorm.io/gorm"
)

// Statuts du cycle de vie d'un événement
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Formats de contenu acceptés
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatText     = "text"
)

// Les dates start/end sont stockées en texte YYYY-MM-DD, comme des colonnes
// TEXT sqlite: la comparaison lexicographique vaut comparaison chronologique.
type Event struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	Title         string        `json:"title" gorm:"not null"`
	Slug          *string       `json:"slug" gorm:"uniqueIndex"`
	Content       string        `json:"content" gorm:"type:text;not null"`
	ContentHTML   template.HTML `json:"content_html" gorm:"-"`
	ContentFormat string        `json:"content_format" gorm:"default:markdown"`
	Excerpt       string        `json:"excerpt" gorm:"-"`
	StartDate     string        `json:"start_date" gorm:"not null;index:idx_events_status_date"`
	EndDate       string        `json:"end_date" gorm:"not null;index:idx_events_status_date"`
	Status        string        `json:"status" gorm:"not null;default:draft;index:idx_events_status_date,priority:1"`
	ThumbnailURL  string        `json:"thumbnail_url"`
	Tags          string        `json:"-" gorm:"type:text"`
	TagsList      []string      `json:"tags" gorm:"-"`
	PublishedAt   *time.Time    `json:"published_at" gorm:"index"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}

// Hooks GORM
func (e *Event) BeforeSave(tx *gorm.DB) error {
	if len(e.TagsList) > 0 {
		e.Tags = strings.Join(e.TagsList, ",")
	}
	return nil
}

func (e *Event) AfterFind(tx *gorm.DB) error {
	if e.Tags != "" {
		e.TagsList = strings.Split(e.Tags, ",")
	}
	switch e.ContentFormat {
	case FormatHTML:
		e.ContentHTML = template.HTML(e.Content)
	case FormatText:
		e.ContentHTML = template.HTML("<pre>" + template.HTMLEscapeString(e.Content) + "</pre>")
	default:
		e.ContentHTML = plmarkdown.ConvertMarkdownToHTML(e.Content)
	}
	e.Excerpt = ExtractExcerpt(stripmd.Strip(e.Content), 150)
	return nil
}

// ExtractExcerpt tronque un texte en gardant des mots entiers
func ExtractExcerpt(text string, maxLength int) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}

	runes := []rune(text)
	cutPoint := maxLength
	for i := maxLength - 1; i >= maxLength-50 && i >= 0; i-- {
		if runes[i] == ' ' {
			cutPoint = i
			break
		}
	}

	return strings.TrimSpace(string(runes[:cutPoint])) + "..."
}

// ValidStatus indique si un statut appartient au cycle de vie connu
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ValidFormat indique si un format de contenu est accepté
func ValidFormat(f string) bool {
	switch f {
	case FormatMarkdown, FormatHTML, FormatText:
		return true
	}
	return false
}

// ValidDate vérifie le format YYYY-MM-DD
func ValidDate(d string) bool {
	_, err := time.Parse("2006-01-02", d)
	return err == nil
}
