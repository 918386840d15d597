package plevents

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrNotFound : id ou slug inexistant
	ErrNotFound = errors.New("event not found")
	// ErrDuplicateSlug : le slug est déjà pris par un autre événement
	ErrDuplicateSlug = errors.New("slug already in use")
)

// ValidationError signale un payload invalide, détecté avant le store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// EventInput est le payload complet d'une création ou d'une modification.
// Une modification remplace tous les champs mutables.
type EventInput struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Content       string `json:"content"`
	ContentFormat string `json:"content_format"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	Status        string `json:"status"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Tags          string `json:"tags"`
}

// Validate vérifie les champs requis et applique les défauts.
func (in *EventInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Reason: "is required"}
	}
	if in.StartDate == "" || in.EndDate == "" {
		return &ValidationError{Field: "start_date/end_date", Reason: "are required"}
	}
	if !ValidDate(in.StartDate) {
		return &ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"}
	}
	if !ValidDate(in.EndDate) {
		return &ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD"}
	}
	if in.StartDate > in.EndDate {
		return &ValidationError{Field: "start_date", Reason: "must not be after end_date"}
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if !ValidStatus(in.Status) {
		return &ValidationError{Field: "status", Reason: "must be draft, published or archived"}
	}
	if in.ContentFormat == "" {
		in.ContentFormat = FormatMarkdown
	}
	if !ValidFormat(in.ContentFormat) {
		return &ValidationError{Field: "content_format", Reason: "must be markdown, html or text"}
	}
	return nil
}

// Store exécute les requêtes événements. Construit explicitement au
// démarrage et injecté partout où il est utilisé.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Event{})
}

// scope applique le prédicat du plan, sans tri ni pagination. List et Count
// passent tous les deux par ici: même filtre, même total.
func (s *Store) scope(plan ListPlan) *gorm.DB {
	q := s.db.Model(&Event{})
	if plan.Status != "" {
		q = q.Where("status = ?", plan.Status)
	}
	if plan.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(plan.Search)+"%")
	}
	if plan.From != "" && plan.To != "" {
		// Prédicat de chevauchement: l'événement intersecte [from, to]
		q = q.Where("(start_date <= ? AND end_date >= ?) OR (start_date >= ? AND start_date <= ?)",
			plan.To, plan.From, plan.From, plan.To)
	}
	return q
}

func (s *Store) List(plan ListPlan) ([]Event, error) {
	var events []Event
	err := s.scope(plan).
		Order(plan.OrderBy).
		Limit(plan.Limit).
		Offset(plan.Offset).
		Find(&events).Error
	return events, err
}

func (s *Store) Count(plan ListPlan) (int64, error) {
	var total int64
	err := s.scope(plan).Count(&total).Error
	return total, err
}

func (s *Store) GetByID(id uint) (*Event, error) {
	var event Event
	if err := s.db.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (s *Store) GetBySlug(slug string) (*Event, error) {
	var event Event
	if err := s.db.Where("slug = ?", slug).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (s *Store) Create(in EventInput) (*Event, error) {
	slug := normalizeSlug(in.Slug)
	if err := s.checkSlug(slug, 0); err != nil {
		return nil, err
	}

	event := Event{
		Title:         in.Title,
		Slug:          slug,
		Content:       in.Content,
		ContentFormat: in.ContentFormat,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Status:        in.Status,
		ThumbnailURL:  in.ThumbnailURL,
		Tags:          in.Tags,
		PublishedAt:   computePublishedAt(in.Status),
	}

	if err := s.db.Create(&event).Error; err != nil {
		if isSlugConflict(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &event, nil
}

// Update remplace tous les champs mutables et recalcule published_at
// depuis le nouveau statut.
func (s *Store) Update(id uint, in EventInput) (*Event, error) {
	event, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	slug := normalizeSlug(in.Slug)
	if err := s.checkSlug(slug, id); err != nil {
		return nil, err
	}

	event.Title = in.Title
	event.Slug = slug
	event.Content = in.Content
	event.ContentFormat = in.ContentFormat
	event.StartDate = in.StartDate
	event.EndDate = in.EndDate
	event.Status = in.Status
	event.ThumbnailURL = in.ThumbnailURL
	event.Tags = in.Tags
	event.TagsList = nil
	event.PublishedAt = computePublishedAt(in.Status)

	if err := s.db.Save(event).Error; err != nil {
		if isSlugConflict(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return event, nil
}

// Delete retourne false si l'id n'existe pas; ce n'est pas une erreur.
func (s *Store) Delete(id uint) (bool, error) {
	res := s.db.Delete(&Event{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// normalizeSlug: un slug vide devient NULL pour que l'index unique
// n'entre jamais en collision sur les événements sans slug.
func normalizeSlug(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func computePublishedAt(status string) *time.Time {
	if status == StatusPublished {
		now := time.Now().UTC()
		return &now
	}
	return nil
}

// checkSlug détecte la collision avant l'insert; la contrainte unique reste
// le filet de sécurité en cas de course.
func (s *Store) checkSlug(slug *string, excludeID uint) error {
	if slug == nil {
		return nil
	}
	var count int64
	q := s.db.Model(&Event{}).Where("slug = ?", *slug)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateSlug
	}
	return nil
}

func isSlugConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return (strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")) &&
		strings.Contains(msg, "slug")
}
