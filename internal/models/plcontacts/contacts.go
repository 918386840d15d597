package plcontacts

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Contact est un message reçu via le formulaire public.
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:120;not null" json:"name"`
	Email     string    `gorm:"size:190;not null" json:"email"`
	Phone     string    `gorm:"size:40" json:"phone"`
	Subject   string    `gorm:"size:200" json:"subject"`
	Message   string    `gorm:"not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Validate vérifie les champs obligatoires après trim.
func (c *Contact) Validate() bool {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Message = strings.TrimSpace(c.Message)
	return c.Name != "" && c.Email != "" && c.Message != "" &&
		strings.Contains(c.Email, "@")
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Contact{})
}

func (s *Store) Create(c *Contact) error {
	return s.db.Create(c).Error
}

// List retourne une page de messages, du plus récent au plus ancien,
// et le total pour la pagination.
func (s *Store) List(page, pageSize int) ([]Contact, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var total int64
	if err := s.db.Model(&Contact{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contacts []Contact
	err := s.db.Order("created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&contacts).Error
	return contacts, total, err
}
