package pladmin

import (
	"errors"
	"time"

	"github.com/andskur/argon2-hashing"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"pople/internal/plconfig"
)

var ErrBadCredentials = errors.New("identifiants incorrects")

const (
	sessionUserID   = "user_id"
	sessionUsername = "username"
)

// Admin est un compte d'administration. Password contient toujours un
// hash argon2, jamais le mot de passe en clair.
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	Email     string    `gorm:"uniqueIndex;size:190" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Admin{})
}

// EnsureDefault crée le compte défini en config s'il n'existe pas
// encore. Le hash vient de la config, déjà calculé au premier
// lancement. Idempotent.
func (s *Store) EnsureDefault(conf plconfig.AdminConfig) error {
	if conf.Login == "" || conf.Hash == "" {
		return nil
	}
	var count int64
	if err := s.db.Model(&Admin{}).Where("username = ?", conf.Login).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	admin := Admin{
		Username: conf.Login,
		Password: conf.Hash,
		Email:    conf.Email,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}
	log.Info().Str("username", admin.Username).Msg("default admin account created")
	return nil
}

// Authenticate vérifie le couple login / mot de passe. Le hash est
// comparé même quand l'utilisateur n'existe pas pour garder un temps
// de réponse constant.
func (s *Store) Authenticate(username, password string) (*Admin, error) {
	var admin Admin
	err := s.db.Where("username = ?", username).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		argon2.CompareHashAndPassword([]byte(decoyHash), []byte(password))
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := argon2.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &admin, nil
}

// decoyHash sert uniquement à égaliser le coût quand le login est
// inconnu.
const decoyHash = "$argon2id$v=19$m=65536,t=3,p=2$abcdefghijklmnop$0123456789abcdef0123456789abcdef"

// SignIn ouvre la session de l'administrateur.
func SignIn(c *gin.Context, admin *Admin) error {
	session := sessions.Default(c)
	session.Set(sessionUserID, admin.ID)
	session.Set(sessionUsername, admin.Username)
	return session.Save()
}

// SignOut vide la session.
func SignOut(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
}

// IsAuthenticated indique si la requête porte une session admin.
func IsAuthenticated(c *gin.Context) bool {
	return sessions.Default(c).Get(sessionUserID) != nil
}

// CurrentUser retourne le login de la session, vide sinon.
func CurrentUser(c *gin.Context) string {
	if username, ok := sessions.Default(c).Get(sessionUsername).(string); ok {
		return username
	}
	return ""
}

// RequireAuth protège les routes d'administration.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.AbortWithStatusJSON(401, gin.H{"ok": false, "error": "로그인이 필요합니다."})
			return
		}
		c.Set("authenticated", true)
		c.Next()
	}
}
