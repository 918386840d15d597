package handlers_auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pople/internal/models/pladmin"
)

type AuthHandler struct {
	store *pladmin.Store
}

func NewAuthHandler(store *pladmin.Store) *AuthHandler {
	return &AuthHandler{store: store}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login vérifie les identifiants et ouvre la session. Les échecs sont
// loggés avec l'IP pour l'audit.
func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "잘못된 요청입니다."})
		return
	}

	admin, err := ah.store.Authenticate(req.Username, req.Password)
	if errors.Is(err, pladmin.ErrBadCredentials) {
		log.Warn().Str("username", req.Username).Str("ip", c.ClientIP()).Msg("login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "아이디 또는 비밀번호가 올바르지 않습니다."})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("login lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "서버 오류가 발생했습니다."})
		return
	}

	if err := pladmin.SignIn(c, admin); err != nil {
		log.Error().Err(err).Msg("session save failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "서버 오류가 발생했습니다."})
		return
	}
	log.Info().Str("username", admin.Username).Str("ip", c.ClientIP()).Msg("login succeeded")
	c.JSON(http.StatusOK, gin.H{"ok": true, "username": admin.Username})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	pladmin.SignOut(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me permet au front d'afficher l'état de connexion.
func (ah *AuthHandler) Me(c *gin.Context) {
	if !pladmin.IsAuthenticated(c) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"authenticated": true,
		"username":      pladmin.CurrentUser(c),
	})
}
