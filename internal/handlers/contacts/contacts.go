package handlers_contacts

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pople/internal/models/plcaptchas"
	"pople/internal/models/plcontacts"
)

type ContactsHandler struct {
	store          *plcontacts.Store
	captchas       *plcaptchas.Captchas
	requireCaptcha bool
}

func NewContactsHandler(store *plcontacts.Store, captchas *plcaptchas.Captchas, requireCaptcha bool) *ContactsHandler {
	return &ContactsHandler{
		store:          store,
		captchas:       captchas,
		requireCaptcha: requireCaptcha,
	}
}

type contactRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Subject       string `json:"subject"`
	Message       string `json:"message"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

// Submit reçoit le formulaire public. Le captcha est vérifié avant
// toute écriture.
func (ch *ContactsHandler) Submit(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "잘못된 요청입니다."})
		return
	}

	if ch.requireCaptcha {
		if err := ch.captchas.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "자동입력 방지 문자가 올바르지 않습니다."})
			return
		}
	}

	contact := plcontacts.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}
	if !contact.Validate() {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "이름, 이메일, 메시지는 필수입니다."})
		return
	}

	if err := ch.store.Create(&contact); err != nil {
		log.Error().Err(err).Msg("contact insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "서버 오류가 발생했습니다."})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": contact.ID})
}

// List sert la boîte de réception de l'administration, du plus récent
// au plus ancien.
func (ch *ContactsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	contacts, total, err := ch.store.List(page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("contact list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "서버 오류가 발생했습니다."})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"contacts": contacts,
		"total":    total,
	})
}
