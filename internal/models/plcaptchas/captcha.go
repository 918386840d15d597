package plcaptchas

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pople/internal/plredis"
)

type Captchas struct {
	store  base64Captcha.Store
	driver base64Captcha.Driver
}

// New construit le générateur de captcha mathématique. Avec un client
// redis, les réponses sont partagées entre instances ; sans, elles
// restent en mémoire.
func New(redisClient *redis.Client) *Captchas {
	var store base64Captcha.Store
	if redisClient != nil {
		store = plredis.New(redisClient)
	} else {
		store = base64Captcha.DefaultMemStore
	}

	driver := base64Captcha.NewDriverMath(
		80,  // hauteur
		240, // largeur
		6,   // nombre d'opérations à afficher
		base64Captcha.OptionShowHollowLine,
		nil, // couleur de fond
		nil, // police
		nil, // couleurs
	)

	return &Captchas{
		store:  store,
		driver: driver,
	}
}

func (cap *Captchas) GenerateCaptcha(production bool) (map[string]any, error) {
	captcha := base64Captcha.NewCaptcha(cap.driver, cap.store)

	id, b64s, answer, err := captcha.Generate()
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la génération du CAPTCHA")
	}

	data := gin.H{
		"captcha_id": id,
		"image":      b64s,
		"answer":     "",
	}

	if !production {
		log.Debug().Str("captcha_id", id).Str("answer", answer).Msg("captcha generated")
		data["answer"] = answer
	}

	return data, nil
}

func (cap *Captchas) VerifyCaptcha(captchaID string, captchaAnswer string) error {
	captchaID = strings.TrimSpace(captchaID)
	captchaAnswer = strings.TrimSpace(captchaAnswer)

	if captchaID == "" || captchaAnswer == "" {
		return fmt.Errorf("CAPTCHA manquant")
	}

	if !cap.store.Verify(captchaID, captchaAnswer, true) {
		return fmt.Errorf("CAPTCHA incorrect")
	}
	return nil
}

func (cap *Captchas) CaptchaHandler(c *gin.Context, production bool) {
	data, err := cap.GenerateCaptcha(production)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, data)
}
