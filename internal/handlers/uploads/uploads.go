package handlers_uploads

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pople/internal/models/plimages"
)

type UploadsHandler struct {
	saver *plimages.Saver
}

func NewUploadsHandler(saver *plimages.Saver) *UploadsHandler {
	return &UploadsHandler{saver: saver}
}

// Upload reçoit un multipart "file", valide et écrit l'image, puis
// retourne son URL publique.
func (uh *UploadsHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "파일이 없습니다."})
		return
	}
	defer file.Close()

	saved, err := uh.saver.Save(file, header)
	switch {
	case errors.Is(err, plimages.ErrTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "파일이 너무 큽니다. (최대 5MB)"})
	case errors.Is(err, plimages.ErrNotAnImage), errors.Is(err, plimages.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "이미지 파일만 업로드할 수 있습니다."})
	case err != nil:
		log.Error().Err(err).Msg("upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "서버 오류가 발생했습니다."})
	default:
		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"url":      saved.URL,
			"filename": saved.Filename,
			"size":     saved.Size,
			"format":   saved.Format,
		})
	}
}
