package plimages

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
)

var (
	ErrTooLarge          = errors.New("fichier trop volumineux")
	ErrNotAnImage        = errors.New("le fichier n'est pas une image")
	ErrUnsupportedFormat = errors.New("format d'image non supporté")
)

// Saver valide, redimensionne et écrit les images envoyées par
// l'administration.
type Saver struct {
	dir      string
	maxBytes int64
	maxWidth int
}

func NewSaver(dir string, maxBytes int64, maxWidth int) *Saver {
	return &Saver{dir: dir, maxBytes: maxBytes, maxWidth: maxWidth}
}

// Saved décrit le fichier écrit sur disque.
type Saved struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	Format   string `json:"format"`
}

// Resize réduit l'image à maxWidth en conservant le ratio. Les images
// déjà plus petites sont retournées telles quelles.
func Resize(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth {
		return img
	}

	ratio := float64(maxWidth) / float64(width)
	newWidth := maxWidth
	newHeight := int(float64(height) * ratio)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}

// Save vérifie la taille et le type MIME réel (sniffé, pas
// l'extension), re-encode l'image et l'écrit sous un nom aléatoire.
func (s *Saver) Save(file multipart.File, header *multipart.FileHeader) (*Saved, error) {
	if header.Size > s.maxBytes {
		return nil, ErrTooLarge
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return nil, err
	}
	contentType := http.DetectContentType(buffer[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotAnImage
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	img, format, err := image.Decode(file)
	if err != nil {
		return nil, ErrNotAnImage
	}

	var ext string
	switch format {
	case "jpeg", "jpg":
		ext = ".jpg"
	case "png":
		ext = ".png"
	case "gif":
		ext = ".gif"
	default:
		return nil, ErrUnsupportedFormat
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%d_%s%s", time.Now().Unix(), randomString(8), ext)
	path := filepath.Join(s.dir, filename)

	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	processed := Resize(img, s.maxWidth)
	switch format {
	case "png":
		// Garder le PNG pour préserver la transparence
		err = png.Encode(out, processed)
	case "gif":
		err = gif.Encode(out, processed, nil)
	default:
		err = jpeg.Encode(out, processed, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &Saved{
		Filename: filename,
		URL:      "/uploads/" + filename,
		Size:     info.Size(),
		Format:   format,
	}, nil
}

func randomString(length int) string {
	b := make([]byte, length/2+1)
	rand.Read(b)
	return hex.EncodeToString(b)[:length]
}
