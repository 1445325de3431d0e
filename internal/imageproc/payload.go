package imageproc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
)

// Payload is an uploaded or generated image together with its file name.
type Payload struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

var ErrEmptyImage = errors.New("imageproc: empty image")

// NewPayload sniffs the MIME type when it is not supplied.
func NewPayload(name, mimeType string, data []byte) Payload {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return Payload{Name: name, MimeType: mimeType, Data: data}
}

func (p Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

func (p Payload) DataURL() string {
	return DataURL(p.MimeType, p.Data)
}

func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL splits a base64 data URL into its MIME type and bytes.
func ParseDataURL(dataURL string) (string, []byte, error) {
	dataURL = strings.TrimSpace(dataURL)
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, errors.New("not a data url")
	}
	comma := strings.IndexByte(dataURL, ',')
	if comma < 0 {
		return "", nil, errors.New("invalid data url")
	}
	meta := dataURL[len("data:"):comma]
	b64 := dataURL[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, errors.New("data url is not base64")
	}
	mimeType := strings.TrimSuffix(meta, ";base64")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("decode base64: %w", err)
	}
	return mimeType, data, nil
}

// MaxPixels bounds the canvas Decode is willing to allocate.
const MaxPixels = 40_000_000

var ErrTooLarge = errors.New("imageproc: image exceeds pixel budget")

// DecodeConfig reads only the header of a JPEG, PNG, GIF or WebP image.
func DecodeConfig(data []byte) (image.Config, string, error) {
	if len(data) == 0 {
		return image.Config{}, "", ErrEmptyImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return cfg, format, nil
	}
	if isWebP(data) {
		cfg, werr := webp.DecodeConfig(bytes.NewReader(data), &decoder.Options{})
		if werr != nil {
			return image.Config{}, "", fmt.Errorf("decode webp header: %w", werr)
		}
		return cfg, "webp", nil
	}
	return image.Config{}, "", fmt.Errorf("decode image header: %w", err)
}

// Decode accepts JPEG, PNG, GIF and WebP input. Images whose header declares
// more than MaxPixels are rejected before any pixel data is read.
func Decode(data []byte) (image.Image, string, error) {
	cfg, _, err := DecodeConfig(data)
	if err != nil {
		return nil, "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", ErrEmptyImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, format, nil
	}
	if isWebP(data) {
		img, werr := webp.Decode(bytes.NewReader(data), &decoder.Options{})
		if werr != nil {
			return nil, "", fmt.Errorf("decode webp: %w", werr)
		}
		return img, "webp", nil
	}
	return nil, "", fmt.Errorf("decode image: %w", err)
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
