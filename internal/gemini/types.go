package gemini

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ImageInput is one inline image sent along with the prompt.
type ImageInput struct {
	Data     []byte
	MimeType string
}

// Image is the first image returned by the model.
type Image struct {
	Data     []byte
	MimeType string
	Text     string
}

func (i Image) DataURL() string {
	return "data:" + i.MimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// ErrNoImage is returned when the response carries no inline image data.
var ErrNoImage = errors.New("API response did not contain image data")

type RateLimitError struct {
	Model string
	Err   error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("gemini rate limit on %s: %v", e.Model, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }
