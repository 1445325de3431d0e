package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultModel = "gemini-2.5-flash-image"

	// outputDirective is appended to every edit prompt.
	outputDirective = "Generate the output as a PNG file with the highest possible resolution and no compression."
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	models *genai.Models
	model  string
	logger *slog.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL + "/",
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		models: gc.Models,
		model:  model,
		logger: logger,
	}, nil
}

func (c *Client) Model() string { return c.model }

// Edit sends the images followed by the instruction and returns the first
// image in the response.
func (c *Client) Edit(ctx context.Context, images []ImageInput, prompt string) (Image, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		mimeType := img.MimeType
		if mimeType == "" {
			mimeType = http.DetectContentType(img.Data)
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, mimeType))
	}
	parts = append(parts, genai.NewPartFromText(fullPrompt(prompt)))

	resp, err := c.models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	)
	if err != nil {
		err = checkRateLimitError(err, c.model)
		c.logger.Warn("gemini edit failed", "model", c.model, "images", len(images), "err", err)
		return Image{}, fmt.Errorf("gemini api: %w", err)
	}

	img, ok := extractImage(resp)
	if !ok {
		c.logger.Warn("gemini returned no image", "model", c.model, "text", truncate(img.Text, 200))
		return Image{}, ErrNoImage
	}
	return img, nil
}

func fullPrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return outputDirective
	}
	return prompt + " " + outputDirective
}

func extractImage(resp *genai.GenerateContentResponse) (Image, bool) {
	var text strings.Builder
	if resp == nil {
		return Image{}, false
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil {
				continue
			}
			if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				mimeType := p.InlineData.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return Image{Data: p.InlineData.Data, MimeType: mimeType, Text: text.String()}, true
			}
			text.WriteString(p.Text)
		}
	}
	return Image{Text: text.String()}, false
}

func checkRateLimitError(err error, model string) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Code != http.StatusTooManyRequests && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return err
	}
	return &RateLimitError{Model: model, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
