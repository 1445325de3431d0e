package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type capturedRequest struct {
	Path     string
	Contents []struct {
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MimeType string `json:"mimeType"`
				Data     string `json:"data"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, req capturedRequest)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req capturedRequest
		require.NoError(t, json.Unmarshal(body, &req))
		req.Path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		handler(w, req)
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		APIVersion: "v1beta",
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return c
}

func TestEditSendsImagesThenPrompt(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	var got capturedRequest
	c := newTestClient(t, func(w http.ResponseWriter, req capturedRequest) {
		got = req
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[
			{"text":"here you go"},
			{"inlineData":{"mimeType":"image/png","data":"`+base64.StdEncoding.EncodeToString([]byte("result"))+`"}}
		]}}]}`)
	})

	img, err := c.Edit(context.Background(), []ImageInput{
		{Data: png, MimeType: "image/png"},
		{Data: []byte("ref"), MimeType: "image/jpeg"},
	}, "Restore the photo.")
	require.NoError(t, err)

	assert.Equal(t, []byte("result"), img.Data)
	assert.Equal(t, "image/png", img.MimeType)
	assert.True(t, strings.HasPrefix(img.DataURL(), "data:image/png;base64,"))

	assert.Contains(t, got.Path, "/v1beta/models/"+DefaultModel+":generateContent")
	require.Len(t, got.Contents, 1)
	parts := got.Contents[0].Parts
	require.Len(t, parts, 3)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MimeType)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/jpeg", parts[1].InlineData.MimeType)
	assert.Equal(t, "Restore the photo. "+outputDirective, parts[2].Text)
}

func TestEditWithoutImageData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"I cannot edit this image."}]}}]}`)
	})

	_, err := c.Edit(context.Background(), []ImageInput{{Data: []byte("x"), MimeType: "image/png"}}, "edit")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestEditRateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ capturedRequest) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	})

	_, err := c.Edit(context.Background(), []ImageInput{{Data: []byte("x"), MimeType: "image/png"}}, "edit")
	require.Error(t, err)
	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, DefaultModel, rl.Model)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}

func TestFullPrompt(t *testing.T) {
	assert.Equal(t, outputDirective, fullPrompt("  "))
	assert.Equal(t, "a "+outputDirective, fullPrompt(" a "))
}

func TestExtractImageSkipsEmptyParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: nil},
		{Content: &genai.Content{Parts: []*genai.Part{
			{Text: "note"},
			{InlineData: &genai.Blob{Data: nil, MIMEType: "image/png"}},
			{InlineData: &genai.Blob{Data: []byte{1}}},
		}}},
	}}
	img, ok := extractImage(resp)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, img.Data)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, "note", img.Text)

	_, ok = extractImage(nil)
	assert.False(t, ok)
}
