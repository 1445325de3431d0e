package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-photo-studio/internal/board"
	"ai-photo-studio/internal/gemini"
	"ai-photo-studio/internal/limiter"
	"ai-photo-studio/internal/prompt"
	"ai-photo-studio/internal/studio"
)

type fakeEditor struct {
	calls  atomic.Int32
	failAt int32
	image  []byte
	block  chan struct{}
}

func (f *fakeEditor) Edit(ctx context.Context, _ []gemini.ImageInput, _ string) (gemini.Image, error) {
	n := f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return gemini.Image{}, ctx.Err()
		}
	}
	if f.failAt > 0 && n == f.failAt {
		return gemini.Image{}, errors.New("model unavailable")
	}
	return gemini.Image{Data: f.image, MimeType: "image/png"}, nil
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: 90, B: uint8(y * 40), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestServer(t *testing.T, editor *fakeEditor) *httptest.Server {
	t.Helper()
	st, err := studio.New(studio.Options{
		Editor:  editor,
		Board:   board.NewMemory(),
		Limiter: limiter.New(2),
	})
	require.NoError(t, err)

	srv := New(Options{Studio: st, PollInterval: 10 * time.Millisecond})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func multipartBody(t *testing.T, settings string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if settings != "" {
		require.NoError(t, mw.WriteField("settings", settings))
	}
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/sessions/", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func getSnapshot(t *testing.T, ts *httptest.Server, id string) board.Snapshot {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap board.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func streetSettings(t *testing.T, variations int) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"mode":       prompt.ModeStreet,
		"themes":     []string{prompt.Themes(prompt.ModeStreet)[0]},
		"variations": variations,
	})
	require.NoError(t, err)
	return string(raw)
}

func TestHealthAndCatalog(t *testing.T) {
	ts := newTestServer(t, &fakeEditor{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/catalog")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cat catalogResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cat))
	assert.Len(t, cat.Modes, 4)
	assert.NotEmpty(t, cat.Themes[prompt.ModeWedding])
	assert.NotEmpty(t, cat.Effects)
	assert.Equal(t, studio.MaxThemes, cat.MaxThemes)
	assert.Equal(t, studio.MaxVariations, cat.MaxVariations)
	for _, a := range cat.AspectOrder {
		assert.Contains(t, cat.Aspects, a)
	}
}

func TestDefaults(t *testing.T) {
	ts := newTestServer(t, &fakeEditor{})

	resp, err := http.Get(ts.URL + "/api/modes/restore/defaults")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var s studio.Settings
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.Equal(t, prompt.ModeRestore, s.Mode)
	assert.Equal(t, 1, s.Variations)

	resp2, err := http.Get(ts.URL + "/api/modes/portrait/defaults")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestGenerateSettlesBoard(t *testing.T) {
	editor := &fakeEditor{image: testPNG(t, 4, 4), failAt: 2}
	ts := newTestServer(t, editor)
	id := createSession(t, ts)

	body, ctype := multipartBody(t, streetSettings(t, 3), map[string][]byte{"image": testPNG(t, 8, 6)})
	resp, err := http.Post(ts.URL+"/api/sessions/"+id+"/generate", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var gen generateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&gen))
	assert.Equal(t, 3, gen.Tasks)

	var snap board.Snapshot
	require.Eventually(t, func() bool {
		snap = getSnapshot(t, ts, id)
		return snap.Version > 0 && !snap.Loading
	}, 2*time.Second, 10*time.Millisecond)

	require.Len(t, snap.Results, 3)
	assert.Empty(t, snap.Error)
	assert.Equal(t, 2, snap.Ready())
	assert.Equal(t, 1, snap.Failed())
	for _, r := range snap.Results {
		if r.Status == board.StatusReady {
			assert.True(t, strings.HasPrefix(r.Image, "data:image/png;base64,"))
		}
	}
}

func TestGenerateBoardIsLoadingWhenAccepted(t *testing.T) {
	editor := &fakeEditor{image: testPNG(t, 4, 4), block: make(chan struct{})}
	ts := newTestServer(t, editor)
	t.Cleanup(func() { close(editor.block) })
	id := createSession(t, ts)

	body, ctype := multipartBody(t, streetSettings(t, 2), map[string][]byte{"image": testPNG(t, 8, 6)})
	resp, err := http.Post(ts.URL+"/api/sessions/"+id+"/generate", ctype, body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	snap := getSnapshot(t, ts, id)
	assert.True(t, snap.Loading)
	assert.Positive(t, snap.Version)
	assert.Positive(t, snap.Invocation)
	require.Len(t, snap.Results, 2)
	for _, r := range snap.Results {
		assert.Equal(t, board.StatusLoading, r.Status)
	}
}

func TestGenerateValidationError(t *testing.T) {
	editor := &fakeEditor{image: testPNG(t, 4, 4)}
	ts := newTestServer(t, editor)
	id := createSession(t, ts)

	body, ctype := multipartBody(t, `{"mode":"street"}`, map[string][]byte{"image": testPNG(t, 4, 4)})
	resp, err := http.Post(ts.URL+"/api/sessions/"+id+"/generate", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var apiErr apiError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.NotEmpty(t, apiErr.Error)

	snap := getSnapshot(t, ts, id)
	assert.False(t, snap.Loading)
	assert.Equal(t, apiErr.Error, snap.Error)
	assert.Empty(t, snap.Results)
	assert.Zero(t, editor.calls.Load())
}

func TestGenerateRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, &fakeEditor{})
	id := createSession(t, ts)

	body, ctype := multipartBody(t, "{not json", nil)
	resp, err := http.Post(ts.URL+"/api/sessions/"+id+"/generate", ctype, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, ctype = multipartBody(t, streetSettings(t, 1), nil)
	resp, err = http.Post(ts.URL+"/api/sessions/not-a-uuid/generate", ctype, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPrompts(t *testing.T) {
	ts := newTestServer(t, &fakeEditor{})
	themes := prompt.Themes(prompt.ModeWedding)
	raw, err := json.Marshal(map[string]any{
		"mode":   prompt.ModeWedding,
		"themes": []string{themes[0], themes[1], themes[0]},
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/prompts", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out promptsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Prompts, 2)
	assert.Equal(t, themes[0], out.Prompts[0].Theme)
	assert.Equal(t, themes[1], out.Prompts[1].Theme)
	assert.NotEmpty(t, out.Prompts[0].Prompt)

	resp2, err := http.Post(ts.URL+"/api/prompts", "application/json", strings.NewReader(`{"mode":"portrait"}`))
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, &fakeEditor{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "result.png")
	require.NoError(t, err)
	_, err = fw.Write(testPNG(t, 4, 2))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("size", "2k"))
	require.NoError(t, mw.WriteField("format", "jpg"))
	require.NoError(t, mw.WriteField("name", "studio"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/export", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("content-type"))
	assert.Contains(t, resp.Header.Get("content-disposition"), "studio_2048x1024.jpg")

	img, _, err := image.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 2048, img.Bounds().Dx())
}

func TestExportRequiresImage(t *testing.T) {
	ts := newTestServer(t, &fakeEditor{})
	body, ctype := multipartBody(t, "", nil)
	resp, err := http.Post(ts.URL+"/api/export", ctype, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeedPushesSnapshots(t *testing.T) {
	editor := &fakeEditor{image: testPNG(t, 4, 4)}
	ts := newTestServer(t, editor)
	id := createSession(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first board.Snapshot
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Zero(t, first.Version)

	body, ctype := multipartBody(t, streetSettings(t, 2), map[string][]byte{"image": testPNG(t, 4, 4)})
	resp, err := http.Post(ts.URL+"/api/sessions/"+id+"/generate", ctype, body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	for {
		var snap board.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		if !snap.Loading && snap.Version > 0 {
			assert.Equal(t, 2, snap.Ready())
			break
		}
	}
}
