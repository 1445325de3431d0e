package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-photo-studio/internal/gemini"
	"ai-photo-studio/internal/limiter"
	"ai-photo-studio/internal/mediagroup"
	"ai-photo-studio/internal/prompt"
	"ai-photo-studio/internal/session"
	"ai-photo-studio/internal/studio"
	"ai-photo-studio/internal/telegram"
)

const (
	chatID int64 = 100
	userID int64 = 7
)

type fakeMessenger struct {
	mu        sync.Mutex
	texts     []string
	keyboards []string
	edits     int
	answers   []string
	photos    [][]telegram.Photo
	documents []string
	files     map[string][]byte
}

func (f *fakeMessenger) SendText(_ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeMessenger) SendTextWithKeyboard(_ int64, text string, _ telegram.Keyboard) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyboards = append(f.keyboards, text)
	return 42, nil
}

func (f *fakeMessenger) EditTextWithKeyboard(_ int64, _ int, _ string, _ telegram.Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits++
	return nil
}

func (f *fakeMessenger) AnswerCallback(_ string, text string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) SendTyping(int64) {}

func (f *fakeMessenger) SendPhotos(_ int64, photos []telegram.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos = append(f.photos, photos)
	return nil
}

func (f *fakeMessenger) SendDocument(_ int64, name string, _ []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents = append(f.documents, name)
	return nil
}

func (f *fakeMessenger) DownloadFile(_ context.Context, fileID string) ([]byte, string, error) {
	data, ok := f.files[fileID]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return data, "image/png", nil
}

func (f *fakeMessenger) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

func (f *fakeMessenger) allText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.texts, "\n")
}

type fakeEditor struct {
	mu     sync.Mutex
	calls  int
	inputs []int
	failOn map[int]bool
	image  []byte
}

func (f *fakeEditor) Edit(_ context.Context, images []gemini.ImageInput, _ string) (gemini.Image, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.inputs = append(f.inputs, len(images))
	f.mu.Unlock()
	if f.failOn[n] {
		return gemini.Image{}, fmt.Errorf("edit %d failed", n)
	}
	return gemini.Image{Data: f.image, MimeType: "image/png"}, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
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

type fixture struct {
	h        *Handler
	tg       *fakeMessenger
	editor   *fakeEditor
	sessions *session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	img := pngBytes(t, 4, 4)
	tg := &fakeMessenger{files: map[string][]byte{"f1": img, "f2": img}}
	editor := &fakeEditor{image: img}
	st, err := studio.New(studio.Options{Editor: editor, Limiter: limiter.New(1)})
	require.NoError(t, err)
	sessions := session.NewStore(session.Options{})
	h := New(Options{Telegram: tg, Studio: st, Sessions: sessions})
	return &fixture{h: h, tg: tg, editor: editor, sessions: sessions}
}

func command(text string) telegram.Update {
	name, _, _ := strings.Cut(text, " ")
	return telegram.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: userID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func photo(fileID, caption string) telegram.Update {
	return telegram.Update{Message: &tgbotapi.Message{
		Caption: caption,
		Chat:    &tgbotapi.Chat{ID: chatID},
		From:    &tgbotapi.User{ID: userID},
		Photo:   []tgbotapi.PhotoSize{{FileID: "thumb"}, {FileID: fileID}},
	}}
}

func callback(from int64, data string) telegram.Update {
	return telegram.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: from},
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 9, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestStartSendsHelp(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.HandleUpdate(context.Background(), command("/start")))
	assert.Contains(t, f.tg.lastText(), "/mode")
}

func TestPhotoWithoutThemeOpensMenu(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.HandleUpdate(context.Background(), photo("f1", "")))

	assert.Zero(t, f.editor.calls)
	assert.Len(t, f.tg.keyboards, 1)
	st := f.sessions.Get(chatID, userID)
	assert.True(t, st.HasSource())
	assert.Equal(t, session.MenuThemes, st.Menu)
	assert.Equal(t, 42, st.MessageID)
}

func TestPhotoGeneratesAndSendsResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.h.HandleUpdate(ctx, command("/mode street")))
	require.NoError(t, f.h.HandleUpdate(ctx, command("/theme Ga tàu cũ")))
	require.NoError(t, f.h.HandleUpdate(ctx, photo("f1", "variations=2")))

	assert.Equal(t, 2, f.editor.calls)
	require.Len(t, f.tg.photos, 1)
	require.Len(t, f.tg.photos[0], 2)
	assert.Equal(t, "#1 ✅ Ga tàu cũ", f.tg.photos[0][0].Caption)
	assert.Equal(t, "#2", f.tg.photos[0][1].Caption)
	assert.Equal(t, "studio_1.png", f.tg.photos[0][0].Name)
	assert.Len(t, f.sessions.Get(chatID, userID).Results, 2)
}

func TestFailedSlotsAreReported(t *testing.T) {
	f := newFixture(t)
	f.editor.failOn = map[int]bool{1: true}
	ctx := context.Background()
	require.NoError(t, f.h.HandleUpdate(ctx, command("/mode restore")))
	require.NoError(t, f.h.HandleUpdate(ctx, command("/theme Khử màu ố vàng (cân bằng lại màu)")))
	require.NoError(t, f.h.HandleUpdate(ctx, command("/set variations=2")))
	require.NoError(t, f.h.HandleUpdate(ctx, photo("f1", "")))

	require.Len(t, f.tg.photos, 1)
	assert.Len(t, f.tg.photos[0], 1)
	assert.Contains(t, f.tg.allText(), "⚠️ 1/2")

	st := f.sessions.Get(chatID, userID)
	require.Len(t, st.Results, 1)
	assert.NotEmpty(t, st.Results[0].Data)
	assert.Equal(t, "studio_1.png", st.Results[0].Name)
	assert.Equal(t, "studio_1.png", f.tg.photos[0][0].Name)
	assert.True(t, strings.HasPrefix(f.tg.photos[0][0].Caption, "#1 "))

	// The first delivered photo is export #1 even though the first slot failed.
	require.NoError(t, f.h.HandleUpdate(ctx, command("/export 1 2k jpg")))
	require.Len(t, f.tg.documents, 1)
	assert.Equal(t, "studio_2048x2048.jpg", f.tg.documents[0])

	require.NoError(t, f.h.HandleUpdate(ctx, command("/export 2")))
	assert.Contains(t, f.tg.lastText(), "#2")
}

func TestGenerateWithoutPhotoIsRejected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.HandleUpdate(context.Background(), command("/generate")))
	assert.Equal(t, "❌ Vui lòng tải lên ảnh và chọn ít nhất một phong cách.", f.tg.lastText())
	assert.Zero(t, f.editor.calls)
}

func TestAlbumSwitchesToReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.h.HandleUpdate(ctx, command("/theme Phố cổ")))

	f.h.HandleMediaGroup(ctx, mediagroup.Group{ChatID: chatID, UserID: userID, FileIDs: []string{"f1", "f2"}})

	st := f.sessions.Get(chatID, userID)
	assert.Equal(t, prompt.ModeReference, st.Settings.Mode)
	assert.NotEmpty(t, st.Reference.Data)
	require.NotEmpty(t, f.editor.inputs)
	assert.Equal(t, 2, f.editor.inputs[0])
}

func TestReferenceModeWaitsForSecondPhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.h.HandleUpdate(ctx, command("/mode reference")))
	require.NoError(t, f.h.HandleUpdate(ctx, command("/theme alpha")))
	require.NoError(t, f.h.HandleUpdate(ctx, command("/set variations=1")))

	require.NoError(t, f.h.HandleUpdate(ctx, photo("f1", "")))
	assert.Contains(t, f.tg.lastText(), "ảnh tham chiếu")
	assert.Zero(t, f.editor.calls)

	require.NoError(t, f.h.HandleUpdate(ctx, photo("f2", "")))
	assert.Equal(t, 1, f.editor.calls)
	assert.Equal(t, []int{2}, f.editor.inputs)
}

func TestDownloadFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.HandleUpdate(context.Background(), photo("missing", "")))
	assert.Contains(t, f.tg.lastText(), "Không tải được ảnh")
}

func TestCallbackOwnerCheck(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.HandleUpdate(context.Background(), callback(999, cb(userID, "var", "+"))))
	require.Len(t, f.tg.answers, 1)
	assert.Equal(t, 4, f.sessions.Get(chatID, userID).Settings.Variations)
	assert.Zero(t, f.tg.edits)
}

func TestCallbackTogglesCatalogItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.h.HandleUpdate(ctx, callback(userID, cb(userID, "menu", "themes"))))
	require.NoError(t, f.h.HandleUpdate(ctx, callback(userID, cb(userID, "theme", "0", "0"))))
	require.NoError(t, f.h.HandleUpdate(ctx, callback(userID, cb(userID, "fx", "0", "0"))))
	require.NoError(t, f.h.HandleUpdate(ctx, callback(userID, cb(userID, "var", "-"))))

	st := f.sessions.Get(chatID, userID)
	assert.Equal(t, []string{prompt.ThemeGroups(prompt.ModeWedding)[0].Items[0]}, st.Settings.Themes)
	require.Len(t, st.Settings.Effects, 1)
	assert.Equal(t, prompt.EffectGroups()[0].Items[0], st.Settings.Effects[0].Name)
	assert.Equal(t, 3, st.Settings.Variations)
	assert.Equal(t, 9, st.MessageID)
	assert.Equal(t, 4, f.tg.edits)

	require.NoError(t, f.h.HandleUpdate(ctx, callback(userID, cb(userID, "keep"))))
	st = f.sessions.Get(chatID, userID)
	assert.True(t, st.Settings.KeepOriginal)
	assert.Empty(t, st.Settings.Themes)

	require.NoError(t, f.h.HandleUpdate(ctx, callback(userID, cb(userID, "mode", "street"))))
	assert.Equal(t, prompt.ModeStreet, f.sessions.Get(chatID, userID).Settings.Mode)
}

func TestNotesFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.h.HandleUpdate(ctx, callback(userID, cb(userID, "note"))))

	msg := telegram.Update{Message: &tgbotapi.Message{
		Text: "ánh sáng dịu",
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: userID},
	}}
	require.NoError(t, f.h.HandleUpdate(ctx, msg))
	assert.Equal(t, "ánh sáng dịu", f.sessions.Get(chatID, userID).Settings.Notes)
}

func TestExportUpscalesLastResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.h.HandleUpdate(ctx, command("/theme Studio đen sang trọng")))
	require.NoError(t, f.h.HandleUpdate(ctx, command("/variations 1")))
	require.NoError(t, f.h.HandleUpdate(ctx, photo("f1", "")))

	require.NoError(t, f.h.HandleUpdate(ctx, command("/export 1 2k jpg")))
	require.Len(t, f.tg.documents, 1)
	assert.Equal(t, "studio_2048x2048.jpg", f.tg.documents[0])

	require.NoError(t, f.h.HandleUpdate(ctx, command("/export 5")))
	assert.Contains(t, f.tg.lastText(), "#5")
}

func TestSetReportsErrors(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.HandleUpdate(context.Background(), command("/set tone=sepia grain=10")))
	assert.Contains(t, f.tg.lastText(), "tone=sepia")
	assert.Equal(t, 10, f.sessions.Get(chatID, userID).Settings.Grain)
}

func TestPromptCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.h.HandleUpdate(ctx, command("/theme A")))
	require.NoError(t, f.h.HandleUpdate(ctx, command("/theme B")))
	require.NoError(t, f.h.HandleUpdate(ctx, command("/prompt")))
	text := f.tg.lastText()
	assert.Contains(t, text, "📄 A\n")
	assert.Contains(t, text, "📄 B\n")
}
