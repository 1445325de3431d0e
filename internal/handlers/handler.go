package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"ai-photo-studio/internal/board"
	"ai-photo-studio/internal/imageproc"
	"ai-photo-studio/internal/mediagroup"
	"ai-photo-studio/internal/prompt"
	"ai-photo-studio/internal/session"
	"ai-photo-studio/internal/studio"
	"ai-photo-studio/internal/telegram"
)

// Messenger is the part of the Telegram client the handler talks to.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb telegram.Keyboard) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb telegram.Keyboard) error
	AnswerCallback(callbackID, text string, alert bool) error
	SendTyping(chatID int64)
	SendPhotos(chatID int64, photos []telegram.Photo) error
	SendDocument(chatID int64, name string, data []byte, caption string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, string, error)
}

type Generator interface {
	Generate(ctx context.Context, key string, s studio.Settings, images studio.Images) (studio.Outcome, error)
}

type Options struct {
	Telegram Messenger
	Studio   Generator
	Sessions *session.Store
	Logger   *slog.Logger
}

type Handler struct {
	tg         Messenger
	studio     Generator
	sessions   *session.Store
	logger     *slog.Logger
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		tg:       opts.Telegram,
		studio:   opts.Studio,
		sessions: opts.Sessions,
		logger:   logger,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

const helpText = "📸 AI Photo Studio\n\n" +
	"Gửi một ảnh chân dung, chọn phong cách rồi bấm 🎨 Tạo ảnh.\n" +
	"Chế độ tham chiếu: gửi 2 ảnh trong một album (ảnh của bạn, rồi ảnh tham chiếu).\n\n" +
	"Lệnh:\n" +
	"/menu - Mở bảng điều khiển\n" +
	"/mode <wedding|street|restore|reference> - Đổi chế độ\n" +
	"/theme <tên> - Chọn/bỏ phong cách\n" +
	"/effect <tên> - Chọn/bỏ hiệu ứng\n" +
	"/accessory <tên> - Chọn/bỏ phụ kiện\n" +
	"/weight <tên> <0-100> - Đổi mức ảnh hưởng\n" +
	"/set key=value ... - Ví dụ: /set variations=2 tone=warm aspect=4:5\n" +
	"/notes <ghi chú> - Ghi chú thêm\n" +
	"/prompt - Xem prompt sẽ gửi\n" +
	"/generate - Tạo ảnh với ảnh đã gửi\n" +
	"/export <số> [2k|4k] [png|jpg|webp] - Xuất ảnh chất lượng cao\n" +
	"/reset - Đặt lại"

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, msg)
	}

	if fileID, ok := photoFileID(msg); ok {
		return h.handlePhoto(ctx, chatID, userID, msg, fileID)
	}

	if msg.Text != "" {
		return h.handleText(chatID, userID, msg.Text)
	}

	return nil
}

func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if err := h.processPhotos(ctx, group.ChatID, group.UserID, group.Caption, group.FileIDs); err != nil {
		h.logger.Error("media group processing failed", "err", err)
	}
}

func (h *Handler) handleCommand(ctx context.Context, chatID, userID int64, msg *telegram.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID, helpText)
	case "menu", "settings":
		h.sessions.Update(chatID, userID, func(st *session.State) { st.Menu = session.MenuMain })
		return h.renderUI(chatID, userID, 0, false)
	case "mode":
		mode, ok := parseMode(args)
		if !ok {
			return h.tg.SendText(chatID, "❌ Chế độ không hợp lệ. Dùng: wedding, street, restore, reference.")
		}
		h.sessions.SetMode(chatID, userID, mode)
		return h.renderUI(chatID, userID, 0, false)
	case "theme":
		if args == "" {
			h.sessions.Update(chatID, userID, func(st *session.State) { st.Menu = session.MenuThemes })
			return h.renderUI(chatID, userID, 0, false)
		}
		var err error
		st := h.sessions.Update(chatID, userID, func(st *session.State) { err = st.Settings.ToggleTheme(args) })
		if err != nil {
			return h.tg.SendText(chatID, fmt.Sprintf("❌ Chỉ chọn tối đa %d phong cách.", studio.MaxThemes))
		}
		return h.tg.SendText(chatID, "✅ Phong cách: "+themesLabel(st.Settings))
	case "effect":
		if args == "" {
			return h.tg.SendText(chatID, "❌ Nhập tên hiệu ứng. Ví dụ: /effect Bokeh lấp lánh")
		}
		st := h.sessions.Update(chatID, userID, func(st *session.State) { st.Settings.ToggleEffect(args) })
		return h.tg.SendText(chatID, "✅ Hiệu ứng: "+weightedLabel(st.Settings.Effects))
	case "accessory":
		if args == "" {
			return h.tg.SendText(chatID, "❌ Nhập tên phụ kiện.")
		}
		st := h.sessions.Update(chatID, userID, func(st *session.State) { st.Settings.ToggleAccessory(args) })
		return h.tg.SendText(chatID, "✅ Phụ kiện: "+weightedLabel(st.Settings.Accessories))
	case "weight":
		name, value, ok := splitWeight(args)
		if !ok {
			return h.tg.SendText(chatID, "❌ Cú pháp: /weight <tên> <0-100>")
		}
		var found bool
		h.sessions.Update(chatID, userID, func(st *session.State) { found = st.Settings.SetWeight(name, value) })
		if !found {
			return h.tg.SendText(chatID, "❌ Chưa chọn hiệu ứng hoặc phụ kiện này.")
		}
		return h.tg.SendText(chatID, "✅ Đã cập nhật mức ảnh hưởng.")
	case "set":
		pairs, _ := parseAssignments(args)
		if len(pairs) == 0 {
			return h.tg.SendText(chatID, "❌ Cú pháp: /set key=value. Ví dụ: /set variations=2 tone=warm")
		}
		if errs := h.applyAssignments(chatID, userID, pairs); len(errs) > 0 {
			return h.tg.SendText(chatID, "⚠️ Không áp dụng được:\n"+strings.Join(errs, "\n"))
		}
		return h.tg.SendText(chatID, "✅ Đã lưu cài đặt.")
	case "variations":
		if errs := h.applyAssignments(chatID, userID, []assignment{{Key: "variations", Value: args}}); len(errs) > 0 {
			return h.tg.SendText(chatID, "❌ "+errs[0])
		}
		return h.tg.SendText(chatID, "✅ Đã lưu số biến thể.")
	case "notes":
		h.sessions.Update(chatID, userID, func(st *session.State) {
			st.Settings.Notes = args
			st.AwaitingNotes = false
		})
		return h.tg.SendText(chatID, "✅ Đã lưu ghi chú.")
	case "prompt":
		return h.sendPrompts(chatID, userID)
	case "generate":
		return h.generate(ctx, chatID, userID)
	case "export":
		return h.export(chatID, userID, args)
	case "reset":
		h.sessions.Reset(chatID, userID)
		return h.tg.SendText(chatID, "✅ Đã đặt lại cài đặt và ảnh.")
	case "cancel":
		h.sessions.Update(chatID, userID, func(st *session.State) {
			st.AwaitingNotes = false
			st.AwaitingReference = false
		})
		return h.tg.SendText(chatID, "✅ Đã hủy.")
	default:
		return h.tg.SendText(chatID, "❌ Lệnh không hợp lệ. Dùng /help.")
	}
}

func (h *Handler) handleText(chatID, userID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var awaiting bool
	h.sessions.Update(chatID, userID, func(st *session.State) {
		if st.AwaitingNotes {
			awaiting = true
			st.AwaitingNotes = false
			st.Settings.Notes = text
		}
	})
	if awaiting {
		_ = h.tg.SendText(chatID, "✅ Đã lưu ghi chú.")
		return h.renderUI(chatID, userID, 0, false)
	}
	return h.tg.SendText(chatID, "📷 Hãy gửi một ảnh để bắt đầu, hoặc dùng /menu.")
}

func (h *Handler) handlePhoto(ctx context.Context, chatID, userID int64, msg *telegram.Message, fileID string) error {
	if msg.MediaGroupID != "" && h.aggregator != nil {
		username := ""
		if msg.From != nil {
			username = msg.From.UserName
		}
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			UserID:       userID,
			Username:     username,
			MediaGroupID: msg.MediaGroupID,
			Caption:      msg.Caption,
			FileID:       fileID,
		})
		return nil
	}

	return h.processPhotos(ctx, chatID, userID, msg.Caption, []string{fileID})
}

// processPhotos stores uploads in the session and starts a generation once
// the session has everything its mode needs.
func (h *Handler) processPhotos(ctx context.Context, chatID, userID int64, caption string, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return nil
	}
	h.tg.SendTyping(chatID)

	payloads := make([]imageproc.Payload, len(fileIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		eg.Go(func() error {
			data, mimeType, err := h.tg.DownloadFile(egCtx, fileID)
			if err != nil {
				return err
			}
			payloads[i] = imageproc.NewPayload(fmt.Sprintf("upload_%d", i+1), mimeType, data)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("photo download failed", "err", err)
		return h.tg.SendText(chatID, "❌ Không tải được ảnh. Vui lòng gửi lại.")
	}

	intent := parseCaption(caption)
	var errs []string
	st := h.sessions.Update(chatID, userID, func(st *session.State) {
		if intent.Mode != "" && intent.Mode != st.Settings.Mode {
			st.Settings = studio.Defaults(intent.Mode)
		}
		switch {
		case len(payloads) >= 2:
			st.Settings.Mode = prompt.ModeReference
			st.Settings.KeepOriginal = false
			st.Source, st.Reference = payloads[0], payloads[1]
			st.AwaitingReference = false
		case st.Settings.Mode == prompt.ModeReference && st.AwaitingReference && st.HasSource():
			st.Reference = payloads[0]
			st.AwaitingReference = false
		default:
			st.Source = payloads[0]
			st.Reference = imageproc.Payload{}
			st.AwaitingReference = st.Settings.Mode == prompt.ModeReference
		}
		errs = applyTo(&st.Settings, intent.Assignments)
		if intent.Notes != "" {
			st.Settings.Notes = intent.Notes
		}
	})
	if len(errs) > 0 {
		_ = h.tg.SendText(chatID, "⚠️ Không áp dụng được:\n"+strings.Join(errs, "\n"))
	}

	if st.AwaitingReference {
		return h.tg.SendText(chatID, "📷 Đã nhận ảnh của bạn. Hãy gửi tiếp ảnh tham chiếu.")
	}
	if len(st.Settings.Themes) == 0 && !st.Settings.KeepOriginal {
		h.sessions.Update(chatID, userID, func(st *session.State) { st.Menu = session.MenuThemes })
		_ = h.tg.SendText(chatID, "✅ Đã lưu ảnh. Chọn phong cách rồi bấm 🎨 Tạo ảnh.")
		return h.renderUI(chatID, userID, 0, false)
	}
	return h.generate(ctx, chatID, userID)
}

// generate runs the studio for the session's current settings and uploads
// and delivers every successful image.
func (h *Handler) generate(ctx context.Context, chatID, userID int64) error {
	st := h.sessions.Get(chatID, userID)
	settings := st.Settings.Normalize()
	if err := settings.Validate(st.Images()); err != nil {
		return h.tg.SendText(chatID, "❌ "+studio.UserMessage(err))
	}

	total := len(settings.ResolveThemes()) * settings.Variations
	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, fmt.Sprintf("🎨 Đang tạo %d ảnh, vui lòng chờ...", total))

	out, err := h.studio.Generate(ctx, sessionKey(chatID, userID), settings, st.Images())
	if err != nil {
		h.logger.Error("generation failed", "chat_id", chatID, "err", err)
		return h.tg.SendText(chatID, "❌ "+studio.UserMessage(err))
	}
	if out.Stale {
		h.logger.Info("generation superseded", "chat_id", chatID, "invocation", out.Invocation)
		return nil
	}

	// Only delivered images are kept, so /export N matches the N-th photo.
	results := make([]imageproc.Payload, 0, len(out.Results))
	photos := make([]telegram.Photo, 0, len(out.Results))
	failed := 0
	for i, r := range out.Results {
		if r.Status != board.StatusReady {
			failed++
			continue
		}
		img := out.Images[i]
		n := len(results) + 1
		p := imageproc.NewPayload(resultName(n, img.MimeType), img.MimeType, img.Data)
		results = append(results, p)

		caption := fmt.Sprintf("#%d", n)
		if n == 1 {
			caption = "#1 ✅ " + r.Description
		}
		photos = append(photos, telegram.Photo{Name: p.Name, Data: p.Data, Caption: caption})
	}
	h.sessions.Update(chatID, userID, func(st *session.State) { st.Results = results })

	if len(photos) == 0 {
		return h.tg.SendText(chatID, "❌ Không tạo được ảnh nào. Vui lòng thử lại.")
	}
	if err := h.tg.SendPhotos(chatID, photos); err != nil {
		return err
	}
	if failed > 0 {
		_ = h.tg.SendText(chatID, fmt.Sprintf("⚠️ %d/%d ảnh bị lỗi.", failed, len(out.Results)))
	}
	return h.tg.SendText(chatID, "💾 Xuất bản chất lượng cao: /export <số ảnh> [2k|4k] [png|jpg|webp]")
}

// export upscales one of the last results and sends it as a file.
func (h *Handler) export(chatID, userID int64, args string) error {
	fields := strings.Fields(strings.ToLower(args))
	index, size, format := 1, "4k", imageproc.FormatPNG
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			index = n
			continue
		}
		if f == "2k" || f == "4k" {
			size = f
			continue
		}
		parsed, err := imageproc.ParseFormat(f)
		if err != nil {
			return h.tg.SendText(chatID, "❌ Cú pháp: /export <số ảnh> [2k|4k] [png|jpg|webp]")
		}
		format = parsed
	}

	st := h.sessions.Get(chatID, userID)
	if index < 1 || index > len(st.Results) {
		return h.tg.SendText(chatID, fmt.Sprintf("❌ Không có ảnh #%d. Hãy tạo ảnh trước.", index))
	}

	longEdge, err := imageproc.LongEdgeFor(size)
	if err != nil {
		return h.tg.SendText(chatID, "❌ "+err.Error())
	}
	h.tg.SendTyping(chatID)

	img, err := imageproc.Upscale(st.Results[index-1].Data, imageproc.UpscaleOptions{
		LongEdge:   longEdge,
		Fit:        imageproc.FitContain,
		Background: imageproc.FillAverage,
	})
	if err != nil {
		h.logger.Error("export upscale failed", "err", err)
		return h.tg.SendText(chatID, "❌ Không xử lý được ảnh.")
	}
	data, err := imageproc.Encode(img, format, 0)
	if err != nil {
		h.logger.Error("export encode failed", "err", err)
		return h.tg.SendText(chatID, "❌ Không xử lý được ảnh.")
	}

	b := img.Bounds()
	name := imageproc.ExportName("studio", b.Dx(), b.Dy(), format)
	return h.tg.SendDocument(chatID, name, data, fmt.Sprintf("✅ %dx%d %s", b.Dx(), b.Dy(), strings.ToUpper(string(format))))
}

func (h *Handler) sendPrompts(chatID, userID int64) error {
	st := h.sessions.Get(chatID, userID)
	prompts := studio.Prompts(st.Settings)
	themes := st.Settings.Normalize().ResolveThemes()

	var b strings.Builder
	for i, p := range prompts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "📄 %s\n%s", themes[i], p)
	}
	return h.tg.SendText(chatID, b.String())
}

func (h *Handler) applyAssignments(chatID, userID int64, pairs []assignment) []string {
	var errs []string
	h.sessions.Update(chatID, userID, func(st *session.State) {
		errs = applyTo(&st.Settings, pairs)
	})
	return errs
}

func applyTo(s *studio.Settings, pairs []assignment) []string {
	var errs []string
	for _, a := range pairs {
		if err := s.Set(a.Key, a.Value); err != nil {
			errs = append(errs, fmt.Sprintf("• %s=%s: %v", a.Key, a.Value, err))
		}
	}
	return errs
}

// photoFileID accepts compressed photos and images sent as files.
func photoFileID(msg *telegram.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		return doc.FileID, true
	}
	return "", false
}

func splitWeight(args string) (string, int, bool) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(fields[len(fields)-1], "%"))
	if err != nil {
		return "", 0, false
	}
	return strings.Join(fields[:len(fields)-1], " "), n, true
}

// resultName numbers results from 1, as shown in the album captions.
func resultName(n int, mimeType string) string {
	ext := ".png"
	switch mimeType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}
	return fmt.Sprintf("studio_%d%s", n, ext)
}

func sessionKey(chatID, userID int64) string {
	return fmt.Sprintf("tg:%d:%d", chatID, userID)
}
