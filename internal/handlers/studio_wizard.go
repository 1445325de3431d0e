package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ai-photo-studio/internal/prompt"
	"ai-photo-studio/internal/session"
	"ai-photo-studio/internal/studio"
	"ai-photo-studio/internal/telegram"
)

const studioCallbackPrefix = "ps"

var modeLabels = map[prompt.Mode]string{
	prompt.ModeWedding:   "💍 Cưới",
	prompt.ModeStreet:    "🏙 Đường phố",
	prompt.ModeRestore:   "🖼 Phục hồi",
	prompt.ModeReference: "🎯 Tham chiếu",
}

func (h *Handler) handleCallback(ctx context.Context, q *telegram.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil {
		return nil
	}
	data := strings.TrimSpace(q.Data)
	if !strings.HasPrefix(data, studioCallbackPrefix+":") {
		return nil
	}

	parts := strings.Split(data, ":")
	if len(parts) < 3 {
		return nil
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "Bảng này không dành cho bạn.", true)
		return nil
	}

	action := parts[2]
	args := parts[3:]
	chatID := q.Message.Chat.ID
	msgID := q.Message.MessageID

	var notice string
	updated := h.sessions.Update(chatID, ownerID, func(st *session.State) {
		st.MessageID = msgID

		switch action {
		case "menu":
			if len(args) >= 1 {
				st.Menu = session.Menu(args[0])
				st.Group = 0
			}
		case "group":
			if n, ok := argInt(args, 0); ok {
				st.Group = n
			}
		case "mode":
			if len(args) >= 1 {
				if mode := prompt.Mode(args[0]); mode.Valid() && mode != st.Settings.Mode {
					st.Settings = studio.Defaults(mode)
					st.AwaitingReference = false
				}
				st.Menu = session.MenuMain
			}
		case "keep":
			_ = st.Settings.ToggleTheme(prompt.KeepOriginalTheme)
		case "theme":
			if name, ok := catalogItem(prompt.ThemeGroups(st.Settings.Mode), args); ok {
				if err := st.Settings.ToggleTheme(name); err != nil {
					notice = fmt.Sprintf("Chỉ chọn tối đa %d phong cách.", studio.MaxThemes)
				}
			}
		case "fx":
			if name, ok := catalogItem(prompt.EffectGroups(), args); ok {
				st.Settings.ToggleEffect(name)
			}
		case "acc":
			if name, ok := catalogItem(prompt.AccessoryGroups(), args); ok {
				st.Settings.ToggleAccessory(name)
			}
		case "var":
			if len(args) >= 1 {
				n := st.Settings.Variations
				if args[0] == "+" {
					n++
				} else {
					n--
				}
				st.Settings.Variations = min(max(n, 1), studio.MaxVariations)
			}
		case "note":
			st.AwaitingNotes = true
		case "reset":
			st.Settings = studio.Defaults(st.Settings.Mode)
			st.Menu = session.MenuMain
			st.AwaitingNotes = false
		case "close":
			st.AwaitingNotes = false
			st.Menu = session.MenuMain
		}
	})

	switch action {
	case "note":
		_ = h.tg.AnswerCallback(q.ID, "Gửi ghi chú (hủy: /cancel).", false)
		_ = h.tg.SendText(chatID, "📝 Gửi ghi chú thêm cho ảnh (hủy: /cancel).")
	case "prompt":
		_ = h.tg.AnswerCallback(q.ID, "Đang gửi prompt…", false)
		if err := h.sendPrompts(chatID, ownerID); err != nil {
			return err
		}
	case "generate":
		_ = h.tg.AnswerCallback(q.ID, "Đang tạo ảnh…", false)
		if !updated.HasSource() {
			return h.tg.SendText(chatID, "📷 Hãy gửi ảnh trước.")
		}
		return h.generate(ctx, chatID, ownerID)
	default:
		if notice != "" {
			_ = h.tg.AnswerCallback(q.ID, notice, true)
		} else {
			_ = h.tg.AnswerCallback(q.ID, "OK", false)
		}
	}

	return h.renderUI(chatID, ownerID, msgID, true)
}

// renderUI edits the keyboard message in place when possible and falls back
// to sending a new one.
func (h *Handler) renderUI(chatID, userID int64, messageID int, edit bool) error {
	st := h.sessions.Get(chatID, userID)
	if messageID == 0 {
		messageID = st.MessageID
	}

	text := studioUIText(st)
	kb := studioUIKeyboard(userID, st)

	if edit && messageID != 0 {
		if err := h.tg.EditTextWithKeyboard(chatID, messageID, text, kb); err == nil {
			return nil
		}
	}

	msgID, err := h.tg.SendTextWithKeyboard(chatID, text, kb)
	if err != nil {
		return err
	}
	h.sessions.Update(chatID, userID, func(st *session.State) { st.MessageID = msgID })
	return nil
}

func studioUIText(st session.State) string {
	s := st.Settings

	var b strings.Builder
	b.WriteString("📸 AI Photo Studio\n\n")
	fmt.Fprintf(&b, "Chế độ: %s\n", modeLabels[s.Mode])
	fmt.Fprintf(&b, "Phong cách: %s\n", themesLabel(s))
	if s.Mode == prompt.ModeWedding || s.Mode == prompt.ModeReference {
		fmt.Fprintf(&b, "Hiệu ứng: %s\n", weightedLabel(s.Effects))
	}
	if s.Mode == prompt.ModeWedding {
		fmt.Fprintf(&b, "Phụ kiện: %s\n", weightedLabel(s.Accessories))
	}
	fmt.Fprintf(&b, "Số biến thể: %d\n", s.Variations)
	if s.Notes != "" {
		b.WriteString("Ghi chú: " + truncateLine(s.Notes, 80) + "\n")
	}

	switch {
	case !st.HasSource():
		b.WriteString("Ảnh: (chưa có)\n")
	case s.Mode == prompt.ModeReference && len(st.Reference.Data) == 0:
		b.WriteString("Ảnh: đã lưu ✅, ảnh tham chiếu: (chưa có)\n")
	default:
		b.WriteString("Ảnh: đã lưu ✅\n")
	}

	if st.Menu == session.MenuThemes || st.Menu == session.MenuEffects || st.Menu == session.MenuAccessories {
		groups := menuGroups(st)
		if len(groups) > 0 {
			g := groups[clampGroup(st.Group, len(groups))]
			fmt.Fprintf(&b, "\n📂 %s (%d/%d)\n", g.Name, clampGroup(st.Group, len(groups))+1, len(groups))
		}
	}

	if st.AwaitingNotes {
		b.WriteString("\n📝 Hãy gửi ghi chú (hủy: /cancel).\n")
	} else if !st.HasSource() {
		b.WriteString("\n📷 Gửi ảnh để bắt đầu.\n")
	}

	return strings.TrimSpace(b.String())
}

func studioUIKeyboard(ownerID int64, st session.State) telegram.Keyboard {
	switch st.Menu {
	case session.MenuThemes, session.MenuEffects, session.MenuAccessories:
		return catalogKeyboard(ownerID, st)
	default:
		return mainKeyboard(ownerID, st)
	}
}

func mainKeyboard(ownerID int64, st session.State) telegram.Keyboard {
	s := st.Settings

	var modeRow []telegram.KeyboardButton
	for _, mode := range prompt.Modes() {
		label := modeLabels[mode]
		if mode == s.Mode {
			label = "✅ " + label
		}
		modeRow = append(modeRow, tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "mode", string(mode))))
	}

	rows := [][]telegram.KeyboardButton{
		modeRow[:2],
		modeRow[2:],
		{tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("🎨 Phong cách (%d)", len(s.Themes)), cb(ownerID, "menu", string(session.MenuThemes)))},
	}

	var extras []telegram.KeyboardButton
	if s.Mode == prompt.ModeWedding || s.Mode == prompt.ModeReference {
		extras = append(extras, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✨ Hiệu ứng (%d)", len(s.Effects)), cb(ownerID, "menu", string(session.MenuEffects))))
	}
	if s.Mode == prompt.ModeWedding {
		extras = append(extras, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("💎 Phụ kiện (%d)", len(s.Accessories)), cb(ownerID, "menu", string(session.MenuAccessories))))
	}
	if len(extras) > 0 {
		rows = append(rows, extras)
	}

	rows = append(rows,
		[]telegram.KeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("➖", cb(ownerID, "var", "-")),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Biến thể: %d", s.Variations), cb(ownerID, "noop")),
			tgbotapi.NewInlineKeyboardButtonData("➕", cb(ownerID, "var", "+")),
		},
		[]telegram.KeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("📝 Ghi chú", cb(ownerID, "note")),
			tgbotapi.NewInlineKeyboardButtonData("📄 Prompt", cb(ownerID, "prompt")),
		},
		[]telegram.KeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🎨 Tạo ảnh", cb(ownerID, "generate")),
		},
		[]telegram.KeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Đặt lại", cb(ownerID, "reset")),
			tgbotapi.NewInlineKeyboardButtonData("Đóng", cb(ownerID, "close")),
		},
	)

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// catalogKeyboard shows one catalog group at a time with paging buttons.
func catalogKeyboard(ownerID int64, st session.State) telegram.Keyboard {
	s := st.Settings
	groups := menuGroups(st)

	var rows [][]telegram.KeyboardButton
	if st.Menu == session.MenuThemes && s.Mode == prompt.ModeWedding {
		label := prompt.KeepOriginalTheme
		if s.KeepOriginal {
			label = "✅ " + label
		}
		rows = append(rows, []telegram.KeyboardButton{tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, "keep"))})
	}

	if len(groups) > 0 {
		gi := clampGroup(st.Group, len(groups))
		action, selected := catalogAction(st)
		for ii, item := range groups[gi].Items {
			label := item
			if selected(item) {
				label = "✅ " + label
			}
			rows = append(rows, []telegram.KeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData(label, cb(ownerID, action, strconv.Itoa(gi), strconv.Itoa(ii))),
			})
		}

		if len(groups) > 1 {
			prev := (gi + len(groups) - 1) % len(groups)
			next := (gi + 1) % len(groups)
			rows = append(rows, []telegram.KeyboardButton{
				tgbotapi.NewInlineKeyboardButtonData("◀", cb(ownerID, "group", strconv.Itoa(prev))),
				tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", gi+1, len(groups)), cb(ownerID, "noop")),
				tgbotapi.NewInlineKeyboardButtonData("▶", cb(ownerID, "group", strconv.Itoa(next))),
			})
		}
	}

	rows = append(rows, []telegram.KeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅ Quay lại", cb(ownerID, "menu", string(session.MenuMain))),
	})
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func menuGroups(st session.State) []prompt.Group {
	switch st.Menu {
	case session.MenuEffects:
		return prompt.EffectGroups()
	case session.MenuAccessories:
		return prompt.AccessoryGroups()
	default:
		return prompt.ThemeGroups(st.Settings.Mode)
	}
}

func catalogAction(st session.State) (string, func(string) bool) {
	s := st.Settings
	switch st.Menu {
	case session.MenuEffects:
		return "fx", func(name string) bool { return indexOfWeighted(s.Effects, name) >= 0 }
	case session.MenuAccessories:
		return "acc", func(name string) bool { return indexOfWeighted(s.Accessories, name) >= 0 }
	default:
		return "theme", func(name string) bool { return indexOfName(s.Themes, name) >= 0 }
	}
}

// catalogItem resolves "<group>:<item>" callback arguments.
func catalogItem(groups []prompt.Group, args []string) (string, bool) {
	gi, ok := argInt(args, 0)
	if !ok || gi >= len(groups) {
		return "", false
	}
	ii, ok := argInt(args, 1)
	if !ok || ii >= len(groups[gi].Items) {
		return "", false
	}
	return groups[gi].Items[ii], true
}

func argInt(args []string, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	n, err := strconv.Atoi(args[i])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func clampGroup(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func themesLabel(s studio.Settings) string {
	if s.KeepOriginal && s.Mode == prompt.ModeWedding {
		return prompt.KeepOriginalTheme
	}
	if len(s.Themes) == 0 {
		return "(chưa chọn)"
	}
	return strings.Join(s.Themes, ", ")
}

func weightedLabel(items []prompt.Weighted) string {
	if len(items) == 0 {
		return "(không)"
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s (%d%%)", it.Name, it.Influence))
	}
	return strings.Join(parts, ", ")
}

func indexOfName(list []string, name string) int {
	key := prompt.NormalizeName(name)
	for i, v := range list {
		if prompt.NormalizeName(v) == key {
			return i
		}
	}
	return -1
}

func indexOfWeighted(list []prompt.Weighted, name string) int {
	key := prompt.NormalizeName(name)
	for i, v := range list {
		if prompt.NormalizeName(v.Name) == key {
			return i
		}
	}
	return -1
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", studioCallbackPrefix, ownerID, strings.Join(parts, ":"))
}

func truncateLine(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
