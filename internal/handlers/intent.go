package handlers

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"ai-photo-studio/internal/prompt"
)

var modeKeywords = []struct {
	mode     prompt.Mode
	keywords []string
}{
	{prompt.ModeWedding, []string{"wedding", "cưới", "cuoi"}},
	{prompt.ModeStreet, []string{"street", "phố", "pho"}},
	{prompt.ModeRestore, []string{"restore", "phục hồi", "phuc hoi", "khôi phục"}},
	{prompt.ModeReference, []string{"reference", "ref", "tham chiếu", "tham chieu"}},
}

// parseMode maps a command argument or caption keyword onto a mode.
func parseMode(text string) (prompt.Mode, bool) {
	t := normalizeText(text)
	if t == "" {
		return "", false
	}
	for _, mk := range modeKeywords {
		if string(mk.mode) == t {
			return mk.mode, true
		}
		for _, kw := range mk.keywords {
			if t == kw {
				return mk.mode, true
			}
		}
	}
	return "", false
}

type assignment struct {
	Key   string
	Value string
}

type captionIntent struct {
	Mode        prompt.Mode
	Assignments []assignment
	Notes       string
}

// parseCaption reads a photo caption such as "restore variations=2 tone=warm".
// key=value tokens become settings, a leading mode keyword switches mode and
// the remaining text is kept as notes.
func parseCaption(caption string) captionIntent {
	var out captionIntent
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return out
	}

	rest := caption
	if head, tail, _ := strings.Cut(caption, " "); head != "" {
		if mode, ok := parseMode(head); ok {
			out.Mode = mode
			rest = tail
		} else if mode, ok := parseMode(caption); ok {
			out.Mode = mode
			return out
		}
	}

	assignments, notes := parseAssignments(rest)
	out.Assignments = assignments
	out.Notes = notes
	return out
}

// parseAssignments splits key=value tokens from free text.
func parseAssignments(text string) ([]assignment, string) {
	var out []assignment
	var words []string
	for _, field := range strings.Fields(text) {
		k, v, ok := strings.Cut(field, "=")
		if ok && k != "" && v != "" {
			out = append(out, assignment{Key: strings.ToLower(k), Value: v})
			continue
		}
		words = append(words, field)
	}
	return out, strings.Join(words, " ")
}

func normalizeText(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
