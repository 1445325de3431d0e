package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type Subject string

const (
	SubjectSingle Subject = "single"
	SubjectCouple Subject = "couple"
)

// Level is shared by skin retouch and reference sharpness.
type Level string

const (
	LevelLight  Level = "light"
	LevelMedium Level = "medium"
	LevelPro    Level = "pro"
)

type Tone string

const (
	ToneWarm    Tone = "warm"
	ToneNeutral Tone = "neutral"
	ToneCool    Tone = "cool"
)

type Background string

const (
	BackgroundStudio  Background = "studio"
	BackgroundOutdoor Background = "outdoor"
)

// Weighted is a named accessory or creative effect with an influence percentage.
type Weighted struct {
	Name      string `json:"name"`
	Influence int    `json:"influence"`
}

const (
	GlitchArt = "Hiệu ứng Glitch nghệ thuật"
	GlitchVHS = "Hiệu ứng TV nhiễu (VHS static)"

	// MaxGlitchInfluence caps glitch-family effects.
	MaxGlitchInfluence = 35
	MaxInfluence       = 100

	DefaultEffectInfluence    = 60
	DefaultAccessoryInfluence = 50
)

var glitchEffects = map[string]struct{}{
	GlitchArt: {},
	GlitchVHS: {},
}

func IsGlitch(name string) bool {
	_, ok := glitchEffects[normalizeKey(name)]
	return ok
}

func HasGlitch(effects []Weighted) bool {
	for _, e := range effects {
		if IsGlitch(e.Name) {
			return true
		}
	}
	return false
}

// ClampInfluence bounds v to [0,100], or [0,35] for glitch-family effects.
func ClampInfluence(name string, v int) int {
	limit := MaxInfluence
	if IsGlitch(name) {
		limit = MaxGlitchInfluence
	}
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// NormalizeName returns the NFC form of a catalog name.
func NormalizeName(name string) string {
	return normalizeKey(name)
}

func normalizeKey(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// lookup returns the table entry for key, or the key itself when absent.
func lookup(table map[string]string, key string) string {
	if v, ok := table[normalizeKey(key)]; ok {
		return v
	}
	return key
}

func joinPieces(pieces ...string) string {
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, " ")
}

func renderWeighted(items []Weighted, format string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf(format, it.Name, it.Influence))
	}
	return strings.Join(parts, ", ")
}

// sentence terminates s with a period unless it already ends in punctuation.
func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}
