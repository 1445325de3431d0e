package studio

import (
	"fmt"
	"slices"
	"strings"

	"ai-photo-studio/internal/imageproc"
	"ai-photo-studio/internal/prompt"
)

const (
	MaxThemes     = 6
	MaxVariations = 8
)

// Settings is the full request for one generation. It is built once per
// invocation and passed by value.
type Settings struct {
	Mode         prompt.Mode       `json:"mode"`
	Themes       []string          `json:"themes"`
	KeepOriginal bool              `json:"keepOriginal"`
	Variations   int               `json:"variations"`
	Effects      []prompt.Weighted `json:"effects"`
	Accessories  []prompt.Weighted `json:"accessories"`
	Notes        string            `json:"notes"`
	Tone         prompt.Tone       `json:"tone"`
	Background   prompt.Background `json:"background"`
	Grain        int               `json:"grain"`

	// wedding
	Subject       prompt.Subject       `json:"subject"`
	WeddingActive bool                 `json:"weddingActive"`
	Retouch       prompt.Level         `json:"retouch"`
	Brightness    int                  `json:"brightness"`
	Blur          int                  `json:"blur"`
	Aspect        string               `json:"aspect"`
	Resolution    string               `json:"resolution"`
	Crop          imageproc.CropMethod `json:"crop"`
	Sharpen       bool                 `json:"sharpen"`

	// street
	StreetAspect string `json:"streetAspect"`

	// reference
	Influence       int          `json:"influence"`
	Sharpness       prompt.Level `json:"sharpness"`
	ReferenceAspect string       `json:"referenceAspect"`
	OutputK         int          `json:"outputK"`
}

// Defaults returns the settings a mode starts from after a mode switch.
func Defaults(mode prompt.Mode) Settings {
	s := Settings{
		Mode:            mode,
		Themes:          []string{},
		Variations:      4,
		Effects:         []prompt.Weighted{},
		Accessories:     []prompt.Weighted{},
		Tone:            prompt.ToneNeutral,
		Background:      prompt.BackgroundStudio,
		Subject:         prompt.SubjectSingle,
		Retouch:         prompt.LevelMedium,
		Brightness:      50,
		Blur:            20,
		Aspect:          imageproc.AspectOriginal,
		Crop:            imageproc.CropFill,
		StreetAspect:    prompt.DefaultStreetAspect,
		Influence:       50,
		Sharpness:       prompt.LevelMedium,
		ReferenceAspect: prompt.DefaultReferenceAspect,
		OutputK:         4,
	}
	if mode == prompt.ModeRestore {
		s.Variations = 1
	}
	return s
}

// Normalize clamps numbers into range, drops duplicates and replaces unknown
// enum values with the mode defaults. Lists are copied.
func (s Settings) Normalize() Settings {
	def := Defaults(s.Mode)

	s.Themes = uniqueThemes(s.Themes)
	if len(s.Themes) > MaxThemes {
		s.Themes = s.Themes[:MaxThemes]
	}
	if s.Mode != prompt.ModeWedding {
		s.KeepOriginal = false
	}

	switch {
	case s.Variations < 1:
		s.Variations = def.Variations
	case s.Variations > MaxVariations:
		s.Variations = MaxVariations
	}

	s.Effects = uniqueWeighted(s.Effects, prompt.ClampInfluence)
	s.Accessories = uniqueWeighted(s.Accessories, func(_ string, v int) int { return clampPercent(v) })
	s.Notes = strings.TrimSpace(s.Notes)

	s.Tone = pick(s.Tone, def.Tone, prompt.ToneWarm, prompt.ToneNeutral, prompt.ToneCool)
	s.Background = pick(s.Background, def.Background, prompt.BackgroundStudio, prompt.BackgroundOutdoor)
	s.Subject = pick(s.Subject, def.Subject, prompt.SubjectSingle, prompt.SubjectCouple)
	s.Retouch = pick(s.Retouch, def.Retouch, prompt.LevelLight, prompt.LevelMedium, prompt.LevelPro)
	s.Sharpness = pick(s.Sharpness, def.Sharpness, prompt.LevelLight, prompt.LevelMedium, prompt.LevelPro)
	s.Crop = pick(s.Crop, def.Crop, imageproc.CropFill, imageproc.CropFit)
	s.StreetAspect = pick(s.StreetAspect, def.StreetAspect, "3:2", "4:5")
	s.ReferenceAspect = pick(s.ReferenceAspect, def.ReferenceAspect, "2:3", "3:2", "4:5")
	if s.OutputK != 2 {
		s.OutputK = 4
	}

	s.Grain = clampPercent(s.Grain)
	s.Brightness = clampPercent(s.Brightness)
	s.Blur = clampPercent(s.Blur)
	s.Influence = clampPercent(s.Influence)

	s.Aspect = strings.TrimSpace(s.Aspect)
	if !imageproc.ValidAspect(s.Aspect) {
		s.Aspect = imageproc.AspectOriginal
	}
	if s.Aspect == imageproc.AspectOriginal {
		s.Resolution = ""
	} else if !slices.Contains(imageproc.Resolutions(s.Aspect), s.Resolution) {
		s.Resolution = imageproc.DefaultResolution(s.Aspect)
	}
	return s
}

// ResolveThemes returns the themes one invocation iterates over. It is never empty.
func (s Settings) ResolveThemes() []string {
	if s.KeepOriginal && s.Mode == prompt.ModeWedding {
		return []string{prompt.KeepOriginalTheme}
	}
	if len(s.Themes) == 0 {
		return []string{prompt.DefaultTheme}
	}
	return append([]string(nil), s.Themes...)
}

// Description is the caption attached to every successful result.
func (s Settings) Description() string {
	themes := strings.Join(s.ResolveThemes(), ", ")
	if len(s.Effects) == 0 {
		return themes
	}
	effects := make([]string, 0, len(s.Effects))
	for _, e := range s.Effects {
		effects = append(effects, fmt.Sprintf("%s (%d%%)", e.Name, e.Influence))
	}
	return themes + " + " + strings.Join(effects, ", ")
}

// Prompt builds the instruction for one theme.
func (s Settings) Prompt(theme string) string {
	switch s.Mode {
	case prompt.ModeStreet:
		return prompt.BuildStreet(prompt.StreetConfig{
			Theme:  theme,
			Aspect: s.StreetAspect,
			Notes:  s.Notes,
			Grain:  s.Grain,
		})
	case prompt.ModeRestore:
		return prompt.BuildRestore(prompt.RestoreConfig{Theme: theme, Notes: s.Notes})
	case prompt.ModeReference:
		return prompt.BuildReference(prompt.ReferenceConfig{
			Theme:      theme,
			Influence:  s.Influence,
			Tone:       s.Tone,
			Sharpness:  s.Sharpness,
			Background: s.Background,
			Aspect:     s.ReferenceAspect,
			OutputK:    s.OutputK,
			Notes:      s.Notes,
			Effects:    s.Effects,
			Grain:      s.Grain,
		})
	default:
		return prompt.BuildWedding(prompt.WeddingConfig{
			Theme:          theme,
			Subject:        s.Subject,
			WeddingActive:  s.WeddingActive,
			Retouch:        s.Retouch,
			Tone:           s.Tone,
			Background:     s.Background,
			Accessories:    s.Accessories,
			Effects:        s.Effects,
			Notes:          s.Notes,
			KeepBackground: s.KeepOriginal,
			Brightness:     s.Brightness,
			Blur:           s.Blur,
			Grain:          s.Grain,
		})
	}
}

// Prompts returns the prompt for each resolved theme, as a debug view of
// what Generate would send.
func Prompts(s Settings) []string {
	s = s.Normalize()
	themes := s.ResolveThemes()
	out := make([]string, 0, len(themes))
	for _, th := range themes {
		out = append(out, s.Prompt(th))
	}
	return out
}

// PrepOptions maps the wedding framing settings onto the preprocessor.
func (s Settings) PrepOptions() imageproc.PrepOptions {
	return imageproc.PrepOptions{
		Aspect:     s.Aspect,
		Resolution: s.Resolution,
		Crop:       s.Crop,
		Sharpen:    s.Sharpen,
	}
}

func uniqueThemes(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := prompt.NormalizeName(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func uniqueWeighted(in []prompt.Weighted, clamp func(string, int) int) []prompt.Weighted {
	seen := make(map[string]struct{}, len(in))
	out := make([]prompt.Weighted, 0, len(in))
	for _, w := range in {
		w.Name = strings.TrimSpace(w.Name)
		if w.Name == "" {
			continue
		}
		key := prompt.NormalizeName(w.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		w.Influence = clamp(w.Name, w.Influence)
		out = append(out, w)
	}
	return out
}

func pick[T ~string](v, fallback T, allowed ...T) T {
	if slices.Contains(allowed, v) {
		return v
	}
	return fallback
}

func clampPercent(v int) int {
	return min(max(v, 0), 100)
}
