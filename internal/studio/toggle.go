package studio

import (
	"fmt"
	"strconv"
	"strings"

	"ai-photo-studio/internal/imageproc"
	"ai-photo-studio/internal/prompt"
)

// ErrTooManyThemes is returned when a seventh theme is selected.
var ErrTooManyThemes = fmt.Errorf("studio: at most %d themes can be selected", MaxThemes)

// ToggleTheme adds or removes a theme. Selecting the keep-original entry
// clears every other theme and the reverse.
func (s *Settings) ToggleTheme(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if s.Mode == prompt.ModeWedding && prompt.NormalizeName(name) == prompt.NormalizeName(prompt.KeepOriginalTheme) {
		s.KeepOriginal = !s.KeepOriginal
		if s.KeepOriginal {
			s.Themes = []string{}
		}
		return nil
	}
	if i := indexName(s.Themes, name); i >= 0 {
		s.Themes = append(s.Themes[:i:i], s.Themes[i+1:]...)
		return nil
	}
	if len(s.Themes) >= MaxThemes {
		return ErrTooManyThemes
	}
	s.KeepOriginal = false
	s.Themes = append(s.Themes, name)
	return nil
}

func (s *Settings) ToggleEffect(name string) {
	s.Effects = toggleWeighted(s.Effects, name, prompt.ClampInfluence(name, prompt.DefaultEffectInfluence))
}

func (s *Settings) ToggleAccessory(name string) {
	s.Accessories = toggleWeighted(s.Accessories, name, prompt.DefaultAccessoryInfluence)
}

// Set applies one textual key=value pair, as typed in a chat command.
func (s *Settings) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch key {
	case "variations":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > MaxVariations {
			return fmt.Errorf("variations must be 1..%d", MaxVariations)
		}
		s.Variations = n
	case "notes":
		s.Notes = value
	case "tone":
		return setEnum(&s.Tone, value, prompt.ToneWarm, prompt.ToneNeutral, prompt.ToneCool)
	case "background":
		return setEnum(&s.Background, value, prompt.BackgroundStudio, prompt.BackgroundOutdoor)
	case "subject":
		return setEnum(&s.Subject, value, prompt.SubjectSingle, prompt.SubjectCouple)
	case "retouch":
		return setEnum(&s.Retouch, value, prompt.LevelLight, prompt.LevelMedium, prompt.LevelPro)
	case "sharpness":
		return setEnum(&s.Sharpness, value, prompt.LevelLight, prompt.LevelMedium, prompt.LevelPro)
	case "crop":
		return setEnum(&s.Crop, value, imageproc.CropFill, imageproc.CropFit)
	case "grain", "brightness", "blur", "influence":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 100 {
			return fmt.Errorf("%s must be 0..100", key)
		}
		switch key {
		case "grain":
			s.Grain = n
		case "brightness":
			s.Brightness = n
		case "blur":
			s.Blur = n
		default:
			s.Influence = n
		}
	case "wedding", "sharpen":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		if key == "wedding" {
			s.WeddingActive = b
		} else {
			s.Sharpen = b
		}
	case "aspect":
		switch s.Mode {
		case prompt.ModeStreet:
			return setEnum(&s.StreetAspect, value, "3:2", "4:5")
		case prompt.ModeReference:
			return setEnum(&s.ReferenceAspect, value, "2:3", "3:2", "4:5")
		default:
			if !imageproc.ValidAspect(value) {
				return fmt.Errorf("aspect must be one of %s", strings.Join(imageproc.Aspects(), ", "))
			}
			s.Aspect = value
			s.Resolution = imageproc.DefaultResolution(value)
		}
	case "resolution":
		if _, _, err := imageproc.ParseResolution(value); err != nil {
			return err
		}
		s.Resolution = value
	case "output":
		switch strings.ToUpper(value) {
		case "2K", "2":
			s.OutputK = 2
		case "4K", "4":
			s.OutputK = 4
		default:
			return fmt.Errorf("output must be 2K or 4K")
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// SetWeight changes the influence of an already selected effect or accessory.
func (s *Settings) SetWeight(name string, influence int) bool {
	if i := indexWeighted(s.Effects, name); i >= 0 {
		s.Effects[i].Influence = prompt.ClampInfluence(s.Effects[i].Name, influence)
		return true
	}
	if i := indexWeighted(s.Accessories, name); i >= 0 {
		s.Accessories[i].Influence = clampPercent(influence)
		return true
	}
	return false
}

func toggleWeighted(in []prompt.Weighted, name string, influence int) []prompt.Weighted {
	name = strings.TrimSpace(name)
	if name == "" {
		return in
	}
	if i := indexWeighted(in, name); i >= 0 {
		return append(in[:i:i], in[i+1:]...)
	}
	return append(in, prompt.Weighted{Name: name, Influence: influence})
}

func indexName(list []string, name string) int {
	key := prompt.NormalizeName(name)
	for i, v := range list {
		if prompt.NormalizeName(v) == key {
			return i
		}
	}
	return -1
}

func indexWeighted(list []prompt.Weighted, name string) int {
	key := prompt.NormalizeName(name)
	for i, v := range list {
		if prompt.NormalizeName(v.Name) == key {
			return i
		}
	}
	return -1
}

func setEnum[T ~string](dst *T, value string, allowed ...T) error {
	v := T(strings.ToLower(value))
	for _, a := range allowed {
		if a == v {
			*dst = v
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return fmt.Errorf("must be one of %s", strings.Join(names, ", "))
}
