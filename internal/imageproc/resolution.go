package imageproc

import (
	"fmt"
	"strconv"
	"strings"
)

const AspectOriginal = "original"

var aspectOrder = []string{AspectOriginal, "1:1", "4:5", "3:4", "2:3", "16:9", "9:16", "5:4", "3:2"}

var resolutionsByAspect = map[string][]string{
	"1:1":  {"1024x1024", "1536x1536", "2048x2048"},
	"4:5":  {"1080x1350", "2048x2560"},
	"3:4":  {"1080x1440", "1536x2048"},
	"2:3":  {"1200x1800", "1600x2400"},
	"16:9": {"1920x1080", "2560x1440"},
	"9:16": {"1080x1920", "1440x2560"},
	"5:4":  {"2000x1600"},
	"3:2":  {"1800x1200", "2400x1600"},
}

// Aspects lists the preprocessing aspect choices, "original" first.
func Aspects() []string {
	return append([]string(nil), aspectOrder...)
}

// Resolutions returns the "WxH" presets for aspect; nil for original or unknown aspects.
func Resolutions(aspect string) []string {
	return append([]string(nil), resolutionsByAspect[strings.TrimSpace(aspect)]...)
}

// DefaultResolution is the first preset for aspect, selected when the aspect changes.
func DefaultResolution(aspect string) string {
	r := resolutionsByAspect[strings.TrimSpace(aspect)]
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

func ValidAspect(aspect string) bool {
	aspect = strings.TrimSpace(aspect)
	if aspect == AspectOriginal {
		return true
	}
	_, ok := resolutionsByAspect[aspect]
	return ok
}

func ParseResolution(value string) (int, int, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	parts := strings.SplitN(value, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid resolution %q", value)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q", value)
	}
	return w, h, nil
}
