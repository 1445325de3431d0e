package prompt

import (
	"fmt"
	"strings"
)

type WeddingConfig struct {
	Theme          string
	Subject        Subject
	WeddingActive  bool
	Retouch        Level
	Tone           Tone
	Background     Background
	Accessories    []Weighted
	Effects        []Weighted
	Notes          string
	KeepBackground bool
	Brightness     int
	Blur           int
	Grain          int
}

const (
	ruleCouple   = "CORE RULE #1: The final image MUST contain EXACTLY TWO people. A single-person image is an invalid result. Do not remove or crop out either person."
	ruleSingle   = "CORE RULE #1: The final image MUST contain EXACTLY ONE person. Do not add or duplicate people."
	ruleIdentity = "CORE RULE #2: You MUST preserve the original faces, identities, and body proportions from the source photo 100%. Do not perform a face-swap, gender-swap, or morph the subjects."

	compositionWeddingCouple = "COMPOSITION: The person on the LEFT is the Bride (wearing an elegant white wedding dress). The person on the RIGHT is the Groom (wearing a sharp tuxedo/suit). Both heads and shoulders must be fully visible. Use a half-body or full-body shot that comfortably frames both subjects."
	compositionWeddingSingle = "COMPOSITION: Apply bridal or groom styling to the single subject based on their appearance in the source photo, without changing their identity."
	compositionPlainCouple   = "COMPOSITION: Enhance the original clothing of both people. Both heads and shoulders must be fully visible. Use a half-body or full-body shot that comfortably frames both subjects."
	compositionPlainSingle   = "COMPOSITION: Enhance the original clothing of the single subject."

	sceneKeepBackground = "BACKGROUND: Keep the original background and clothing. Only apply lighting, color, and creative effects."

	weddingQuality = "OUTPUT: Generate an ultra-high resolution 4K, realistic photo with crisp details, as a lossless PNG."

	negativeCouple   = "single person, solo portrait, cropping one person out, only one person visible"
	negativeSingle   = "more than one person, extra person, duplicated person"
	negativeIdentity = "face duplication, removing existing people, face-swap, gender-swap, incorrect role assignment"
	negativeAnatomy  = "deformed face, plastic skin, bad anatomy, extra limbs, incorrect fingers"
	negativeStyle    = "cartoon, anime, 3D, text, logo, watermark"
	negativeAttire   = "wedding dress, veil, tuxedo, bridal bouquet"
	negativeGlitch   = "glitch, TV static, scanlines"
)

var retouchPhrases = map[Level]string{
	LevelLight:  "light skin retouch, keep texture",
	LevelMedium: "natural smooth skin retouch",
	LevelPro:    "pro-level skin retouch with dodge & burn",
}

func BuildWedding(c WeddingConfig) string {
	couple := c.Subject == SubjectCouple

	rules := ruleSingle
	if couple {
		rules = ruleCouple
	}

	var composition string
	switch {
	case c.WeddingActive && couple:
		composition = compositionWeddingCouple
	case c.WeddingActive:
		composition = compositionWeddingSingle
	case couple:
		composition = compositionPlainCouple
	default:
		composition = compositionPlainSingle
	}

	scene := sceneKeepBackground
	if !c.KeepBackground {
		scene = fmt.Sprintf("BACKGROUND: Create a new background based on the theme '%s' and context '%s'.", c.Theme, c.Background)
	}

	retouch := retouchPhrases[c.Retouch]
	if retouch == "" {
		retouch = retouchPhrases[LevelMedium]
	}

	var accessories, effects string
	if len(c.Accessories) > 0 {
		accessories = "ACCESSORIES: Add " + renderWeighted(c.Accessories, "%s (influence %d%%)") + "."
	}
	if len(c.Effects) > 0 {
		effects = "CREATIVE EFFECTS: Apply " + renderWeighted(c.Effects, `"%s" (influence %d%%)`) + "."
	}

	var grain string
	if c.Grain > 0 {
		grain = fmt.Sprintf("Film grain: %d%%.", c.Grain)
	}
	fineTune := joinPieces(
		fmt.Sprintf("FINE-TUNE: Color tone: %s. Background brightness: %d%%. Background blur: %d%%.", c.Tone, c.Brightness, c.Blur),
		grain,
	)

	var notes string
	if n := strings.TrimSpace(c.Notes); n != "" {
		notes = "USER NOTES: " + n
	}

	return joinPieces(
		rules,
		ruleIdentity,
		composition,
		scene,
		"RETOUCH: "+retouch+".",
		accessories,
		effects,
		fineTune,
		notes,
		weddingQuality,
		weddingNegative(couple, c.WeddingActive, HasGlitch(c.Effects)),
	)
}

func weddingNegative(couple, weddingActive, glitch bool) string {
	parts := []string{negativeSingle}
	if couple {
		parts[0] = negativeCouple
	}
	parts = append(parts, negativeIdentity, negativeAnatomy, negativeStyle)
	if !weddingActive {
		parts = append(parts, negativeAttire)
	}
	if !glitch {
		parts = append(parts, negativeGlitch)
	}
	return "NEGATIVE PROMPT (DO NOT GENERATE): " + strings.Join(parts, ", ") + "."
}
