package prompt

import (
	"fmt"
	"strings"
)

type ReferenceConfig struct {
	Theme      string
	Influence  int
	Tone       Tone
	Sharpness  Level
	Background Background
	Aspect     string // "2:3" | "3:2" | "4:5"
	OutputK    int    // 2 | 4
	Notes      string
	Effects    []Weighted
	Grain      int
}

const (
	referenceBase  = "You are given two images. Image 1 is the user's source photo. Image 2 is the reference photo. GOAL: Recreate the user's source photo (Image 1) by applying the artistic style from the reference photo (Image 2). KEY RULE: The face, identity, body shape, and original clothing of the person in the source photo MUST be preserved 100%. DO NOT morph, swap, or alter the person's identity. Only transfer the style."
	referenceStyle = "Analyze the reference image (Image 2) for its overall style: color grading, lighting scheme, mood, composition, and texture. Apply this exact style to the user's source photo (Image 1)."

	referenceNegativeGlitch = "KHÔNG DÙNG: hiệu ứng glitch, nhiễu TV, sọc scanline."

	DefaultReferenceAspect = "2:3"
)

var referenceNegatives = []string{
	"DO NOT change the person's face or identity. No morphing, no face swap.",
	"No cartoon/anime/3D. No harsh HDR. Do not add random text or logos.",
	"Ensure anatomy is correct. No plastic skin.",
}

var sharpnessPhrases = map[Level]string{
	LevelLight:  "nhẹ",
	LevelMedium: "vừa",
	LevelPro:    "kỹ",
}

func BuildReference(c ReferenceConfig) string {
	var effects string
	if len(c.Effects) > 0 {
		effects = "After applying the base style, also layer in these creative effects: " +
			renderWeighted(c.Effects, `"%s" with an influence of %d%%`) + "."
	}

	sharpness := sharpnessPhrases[c.Sharpness]
	if sharpness == "" {
		sharpness = sharpnessPhrases[LevelMedium]
	}
	aspect := c.Aspect
	if aspect == "" {
		aspect = DefaultReferenceAspect
	}
	var grain string
	if c.Grain > 0 {
		grain = fmt.Sprintf("Add film grain at %d%% intensity.", c.Grain)
	}
	settings := joinPieces(
		fmt.Sprintf("Additional settings: Tone: %s. Sharpness: %s. Background context: %s. Aspect ratio: %s.", c.Tone, sharpness, c.Background, aspect),
		grain,
	)

	var notes string
	if n := strings.TrimSpace(c.Notes); n != "" {
		notes = "User notes: " + n
	}

	resolution := "4K"
	if c.OutputK == 2 {
		resolution = "2K"
	}

	negatives := append([]string(nil), referenceNegatives...)
	if !HasGlitch(c.Effects) {
		negatives = append(negatives, referenceNegativeGlitch)
	}

	return joinPieces(
		referenceBase,
		referenceStyle,
		fmt.Sprintf("The style influence from the reference image should be at %d%%. A lower value means the source photo is less altered; a higher value means it more closely mimics the reference style.", c.Influence),
		fmt.Sprintf("The desired final theme is \"%s\". Use this theme to guide the style transfer if there are ambiguities.", c.Theme),
		effects,
		settings,
		notes,
		fmt.Sprintf("CRITICAL INSTRUCTION: Generate the image at the specified resolution (%s) and highest possible quality. Ensure maximum detail, sharp focus, and no compression artifacts. The final output file MUST be a lossless PNG.", resolution),
		"NEGATIVE PROMPT: "+strings.Join(negatives, " "),
	)
}
