package prompt

type RestoreConfig struct {
	Theme string
	Notes string
}

const (
	restoreBase     = "GOAL: Restore an old or damaged photo, keeping the ORIGINAL face and identity 100% unchanged (no morph, no beautify). STEPS: Remove scratches, stains, dust, fold lines. Balance brightness/contrast, recover lost details, de-noise nhẹ (vẫn giữ grain film). Preserve age markers: nếp nhăn, nốt ruồi, sẹo nhỏ. If B&W → colorize naturally based on the era; if color is yellowed → correct the color cast back to original. STYLE: Maintain the vintage vibe, don't make it look modern. Realistic lighting, natural skin tones, keep clothing and background the same."
	restoreQuality  = "CRITICAL INSTRUCTION: Generate the image at the highest possible resolution and quality (4K minimum). Ensure maximum detail, sharp focus, and no compression artifacts. The final output file MUST be a lossless PNG. Preserve the original aspect ratio."
	restoreNegative = "NEGATIVE PROMPT: Don't de-age, don't change the face, no cartoon/anime/3D. Don't over-sharpen, no harsh HDR, no extra text or watermarks, no glitch, no scanlines."
)

var restoreTasks = map[string]string{
	"Phục hồi nhẹ (xoá xước, cân sáng)":         "Perform a light restoration: remove minor scratches and dust, balance brightness and contrast, keep the original film grain, do not change the original color if it exists.",
	"Phục hồi mạnh (vá rách, tái tạo chi tiết)": "Perform a heavy restoration: fix major tears and missing parts, intelligently reconstruct details in hair and clothing, apply moderate sharpening, while strictly keeping the original face.",
	"Tô màu tự nhiên (cho ảnh đen trắng)":       "Perform authentic colorization on a black and white photo: use natural, era-appropriate Asian skin tones, black/brown hair, and muted, vintage colors for clothing and background. Avoid overly saturated colors.",
	"Khử màu ố vàng (cân bằng lại màu)":         "Neutralize the yellow cast: restore the image to its original neutral colors, recovering true whites and blacks while maintaining a classic, vintage mood.",
	"Nâng cấp & làm nét 3x (để in ấn)":          "Upscale the image by 3x and apply sophisticated sharpening: preserve skin and fabric textures, avoid halo artifacts, ensure the output is sharp enough for large format printing.",
}

// RestoreTask returns the task clause body for a restoration preset.
func RestoreTask(theme string) string {
	return lookup(restoreTasks, theme)
}

func BuildRestore(c RestoreConfig) string {
	return joinPieces(
		restoreBase,
		"TASK: "+sentence(RestoreTask(c.Theme)),
		c.Notes,
		restoreQuality,
		restoreNegative,
	)
}
