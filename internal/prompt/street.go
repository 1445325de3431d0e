package prompt

import "fmt"

type StreetConfig struct {
	Theme  string
	Aspect string // "3:2" | "4:5"
	Notes  string
	Grain  int
}

const (
	streetBase     = "Chỉnh ảnh chân dung theo phong cách STREET GRITTY bụi bặm, nhưng giữ nguyên 100% gương mặt gốc, không đổi giới tính, không morph. CHỈ MỘT NGƯỜI DUY NHẤT. Người Việt, giữ nguyên gương mặt và vóc dáng hiện có trong ảnh. Tư thế tự nhiên, có thể đứng tựa tường hoặc thẳng người, biểu cảm “cool”. Trang phục là áo khoác denim/da, áo thun tối màu, quần jeans, giày sneaker/boot."
	streetQuality  = "CRITICAL INSTRUCTION: Generate the image at ultra-high 4K resolution and quality. Ensure maximum detail, sharp focus, and no compression artifacts. The final output file MUST be a lossless PNG. Giữ lại toàn bộ chi tiết và texture da từ ảnh gốc."
	streetNegative = "NEGATIVE PROMPT: Không thêm chữ/logo ngẫu nhiên, không hoạt hình/anime/3D, không HDR gắt, không méo mặt/ngón tay dư, không đổi giới tính, không phông quá rối, không làm biến dạng hoặc thay đổi gương mặt, giữ texture da tự nhiên, không plastic, KHÔNG DÙNG: hiệu ứng glitch, nhiễu TV, sọc scanline."

	DefaultStreetAspect = "4:5"
)

var streetScenes = map[string]string{
	"Hẻm mưa – Neon phản chiếu":         "Bối cảnh: hẻm Sài Gòn đêm mưa, mặt đường ướt như gương, phản chiếu biển neon xanh/cyan và hồng/magenta. Mood: cinematic, hơi lạnh + chút cam từ sodium, desaturate nhẹ, grain medium, vignette nhẹ. Pose: đứng tựa tường gạch, nhìn lệch camera, tay trong túi áo khoác denim. Lens: 35mm, DOF vừa, rim light từ biển neon phía sau.",
	"Dưới cầu vượt – Khói bụi & sodium": "Bối cảnh: dưới cầu vượt bê tông, đèn đường sodium vàng cam, khói/bụi mỏng. Mood: ấm + bụi bặm, contrast vừa, flare nhẹ, bề mặt asphalt có loang ẩm. Pose: bước chậm qua khung, bóng đổ dài, góc chụp hơi thấp. Lens: 35mm/50mm, backlight + fill nhẹ phía trước.",
	"Rooftop lúc hoàng hôn":             "Bối cảnh: sân thượng (rooftop) nhìn xuống đô thị, biển hiệu xa xa, gió nhẹ. Mood: golden hour chuyển sang xanh tím, desaturate nhẹ, grain tinh tế. Pose: đứng cạnh lan can, gió hất áo khoác, nhìn xa horizonte. Lens: 50mm, DOF vừa, rim mảnh quanh tóc và vai.",
	"Ga tàu/bến xe cũ – Film vibe":      "Bối cảnh: ga tàu/bến xe cũ, bảng giờ mờ, vài bóng đèn tuýp cũ. Mood: film-like, hơi xanh lá/teal + vàng, grain medium, chút bụi trong không khí. Pose: ngồi trên ghế băng kim loại, cúi nhẹ, ánh mắt nghiêm. Lens: 50mm, ánh sáng trên cao, bóng đổ mềm.",
	"Xưởng bỏ hoang – Ánh xiên mạnh":    "Bối cảnh: nhà kho/xưởng bỏ hoang, tường sơn bong, vệt nắng xiên qua cửa sổ vỡ. Mood: moody, contrast rõ nhưng không gắt, hạt bụi bay trong tia nắng. Pose: đứng giữa vệt sáng, silhouette rõ viền, mặt vẫn sáng đủ thấy chi tiết. Lens: 35mm, rim mạnh phía sau + fill nhẹ phía trước.",
}

// BuildStreet passes unknown themes through verbatim as the scene description.
func BuildStreet(c StreetConfig) string {
	aspect := c.Aspect
	if aspect == "" {
		aspect = DefaultStreetAspect
	}
	var grain string
	if c.Grain > 0 {
		grain = fmt.Sprintf("Thêm hiệu ứng film grain với cường độ %d%%.", c.Grain)
	}
	return joinPieces(
		streetBase,
		"SCENE & STYLE: "+lookup(streetScenes, c.Theme),
		fmt.Sprintf("OUTPUT: 4K, aspect %s.", aspect),
		c.Notes,
		grain,
		streetQuality,
		streetNegative,
	)
}
