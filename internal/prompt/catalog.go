package prompt

type Mode string

const (
	ModeWedding   Mode = "wedding"
	ModeStreet    Mode = "street"
	ModeRestore   Mode = "restore"
	ModeReference Mode = "reference"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeWedding, ModeStreet, ModeRestore, ModeReference:
		return true
	}
	return false
}

// Modes lists the workflows in display order.
func Modes() []Mode {
	return []Mode{ModeWedding, ModeStreet, ModeRestore, ModeReference}
}

const (
	KeepOriginalTheme = "Không thay đổi"
	DefaultTheme      = "Default"
)

type Group struct {
	Name  string   `json:"name"`
	Mode  Mode     `json:"mode,omitempty"`
	Items []string `json:"items"`
}

var themeGroups = []Group{
	{
		Name: "Studio",
		Mode: ModeWedding,
		Items: []string{
			"Studio đen sang trọng",
			"Studio trắng tối giản",
			"Studio phông loang màu",
			"Studio Dark & Moody",
			"Studio film retro 80s",
			"Studio cưới cao cấp",
			"Studio phông nền bê tông",
			"Studio concept 'Fine Art'",
		},
	},
	{
		Name: "Phong cách Hàn Quốc (Xu hướng 2025)",
		Mode: ModeWedding,
		Items: []string{
			"Studio cưới Hàn Quốc trong veo",
			"Concept Pre-wedding Hàn Quốc",
			"Ảnh cưới Hàn Quốc ngoài trời (lá phong)",
			"Váy cưới Hàn Quốc tối giản",
			"Tone màu pastel Hàn Quốc",
			"Concept 'Our Love Story'",
			"Concept sân vườn cafe Hàn Quốc",
			"Đường phố Seoul lãng mạn",
			"Concept trong nhà 'home-coming'",
			"Lookbook tạp chí cưới Hàn Quốc",
			"Concept 'Frame-in-Frame'",
			"Tương phản đen trắng nghệ thuật",
			"Ánh sáng tự nhiên tối giản",
			"Chụp với hoa tươi khổ lớn",
			"Concept 'Một ngày bình yên'",
			"Gam màu trung tính (Neutral Tones)",
			"Chân dung cận mặt (Close-up)",
		},
	},
	{
		Name: "Phong cách Trung Quốc / Hong Kong",
		Mode: ModeWedding,
		Items: []string{
			"Ảnh cưới phong cách Hong Kong 90s",
			"Sườn xám Thượng Hải cổ điển",
			"Concept cổ trang (Hán phục)",
			"Ảnh cưới concept 'Hỷ'",
			"Đèn lồng đỏ & phố đêm",
			"Tone màu phim Vương Gia Vệ",
			"Phong cách Quốc triều (Guochao)",
			"Concept Tân Trung Hoa hiện đại",
			"Phim trường cổ trang",
			"Tạp chí thời trang Thượng Hải",
		},
	},
	{
		Name: "Ngoại cảnh",
		Mode: ModeWedding,
		Items: []string{
			"Vườn cây hoàng hôn",
			"Đồi thông Đà Lạt",
			"Bờ hồ lãng mạn",
			"Bãi biển xanh trắng",
			"Cánh đồng hoa",
			"Biển xanh lãng mạn",
			"Ngoại cảnh ban đêm – city light",
			"Nàng thơ cửa sổ",
			"Vườn hoa Boho",
			"Bãi cỏ hoàng hôn",
			"Concept picnic lãng mạn",
			"Chụp với siêu xe/xe cổ",
			"Thảo nguyên du mục",
			"Resort sang trọng bên biển",
			"Trên du thuyền",
			"Thành phố về đêm (cityscape)",
		},
	},
	{
		Name: "Ngoại cảnh Garden Wedding",
		Mode: ModeWedding,
		Items: []string{
			"Tiệc cưới sân vườn hoàng hôn",
			"Lễ đường ngoài trời lãng mạn",
			"Bàn tiệc bên bờ biển",
			"Dưới giàn hoa giấy",
			"Khiêu vũ đầu tiên trong vườn",
			"Nâng ly dưới ánh đèn fairy",
			"Concept 'Secret Garden'",
			"Lối đi rải cánh hoa hồng",
			"Thơ mộng bên hồ bơi resort",
			"Boho Garden Wedding",
			"Dạ tiệc trắng thanh lịch",
			"Ánh nến & hoa tươi",
		},
	},
	{
		Name: "Sang trọng",
		Mode: ModeWedding,
		Items: []string{
			"Sảnh khách sạn 5⭐",
			"Cầu thang cổ điển",
			"Nhà thờ cổ kính",
			"Hành lang kiểu châu Âu",
			"Ban công kiểu Paris",
			"Vintage châu Âu",
			"Thư viện/nhà hát lớn",
			"Lâu đài cổ tích",
			"Bảo tàng nghệ thuật",
			"Biệt thự cổ điển (classic mansion)",
		},
	},
	{
		Name: "Gợi cảm & Táo bạo",
		Mode: ModeWedding,
		Items: []string{
			"Nàng thơ bên cửa sổ (Boudoir)",
			"Váy ngủ lụa satin",
			"Concept 'Bond Girl' huyền bí",
			"Nội y ren & voan mỏng",
			"Ánh đèn neon đỏ trong phòng",
			"Chụp trong bồn tắm",
			"Da bóng & ướt át (Wet look)",
			"Phong cách 'Femme Fatale'",
			"Bí ẩn trong bóng tối (Low-key)",
			"Gợi cảm với sơ mi trắng",
			"Đêm tiệc quyến rũ (Glam night)",
			"Concept 'After Party' lộn xộn",
			"Bữa tối lãng mạn dưới nến",
			"Bóng đổ trên cơ thể (Body Scape)",
			"Chụp với gương soi",
			"Phong cách 'Vampire' quyến rũ",
			"Nữ tổng tài (CEO look)",
			"Sexy bên hồ bơi (Poolside)",
			"Váy dạ hội xẻ cao",
			"Phong cách 'Old Money' quyến rũ",
			"Ánh mắt khiêu khích (Sultry gaze)",
		},
	},
	{
		Name: "Concept Sinh Nhật & Tiệc Tùng",
		Mode: ModeWedding,
		Items: []string{
			"Công chúa bong bóng",
			"Tiệc sinh nhật đêm",
			"Sinh nhật trên bãi biển",
			"Concept 'It's my birthday'",
			"Chụp với bánh kem & nến",
			"Phong cách 'Gatsby' lộng lẫy",
			"Party girl neon light",
			"Nàng thơ bên quà tặng",
			"Sinh nhật picnic ngoài trời",
			"Pool party rực rỡ",
		},
	},
	{
		Name: "Concept / Hot Trend",
		Mode: ModeWedding,
		Items: []string{
			"Sinh nhật dịu dàng (pastel)",
			"Concept 'Ngày đầu hẹn hò'",
			"Concept 'Black & White' Art",
			"Chụp ảnh cùng thú cưng",
			"Cyberpunk Love Story",
			"Retro Disco 70s",
			"Chụp với mô tô phân khối lớn",
			"Y2K Vibe (hoài niệm 2000)",
			"Phong cách 'Coquette' nơ và ren",
			"Gothic lãng mạn",
			"Cặp đôi 'Rocker Chic'",
		},
	},
	{
		Name: "Đường phố (Street Gritty)",
		Mode: ModeStreet,
		Items: []string{
			"Hẻm mưa – Neon phản chiếu",
			"Dưới cầu vượt – Khói bụi & sodium",
			"Rooftop lúc hoàng hôn",
			"Ga tàu/bến xe cũ – Film vibe",
			"Xưởng bỏ hoang – Ánh xiên mạnh",
		},
	},
	{
		Name: "Phục hồi ảnh cũ (AI Restore)",
		Mode: ModeRestore,
		Items: []string{
			"Phục hồi nhẹ (xoá xước, cân sáng)",
			"Phục hồi mạnh (vá rách, tái tạo chi tiết)",
			"Tô màu tự nhiên (cho ảnh đen trắng)",
			"Khử màu ố vàng (cân bằng lại màu)",
			"Nâng cấp & làm nét 3x (để in ấn)",
		},
	},
	{
		Name:  "Studio",
		Mode:  ModeReference,
		Items: []string{"Ảnh cưới studio (đen/trắng/pastel)"},
	},
	{
		Name:  "Ngoại cảnh",
		Mode:  ModeReference,
		Items: []string{"Ảnh ngoại cảnh (Đồi thông Đà Lạt, Bãi biển, Cánh đồng hoa)"},
	},
	{
		Name:  "Sang trọng",
		Mode:  ModeReference,
		Items: []string{"Ảnh sang trọng (Sảnh khách sạn, Cầu thang cổ điển, Nhà thờ)"},
	},
	{
		Name:  "Vintage",
		Mode:  ModeReference,
		Items: []string{"Ảnh vintage (Film Fuji 400H, Film retro 80s, ảnh cũ màu phai)"},
	},
}

var effectGroups = []Group{
	{
		Name: "Hiệu ứng Ánh sáng",
		Items: []string{
			"Nắng hoàng hôn vàng",
			"Nắng sớm pastel",
			"Tia nắng qua lá",
			"Nắng xuyên mây (God rays)",
			"Nắng hè rực rỡ",
			"Lens flare điện ảnh",
			"Ngược nắng flare tím",
			"Backlight viền sáng",
			"Ánh sáng viền mềm (Rim light)",
			"Ngược nắng cháy tóc (Hair light)",
			"Viền sáng hào quang (Halo rim light)",
			"Silhouette ngược nắng hoàng hôn",
			"Ngược nắng dịu (Soft backlight)",
			"Vườn đêm đèn fairy lights",
			"Sparkles lấp lánh",
			"Ánh sáng neon đường phố",
			"Ánh sáng cầu vồng (Rainbow light)",
			"Bóng đổ mạnh (High-contrast shadows)",
			"Ánh sáng đỏ bí ẩn",
			"Bóng đổ từ rèm cửa (Window blind shadows)",
			"Ánh nến lãng mạn",
			"Đèn disco nhiều màu",
			"Bloom nổi bật (hiệu ứng toả sáng)",
		},
	},
	{
		Name: "Hiệu ứng Không khí & Điện ảnh",
		Items: []string{
			"Hiệu ứng khói điện ảnh",
			"Bokeh mềm",
			"Sương khói mờ ảo",
			"Viền tối nhẹ (Vignette)",
			"Bụi vàng lấp lánh (Gold dust)",
			"Cánh hoa bay trong gió",
			"Tuyết rơi nhẹ",
			"Đom đóm bay",
			"Pháo hoa nền trời",
			"Hơi nước trong phòng tắm",
			"Cánh hoa hồng rơi",
			"Pháo giấy kim tuyến (Confetti)",
			"Bong bóng xà phòng",
			"Kim tuyến rơi (Glitter rain)",
			"Ảnh cưới dưới mưa cinematic",
			"Confetti sinh nhật",
			"Focus mềm mại (Soft focus)",
			"Chuyển động mờ (Motion blur)",
			"Hiệu ứng mờ ảo (Dreamy haze)",
		},
	},
	{
		Name: "Màu sắc & Film",
		Items: []string{
			"Light leaks (lọt sáng film)",
			"Phong cách tối giản trắng đen",
			"Tone film grain vintage",
			"Hạt film nhẹ (Light grain)",
			"Desaturate nhẹ",
			"Warm boost (tăng tông ấm)",
			"Cool boost (tăng tông lạnh)",
			"Tone màu Morandi (màu trầm, xám)",
			"Tone màu Teal & Orange",
			"Màu film Kodak Portra 400",
			"Màu film Fuji Pro 400H",
			"Màu phim Hong Kong 90s",
			"Màu film CineStill 800T (cinematic)",
			"Màu film LomoChrome Purple (tím ảo)",
			"Tăng tương phản (High Contrast)",
			"Màu nâu trầm (Sepia)",
			"Tương phản phim Noir",
			"Tông màu trong trẻo (Clear & pure tone)",
			"Tương phản nhẹ nhàng (Soft contrast)",
			"Màu film Kodak Gold 200",
		},
	},
	{
		Name: "Phong cách Nghệ thuật & Đặc biệt",
		Items: []string{
			"Ảnh cưới high fashion",
			"Double exposure (chồng ảnh nghệ thuật)",
			"Hiệu ứng tranh sơn dầu nhẹ",
			"Hiệu ứng màu nước (Watercolor)",
			"Nét vẽ chì phác thảo",
			"Phản chiếu lăng kính (Prism effect)",
			"Hiệu ứng hologram",
			GlitchArt,
			"Hiệu ứng ảnh polaroid cũ",
			GlitchVHS,
		},
	},
	{
		Name: "Hiệu ứng Da & Texture",
		Items: []string{
			"Hiệu ứng da ướt (Wet skin effect)",
			"Hiệu ứng da lấp lánh (Glimmer skin)",
			"Hiệu ứng da bóng khỏe (Glossy skin)",
		},
	},
}

var accessoryGroups = []Group{
	{
		Name: "Trang phục & Voan cưới",
		Items: []string{
			"Voan dài", "Găng tay ren", "Váy lụa satin", "Bốt cao gót", "Găng tay da", "Tất lưới",
			"Áo sơ mi trắng form rộng", "Áo choàng tắm (Bathrobe)", "Váy bodycon",
			"Áo choàng lông vũ (Feather boa)", "Găng tay opera dài", "Áo choàng hỷ phục",
			"Mạng che mặt voan lưới (birdcage veil)",
		},
	},
	{
		Name: "Trang sức & Phụ kiện tóc",
		Items: []string{
			"Vương miện nhỏ", "Dây chuyền tinh tế", "Nhẫn cưới", "Vòng tay", "Vòng cổ choker",
			"Chuỗi dây xích (body chain)", "Bờm tóc ngọc trai", "Khuyên tai dài thanh lịch",
			"Chuỗi ngọc bội", "Trâm cài tóc (cổ trang)", "Nơ cài tóc to bản",
			"Bờm tóc phồng to (Puffy headband)", "Phượng quan (mũ phượng)",
		},
	},
	{
		Name: "Hoa & Đạo cụ lãng mạn",
		Items: []string{
			"Hoa cầm tay", "Hoa cài ve áo", "Bó hoa khô Boho", "Hoa baby trắng (Baby's breath)",
			"Một bông hồng đỏ", "Ô trong suốt", "Sách cổ/thư pháp", "Quạt tròn lụa", "Dây Hỷ đỏ",
			"Lồng đèn mini",
		},
	},
	{
		Name: "Đạo cụ Tiệc & Sinh nhật",
		Items: []string{
			"Bánh kem mini", "Nến sinh nhật", "Hộp quà", "Bong bóng bay", "Bóng bay số tuổi",
			"Mũ sinh nhật chóp", "Ly rượu champagne", "Bóng bay chữ cái", "Rượu vang & ly",
			"Dâu tây & kem",
		},
	},
	{
		Name: "Phụ kiện Cá tính & Hiện đại",
		Items: []string{
			"Kính râm cool ngầu", "Mặt nạ ren", "Kính mắt trong suốt (Clear glasses)",
			"Tai nghe headphone retro", "Điếu thuốc (vintage look)", "Hình xăm dán nghệ thuật",
			"Đàn guitar acoustic",
		},
	},
}

// ThemeGroups returns the theme presets offered for mode.
func ThemeGroups(mode Mode) []Group {
	var out []Group
	for _, g := range themeGroups {
		if g.Mode == mode {
			out = append(out, cloneGroup(g))
		}
	}
	return out
}

func EffectGroups() []Group {
	return cloneGroups(effectGroups)
}

func AccessoryGroups() []Group {
	return cloneGroups(accessoryGroups)
}

// Themes flattens ThemeGroups(mode) in display order.
func Themes(mode Mode) []string {
	var out []string
	for _, g := range ThemeGroups(mode) {
		out = append(out, g.Items...)
	}
	return out
}

func cloneGroups(in []Group) []Group {
	out := make([]Group, 0, len(in))
	for _, g := range in {
		out = append(out, cloneGroup(g))
	}
	return out
}

func cloneGroup(g Group) Group {
	g.Items = append([]string(nil), g.Items...)
	return g
}
