package imageproc

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

type FitMode string

const (
	FitContain FitMode = "fit"
	FitFill    FitMode = "fill"
	FitSmart   FitMode = "smart"
)

type Fill string

const (
	FillBlack   Fill = "black"
	FillWhite   Fill = "white"
	FillAverage Fill = "average"
)

const (
	LongEdge2K = 2048
	LongEdge4K = 3840
)

type UpscaleOptions struct {
	LongEdge   int
	Fit        FitMode
	Background Fill
}

// LongEdgeFor maps the download size labels "2k" and "4k" to a target edge.
func LongEdgeFor(size string) (int, error) {
	switch size {
	case "2k", "2K":
		return LongEdge2K, nil
	case "4k", "4K":
		return LongEdge4K, nil
	}
	return 0, fmt.Errorf("unknown size %q", size)
}

// Upscale resizes an image so its long edge matches opts.LongEdge, then applies
// a mild unsharp mask. Fill and smart produce a square centre crop.
func Upscale(data []byte, opts UpscaleOptions) (*image.RGBA, error) {
	src, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if opts.LongEdge <= 0 {
		opts.LongEdge = LongEdge4K
	}
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return nil, ErrEmptyImage
	}

	aspect := float64(sw) / float64(sh)
	var ow, oh int
	if aspect >= 1 {
		ow = opts.LongEdge
		oh = max(1, int(float64(opts.LongEdge)/aspect+0.5))
	} else {
		oh = opts.LongEdge
		ow = max(1, int(float64(opts.LongEdge)*aspect+0.5))
	}

	sr := sb
	if opts.Fit == FitFill || opts.Fit == FitSmart {
		ow, oh = opts.LongEdge, opts.LongEdge
		sr = centerCrop(sb, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, ow, oh))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(backgroundColor(src, opts.Background)), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sr, draw.Over, nil)

	unsharpMask(dst, 0.55, 2)
	return dst, nil
}

func backgroundColor(src image.Image, fill Fill) color.RGBA {
	switch fill {
	case FillWhite:
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	case FillAverage:
		return averageColor(src)
	}
	return color.RGBA{A: 255}
}

// averageColor samples a thumbnail of at most 64x64 pixels.
func averageColor(src image.Image) color.RGBA {
	b := src.Bounds()
	w, h := min(64, max(1, b.Dx())), min(64, max(1, b.Dy()))
	thumb := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(thumb, thumb.Bounds(), src, b, draw.Src, nil)

	var r, g, bl, n uint64
	for i := 0; i+3 < len(thumb.Pix); i += 4 {
		r += uint64(thumb.Pix[i])
		g += uint64(thumb.Pix[i+1])
		bl += uint64(thumb.Pix[i+2])
		n++
	}
	return color.RGBA{R: uint8((r + n/2) / n), G: uint8((g + n/2) / n), B: uint8((bl + n/2) / n), A: 255}
}

// unsharpMask sharpens against a 3x3 gaussian blur (radius about 1px),
// leaving pixels whose largest channel difference is within threshold.
func unsharpMask(img *image.RGBA, amount float64, threshold int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w < 3 || h < 3 {
		return
	}
	blur := gaussian3(img)
	pix, bp := img.Pix, blur.Pix
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			dr := int(pix[i]) - int(bp[i])
			dg := int(pix[i+1]) - int(bp[i+1])
			db := int(pix[i+2]) - int(bp[i+2])
			if max(abs(dr), abs(dg), abs(db)) <= threshold {
				continue
			}
			pix[i] = clamp8(float64(pix[i]) + float64(dr)*amount)
			pix[i+1] = clamp8(float64(pix[i+1]) + float64(dg)*amount)
			pix[i+2] = clamp8(float64(pix[i+2]) + float64(db)*amount)
		}
	}
}

func gaussian3(src *image.RGBA) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	tmp := image.NewRGBA(image.Rect(0, 0, w, h))
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	at := func(img *image.RGBA, x, y, c int) int {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return int(img.Pix[y*img.Stride+x*4+c])
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*tmp.Stride + x*4
			for c := 0; c < 4; c++ {
				tmp.Pix[i+c] = uint8((at(src, x-1, y, c) + 2*at(src, x, y, c) + at(src, x+1, y, c) + 2) / 4)
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*out.Stride + x*4
			for c := 0; c < 4; c++ {
				out.Pix[i+c] = uint8((at(tmp, x, y-1, c) + 2*at(tmp, x, y, c) + at(tmp, x, y+1, c) + 2) / 4)
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
