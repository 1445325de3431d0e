package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

type CropMethod string

const (
	CropFill CropMethod = "fill"
	CropFit  CropMethod = "fit"
)

// SharpenMaxEdge is the long edge below which Sharpen doubles the frame.
const SharpenMaxEdge = 1500

type PrepOptions struct {
	Aspect     string
	Resolution string
	Crop       CropMethod
	Sharpen    bool
}

// Preprocess normalises an upload before it is sent for generation.
// With the original aspect and no sharpening the payload is returned untouched.
func Preprocess(p Payload, opts PrepOptions) (Payload, error) {
	aspect := opts.Aspect
	if aspect == "" {
		aspect = AspectOriginal
	}
	if aspect == AspectOriginal && !opts.Sharpen {
		return p, nil
	}

	src, _, err := Decode(p.Data)
	if err != nil {
		return Payload{}, err
	}
	sb := src.Bounds()

	tw, th := sb.Dx(), sb.Dy()
	if aspect != AspectOriginal {
		res := opts.Resolution
		if res == "" {
			res = DefaultResolution(aspect)
		}
		tw, th, err = ParseResolution(res)
		if err != nil {
			return Payload{}, err
		}
	}

	srcRect := sb
	if opts.Crop != CropFit {
		srcRect = centerCrop(sb, float64(tw)/float64(th))
	}

	var out image.Image = resample(src, srcRect, tw, th)
	if opts.Sharpen && max(tw, th) < SharpenMaxEdge {
		up := resample(out, out.Bounds(), tw*2, th*2)
		adjustContrastSaturation(up, 1.1, 1.05)
		out = up
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return Payload{}, fmt.Errorf("encode png: %w", err)
	}
	return Payload{Name: p.Name, MimeType: "image/png", Data: buf.Bytes()}, nil
}

// centerCrop returns the largest centred rectangle of b with the given aspect.
func centerCrop(b image.Rectangle, aspect float64) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || aspect <= 0 {
		return b
	}
	if float64(w)/float64(h) > aspect {
		cw := int(float64(h)*aspect + 0.5)
		x := b.Min.X + (w-cw)/2
		return image.Rect(x, b.Min.Y, x+cw, b.Max.Y)
	}
	ch := int(float64(w)/aspect + 0.5)
	y := b.Min.Y + (h-ch)/2
	return image.Rect(b.Min.X, y, b.Max.X, y+ch)
}

func resample(src image.Image, sr image.Rectangle, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sr, draw.Over, nil)
	return dst
}

// adjustContrastSaturation applies the CSS contrast() and saturate() filters in place.
// Channels stay premultiplied, so they never exceed alpha.
func adjustContrastSaturation(img *image.RGBA, contrast, saturate float64) {
	s := saturate
	m := [3][3]float64{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s},
	}
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		var c [3]float64
		for k := 0; k < 3; k++ {
			c[k] = (float64(pix[i+k])-127.5)*contrast + 127.5
		}
		a := pix[i+3]
		for k := 0; k < 3; k++ {
			pix[i+k] = min(clamp8(m[k][0]*c[0]+m[k][1]*c[1]+m[k][2]*c[2]), a)
		}
	}
}

func clamp8(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v + 0.5)
}
