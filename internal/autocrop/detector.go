// Package autocrop finds the content bounds of a page image by scanning
// inward from each edge for pixels that differ from the background color.
package autocrop

import (
	"image"
	"image/color"
	"sync"

	"go-page-translator/pkg/models"

	"golang.org/x/image/draw"
)

// Detector detects and crops away uniform page borders. It is safe for
// concurrent use.
type Detector struct {
	opts    Options
	bufPool sync.Pool
}

// NewDetector creates a detector with the given options
func NewDetector(opts Options) *Detector {
	return &Detector{
		opts: opts.normalized(),
		bufPool: sync.Pool{
			New: func() interface{} {
				b := make([]uint8, 0)
				return &b
			},
		},
	}
}

// Options returns the options the detector runs with
func (d *Detector) Options() Options {
	return d.opts
}

// Detect returns the content bounds of img in source space, with the
// origin at img.Bounds().Min. The full image bounds are returned when the
// image is uniform, when the scan yields a degenerate rectangle, or when
// nothing can be trimmed.
func (d *Detector) Detect(img image.Image) models.SourceRect {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	full := models.SourceRect{Right: w, Bottom: h}
	if w <= 0 || h <= 0 {
		return full
	}

	s := &scanner{img: img, min: b.Min, threshold: d.opts.Threshold}
	s.ref = s.rgb(0, 0)
	stride := d.opts.Stride

	top := 0
	for y := 0; y < h; y++ {
		if s.rowHasContent(y, w, stride) {
			top = y
			break
		}
	}

	bottom := h
	for y := h - 1; y >= top; y-- {
		if s.rowHasContent(y, w, stride) {
			bottom = y + 1
			break
		}
	}

	left := 0
	for x := 0; x < w; x++ {
		if s.columnHasContent(x, top, bottom, stride) {
			left = x
			break
		}
	}

	right := w
	for x := w - 1; x >= left; x-- {
		if s.columnHasContent(x, top, bottom, stride) {
			right = x + 1
			break
		}
	}

	bounds := models.SourceRect{Left: left, Top: top, Right: right, Bottom: bottom}
	if bounds.Empty() || bounds == full {
		return full
	}
	return bounds
}

// Crop detects the content bounds and, when they are smaller than the
// image, copies that region into a new image owned by the returned Crop.
// The caller must Release the crop once it is no longer needed.
func (d *Detector) Crop(img image.Image) *Crop {
	bounds := d.Detect(img)
	full := img.Bounds()
	if bounds == (models.SourceRect{Right: full.Dx(), Bottom: full.Dy()}) {
		return &Crop{Image: img, Bounds: bounds}
	}

	w, h := bounds.Width(), bounds.Height()
	bufPtr := d.bufPool.Get().(*[]uint8)
	need := w * h * 4
	if cap(*bufPtr) < need {
		*bufPtr = make([]uint8, need)
	}
	pix := (*bufPtr)[:need]

	dst := &image.RGBA{
		Pix:    pix,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	src := image.Rect(bounds.Left, bounds.Top, bounds.Right, bounds.Bottom).Add(full.Min)
	draw.Copy(dst, image.Point{}, img, src, draw.Src, nil)

	return &Crop{
		Image:   dst,
		Bounds:  bounds,
		Cropped: true,
		buf:     bufPtr,
		pool:    &d.bufPool,
	}
}

type rgb struct {
	r, g, b int
}

type scanner struct {
	img       image.Image
	min       image.Point
	ref       rgb
	threshold int
}

func (s *scanner) rgb(x, y int) rgb {
	c := color.NRGBAModel.Convert(s.img.At(s.min.X+x, s.min.Y+y)).(color.NRGBA)
	return rgb{int(c.R), int(c.G), int(c.B)}
}

func (s *scanner) isBackground(x, y int) bool {
	c := s.rgb(x, y)
	return abs(c.r-s.ref.r) < s.threshold &&
		abs(c.g-s.ref.g) < s.threshold &&
		abs(c.b-s.ref.b) < s.threshold
}

func (s *scanner) rowHasContent(y, width, stride int) bool {
	for x := 0; x < width; x += stride {
		if !s.isBackground(x, y) {
			return true
		}
	}
	return false
}

func (s *scanner) columnHasContent(x, top, bottom, stride int) bool {
	for y := top; y < bottom; y += stride {
		if !s.isBackground(x, y) {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
