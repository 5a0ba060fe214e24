package overlay

import (
	"image"
	"image/color"
	"math"

	"go-page-translator/internal/textfit"
	"go-page-translator/pkg/models"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	backgroundColor = color.NRGBA{255, 255, 255, 255}
	textColor       = image.NewUniform(color.Black)
)

// Rasterizer draws primitives onto an image using the measurer's font, so
// glyphs line up with the layout the fitter produced.
type Rasterizer struct {
	measurer *textfit.FontMeasurer
}

func NewRasterizer(m *textfit.FontMeasurer) *Rasterizer {
	return &Rasterizer{measurer: m}
}

// Draw paints primitives onto dst in order. Later primitives paint over
// earlier ones. Text is not clipped to its box.
func (r *Rasterizer) Draw(dst draw.Image, primitives []models.OverlayPrimitive) error {
	for _, p := range primitives {
		switch p.Kind {
		case models.FillPrimitive:
			fillColor := backgroundColor
			fillColor.A = p.Alpha
			draw.Draw(dst, pixelRect(p.Rect), image.NewUniform(fillColor), image.Point{}, draw.Over)
		case models.TextPrimitive:
			if p.Text == nil || p.Text.Empty() {
				continue
			}
			if err := r.drawText(dst, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Rasterizer) drawText(dst draw.Image, p models.OverlayPrimitive) error {
	fit := p.Text
	return r.measurer.WithFace(fit.FontSize, func(face font.Face) {
		ascent := float64(face.Metrics().Ascent) / 64
		d := &font.Drawer{Dst: dst, Src: textColor, Face: face}
		for i, line := range fit.Lines {
			x := p.Rect.Left + textfit.LineOffset(*fit, i, p.Rect.Width())
			y := p.Origin.Y + float64(i)*fit.LineHeight + ascent
			d.Dot = fixed.Point26_6{X: toFixed(x), Y: toFixed(y)}
			d.DrawString(line)
		}
	})
}

func pixelRect(r models.ViewRect) image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Left)),
		int(math.Floor(r.Top)),
		int(math.Ceil(r.Right)),
		int(math.Ceil(r.Bottom)),
	)
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
