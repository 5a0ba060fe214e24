// Package overlay turns translated lines into drawing primitives for the
// current viewer geometry.
package overlay

import (
	"errors"

	"go-page-translator/internal/mapper"
	"go-page-translator/internal/textfit"
	"go-page-translator/pkg/models"
)

// Options are the user-controlled style settings for one frame.
type Options struct {
	// BackgroundOpacity of the box behind each translation, 0 to 1
	BackgroundOpacity float64
	// FontScale multiplies the fitted font size
	FontScale float64
}

// DefaultOptions matches an opaque-ish white box at alpha 200.
func DefaultOptions() Options {
	return Options{
		BackgroundOpacity: 200.0 / 255.0,
		FontScale:         1.0,
	}
}

// Frame is the render output for one draw pass.
type Frame struct {
	Primitives []models.OverlayPrimitive
	// Skipped counts lines that produced no primitives
	Skipped int
	// GeometryUnavailable is set when at least one line was skipped because
	// the viewer could not map it yet; the caller should draw again later.
	GeometryUnavailable bool
}

// Renderer produces overlay primitives. It keeps no state between calls.
type Renderer struct {
	fitter *textfit.Fitter
}

func NewRenderer(fitter *textfit.Fitter) *Renderer {
	return &Renderer{fitter: fitter}
}

// Render emits a background fill followed by a text primitive for every
// line that maps to a rectangle of positive width, in input order.
func (r *Renderer) Render(lines []models.TranslatedLine, geometry models.ViewerGeometry, opts Options) Frame {
	frame := Frame{Primitives: make([]models.OverlayPrimitive, 0, len(lines)*2)}
	if len(lines) == 0 {
		return frame
	}
	if !mapper.Available(geometry) {
		frame.Skipped = len(lines)
		frame.GeometryUnavailable = true
		return frame
	}

	opacity := clamp(opts.BackgroundOpacity, 0, 1)
	alpha := Alpha(opacity)

	for _, line := range lines {
		viewRect, err := mapper.MapToView(line.BoundingBox, geometry)
		if err != nil {
			frame.Skipped++
			if errors.Is(err, mapper.ErrGeometryUnavailable) {
				frame.GeometryUnavailable = true
			}
			continue
		}
		if viewRect.Width() <= 0 {
			frame.Skipped++
			continue
		}

		fit := r.fitter.Fit(line.TranslatedText, viewRect, opts.FontScale)
		origin := models.Point{
			X: viewRect.Left,
			Y: viewRect.Top + textfit.VerticalOffset(fit, viewRect),
		}

		frame.Primitives = append(frame.Primitives,
			models.OverlayPrimitive{
				Kind:    models.FillPrimitive,
				Rect:    viewRect,
				Opacity: opacity,
				Alpha:   alpha,
			},
			models.OverlayPrimitive{
				Kind:   models.TextPrimitive,
				Rect:   viewRect,
				Origin: origin,
				Text:   &fit,
			},
		)
	}
	return frame
}

// Alpha converts an opacity in [0, 1] to an 8-bit alpha value.
func Alpha(opacity float64) uint8 {
	a := int(opacity * 255)
	if a < 0 {
		return 0
	}
	if a > 255 {
		return 255
	}
	return uint8(a)
}

func clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
