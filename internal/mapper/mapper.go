// Package mapper converts rectangles from source image pixel space into the
// display space of the current viewer.
package mapper

import (
	"errors"

	"go-page-translator/pkg/models"
)

// ErrGeometryUnavailable means the viewer has not laid out the image yet.
// Callers should skip drawing and try again on the next frame.
var ErrGeometryUnavailable = errors.New("viewer geometry unavailable")

// MapToView maps r into view space for the given viewer geometry.
//
// A nil error with an empty rectangle means the mapping succeeded but the
// result has no area; it is distinct from ErrGeometryUnavailable.
func MapToView(r models.SourceRect, g models.ViewerGeometry) (models.ViewRect, error) {
	switch g.Kind {
	case models.FreeZoomViewer:
		return mapFreeZoom(r, g.FreeZoom)
	case models.FixedFrameViewer:
		return mapFixedFrame(r, g.FixedFrame)
	case models.IntrinsicFitViewer:
		return mapIntrinsicFit(r, g.IntrinsicFit)
	default:
		return models.ViewRect{}, ErrGeometryUnavailable
	}
}

// Available reports whether MapToView can currently produce a result for g.
func Available(g models.ViewerGeometry) bool {
	_, err := MapToView(models.SourceRect{}, g)
	return err == nil
}

func mapFreeZoom(r models.SourceRect, g *models.FreeZoomGeometry) (models.ViewRect, error) {
	if g == nil || !g.Ready || g.Transform == nil {
		return models.ViewRect{}, ErrGeometryUnavailable
	}
	tl, ok := g.Transform.SourceToView(float64(r.Left), float64(r.Top))
	if !ok {
		return models.ViewRect{}, ErrGeometryUnavailable
	}
	br, ok := g.Transform.SourceToView(float64(r.Right), float64(r.Bottom))
	if !ok {
		return models.ViewRect{}, ErrGeometryUnavailable
	}
	return models.ViewRect{Left: tl.X, Top: tl.Y, Right: br.X, Bottom: br.Y}.Canon(), nil
}

func mapFixedFrame(r models.SourceRect, g *models.FixedFrameGeometry) (models.ViewRect, error) {
	if g == nil || g.IntrinsicWidth <= 0 || g.IntrinsicHeight <= 0 {
		return models.ViewRect{}, ErrGeometryUnavailable
	}
	sx := g.DisplayRect.Width() / float64(g.IntrinsicWidth)
	sy := g.DisplayRect.Height() / float64(g.IntrinsicHeight)
	ox, oy := g.DisplayRect.Left, g.DisplayRect.Top
	return models.ViewRect{
		Left:   ox + float64(r.Left)*sx,
		Top:    oy + float64(r.Top)*sy,
		Right:  ox + float64(r.Right)*sx,
		Bottom: oy + float64(r.Bottom)*sy,
	}.Canon(), nil
}

func mapIntrinsicFit(r models.SourceRect, g *models.IntrinsicFitGeometry) (models.ViewRect, error) {
	if g == nil || g.IntrinsicWidth <= 0 || g.IntrinsicHeight <= 0 {
		return models.ViewRect{}, ErrGeometryUnavailable
	}
	sx := g.ViewWidth / float64(g.IntrinsicWidth)
	sy := g.ViewHeight / float64(g.IntrinsicHeight)
	return models.ViewRect{
		Left:   float64(r.Left) * sx,
		Top:    float64(r.Top) * sy,
		Right:  float64(r.Right) * sx,
		Bottom: float64(r.Bottom) * sy,
	}.Canon(), nil
}
