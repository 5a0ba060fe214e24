package models

// ViewerKind discriminates the viewer geometry variants.
type ViewerKind string

const (
	// FreeZoomViewer is a pannable, zoomable viewer that exposes a
	// source-to-view point transform once it has laid out the image.
	FreeZoomViewer ViewerKind = "free_zoom"
	// FixedFrameViewer draws the image scaled into a known display rect.
	FixedFrameViewer ViewerKind = "fixed_frame"
	// IntrinsicFitViewer stretches the image to the full view size.
	IntrinsicFitViewer ViewerKind = "intrinsic_fit"
)

// PointTransform maps a source pixel position into view space. The
// boolean result is false when the viewer cannot map the point yet.
type PointTransform interface {
	SourceToView(x, y float64) (Point, bool)
}

// AffineTransform is a scale followed by a translation. It is the state a
// deep-zoom viewer reports after layout.
type AffineTransform struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// SourceToView implements PointTransform.
func (t AffineTransform) SourceToView(x, y float64) (Point, bool) {
	if t.Scale <= 0 {
		return Point{}, false
	}
	return Point{X: x*t.Scale + t.OffsetX, Y: y*t.Scale + t.OffsetY}, true
}

type FreeZoomGeometry struct {
	Ready     bool
	Transform PointTransform
}

type FixedFrameGeometry struct {
	DisplayRect     ViewRect
	IntrinsicWidth  int
	IntrinsicHeight int
}

type IntrinsicFitGeometry struct {
	ViewWidth       float64
	ViewHeight      float64
	IntrinsicWidth  int
	IntrinsicHeight int
}

// ViewerGeometry is the current geometry of the display surface. Exactly
// one variant payload is set, selected by Kind.
type ViewerGeometry struct {
	Kind         ViewerKind
	FreeZoom     *FreeZoomGeometry
	FixedFrame   *FixedFrameGeometry
	IntrinsicFit *IntrinsicFitGeometry
}

func NewFreeZoomGeometry(ready bool, transform PointTransform) ViewerGeometry {
	return ViewerGeometry{
		Kind:     FreeZoomViewer,
		FreeZoom: &FreeZoomGeometry{Ready: ready, Transform: transform},
	}
}

func NewFixedFrameGeometry(displayRect ViewRect, intrinsicWidth, intrinsicHeight int) ViewerGeometry {
	return ViewerGeometry{
		Kind: FixedFrameViewer,
		FixedFrame: &FixedFrameGeometry{
			DisplayRect:     displayRect,
			IntrinsicWidth:  intrinsicWidth,
			IntrinsicHeight: intrinsicHeight,
		},
	}
}

func NewIntrinsicFitGeometry(viewWidth, viewHeight float64, intrinsicWidth, intrinsicHeight int) ViewerGeometry {
	return ViewerGeometry{
		Kind: IntrinsicFitViewer,
		IntrinsicFit: &IntrinsicFitGeometry{
			ViewWidth:       viewWidth,
			ViewHeight:      viewHeight,
			IntrinsicWidth:  intrinsicWidth,
			IntrinsicHeight: intrinsicHeight,
		},
	}
}
