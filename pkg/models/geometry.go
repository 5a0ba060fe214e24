package models

// Point is a position in view space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SourceRect is an axis-aligned rectangle in source image pixel space.
// Right and Bottom are exclusive. A rect with Left >= Right or
// Top >= Bottom is degenerate and means "no match".
type SourceRect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the horizontal extent.
func (r SourceRect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent.
func (r SourceRect) Height() int { return r.Bottom - r.Top }

// Empty reports whether the rectangle covers no pixels.
func (r SourceRect) Empty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// ViewRect is an axis-aligned rectangle in display space.
type ViewRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent.
func (r ViewRect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r ViewRect) Height() float64 { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no area.
func (r ViewRect) Empty() bool {
	return r.Left >= r.Right || r.Top >= r.Bottom
}

// Canon returns the rectangle with its corners ordered so that
// Left <= Right and Top <= Bottom.
func (r ViewRect) Canon() ViewRect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}
