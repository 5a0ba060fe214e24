package models

// TranslatedLine pairs a recognized text block with its translation and its
// position in the processed source image.
type TranslatedLine struct {
	OriginalText   string     `json:"original_text"`
	TranslatedText string     `json:"translated_text"`
	BoundingBox    SourceRect `json:"bounding_box"`
}

// FitResult is the font size and wrapped layout chosen for a block of text.
type FitResult struct {
	FontSize    float64   `json:"font_size"`
	Lines       []string  `json:"lines"`
	LineWidths  []float64 `json:"line_widths"`
	LineHeight  float64   `json:"line_height"`
	TotalHeight float64   `json:"total_height"`
}

// Empty reports whether there is nothing to draw.
func (f FitResult) Empty() bool {
	return len(f.Lines) == 0
}

// PrimitiveKind identifies a drawing primitive.
type PrimitiveKind string

const (
	FillPrimitive PrimitiveKind = "fill"
	TextPrimitive PrimitiveKind = "text"
)

// OverlayPrimitive is a single drawing instruction for the display surface.
// Fill primitives use Rect, Opacity and Alpha. Text primitives use Rect
// (the layout box), Origin (top-left of the first line) and Text.
type OverlayPrimitive struct {
	Kind    PrimitiveKind `json:"kind"`
	Rect    ViewRect      `json:"rect"`
	Opacity float64       `json:"opacity,omitempty"`
	Alpha   uint8         `json:"alpha,omitempty"`
	Origin  Point         `json:"origin"`
	Text    *FitResult    `json:"text,omitempty"`
}
