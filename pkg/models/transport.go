package models

// TranslateRequest asks the service to recognize and translate the text of
// an image.
type TranslateRequest struct {
	URL          string `json:"url" binding:"required,url"`
	AutoCrop     *bool  `json:"auto_crop,omitempty"`
	Preview      bool   `json:"preview,omitempty"`
	ExpectedText string `json:"expected_text,omitempty"`
}

// BlockFailure records a recognized block whose translation was dropped.
type BlockFailure struct {
	Index        int        `json:"index"`
	OriginalText string     `json:"original_text"`
	BoundingBox  SourceRect `json:"bounding_box"`
	Error        string     `json:"error"`
}

// OCRAccuracy compares recognized text against an expected transcription.
type OCRAccuracy struct {
	CER            float64 `json:"cer"`
	WER            float64 `json:"wer"`
	WordErrors     int     `json:"word_errors"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// TranslateResponse is the outcome of a pipeline run.
type TranslateResponse struct {
	RunID             string           `json:"run_id"`
	ImageURL          string           `json:"image_url"`
	State             string           `json:"state"`
	SourceLanguage    string           `json:"source_language"`
	TargetLanguage    string           `json:"target_language"`
	Lines             []TranslatedLine `json:"lines"`
	Cropped           bool             `json:"cropped"`
	CropBounds        SourceRect       `json:"crop_bounds"`
	Failures          []BlockFailure   `json:"failures,omitempty"`
	Accuracy          *OCRAccuracy     `json:"accuracy,omitempty"`
	PreviewPNG        []byte           `json:"preview_png,omitempty"`
	Error             string           `json:"error,omitempty"`
	ErrorType         string           `json:"error_type,omitempty"`
	ProcessingTimeSec float64          `json:"processing_time_sec"`
}

// ViewerGeometryRequest is the wire form of ViewerGeometry.
type ViewerGeometryRequest struct {
	Kind            ViewerKind       `json:"kind" binding:"required"`
	Ready           bool             `json:"ready,omitempty"`
	Transform       *AffineTransform `json:"transform,omitempty"`
	DisplayRect     *ViewRect        `json:"display_rect,omitempty"`
	ViewWidth       float64          `json:"view_width,omitempty"`
	ViewHeight      float64          `json:"view_height,omitempty"`
	IntrinsicWidth  int              `json:"intrinsic_width,omitempty"`
	IntrinsicHeight int              `json:"intrinsic_height,omitempty"`
}

// Geometry converts the request into a ViewerGeometry. Variant fields that
// do not belong to Kind are ignored.
func (r ViewerGeometryRequest) Geometry() ViewerGeometry {
	switch r.Kind {
	case FreeZoomViewer:
		var transform PointTransform
		if r.Transform != nil {
			transform = *r.Transform
		}
		return NewFreeZoomGeometry(r.Ready, transform)
	case FixedFrameViewer:
		var display ViewRect
		if r.DisplayRect != nil {
			display = *r.DisplayRect
		}
		return NewFixedFrameGeometry(display, r.IntrinsicWidth, r.IntrinsicHeight)
	case IntrinsicFitViewer:
		return NewIntrinsicFitGeometry(r.ViewWidth, r.ViewHeight, r.IntrinsicWidth, r.IntrinsicHeight)
	default:
		return ViewerGeometry{Kind: r.Kind}
	}
}

// RenderRequest asks for the overlay primitives of a set of lines under the
// given viewer geometry. Nil style fields fall back to the live preferences.
type RenderRequest struct {
	Lines             []TranslatedLine      `json:"lines"`
	Viewer            ViewerGeometryRequest `json:"viewer" binding:"required"`
	BackgroundOpacity *float64              `json:"background_opacity,omitempty"`
	FontScale         *float64              `json:"font_scale,omitempty"`
}

// RenderResponse carries the primitives for one frame.
type RenderResponse struct {
	Primitives          []OverlayPrimitive `json:"primitives"`
	Skipped             int                `json:"skipped"`
	GeometryUnavailable bool               `json:"geometry_unavailable"`
}

// Preferences are the user-adjustable overlay settings.
type Preferences struct {
	SourceLanguage    string  `json:"source_language"`
	TargetLanguage    string  `json:"target_language"`
	BackgroundOpacity float64 `json:"background_opacity"`
	FontScale         float64 `json:"font_scale"`
}

// PreferencesUpdate is a partial update; nil fields are left unchanged.
type PreferencesUpdate struct {
	SourceLanguage    *string  `json:"source_language,omitempty"`
	TargetLanguage    *string  `json:"target_language,omitempty"`
	BackgroundOpacity *float64 `json:"background_opacity,omitempty"`
	FontScale         *float64 `json:"font_scale,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
