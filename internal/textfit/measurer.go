package textfit

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Measurer reports text metrics at a given font size in pixels.
type Measurer interface {
	Advance(text string, size float64) float64
	LineHeight(size float64) float64
}

// maxCachedFaces bounds the face cache; user scales can produce many
// distinct sizes.
const maxCachedFaces = 128

// FontMeasurer measures text with a parsed OpenType font. Faces are cached
// per size. It is safe for concurrent use.
type FontMeasurer struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewFontMeasurer measures with the Go Bold typeface.
func NewFontMeasurer() (*FontMeasurer, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return NewFontMeasurerFromFont(f), nil
}

func NewFontMeasurerFromFont(f *opentype.Font) *FontMeasurer {
	return &FontMeasurer{
		font:  f,
		faces: make(map[float64]font.Face),
	}
}

// face returns the cached face for size. Callers hold m.mu.
func (m *FontMeasurer) face(size float64) (font.Face, error) {
	if face, ok := m.faces[size]; ok {
		return face, nil
	}
	if len(m.faces) >= maxCachedFaces {
		for k, f := range m.faces {
			f.Close()
			delete(m.faces, k)
		}
	}
	face, err := opentype.NewFace(m.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	m.faces[size] = face
	return face, nil
}

// WithFace calls fn with the face for size while holding the measurer lock.
func (m *FontMeasurer) WithFace(size float64, fn func(font.Face)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.face(size)
	if err != nil {
		return err
	}
	fn(face)
	return nil
}

func (m *FontMeasurer) Advance(text string, size float64) float64 {
	var adv fixed.Int26_6
	if err := m.WithFace(size, func(face font.Face) {
		adv = font.MeasureString(face, text)
	}); err != nil {
		return fallback.Advance(text, size)
	}
	return fixedToFloat(adv)
}

func (m *FontMeasurer) LineHeight(size float64) float64 {
	var h fixed.Int26_6
	if err := m.WithFace(size, func(face font.Face) {
		met := face.Metrics()
		h = met.Ascent + met.Descent
	}); err != nil {
		return fallback.LineHeight(size)
	}
	return fixedToFloat(h)
}

// Ascent returns the distance from the top of a line to its baseline.
func (m *FontMeasurer) Ascent(size float64) float64 {
	var a fixed.Int26_6
	if err := m.WithFace(size, func(face font.Face) {
		a = face.Metrics().Ascent
	}); err != nil {
		return size * 0.8
	}
	return fixedToFloat(a)
}

// ApproxMeasurer assumes every rune has the same advance. It needs no font
// data and is used when a font cannot be loaded.
type ApproxMeasurer struct {
	AdvanceRatio    float64
	LineHeightRatio float64
}

var fallback = ApproxMeasurer{AdvanceRatio: 0.6, LineHeightRatio: 1.2}

func (a ApproxMeasurer) Advance(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * a.AdvanceRatio
}

func (a ApproxMeasurer) LineHeight(size float64) float64 {
	return size * a.LineHeightRatio
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
