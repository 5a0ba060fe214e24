// Package textfit chooses a font size and wrapped layout so that a block of
// translated text fits inside a target rectangle.
package textfit

import (
	"math"
	"strings"

	"go-page-translator/pkg/models"
)

// Options bounds the font size search
type Options struct {
	MaxSize     float64
	MinSize     float64
	Step        float64
	LineSpacing float64
}

// DefaultOptions searches from 100px down to 10px in steps of 2
func DefaultOptions() Options {
	return Options{
		MaxSize:     100,
		MinSize:     10,
		Step:        2,
		LineSpacing: 1.0,
	}
}

// Fitter computes text layouts. It holds no per-call state; Fit is pure
// for a given measurer.
type Fitter struct {
	measurer Measurer
	opts     Options
}

func NewFitter(m Measurer, opts Options) *Fitter {
	if opts.Step <= 0 {
		opts.Step = DefaultOptions().Step
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = 1.0
	}
	return &Fitter{measurer: m, opts: opts}
}

// Measurer returns the measurer used for layout
func (f *Fitter) Measurer() Measurer {
	return f.measurer
}

// Fit picks the largest size from MaxSize downwards whose wrapped height
// fits rect, applies userScale, floors the result at MinSize and returns
// the layout at that size. The result may overflow rect; nothing is
// clipped. A rect narrower than one pixel yields an empty result.
func (f *Fitter) Fit(text string, rect models.ViewRect, userScale float64) models.FitResult {
	width := math.Floor(rect.Width())
	if width <= 0 {
		return models.FitResult{}
	}
	height := rect.Height()

	size := f.opts.MaxSize
	for size > f.opts.MinSize {
		lines, _ := wrap(f.measurer, text, size, width)
		if f.layoutHeight(len(lines), size) <= height {
			break
		}
		size -= f.opts.Step
	}
	if size < f.opts.MinSize {
		size = f.opts.MinSize
	}

	size *= userScale
	if !(size >= f.opts.MinSize) {
		size = f.opts.MinSize
	}

	lines, widths := wrap(f.measurer, text, size, width)
	return models.FitResult{
		FontSize:    size,
		Lines:       lines,
		LineWidths:  widths,
		LineHeight:  f.measurer.LineHeight(size) * f.opts.LineSpacing,
		TotalHeight: f.layoutHeight(len(lines), size),
	}
}

func (f *Fitter) layoutHeight(lines int, size float64) float64 {
	return float64(lines) * f.measurer.LineHeight(size) * f.opts.LineSpacing
}

// VerticalOffset centers the layout inside rect when it is shorter than
// rect, and aligns it to the top otherwise.
func VerticalOffset(fit models.FitResult, rect models.ViewRect) float64 {
	if fit.TotalHeight < rect.Height() {
		return (rect.Height() - fit.TotalHeight) / 2
	}
	return 0
}

// LineOffset is the horizontal offset that centers line i in a box of the
// given width. It is negative when the line is wider than the box.
func LineOffset(fit models.FitResult, i int, width float64) float64 {
	if i < 0 || i >= len(fit.LineWidths) {
		return 0
	}
	return (width - fit.LineWidths[i]) / 2
}

// wrap breaks text into lines no wider than width. Newlines start a new
// paragraph; words wider than a line are broken between runes.
func wrap(m Measurer, text string, size, width float64) ([]string, []float64) {
	var lines []string
	var widths []float64
	emit := func(s string) {
		lines = append(lines, s)
		widths = append(widths, m.Advance(s, size))
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			emit("")
			continue
		}

		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if m.Advance(candidate, size) <= width {
				current = candidate
				continue
			}
			if current != "" {
				emit(current)
				current = ""
			}
			if m.Advance(word, size) <= width {
				current = word
				continue
			}
			pieces := breakWord(m, word, size, width)
			for _, p := range pieces[:len(pieces)-1] {
				emit(p)
			}
			current = pieces[len(pieces)-1]
		}
		emit(current)
	}
	return lines, widths
}

func breakWord(m Measurer, word string, size, width float64) []string {
	var pieces []string
	var b strings.Builder
	for _, r := range word {
		next := b.String() + string(r)
		if b.Len() > 0 && m.Advance(next, size) > width {
			pieces = append(pieces, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	return append(pieces, b.String())
}
