// Package tesseract recognizes text blocks with the Tesseract OCR engine.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"go-page-translator/internal/pipeline"
	"go-page-translator/pkg/models"

	"github.com/otiai10/gosseract/v2"
)

// Config holds Tesseract configuration
type Config struct {
	// Languages are Tesseract traineddata names, e.g. "eng" or "jpn"
	Languages []string
}

// Recognizer implements pipeline.Recognizer at block level
type Recognizer struct {
	languages []string
}

// NewRecognizer creates a recognizer; a client is opened per call
func NewRecognizer(cfg Config) *Recognizer {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Recognizer{languages: langs}
}

type recognizeResult struct {
	blocks []pipeline.RecognizedBlock
	err    error
}

// Recognize returns one block per Tesseract text block. Tesseract itself
// cannot be interrupted; on cancellation the call returns immediately and
// the engine finishes in the background.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) ([]pipeline.RecognizedBlock, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan recognizeResult, 1)
	go func() {
		blocks, err := r.recognize(buf.Bytes())
		done <- recognizeResult{blocks: blocks, err: err}
	}()

	select {
	case res := <-done:
		return res.blocks, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Recognizer) recognize(data []byte) ([]pipeline.RecognizedBlock, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.languages...); err != nil {
		return nil, fmt.Errorf("failed to set languages %v: %w", r.languages, err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}
	return toBlocks(boxes), nil
}

func toBlocks(boxes []gosseract.BoundingBox) []pipeline.RecognizedBlock {
	blocks := make([]pipeline.RecognizedBlock, 0, len(boxes))
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		blocks = append(blocks, pipeline.RecognizedBlock{
			Text: strings.TrimSpace(b.Word),
			BoundingBox: models.SourceRect{
				Left:   b.Box.Min.X,
				Top:    b.Box.Min.Y,
				Right:  b.Box.Max.X,
				Bottom: b.Box.Max.Y,
			},
			Confidence: b.Confidence,
		})
	}
	return blocks
}
