package pipeline

import (
	"context"
	"image"

	"go-page-translator/internal/autocrop"
	"go-page-translator/pkg/models"
)

// RecognizedBlock is one block of text found by a Recognizer, in the
// coordinate space of the image it was given.
type RecognizedBlock struct {
	Text        string
	BoundingBox models.SourceRect
	Confidence  float64
}

// Recognizer finds text blocks in an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]RecognizedBlock, error)
}

// Translator translates text for the language pair it was built for. A
// pipeline owns its translator exclusively and closes it when replaced.
type Translator interface {
	// EnsureModelAvailable prepares the model, downloading it if needed.
	EnsureModelAvailable(ctx context.Context) error
	Translate(ctx context.Context, text string) (string, error)
	Close() error
}

// TranslatorFactory builds translators for a language pair.
type TranslatorFactory interface {
	NewTranslator(sourceLanguage, targetLanguage string) (Translator, error)
}

// Cropper trims uniform borders from an image.
type Cropper interface {
	Crop(img image.Image) *autocrop.Crop
}
