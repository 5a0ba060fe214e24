// Package recognition scores recognized text against an expected transcription.
package recognition

import (
	"math"
	"strings"
	"unicode/utf8"

	"go-page-translator/internal/pipeline"
	"go-page-translator/pkg/models"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
	"gonum.org/v1/gonum/stat"
)

// Accuracy compares the recognized blocks, joined in order, against the
// expected transcription. Comparison is case-insensitive and ignores
// whitespace differences.
func Accuracy(expected string, blocks []pipeline.RecognizedBlock) models.OCRAccuracy {
	texts := make([]string, 0, len(blocks))
	confidences := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		texts = append(texts, b.Text)
		confidences = append(confidences, b.Confidence)
	}

	reference := normalize(expected)
	candidate := normalize(strings.Join(texts, " "))

	var acc models.OCRAccuracy
	acc.CER = characterErrorRate(reference, candidate)
	acc.WER, acc.WordErrors = wordErrorRate(reference, candidate)
	if len(confidences) > 0 {
		acc.MeanConfidence = stat.Mean(confidences, nil)
	}
	return acc
}

func characterErrorRate(reference, candidate string) float64 {
	refLen := utf8.RuneCountInString(reference)
	if refLen == 0 {
		if candidate == "" {
			return 0
		}
		return 1
	}
	return float64(levenshtein.Distance(reference, candidate)) / float64(refLen)
}

func wordErrorRate(reference, candidate string) (float64, int) {
	refWords := strings.Fields(reference)
	candWords := strings.Fields(candidate)
	if len(refWords) == 0 {
		if len(candWords) == 0 {
			return 0, 0
		}
		return 1, len(candWords)
	}
	// WER returns the rate and word accuracy; the error count follows from the rate
	rate, _ := wer.WER(refWords, candWords)
	return rate, int(math.Round(rate * float64(len(refWords))))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
