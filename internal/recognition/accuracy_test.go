package recognition

import (
	"testing"

	"go-page-translator/internal/pipeline"

	"github.com/stretchr/testify/assert"
)

func blocks(texts ...string) []pipeline.RecognizedBlock {
	out := make([]pipeline.RecognizedBlock, 0, len(texts))
	for i, t := range texts {
		out = append(out, pipeline.RecognizedBlock{Text: t, Confidence: float64(80 + i*10)})
	}
	return out
}

func TestAccuracyExactMatch(t *testing.T) {
	acc := Accuracy("The quick  brown\nfox", blocks("the quick", "BROWN fox"))
	assert.Equal(t, 0.0, acc.CER)
	assert.Equal(t, 0.0, acc.WER)
	assert.Equal(t, 0, acc.WordErrors)
	assert.InDelta(t, 85.0, acc.MeanConfidence, 1e-9)
}

func TestAccuracyCharacterErrors(t *testing.T) {
	// one substitution in ten characters
	acc := Accuracy("abcdefghij", blocks("abcdefghiX"))
	assert.InDelta(t, 0.1, acc.CER, 1e-9)
	assert.Greater(t, acc.WER, 0.0)
}

func TestAccuracyEmptyReference(t *testing.T) {
	assert.Equal(t, 0.0, Accuracy("", nil).CER)
	assert.Equal(t, 0.0, Accuracy("", nil).WER)
	assert.Equal(t, 0.0, Accuracy("", nil).MeanConfidence)

	acc := Accuracy("  ", blocks("noise"))
	assert.Equal(t, 1.0, acc.CER)
	assert.Equal(t, 1.0, acc.WER)
	assert.Equal(t, 1, acc.WordErrors)
}

func TestAccuracyWordErrors(t *testing.T) {
	// one substituted word out of four
	acc := Accuracy("the quick brown fox", blocks("the quick crown fox"))
	assert.InDelta(t, 0.25, acc.WER, 1e-9)
	assert.Equal(t, 1, acc.WordErrors)
}
