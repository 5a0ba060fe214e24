package pipeline

import (
	"strings"

	apperrors "go-page-translator/internal/errors"
	"go-page-translator/pkg/models"
)

// unit is a piece of text translated as a whole.
type unit struct {
	index int
	text  string
	box   models.SourceRect
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// mergeBlocks turns each recognized block into one translation unit with
// its line breaks joined by spaces. Blank blocks are dropped.
func mergeBlocks(blocks []RecognizedBlock) []unit {
	units := make([]unit, 0, len(blocks))
	for i, b := range blocks {
		text := lineBreaks.Replace(b.Text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		units = append(units, unit{index: i, text: text, box: b.BoundingBox})
	}
	return units
}

// blockOutcome is the per-unit slot of the translation accumulator.
type blockOutcome struct {
	translated string
	err        error
	done       bool
}

// collect keeps successful units in recognition order and reports the
// rest as failures.
func collect(units []unit, outcomes []blockOutcome) ([]models.TranslatedLine, []models.BlockFailure) {
	lines := make([]models.TranslatedLine, 0, len(units))
	var failures []models.BlockFailure
	for i, u := range units {
		o := outcomes[i]
		if o.done && o.err == nil {
			lines = append(lines, models.TranslatedLine{
				OriginalText:   u.text,
				TranslatedText: o.translated,
				BoundingBox:    u.box,
			})
			continue
		}
		msg := "translation not attempted"
		if o.err != nil {
			msg = apperrors.NewBlockTranslationError("block translation failed", o.err).Error()
		}
		failures = append(failures, models.BlockFailure{
			Index:        u.index,
			OriginalText: u.text,
			BoundingBox:  u.box,
			Error:        msg,
		})
	}
	return lines, failures
}
