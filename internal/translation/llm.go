// Package translation provides pipeline translators backed by a chat
// completion model, with optional caching.
package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Generator is the part of an eino chat model the translator needs.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

var (
	ErrTranslatorClosed = errors.New("translator is closed")
	ErrEmptyTranslation = errors.New("model returned an empty translation")
)

// LLMTranslator translates between a fixed language pair with a chat model.
type LLMTranslator struct {
	generator      Generator
	sourceLanguage string
	targetLanguage string
	systemPrompt   string

	mu     sync.Mutex
	ready  bool
	closed atomic.Bool
}

func NewLLMTranslator(generator Generator, sourceLanguage, targetLanguage string) *LLMTranslator {
	return &LLMTranslator{
		generator:      generator,
		sourceLanguage: sourceLanguage,
		targetLanguage: targetLanguage,
		systemPrompt:   buildSystemPrompt(sourceLanguage, targetLanguage),
	}
}

// EnsureModelAvailable sends a short probe the first time it is called and
// remembers success.
func (t *LLMTranslator) EnsureModelAvailable(ctx context.Context) error {
	if t.closed.Load() {
		return ErrTranslatorClosed
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		return nil
	}
	if _, err := t.generate(ctx, "OK"); err != nil {
		return fmt.Errorf("model probe for %s->%s failed: %w", t.sourceLanguage, t.targetLanguage, err)
	}
	t.ready = true
	return nil
}

func (t *LLMTranslator) Translate(ctx context.Context, text string) (string, error) {
	if t.closed.Load() {
		return "", ErrTranslatorClosed
	}
	return t.generate(ctx, text)
}

func (t *LLMTranslator) generate(ctx context.Context, text string) (string, error) {
	resp, err := t.generator.Generate(ctx, []*schema.Message{
		schema.SystemMessage(t.systemPrompt),
		schema.UserMessage(text),
	})
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyTranslation
	}
	return strings.TrimSpace(resp.Content), nil
}

// Close marks the translator unusable. The underlying HTTP client holds no
// resources that need releasing.
func (t *LLMTranslator) Close() error {
	t.closed.Store(true)
	return nil
}

func buildSystemPrompt(sourceLanguage, targetLanguage string) string {
	return fmt.Sprintf(
		"You translate short text blocks recognized from comic and document pages from %s to %s. "+
			"Reply with the translation only, on a single line, without quotes, notes or explanations. "+
			"Keep names, numbers and sound effects as they are when there is no natural equivalent.",
		LanguageName(sourceLanguage), LanguageName(targetLanguage))
}

// LanguageName returns the English name of a BCP 47 code, or the code
// itself when it cannot be parsed.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}
