package translation

import (
	"context"

	"go-page-translator/internal/cache"
	"go-page-translator/internal/logger"
	"go-page-translator/internal/pipeline"

	"github.com/sirupsen/logrus"
)

// CachedTranslator serves repeated blocks from a cache. Cache failures are
// logged and fall through to the wrapped translator.
type CachedTranslator struct {
	inner          pipeline.Translator
	store          cache.Store
	sourceLanguage string
	targetLanguage string
}

func NewCachedTranslator(inner pipeline.Translator, store cache.Store, sourceLanguage, targetLanguage string) *CachedTranslator {
	return &CachedTranslator{
		inner:          inner,
		store:          store,
		sourceLanguage: sourceLanguage,
		targetLanguage: targetLanguage,
	}
}

func (c *CachedTranslator) EnsureModelAvailable(ctx context.Context) error {
	return c.inner.EnsureModelAvailable(ctx)
}

func (c *CachedTranslator) Translate(ctx context.Context, text string) (string, error) {
	key := cache.Key(c.sourceLanguage, c.targetLanguage, text)

	cached, found, err := c.store.Get(ctx, key)
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"source_language": c.sourceLanguage,
			"target_language": c.targetLanguage,
		}).Warn("Translation cache read failed")
	} else if found {
		return cached, nil
	}

	translated, err := c.inner.Translate(ctx, text)
	if err != nil {
		return "", err
	}

	if err := c.store.Set(ctx, key, translated); err != nil {
		logger.WithError(err).Warn("Translation cache write failed")
	}
	return translated, nil
}

// Close closes the wrapped translator. The store is shared and stays open.
func (c *CachedTranslator) Close() error {
	return c.inner.Close()
}
