package translation

import (
	"context"
	"fmt"

	"go-page-translator/internal/cache"
	"go-page-translator/internal/pipeline"

	"github.com/cloudwego/eino-ext/components/model/openai"
)

// LLMConfig selects the OpenAI-compatible endpoint used for translation.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GeneratorFunc creates a chat model for a new translator.
type GeneratorFunc func(ctx context.Context) (Generator, error)

// Factory implements pipeline.TranslatorFactory.
type Factory struct {
	newGenerator GeneratorFunc
	store        cache.Store
}

// NewFactory builds translators on an OpenAI-compatible chat model. store
// may be nil to disable caching.
func NewFactory(cfg LLMConfig, store cache.Store) *Factory {
	return NewFactoryWithGenerator(openAIGenerator(cfg), store)
}

func NewFactoryWithGenerator(newGenerator GeneratorFunc, store cache.Store) *Factory {
	return &Factory{newGenerator: newGenerator, store: store}
}

func (f *Factory) NewTranslator(sourceLanguage, targetLanguage string) (pipeline.Translator, error) {
	generator, err := f.newGenerator(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	var translator pipeline.Translator = NewLLMTranslator(generator, sourceLanguage, targetLanguage)
	if f.store != nil {
		translator = NewCachedTranslator(translator, f.store, sourceLanguage, targetLanguage)
	}
	return translator, nil
}

func openAIGenerator(cfg LLMConfig) GeneratorFunc {
	return func(ctx context.Context) (Generator, error) {
		modelName := cfg.Model
		if modelName == "" {
			modelName = "gpt-4o-mini"
		}
		chatModelConfig := &openai.ChatModelConfig{
			Model:  modelName,
			APIKey: cfg.APIKey,
		}
		if cfg.BaseURL != "" {
			chatModelConfig.BaseURL = cfg.BaseURL
		}
		chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
		if err != nil {
			return nil, err
		}
		return chatModel, nil
	}
}
