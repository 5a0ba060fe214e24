package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-page-translator/internal/autocrop"
	"go-page-translator/internal/cache"
	"go-page-translator/internal/config"
	"go-page-translator/internal/factory"
	"go-page-translator/internal/logger"
	"go-page-translator/internal/observer"
	"go-page-translator/internal/overlay"
	"go-page-translator/internal/pipeline"
	"go-page-translator/internal/preferences"
	"go-page-translator/internal/recognition/tesseract"
	"go-page-translator/internal/repository"
	"go-page-translator/internal/service"
	"go-page-translator/internal/storage"
	"go-page-translator/internal/textfit"
	"go-page-translator/internal/translation"
	"go-page-translator/internal/transport"
	"go-page-translator/pkg/models"
	"go-page-translator/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config             *config.Config
	events             observer.Subject
	metrics            *observer.MetricsObserver
	translationCache   cache.Store
	pipeline           *pipeline.Pipeline
	imageRepository    repository.ImageRepository
	translationService service.TranslationService
	handler            http.Handler
}

// NewContainer builds the dependency graph for cfg
func NewContainer(cfg *config.Config) (*Container, error) {
	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	components := factory.NewComponentFactory(
		factory.StorageConfig{
			FetchTimeout: cfg.ImageFetchTimeout,
			AzureAccount: cfg.AzureStorageAccount,
			AzureKey:     cfg.AzureStorageKey,
		},
		factory.CacheConfig{
			RedisURL: cfg.RedisURL,
			TTL:      cfg.CacheTTL,
		},
	)

	imageRepository, err := newImageRepository(cfg, components.StorageFactory)
	if err != nil {
		return nil, err
	}

	translationCache, err := newTranslationCache(cfg, components.CacheFactory)
	if err != nil {
		return nil, err
	}

	translators := translation.NewFactory(translation.LLMConfig{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
	}, translationCache)

	detector := autocrop.NewDetector(autocrop.DefaultOptions().
		WithStride(cfg.CropStride).
		WithThreshold(cfg.CropThreshold))

	recognizer := tesseract.NewRecognizer(tesseract.Config{Languages: cfg.TesseractLanguages})

	p, err := pipeline.New(recognizer, translators, detector, events, pipeline.Config{
		SourceLanguage: cfg.SourceLanguage,
		TargetLanguage: cfg.TargetLanguage,
		Workers:        cfg.TranslationWorkers,
		Policy:         pipeline.RunPolicy(cfg.RunPolicy),
	})
	if err != nil {
		translationCache.Close()
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	renderer, drawer := newOverlay()

	validator := validation.NewPreferenceValidator()
	prefs := preferences.NewStore(models.Preferences{
		SourceLanguage:    cfg.SourceLanguage,
		TargetLanguage:    cfg.TargetLanguage,
		BackgroundOpacity: cfg.BackgroundOpacity,
		FontScale:         cfg.FontScale,
	}, validator)

	translationService := service.NewTranslationService(
		imageRepository, p, renderer, drawer, prefs, validator,
		service.Options{
			FetchTimeout:       cfg.ImageFetchTimeout,
			TranslationTimeout: cfg.TranslationTimeout,
			AutoCrop:           cfg.AutoCrop,
		},
	)
	handler := transport.NewHandler(translationService, metrics, cfg)

	return &Container{
		config:             cfg,
		events:             events,
		metrics:            metrics,
		translationCache:   translationCache,
		pipeline:           p,
		imageRepository:    imageRepository,
		translationService: translationService,
		handler:            handler,
	}, nil
}

func newImageRepository(cfg *config.Config, storageFactory factory.StorageFactory) (repository.ImageRepository, error) {
	httpFetcher, err := storageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, err
	}

	var blobFetcher storage.ImageFetcher
	if cfg.AzureEnabled() {
		blobFetcher, err = storageFactory.CreateStorage(factory.AzureStorage)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure storage: %w", err)
		}
	}
	policy := validation.URLPolicy{Hosts: cfg.AllowedImageHosts}
	if cfg.AzureEnabled() {
		// the shared key only opens the configured account
		policy.BlobAccounts = []string{cfg.AzureStorageAccount}
	}
	validator := validation.NewURLValidatorWithPolicy(policy)
	return repository.NewPageImageRepository(httpFetcher, blobFetcher, validator), nil
}

func newTranslationCache(cfg *config.Config, cacheFactory factory.CacheFactory) (cache.Store, error) {
	if cfg.RedisURL == "" {
		return cacheFactory.CreateCache(context.Background(), factory.MemoryCache)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := cacheFactory.CreateCache(ctx, factory.RedisCache)
	if err != nil {
		return nil, fmt.Errorf("failed to connect translation cache: %w", err)
	}
	return store, nil
}

// newOverlay prefers the embedded font; without it layout falls back to
// fixed-ratio metrics and previews are disabled.
func newOverlay() (*overlay.Renderer, service.PreviewDrawer) {
	measurer, err := textfit.NewFontMeasurer()
	if err != nil {
		logger.WithError(err).Warn("Font unavailable, using approximate text metrics")
		approx := textfit.ApproxMeasurer{AdvanceRatio: 0.6, LineHeightRatio: 1.2}
		return overlay.NewRenderer(textfit.NewFitter(approx, textfit.DefaultOptions())), nil
	}
	return overlay.NewRenderer(textfit.NewFitter(measurer, textfit.DefaultOptions())), overlay.NewRasterizer(measurer)
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close cancels the in-flight run and releases the translator and cache
func (c *Container) Close() error {
	var errs []error
	if err := c.pipeline.Close(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline: %w", err))
	}
	if err := c.translationCache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("translation cache: %w", err))
	}

	logger.WithFields(logrus.Fields(c.metrics.GetMetrics())).Info("Pipeline metrics at shutdown")
	return errors.Join(errs...)
}
