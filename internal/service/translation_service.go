package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"time"

	apperrors "go-page-translator/internal/errors"
	"go-page-translator/internal/logger"
	"go-page-translator/internal/overlay"
	"go-page-translator/internal/pipeline"
	"go-page-translator/internal/preferences"
	"go-page-translator/internal/recognition"
	"go-page-translator/internal/repository"
	"go-page-translator/pkg/models"
	"go-page-translator/pkg/validation"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// TranslationService is the application surface used by the HTTP handler
type TranslationService interface {
	// Translate fetches a page, runs the pipeline and maps the result
	Translate(ctx context.Context, req models.TranslateRequest) (*models.TranslateResponse, error)

	// Render lays out translated lines for a viewer geometry
	Render(req models.RenderRequest) (*models.RenderResponse, error)

	Preferences() models.Preferences
	UpdatePreferences(ctx context.Context, update models.PreferencesUpdate) (models.Preferences, error)

	ValidateImageURL(imageURL string) error
}

// Engine is the part of the pipeline the service drives
type Engine interface {
	Run(ctx context.Context, img image.Image, opts pipeline.RunOptions) pipeline.Result
	SetLanguages(ctx context.Context, source, target string) error
}

// PreviewDrawer rasterizes overlay primitives onto an image
type PreviewDrawer interface {
	Draw(dst draw.Image, primitives []models.OverlayPrimitive) error
}

type Options struct {
	FetchTimeout       time.Duration
	TranslationTimeout time.Duration
	AutoCrop           bool
}

type translationService struct {
	imageRepo repository.ImageRepository
	engine    Engine
	renderer  *overlay.Renderer
	drawer    PreviewDrawer
	prefs     *preferences.Store
	validator *validation.PreferenceValidator
	opts      Options
}

// NewTranslationService wires the service and subscribes the engine to
// language changes in prefs. drawer may be nil to disable previews.
func NewTranslationService(
	imageRepository repository.ImageRepository,
	engine Engine,
	renderer *overlay.Renderer,
	drawer PreviewDrawer,
	prefs *preferences.Store,
	validator *validation.PreferenceValidator,
	opts Options,
) TranslationService {
	if validator == nil {
		validator = validation.NewPreferenceValidator()
	}
	s := &translationService{
		imageRepo: imageRepository,
		engine:    engine,
		renderer:  renderer,
		drawer:    drawer,
		prefs:     prefs,
		validator: validator,
		opts:      opts,
	}
	prefs.Subscribe(s.onPreferencesChanged)
	return s
}

func (s *translationService) Translate(ctx context.Context, req models.TranslateRequest) (*models.TranslateResponse, error) {
	if err := s.ValidateImageURL(req.URL); err != nil {
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}

	img, err := s.fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	autoCrop := s.opts.AutoCrop
	if req.AutoCrop != nil {
		autoCrop = *req.AutoCrop
	}

	runCtx := ctx
	if s.opts.TranslationTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.TranslationTimeout)
		defer cancel()
	}

	result := s.engine.Run(runCtx, img, pipeline.RunOptions{AutoCrop: autoCrop})

	response := &models.TranslateResponse{
		RunID:             result.RunID,
		ImageURL:          req.URL,
		State:             string(result.State),
		SourceLanguage:    result.SourceLanguage,
		TargetLanguage:    result.TargetLanguage,
		Lines:             result.Lines,
		Cropped:           result.Cropped,
		CropBounds:        result.CropBounds,
		Failures:          result.Failures,
		ProcessingTimeSec: result.Duration.Seconds(),
	}

	// Run-level failures are reported in the body with no lines
	switch result.State {
	case pipeline.StateDone:
	case pipeline.StateError, pipeline.StateCanceled:
		runErr := result.Err
		if result.State == pipeline.StateCanceled && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			runErr = apperrors.NewTimeoutError("translation timed out", result.Err)
		}
		response.Lines = []models.TranslatedLine{}
		response.Failures = nil
		if runErr != nil {
			response.Error = runErr.Error()
			var appErr *apperrors.AppError
			if errors.As(runErr, &appErr) {
				response.ErrorType = string(appErr.Type)
			}
		}
		return response, nil
	default:
		return nil, apperrors.NewInternalError("translation run ended in state "+string(result.State), nil)
	}

	if req.ExpectedText != "" {
		accuracy := recognition.Accuracy(req.ExpectedText, result.Blocks)
		response.Accuracy = &accuracy
	}

	if req.Preview && s.drawer != nil {
		preview, err := s.preview(img, result)
		if err != nil {
			// the translation itself succeeded
			logger.WithRun(result.RunID).WithError(err).Warn("Failed to render preview")
		} else {
			response.PreviewPNG = preview
		}
	}

	return response, nil
}

func (s *translationService) fetch(ctx context.Context, imageURL string) (image.Image, error) {
	fetchCtx := ctx
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	img, err := s.imageRepo.FetchImage(fetchCtx, imageURL)
	if err == nil {
		return img, nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, apperrors.NewTimeoutError("image fetch timed out", err)
	}
	if errors.Is(err, repository.ErrInvalidImageURL) {
		return nil, apperrors.NewValidationError("invalid image URL", err)
	}
	return nil, apperrors.NewNetworkError("failed to fetch image", err)
}

// preview composites the overlay onto a copy of the processed image. The
// viewer shows the image at its intrinsic size, so boxes map one to one.
func (s *translationService) preview(img image.Image, result pipeline.Result) ([]byte, error) {
	b := img.Bounds()
	region := b
	if result.Cropped {
		cb := result.CropBounds
		region = image.Rect(b.Min.X+cb.Left, b.Min.Y+cb.Top, b.Min.X+cb.Right, b.Min.Y+cb.Bottom)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, region.Min, draw.Src)

	prefs := s.prefs.Get()
	geometry := models.NewIntrinsicFitGeometry(
		float64(region.Dx()), float64(region.Dy()), region.Dx(), region.Dy(),
	)
	frame := s.renderer.Render(result.Lines, geometry, overlay.Options{
		BackgroundOpacity: prefs.BackgroundOpacity,
		FontScale:         prefs.FontScale,
	})
	if err := s.drawer.Draw(canvas, frame.Primitives); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *translationService) Render(req models.RenderRequest) (*models.RenderResponse, error) {
	prefs := s.prefs.Get()
	if req.BackgroundOpacity != nil {
		prefs.BackgroundOpacity = *req.BackgroundOpacity
	}
	if req.FontScale != nil {
		prefs.FontScale = *req.FontScale
	}
	if err := s.validator.ValidatePreferences(prefs); err != nil {
		return nil, err
	}

	switch req.Viewer.Kind {
	case models.FreeZoomViewer, models.FixedFrameViewer, models.IntrinsicFitViewer:
	default:
		return nil, apperrors.NewValidationError("unknown viewer kind: "+string(req.Viewer.Kind), nil)
	}

	frame := s.renderer.Render(req.Lines, req.Viewer.Geometry(), overlay.Options{
		BackgroundOpacity: prefs.BackgroundOpacity,
		FontScale:         prefs.FontScale,
	})

	primitives := frame.Primitives
	if primitives == nil {
		primitives = []models.OverlayPrimitive{}
	}
	return &models.RenderResponse{
		Primitives:          primitives,
		Skipped:             frame.Skipped,
		GeometryUnavailable: frame.GeometryUnavailable,
	}, nil
}

func (s *translationService) Preferences() models.Preferences {
	return s.prefs.Get()
}

func (s *translationService) UpdatePreferences(ctx context.Context, update models.PreferencesUpdate) (models.Preferences, error) {
	return s.prefs.Update(ctx, update)
}

// onPreferencesChanged rebuilds the translator when the language pair
// changes. Style-only updates never touch the engine.
func (s *translationService) onPreferencesChanged(ctx context.Context, previous, next models.Preferences) error {
	if previous.SourceLanguage == next.SourceLanguage && previous.TargetLanguage == next.TargetLanguage {
		return nil
	}

	logger.WithFields(logrus.Fields{
		"source_language": next.SourceLanguage,
		"target_language": next.TargetLanguage,
	}).Info("Switching translation languages")

	if err := s.engine.SetLanguages(ctx, next.SourceLanguage, next.TargetLanguage); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeCanceled) || errors.Is(err, context.Canceled) {
			return apperrors.NewCanceledError("language change canceled", err)
		}
		return apperrors.NewModelUnavailableError("failed to switch translation languages", err)
	}
	return nil
}

func (s *translationService) ValidateImageURL(imageURL string) error {
	return s.imageRepo.ValidateImageURL(imageURL)
}
