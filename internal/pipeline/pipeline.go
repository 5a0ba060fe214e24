// Package pipeline sequences auto-crop, text recognition, block merging and
// translation into a list of translated lines for one image at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"go-page-translator/internal/autocrop"
	apperrors "go-page-translator/internal/errors"
	"go-page-translator/internal/logger"
	"go-page-translator/internal/observer"
	"go-page-translator/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is the phase of the current or last run.
type State string

const (
	StateIdle        State = "idle"
	StateCropping    State = "cropping"
	StateRecognizing State = "recognizing"
	StateMerging     State = "merging"
	StateTranslating State = "translating"
	StateDone        State = "done"
	StateError       State = "error"
	StateCanceled    State = "canceled"
)

// RunPolicy decides what happens when a run starts while another is in
// flight.
type RunPolicy string

const (
	// QueueRuns makes a new run wait for the in-flight one.
	QueueRuns RunPolicy = "queue"
	// SupersedeRuns cancels the in-flight run, then waits for it to unwind.
	SupersedeRuns RunPolicy = "supersede"
)

type Config struct {
	SourceLanguage string
	TargetLanguage string
	// Workers is the number of blocks translated concurrently. One keeps
	// translation strictly sequential.
	Workers int
	Policy  RunPolicy
}

func DefaultConfig() Config {
	return Config{
		SourceLanguage: "en",
		TargetLanguage: "it",
		Workers:        1,
		Policy:         QueueRuns,
	}
}

type RunOptions struct {
	AutoCrop bool
}

// Result is the published outcome of a run. Lines is never nil. On any
// state other than StateDone it is empty and Err says why.
type Result struct {
	RunID          string
	State          State
	SourceLanguage string
	TargetLanguage string
	Lines          []models.TranslatedLine
	Failures       []models.BlockFailure
	Blocks         []RecognizedBlock
	Cropped        bool
	CropBounds     models.SourceRect
	Err            error
	Duration       time.Duration
}

type engineState struct {
	sourceLanguage string
	targetLanguage string
	translator     Translator
	modelReady     bool
}

type inflight struct {
	cancel context.CancelFunc
}

// Pipeline runs one translation at a time and owns its translator.
type Pipeline struct {
	recognizer Recognizer
	factory    TranslatorFactory
	cropper    Cropper
	events     observer.Subject
	workers    int
	policy     RunPolicy

	// sem admits a single run or language change
	sem chan struct{}

	mu     sync.Mutex
	state  State
	engine engineState
	// runs holds every run that is executing or waiting for the slot
	runs map[*inflight]struct{}
}

// New builds a pipeline and its first translator. cropper and events may
// be nil.
func New(recognizer Recognizer, factory TranslatorFactory, cropper Cropper, events observer.Subject, cfg Config) (*Pipeline, error) {
	if recognizer == nil {
		return nil, errors.New("recognizer is required")
	}
	if factory == nil {
		return nil, errors.New("translator factory is required")
	}
	def := DefaultConfig()
	if cfg.SourceLanguage == "" {
		cfg.SourceLanguage = def.SourceLanguage
	}
	if cfg.TargetLanguage == "" {
		cfg.TargetLanguage = def.TargetLanguage
	}
	if cfg.Workers < 1 {
		cfg.Workers = def.Workers
	}
	if cfg.Policy == "" {
		cfg.Policy = def.Policy
	}

	translator, err := factory.NewTranslator(cfg.SourceLanguage, cfg.TargetLanguage)
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}

	return &Pipeline{
		recognizer: recognizer,
		factory:    factory,
		cropper:    cropper,
		events:     events,
		workers:    cfg.Workers,
		policy:     cfg.Policy,
		sem:        make(chan struct{}, 1),
		state:      StateIdle,
		runs:       make(map[*inflight]struct{}),
		engine: engineState{
			sourceLanguage: cfg.SourceLanguage,
			targetLanguage: cfg.TargetLanguage,
			translator:     translator,
		},
	}, nil
}

// State returns the phase of the current or most recent run.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Languages returns the active source and target language codes.
func (p *Pipeline) Languages() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.sourceLanguage, p.engine.targetLanguage
}

// Run recognizes and translates the text of img. It never returns partial
// results: a canceled or failed run publishes no lines.
func (p *Pipeline) Run(ctx context.Context, img image.Image, opts RunOptions) Result {
	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := &inflight{cancel: cancel}
	p.register(run)
	defer p.unregister(run)

	res := Result{
		RunID: uuid.NewString(),
		Lines: []models.TranslatedLine{},
	}

	if err := p.acquire(runCtx); err != nil {
		return p.finishCanceled(ctx, res, start, err, false)
	}
	defer p.release()

	res.SourceLanguage, res.TargetLanguage = p.Languages()
	p.notify(ctx, observer.PipelineEvent{
		EventType: observer.RunStarted,
		RunID:     res.RunID,
		Metadata: map[string]interface{}{
			"source_language": res.SourceLanguage,
			"target_language": res.TargetLanguage,
			"auto_crop":       opts.AutoCrop,
		},
	})
	if err := runCtx.Err(); err != nil {
		return p.finishCanceled(ctx, res, start, err, true)
	}

	work := img
	b := img.Bounds()
	res.CropBounds = models.SourceRect{Right: b.Dx(), Bottom: b.Dy()}

	var crop *autocrop.Crop
	if opts.AutoCrop && p.cropper != nil {
		p.setState(StateCropping)
		crop = p.cropper.Crop(img)
		defer crop.Release()
		res.Cropped = crop.Cropped
		res.CropBounds = crop.Bounds
		work = crop.Image
	}

	p.setState(StateRecognizing)
	blocks, err := p.recognizer.Recognize(runCtx, work)
	crop.Release()
	if err != nil {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return p.finishCanceled(ctx, res, start, ctxErr, true)
		}
		return p.finishFailed(ctx, res, start, apperrors.NewRecognitionError("text recognition failed", err))
	}

	p.setState(StateMerging)
	units := mergeBlocks(blocks)

	p.setState(StateTranslating)
	var lines []models.TranslatedLine
	var failures []models.BlockFailure
	if len(units) > 0 {
		translator, err := p.ensureModel(runCtx)
		if err != nil {
			if ctxErr := runCtx.Err(); ctxErr != nil {
				return p.finishCanceled(ctx, res, start, ctxErr, true)
			}
			p.notify(ctx, observer.PipelineEvent{
				EventType:    observer.ModelUnavailable,
				RunID:        res.RunID,
				ErrorMessage: err.Error(),
				Metadata: map[string]interface{}{
					"source_language": res.SourceLanguage,
					"target_language": res.TargetLanguage,
				},
			})
			return p.finishFailed(ctx, res, start, apperrors.NewModelUnavailableError(
				fmt.Sprintf("translation model %s->%s unavailable", res.SourceLanguage, res.TargetLanguage), err))
		}

		outcomes := p.translateUnits(runCtx, translator, units)
		if ctxErr := runCtx.Err(); ctxErr != nil {
			return p.finishCanceled(ctx, res, start, ctxErr, true)
		}
		lines, failures = collect(units, outcomes)
		for _, f := range failures {
			p.notify(ctx, observer.PipelineEvent{
				EventType:    observer.BlockTranslationFailed,
				RunID:        res.RunID,
				ErrorMessage: f.Error,
				Metadata:     map[string]interface{}{"block_index": f.Index},
			})
		}
	}

	res.Lines = append(res.Lines, lines...)
	res.Failures = failures
	res.Blocks = blocks
	res.State = StateDone
	res.Duration = time.Since(start)
	p.setState(StateDone)

	p.notify(ctx, observer.PipelineEvent{
		EventType:      observer.RunCompleted,
		RunID:          res.RunID,
		ProcessingTime: res.Duration,
		Success:        true,
		Metadata: map[string]interface{}{
			"blocks":  len(blocks),
			"lines":   len(res.Lines),
			"dropped": len(failures),
			"cropped": res.Cropped,
		},
	})
	return res
}

// SetSourceLanguage switches the source language for subsequent runs.
func (p *Pipeline) SetSourceLanguage(ctx context.Context, lang string) error {
	return p.changeLanguages(ctx, func(_, target string) (string, string) { return lang, target })
}

// SetTargetLanguage switches the target language for subsequent runs.
func (p *Pipeline) SetTargetLanguage(ctx context.Context, lang string) error {
	return p.changeLanguages(ctx, func(source, _ string) (string, string) { return source, lang })
}

// SetLanguages switches both languages at once, rebuilding the translator
// at most once. Lines from earlier runs are not retranslated.
func (p *Pipeline) SetLanguages(ctx context.Context, source, target string) error {
	return p.changeLanguages(ctx, func(_, _ string) (string, string) { return source, target })
}

func (p *Pipeline) changeLanguages(ctx context.Context, next func(source, target string) (string, string)) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()

	curSource, curTarget := p.Languages()
	source, target := next(curSource, curTarget)
	if source == curSource && target == curTarget {
		return nil
	}
	return p.rebuildTranslator(ctx, source, target)
}

// rebuildTranslator replaces the translator with one for the new pair.
// The caller holds the run slot. On error the previous translator stays.
func (p *Pipeline) rebuildTranslator(ctx context.Context, source, target string) error {
	next, err := p.factory.NewTranslator(source, target)
	if err != nil {
		return fmt.Errorf("failed to create translator for %s->%s: %w", source, target, err)
	}

	p.mu.Lock()
	old := p.engine
	p.engine = engineState{
		sourceLanguage: source,
		targetLanguage: target,
		translator:     next,
	}
	p.mu.Unlock()

	if old.translator != nil {
		if err := old.translator.Close(); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"source_language": old.sourceLanguage,
				"target_language": old.targetLanguage,
			}).Warn("Failed to close previous translator")
		}
	}

	p.notify(ctx, observer.PipelineEvent{
		EventType: observer.TranslatorRebuilt,
		Success:   true,
		Metadata: map[string]interface{}{
			"previous_source": old.sourceLanguage,
			"previous_target": old.targetLanguage,
			"source_language": source,
			"target_language": target,
		},
	})
	return nil
}

// Close cancels the in-flight run and any queued runs, waits for the slot
// and releases the translator. Runs started afterwards fail with a model
// error.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	for run := range p.runs {
		run.cancel()
	}
	p.mu.Unlock()

	p.sem <- struct{}{}
	defer p.release()

	p.mu.Lock()
	translator := p.engine.translator
	p.engine.translator = nil
	p.engine.modelReady = false
	p.mu.Unlock()

	if translator == nil {
		return nil
	}
	return translator.Close()
}

func (p *Pipeline) ensureModel(ctx context.Context) (Translator, error) {
	p.mu.Lock()
	eng := p.engine
	p.mu.Unlock()

	if eng.translator == nil {
		return nil, errors.New("translator is closed")
	}
	if eng.modelReady {
		return eng.translator, nil
	}
	if err := eng.translator.EnsureModelAvailable(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.engine.translator == eng.translator {
		p.engine.modelReady = true
	}
	p.mu.Unlock()
	return eng.translator, nil
}

func (p *Pipeline) translateUnits(ctx context.Context, translator Translator, units []unit) []blockOutcome {
	outcomes := make([]blockOutcome, len(units))
	translate := func(i int) {
		if ctx.Err() != nil {
			return
		}
		text, err := translator.Translate(ctx, units[i].text)
		outcomes[i] = blockOutcome{translated: text, err: err, done: true}
	}

	if p.workers <= 1 || len(units) == 1 {
		for i := range units {
			translate(i)
		}
		return outcomes
	}

	pool := NewWorkerPool(min(p.workers, len(units)))
	pool.Start()
	defer pool.Close()
	for i := range units {
		i := i
		pool.Submit(func() { translate(i) })
	}
	pool.Wait()
	return outcomes
}

func (p *Pipeline) finishFailed(ctx context.Context, res Result, start time.Time, err error) Result {
	res.State = StateError
	res.Err = err
	res.Duration = time.Since(start)
	p.setState(StateError)
	p.notify(ctx, observer.PipelineEvent{
		EventType:      observer.RunFailed,
		RunID:          res.RunID,
		ProcessingTime: res.Duration,
		ErrorMessage:   err.Error(),
	})
	return res
}

// finishCanceled publishes nothing. owned tells whether the run held the
// slot and may update the pipeline state.
func (p *Pipeline) finishCanceled(ctx context.Context, res Result, start time.Time, cause error, owned bool) Result {
	res.State = StateCanceled
	res.Err = apperrors.NewCanceledError("translation run canceled", cause)
	res.Duration = time.Since(start)
	if owned {
		p.setState(StateCanceled)
	}
	p.notify(ctx, observer.PipelineEvent{
		EventType:      observer.RunCanceled,
		RunID:          res.RunID,
		ProcessingTime: res.Duration,
		ErrorMessage:   cause.Error(),
	})
	return res
}

func (p *Pipeline) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		<-p.sem
		return err
	}
	return nil
}

func (p *Pipeline) release() {
	<-p.sem
}

func (p *Pipeline) register(run *inflight) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.policy == SupersedeRuns {
		for other := range p.runs {
			other.cancel()
		}
	}
	p.runs[run] = struct{}{}
}

func (p *Pipeline) unregister(run *inflight) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.runs, run)
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Pipeline) notify(ctx context.Context, event observer.PipelineEvent) {
	if p.events == nil {
		return
	}
	event.Timestamp = time.Now()
	p.events.NotifyObservers(context.WithoutCancel(ctx), event)
}
