package observer

import (
	"context"
	"sync"
	"time"

	"go-page-translator/internal/logger"

	"github.com/sirupsen/logrus"
)

// PipelineEvent represents a translation pipeline event
type PipelineEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RunID          string                 `json:"run_id,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of pipeline event
type EventType string

const (
	// RunStarted when a pipeline run acquires the pipeline
	RunStarted EventType = "run_started"
	// RunCompleted when a run publishes its lines
	RunCompleted EventType = "run_completed"
	// RunFailed when recognition or model preparation aborts a run
	RunFailed EventType = "run_failed"
	// RunCanceled when a run is canceled or superseded
	RunCanceled EventType = "run_canceled"
	// BlockTranslationFailed when a single block is dropped
	BlockTranslationFailed EventType = "block_translation_failed"
	// ModelUnavailable when the translation model cannot be prepared
	ModelUnavailable EventType = "model_unavailable"
	// TranslatorRebuilt when the language pair changes
	TranslatorRebuilt EventType = "translator_rebuilt"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PipelineEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PipelineEvent)
}

// LoggingObserver logs pipeline events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles pipeline events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	fields := logrus.Fields{
		"event_type":         event.EventType,
		"run_id":             event.RunID,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case RunStarted:
		entry.Debug("Translation run started")
	case RunCompleted:
		entry.Info("Translation run completed")
	case RunFailed:
		entry.Error("Translation run failed")
	case RunCanceled:
		entry.Info("Translation run canceled")
	case BlockTranslationFailed:
		entry.Warn("Block translation failed, block dropped")
	case ModelUnavailable:
		entry.Error("Translation model unavailable")
	case TranslatorRebuilt:
		entry.Info("Translator rebuilt for new language pair")
	default:
		entry.Info("Pipeline event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from pipeline events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalRuns           int64
	completedRuns       int64
	failedRuns          int64
	canceledRuns        int64
	droppedBlocks       int64
	translatorRebuilds  int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles pipeline events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case RunStarted:
		o.totalRuns++
	case RunCompleted:
		o.completedRuns++
		o.totalProcessingTime += event.ProcessingTime
	case RunFailed:
		o.failedRuns++
	case RunCanceled:
		o.canceledRuns++
	case BlockTranslationFailed:
		o.droppedBlocks++
	case TranslatorRebuilt:
		o.translatorRebuilds++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completedRuns > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completedRuns)
	}

	return map[string]interface{}{
		"total_runs":            o.totalRuns,
		"completed_runs":        o.completedRuns,
		"failed_runs":           o.failedRuns,
		"canceled_runs":         o.canceledRuns,
		"dropped_blocks":        o.droppedBlocks,
		"translator_rebuilds":   o.translatorRebuilds,
		"total_processing_time": o.totalProcessingTime.String(),
		"avg_processing_time":   avgProcessingTime.String(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event. Observers run
// concurrently and must not block the pipeline.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PipelineEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(logrus.Fields{
						"observer": obs.GetObserverName(),
						"panic":    r,
					}).Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
