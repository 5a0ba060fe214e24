package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"go-page-translator/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type channelObserver struct {
	name   string
	events chan PipelineEvent
}

func (o *channelObserver) OnEvent(ctx context.Context, event PipelineEvent) {
	o.events <- event
}

func (o *channelObserver) GetObserverName() string { return o.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event PipelineEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                         { return "panicking" }

func TestMetricsObserver(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()

	m.OnEvent(ctx, PipelineEvent{EventType: RunStarted})
	m.OnEvent(ctx, PipelineEvent{EventType: RunStarted})
	m.OnEvent(ctx, PipelineEvent{EventType: RunStarted})
	m.OnEvent(ctx, PipelineEvent{EventType: RunCompleted, ProcessingTime: 2 * time.Second})
	m.OnEvent(ctx, PipelineEvent{EventType: RunFailed})
	m.OnEvent(ctx, PipelineEvent{EventType: RunCanceled})
	m.OnEvent(ctx, PipelineEvent{EventType: BlockTranslationFailed})
	m.OnEvent(ctx, PipelineEvent{EventType: TranslatorRebuilt})

	metrics := m.GetMetrics()
	assert.Equal(t, int64(3), metrics["total_runs"])
	assert.Equal(t, int64(1), metrics["completed_runs"])
	assert.Equal(t, int64(1), metrics["failed_runs"])
	assert.Equal(t, int64(1), metrics["canceled_runs"])
	assert.Equal(t, int64(1), metrics["dropped_blocks"])
	assert.Equal(t, int64(1), metrics["translator_rebuilds"])
	assert.Equal(t, "2s", metrics["avg_processing_time"])
}

func TestEventPublisherNotifiesSubscribers(t *testing.T) {
	p := NewEventPublisher()
	obs := &channelObserver{name: "chan", events: make(chan PipelineEvent, 1)}
	p.Subscribe(panickingObserver{})
	p.Subscribe(obs)

	p.NotifyObservers(context.Background(), PipelineEvent{EventType: RunCompleted, RunID: "r1"})

	select {
	case ev := <-obs.events:
		assert.Equal(t, "r1", ev.RunID)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("observer was not notified")
	}

	p.Unsubscribe(obs)
	p.NotifyObservers(context.Background(), PipelineEvent{EventType: RunCompleted})
	select {
	case <-obs.events:
		t.Fatal("unsubscribed observer was notified")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoggingObserver(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	NewLoggingObserver(l).OnEvent(context.Background(), PipelineEvent{
		EventType:    RunFailed,
		RunID:        "run-7",
		ErrorMessage: "recognizer crashed",
		Metadata:     map[string]interface{}{"blocks": 3},
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "run-7", entry["run_id"])
	assert.Equal(t, "recognizer crashed", entry["error"])
	assert.Equal(t, float64(3), entry["blocks"])
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) firstLine() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	line, _, _ := bytes.Cut(b.buf.Bytes(), []byte("\n"))
	return append([]byte(nil), line...)
}

func TestObserverPanicIsLoggedThroughAppLogger(t *testing.T) {
	out := &lockedBuffer{}
	logger.Logger.SetOutput(out)
	t.Cleanup(func() { logger.Logger.SetOutput(os.Stdout) })

	p := NewEventPublisher()
	p.Subscribe(panickingObserver{})
	p.NotifyObservers(context.Background(), PipelineEvent{EventType: RunStarted, RunID: "r9"})

	require.Eventually(t, func() bool { return len(out.firstLine()) > 0 }, 2*time.Second, 10*time.Millisecond)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(out.firstLine(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "panicking", entry["observer"])
	assert.Equal(t, "boom", entry["panic"])
}
