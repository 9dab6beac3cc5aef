package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/cleanreader/adapters/metrics"
	"github.com/artpar/cleanreader/domain/usage"
	"github.com/artpar/cleanreader/ports"
)

// LocalUsageRecorder buffers usage events and writes them in batches to
// the store.
type LocalUsageRecorder struct {
	store         ports.UsageStore
	logger        zerolog.Logger
	metrics       *metrics.Collector
	buffer        []usage.Event
	mu            sync.Mutex
	batchSize     int
	flushInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// NewLocalUsageRecorder creates a new local usage recorder.
func NewLocalUsageRecorder(store ports.UsageStore, batchSize int, flushInterval time.Duration, logger zerolog.Logger) *LocalUsageRecorder {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}

	r := &LocalUsageRecorder{
		store:         store,
		logger:        logger,
		buffer:        make([]usage.Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
	}

	r.wg.Add(1)
	go r.flushLoop()

	return r
}

// SetMetrics attaches an optional collector. Call before serving
// traffic.
func (r *LocalUsageRecorder) SetMetrics(m *metrics.Collector) {
	r.metrics = m
}

// Record queues a usage event for processing.
func (r *LocalUsageRecorder) Record(e usage.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, e)
	if r.metrics != nil {
		r.metrics.UsageBuffered.Set(float64(len(r.buffer)))
	}

	if len(r.buffer) >= r.batchSize {
		r.flushLocked()
	}
}

// Flush forces immediate processing of queued events.
func (r *LocalUsageRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
	return nil
}

// flushLocked hands the buffered events to a background write. Caller
// holds r.mu.
func (r *LocalUsageRecorder) flushLocked() {
	if len(r.buffer) == 0 {
		return
	}

	events := make([]usage.Event, len(r.buffer))
	copy(events, r.buffer)
	r.buffer = r.buffer[:0]
	if r.metrics != nil {
		r.metrics.UsageBuffered.Set(0)
	}

	// Write in background to not block request handlers. Tracked by
	// the wait group so Close blocks until in-flight writes land.
	r.wg.Add(1)
	go r.writeBatch(events)
}

func (r *LocalUsageRecorder) writeBatch(events []usage.Event) {
	defer r.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.store.AppendBatch(ctx, events); err != nil {
		r.logger.Error().Err(err).Int("events", len(events)).Msg("usage batch write failed")
		if r.metrics != nil {
			r.metrics.UsageFlushErrors.Inc()
		}
		return
	}
	if r.metrics != nil {
		r.metrics.UsageFlushes.Inc()
	}
}

func (r *LocalUsageRecorder) flushLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Flush(context.Background())
		case <-r.stopCh:
			return
		}
	}
}

// Close stops the recorder and flushes remaining events synchronously.
func (r *LocalUsageRecorder) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.stopCh)
		r.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r.mu.Lock()
		defer r.mu.Unlock()

		if len(r.buffer) > 0 {
			err = r.store.AppendBatch(ctx, r.buffer)
			r.buffer = r.buffer[:0]
		}
	})
	return err
}

var _ ports.UsageRecorder = (*LocalUsageRecorder)(nil)
