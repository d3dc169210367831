package events

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/logging"
	"github.com/dmitrijs2005/tiergate/internal/server/models"
)

const (
	DefaultBufferSize  = 256
	DefaultWorkers     = 2
	defaultSinkTimeout = 10 * time.Second
)

// Dispatcher fans events out to sinks from a bounded queue served by a fixed
// worker pool. When the queue is full the event is dropped with a warning.
type Dispatcher struct {
	log   logging.Logger
	sinks []Sink
	queue chan models.Event

	sinkTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines; call Close to drain and stop them.
func NewDispatcher(log logging.Logger, bufferSize, workers int, sinks ...Sink) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	d := &Dispatcher{
		log:         log.With("module", "events"),
		sinks:       sinks,
		queue:       make(chan models.Event, bufferSize),
		sinkTimeout: defaultSinkTimeout,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Publish enqueues e without blocking.
func (d *Dispatcher) Publish(ctx context.Context, e models.Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn(ctx, "event dropped: dispatcher closed", "type", e.Type, "id", e.ID)
		return
	}
	select {
	case d.queue <- e:
	default:
		d.log.Warn(ctx, "event dropped: queue full", "type", e.Type, "id", e.ID)
	}
}

// Close stops accepting events and waits until the queue is drained or ctx
// is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for e := range d.queue {
		d.deliver(e)
	}
}

func (d *Dispatcher) deliver(e models.Event) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
		if err := s.Handle(ctx, e); err != nil {
			d.log.Error(ctx, "event delivery failed", "sink", s.Name(), "type", e.Type, "id", e.ID, "error", err)
		}
		cancel()
	}
}
