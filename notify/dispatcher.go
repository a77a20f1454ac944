package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/gridsniper/metrics"
)

const (
	defaultQueueSize   = 64
	defaultSendTimeout = 15 * time.Second
)

// Dispatcher decouples event producers from delivery. Notify queues an
// event and returns immediately; a single worker drains the queue.
type Dispatcher struct {
	n       Notifier
	m       *metrics.Metrics
	queue   chan Event
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher with a queue of size slots. size <= 0
// uses the default.
func NewDispatcher(n Notifier, size int, m *metrics.Metrics) *Dispatcher {
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Dispatcher{
		n:       n,
		m:       m,
		queue:   make(chan Event, size),
		timeout: defaultSendTimeout,
	}
}

// Start launches the worker. It exits when ctx is cancelled or Close is
// called, after draining what is already queued.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e, ok := <-d.queue:
				if !ok {
					return
				}
				d.deliver(ctx, e)
			case <-ctx.Done():
				d.drain()
				return
			}
		}
	}()
}

// Notify enqueues e. When the queue is full the event is dropped.
func (d *Dispatcher) Notify(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.m.Notify(metrics.ResultDropped)
		return
	}
	select {
	case d.queue <- e:
	default:
		log.Warn().Str("kind", string(e.Kind)).Str("ticker", e.Ticker).Msg("notify queue full, dropping event")
		d.m.Notify(metrics.ResultDropped)
	}
}

// Close stops accepting events and waits for the worker to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) drain() {
	for {
		select {
		case e, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(context.Background(), e)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.n.Send(ctx, e); err != nil {
		log.Error().Err(err).Str("kind", string(e.Kind)).Str("ticker", e.Ticker).Msg("notify failed")
		d.m.Notify(metrics.ResultError)
		return
	}
	d.m.Notify(metrics.ResultOK)
}
