package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls how the Dispatcher buffers account and order events.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events instead of blocking the request when the
	// buffer is full.
	DropIfFull bool
	// OnDrop, when set, is called synchronously with every discarded event.
	OnDrop func(Event)
}

// Dispatcher relays events to a Sink on one background goroutine so request
// paths never wait on sink I/O. A nil *Dispatcher is valid and discards
// everything.
type Dispatcher struct {
	cfg   Config
	sink  Sink
	queue chan Event
	stop  chan struct{}
	wg    sync.WaitGroup

	closing atomic.Bool
	once    sync.Once

	dropMu  sync.Mutex
	drops   map[string]uint64
	dropped atomic.Uint64
}

// NewDispatcher starts a dispatcher, or returns nil when cfg is disabled.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:   cfg,
		sink:  sink,
		queue: make(chan Event, cfg.BufferSize),
		stop:  make(chan struct{}),
		drops: make(map[string]uint64),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()
	ctx := context.Background()
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(ctx, ev)
		case <-d.stop:
			d.drain(ctx)
			return
		}
	}
}

// drain delivers whatever is still queued at shutdown.
func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(ctx, ev)
		default:
			return
		}
	}
}

// Emit queues event. In drop mode a full buffer discards it and records the
// drop under its event type; otherwise Emit waits for room, ctx or Close.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.closing.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if !d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		case <-ctx.Done():
		case <-d.stop:
		}
		return
	}

	select {
	case d.queue <- event:
	case <-d.stop:
	default:
		d.recordDrop(event)
	}
}

func (d *Dispatcher) recordDrop(event Event) {
	d.dropped.Add(1)
	d.dropMu.Lock()
	d.drops[event.EventType]++
	d.dropMu.Unlock()
	if d.cfg.OnDrop != nil {
		d.cfg.OnDrop(event)
	}
}

// Close stops accepting events and blocks until the queue is flushed.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closing.Store(true)
		close(d.stop)
		d.wg.Wait()
	})
}

// Dropped is the total number of discarded events.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// DroppedByEvent returns a copy of the drop counts keyed by event type.
func (d *Dispatcher) DroppedByEvent() map[string]uint64 {
	out := map[string]uint64{}
	if d == nil {
		return out
	}
	d.dropMu.Lock()
	defer d.dropMu.Unlock()
	for k, v := range d.drops {
		out[k] = v
	}
	return out
}
