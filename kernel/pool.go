package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Common errors for pool operations.
var (
	ErrPoolClosed    = errors.New("kernel pool closed")
	ErrPoolExhausted = errors.New("kernel pool exhausted")
	ErrUnknownKernel = errors.New("unknown kernel")
)

// Listener receives every inbound message from one kernel while
// registered.
//
// Contract:
//   - Concurrency: invoked sequentially, in kernel emission order.
//   - Errors: must be non-blocking and fast; hand off to a channel rather
//     than doing work inline.
type Listener func(Message)

// PoolConfig configures a kernel pool.
type PoolConfig struct {
	// Connections are the kernels the pool leases out, keyed by kernel id.
	// Required, at least one.
	Connections map[string]Connection

	// AcquireTimeout bounds how long Acquire waits for a free kernel
	// before failing with ErrPoolExhausted. Zero means wait until the
	// caller's context is done.
	AcquireTimeout time.Duration

	// Logger is an optional logger for pool events.
	Logger *slog.Logger
}

// Pool owns a fixed set of kernels and hands out exclusive leases.
// It is the sole synchronization point for kernel access: each kernel's
// message stream is forwarded to at most one registered listener, and
// the listener is cleared on release so a stale callback can never
// observe the next lease's messages.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Every successful Acquire must be paired with exactly one Release.
type Pool struct {
	kernels map[string]*pooledKernel
	idle    chan string
	done    chan struct{}

	mu     sync.Mutex
	closed bool

	logger   *slog.Logger
	acquire  time.Duration
	unrouted atomic.Uint64
	suspect  atomic.Uint64
}

type pooledKernel struct {
	id   string
	conn Connection

	mu       sync.Mutex
	leased   bool
	listener Listener
}

// NewPool creates a pool over the given kernel connections and starts
// one forwarding goroutine per kernel.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if len(cfg.Connections) == 0 {
		return nil, fmt.Errorf("pool requires at least one kernel connection")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	p := &Pool{
		kernels: make(map[string]*pooledKernel, len(cfg.Connections)),
		idle:    make(chan string, len(cfg.Connections)),
		done:    make(chan struct{}),
		logger:  logger,
		acquire: cfg.AcquireTimeout,
	}
	for id, conn := range cfg.Connections {
		k := &pooledKernel{id: id, conn: conn}
		p.kernels[id] = k
		p.idle <- id
		go p.forward(k)
	}
	return p, nil
}

// Acquire leases a free kernel, suspending until one is available, the
// context is done, or the configured acquire timeout elapses.
func (p *Pool) Acquire(ctx context.Context) (Client, string, error) {
	if p.acquire > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.acquire)
		defer cancel()
	}

	select {
	case <-p.done:
		return nil, "", ErrPoolClosed
	default:
	}

	select {
	case id := <-p.idle:
		k := p.kernels[id]
		k.mu.Lock()
		k.leased = true
		k.mu.Unlock()
		return k.conn, id, nil
	case <-p.done:
		return nil, "", ErrPoolClosed
	case <-ctx.Done():
		if p.acquire > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, "", fmt.Errorf("%w: no kernel free within %v", ErrPoolExhausted, p.acquire)
		}
		return nil, "", ctx.Err()
	}
}

// RegisterListener routes the kernel's inbound messages to fn until the
// lease is released. At most one listener is live per kernel.
func (p *Pool) RegisterListener(id string, fn Listener) error {
	k, ok := p.kernels[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKernel, id)
	}
	k.mu.Lock()
	k.listener = fn
	k.mu.Unlock()
	return nil
}

// Release returns a leased kernel to the pool and clears its listener.
// Releasing a kernel that is not leased is a no-op.
func (p *Pool) Release(id string) {
	k, ok := p.kernels[id]
	if !ok {
		return
	}

	k.mu.Lock()
	wasLeased := k.leased
	k.leased = false
	k.listener = nil
	k.mu.Unlock()

	if !wasLeased {
		p.logger.Debug("release of unleased kernel ignored", "kernel", id)
		return
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}
	p.idle <- id
}

// Close shuts the pool down, failing pending and future Acquire calls
// and closing every kernel connection.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	var firstErr error
	for _, k := range p.kernels {
		if err := k.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MarkSuspect records that a kernel misbehaved during a lease, for
// example by never reaching idle before the caller's timeout. The
// kernel stays in rotation; the count surfaces in Stats for health
// inspection.
func (p *Pool) MarkSuspect(id string) {
	if _, ok := p.kernels[id]; !ok {
		return
	}
	p.suspect.Add(1)
	p.logger.Warn("kernel flagged for health inspection", "kernel", id)
}

// Stats is a point-in-time snapshot of pool state.
type Stats struct {
	Kernels  int    `json:"kernels"`
	Idle     int    `json:"idle"`
	Unrouted uint64 `json:"unrouted_messages"`
	Suspect  uint64 `json:"suspect_leases"`
}

// Stats reports pool size, free kernels, how many messages arrived
// with no listener registered, and how many leases were flagged as
// suspect.
func (p *Pool) Stats() Stats {
	return Stats{
		Kernels:  len(p.kernels),
		Idle:     len(p.idle),
		Unrouted: p.unrouted.Load(),
		Suspect:  p.suspect.Load(),
	}
}

// forward delivers one kernel's messages to its current listener.
// Messages arriving while no listener is registered (for example an
// idle status that lands after a timed-out request released the
// kernel) are dropped and counted.
func (p *Pool) forward(k *pooledKernel) {
	for msg := range k.conn.Messages() {
		k.mu.Lock()
		fn := k.listener
		k.mu.Unlock()

		if fn == nil {
			p.unrouted.Add(1)
			p.logger.Debug("kernel message with no listener dropped",
				"kernel", k.id, "msg_type", msg.Header.MsgType)
			continue
		}
		fn(msg)
	}
}
