package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ajbozarth/enterprise-gateway/kernel"
)

// listenerBuffer bounds how many undelivered messages one request may
// hold before the pool's dispatch is protected by dropping.
const listenerBuffer = 256

// defaultExecutionTimeout bounds the wait for the kernel to report
// idle when no timeout is configured.
const defaultExecutionTimeout = 60 * time.Second

// Pool is the kernel pool contract the bridge consumes.
//
// Contract:
//   - Acquire may suspend; it fails under the pool's admission policy.
//   - RegisterListener routes at most one listener per kernel.
//   - Release must be safe to call exactly once per successful Acquire,
//     on every exit path.
//   - MarkSuspect flags a kernel for health inspection without taking it
//     out of rotation.
type Pool interface {
	Acquire(ctx context.Context) (kernel.Client, string, error)
	RegisterListener(id string, fn kernel.Listener) error
	Release(id string)
	MarkSuspect(id string)
}

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	// Pool leases kernels for request execution.
	// Required.
	Pool Pool

	// Translator turns requests into executable code.
	// Required.
	Translator *Translator

	// Preamble is optional setup code submitted before the translated
	// request on every execution. Its messages are never correlated
	// with the request.
	Preamble string

	// ExecutionTimeout bounds the wait for the kernel to report idle.
	// Defaults to 60s.
	ExecutionTimeout time.Duration

	// Logger is an optional logger for bridge events.
	Logger *slog.Logger
}

// Validate checks that all required fields are set.
func (c *BridgeConfig) Validate() error {
	if c.Pool == nil {
		return fmt.Errorf("bridge configuration: Pool is required")
	}
	if c.Translator == nil {
		return fmt.Errorf("bridge configuration: Translator is required")
	}
	return nil
}

func (c *BridgeConfig) applyDefaults() {
	if c.ExecutionTimeout == 0 {
		c.ExecutionTimeout = defaultExecutionTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Bridge glues one HTTP request to one kernel execution: acquire a
// lease, submit translated code, await the correlator's terminal
// result, and release the lease on every exit path.
type Bridge struct {
	pool       Pool
	translator *Translator
	preamble   string
	timeout    time.Duration
	logger     *slog.Logger

	overflow atomic.Uint64
}

// NewBridge creates a Bridge with the given configuration.
func NewBridge(cfg BridgeConfig) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &Bridge{
		pool:       cfg.Pool,
		translator: cfg.Translator,
		preamble:   cfg.Preamble,
		timeout:    cfg.ExecutionTimeout,
		logger:     cfg.Logger,
	}, nil
}

// Supports reports whether the bridge can execute the method.
func (b *Bridge) Supports(method string) bool {
	return b.translator.Supports(method)
}

// Execute runs one request against a leased kernel and returns its
// terminal result. Exactly one lease is acquired and exactly one lease
// is released per call that reaches acquisition, including on
// translation failure, submission failure, timeout, and caller
// cancellation.
func (b *Bridge) Execute(ctx context.Context, method string, desc RequestDescriptor) (TerminalResult, error) {
	// Translation is pure and happens before any pool interaction, so
	// an unsupported method touches no kernel.
	code, err := b.translator.Translate(method, desc)
	if err != nil {
		return TerminalResult{}, err
	}

	client, id, err := b.pool.Acquire(ctx)
	if err != nil {
		return TerminalResult{}, err
	}
	defer b.pool.Release(id)

	// The listener must not block the pool's dispatch loop, so it only
	// hands messages to a buffered channel consumed below.
	msgs := make(chan kernel.Message, listenerBuffer)
	deliver := func(msg kernel.Message) {
		select {
		case msgs <- msg:
		default:
			b.overflow.Add(1)
			b.logger.Warn("kernel message dropped, request buffer full",
				"kernel", id, "msg_type", msg.Header.MsgType)
		}
	}
	if err := b.pool.RegisterListener(id, deliver); err != nil {
		return TerminalResult{}, err
	}

	if b.preamble != "" {
		if _, err := client.Execute(ctx, b.preamble); err != nil {
			return TerminalResult{}, fmt.Errorf("submit preamble: %w", err)
		}
	}
	key, err := client.Execute(ctx, code)
	if err != nil {
		return TerminalResult{}, err
	}

	corr := NewCorrelator(key)
	result, err := b.await(ctx, corr, msgs)
	if errors.Is(err, ErrCorrelationTimeout) {
		b.pool.MarkSuspect(id)
	}
	if corr.ForeignMessages() > 0 {
		b.logger.Debug("uncorrelated kernel messages ignored",
			"kernel", id, "count", corr.ForeignMessages())
	}
	return result, err
}

// await consumes delivered messages until the correlator resolves, the
// execution timeout elapses, or the caller's context is done.
func (b *Bridge) await(ctx context.Context, corr *Correlator, msgs <-chan kernel.Message) (TerminalResult, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	for {
		select {
		case msg := <-msgs:
			if result, done := corr.Observe(msg); done {
				return result, nil
			}
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return TerminalResult{}, fmt.Errorf("%w: no idle status within %v", ErrCorrelationTimeout, b.timeout)
			}
			return TerminalResult{}, ctx.Err()
		}
	}
}

// Overflow reports how many kernel messages were dropped because a
// request's delivery buffer was full.
func (b *Bridge) Overflow() uint64 {
	return b.overflow.Load()
}
