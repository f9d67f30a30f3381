package endpoint

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ajbozarth/enterprise-gateway/kernel"
)

// TerminalResult is the single outcome of one correlated execution.
type TerminalResult struct {
	Status int
	Body   string
}

// Correlator picks one submission's messages out of a kernel's shared
// stream and folds them into exactly one TerminalResult. A fresh
// Correlator is built per request and is never shared; its state needs
// no locking because messages are observed from a single goroutine.
//
// Contract:
// - Concurrency: NOT safe for concurrent use; owned by one request.
// - Observe never fails: foreign keys, unknown message types, and
//   anything after resolution are dropped.
type Correlator struct {
	key string

	stream    strings.Builder
	result    string
	hasResult bool
	errText   string
	hasErr    bool

	resolved bool
	foreign  uint64
	late     uint64
}

// NewCorrelator creates a correlator for one submission's correlation
// key. The key is set once and never reassigned.
func NewCorrelator(key string) *Correlator {
	return &Correlator{key: key}
}

// Observe classifies one kernel message and applies its effect. When
// the message is the submission's idle status, Observe computes the
// terminal result and returns it with done == true; every later call
// is a no-op.
func (c *Correlator) Observe(msg kernel.Message) (result TerminalResult, done bool) {
	if msg.CorrelationKey() != c.key {
		c.foreign++
		return TerminalResult{}, false
	}
	if c.resolved {
		c.late++
		return TerminalResult{}, false
	}

	switch msg.Header.MsgType {
	case kernel.MsgTypeStatus:
		if msg.ExecutionState() != kernel.ExecutionStateIdle {
			return TerminalResult{}, false
		}
		c.resolved = true
		return c.terminal(), true
	case kernel.MsgTypeExecuteResult:
		// Last write wins: the most recent computed value is the one
		// reported.
		c.result = msg.ResultText()
		c.hasResult = true
	case kernel.MsgTypeStream:
		c.stream.WriteString(msg.StreamText())
	case kernel.MsgTypeError:
		c.errText = fmt.Sprintf("Error %s: %s", msg.ErrorName(), msg.ErrorValue())
		c.hasErr = true
	}
	return TerminalResult{}, false
}

// Resolved reports whether the terminal result has been produced.
func (c *Correlator) Resolved() bool {
	return c.resolved
}

// ForeignMessages reports how many messages were dropped for carrying
// another submission's correlation key.
func (c *Correlator) ForeignMessages() uint64 {
	return c.foreign
}

// terminal folds the aggregation state into the single result. An
// error always wins; otherwise a computed result wins over accumulated
// stream output.
func (c *Correlator) terminal() TerminalResult {
	switch {
	case c.hasErr:
		return TerminalResult{Status: http.StatusInternalServerError, Body: c.errText}
	case c.hasResult:
		return TerminalResult{Status: http.StatusOK, Body: c.result}
	default:
		return TerminalResult{Status: http.StatusOK, Body: c.stream.String()}
	}
}
