package endpoint

import (
	"context"
	"sync"

	"github.com/ajbozarth/enterprise-gateway/kernel"
)

// kernelMsg builds an inbound message for tests.
func kernelMsg(key, msgType string, content map[string]any) kernel.Message {
	return kernel.Message{
		ParentHeader: kernel.Header{MsgID: key},
		Header:       kernel.Header{MsgType: msgType},
		Content:      content,
	}
}

func statusIdle(key string) kernel.Message {
	return kernelMsg(key, kernel.MsgTypeStatus, map[string]any{"execution_state": kernel.ExecutionStateIdle})
}

func streamMsg(key, text string) kernel.Message {
	return kernelMsg(key, kernel.MsgTypeStream, map[string]any{"text": text})
}

func resultMsg(key, text string) kernel.Message {
	return kernelMsg(key, kernel.MsgTypeExecuteResult, map[string]any{
		"data": map[string]any{"text/plain": text},
	})
}

func errorMsg(key, name, value string) kernel.Message {
	return kernelMsg(key, kernel.MsgTypeError, map[string]any{"ename": name, "evalue": value})
}

// spyPool is a Pool that records interactions and replays a scripted
// message sequence for each submission.
type spyPool struct {
	mu         sync.Mutex
	acquires   int
	releases   int
	suspects   int
	listener   kernel.Listener
	client     *spyClient
	acquireErr error
}

type spyClient struct {
	pool *spyPool

	mu         sync.Mutex
	executed   []string
	executeErr error

	// script maps a submission index (0-based) to the messages emitted
	// for it, keyed by the id returned from Execute.
	script func(submission int, msgID string) []kernel.Message
}

func newSpyPool() *spyPool {
	p := &spyPool{}
	p.client = &spyClient{pool: p}
	return p
}

func (p *spyPool) Acquire(ctx context.Context) (kernel.Client, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, "", p.acquireErr
	}
	p.acquires++
	return p.client, "k0", nil
}

func (p *spyPool) RegisterListener(_ string, fn kernel.Listener) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = fn
	return nil
}

func (p *spyPool) MarkSuspect(string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspects++
}

func (p *spyPool) Release(string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases++
	p.listener = nil
}

func (p *spyPool) deliver(msgs ...kernel.Message) {
	p.mu.Lock()
	fn := p.listener
	p.mu.Unlock()
	if fn == nil {
		return
	}
	for _, m := range msgs {
		fn(m)
	}
}

func (c *spyClient) Execute(_ context.Context, code string) (string, error) {
	c.mu.Lock()
	if c.executeErr != nil {
		err := c.executeErr
		c.mu.Unlock()
		return "", err
	}
	submission := len(c.executed)
	c.executed = append(c.executed, code)
	script := c.script
	c.mu.Unlock()

	msgID := "msg-" + string(rune('a'+submission))
	if script != nil {
		go c.pool.deliver(script(submission, msgID)...)
	}
	return msgID, nil
}

func (c *spyClient) executedCodes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.executed...)
}
