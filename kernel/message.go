package kernel

import "encoding/json"

// Message type values emitted by a kernel that the gateway interprets.
// Any other type is ignored by consumers.
const (
	MsgTypeStatus         = "status"
	MsgTypeExecuteResult  = "execute_result"
	MsgTypeStream         = "stream"
	MsgTypeError          = "error"
	MsgTypeExecuteRequest = "execute_request"
)

// ExecutionStateIdle is the status payload value signalling that a
// submitted execution has fully completed and emitted all its messages.
const ExecutionStateIdle = "idle"

// Header identifies a message and, via ParentHeader, the submission
// that produced it.
type Header struct {
	MsgID   string `json:"msg_id"`
	MsgType string `json:"msg_type"`
	Session string `json:"session,omitempty"`
}

// Message is the wire shape consumed from a kernel. Content is kept
// untyped; accessors below extract the fields each message type carries.
type Message struct {
	ParentHeader Header         `json:"parent_header"`
	Header       Header         `json:"header"`
	Content      map[string]any `json:"content"`
}

// CorrelationKey returns the id of the submission this message belongs
// to, or the empty string when the message has no parent.
func (m Message) CorrelationKey() string {
	return m.ParentHeader.MsgID
}

// ExecutionState returns the execution_state field of a status message.
func (m Message) ExecutionState() string {
	s, _ := m.Content["execution_state"].(string)
	return s
}

// StreamText returns the text chunk carried by a stream message.
func (m Message) StreamText() string {
	s, _ := m.Content["text"].(string)
	return s
}

// ErrorName returns the ename field of an error message.
func (m Message) ErrorName() string {
	s, _ := m.Content["ename"].(string)
	return s
}

// ErrorValue returns the evalue field of an error message.
func (m Message) ErrorValue() string {
	s, _ := m.Content["evalue"].(string)
	return s
}

// ResultText renders the data bundle of an execute_result message as
// text. The text/plain representation wins when present; otherwise the
// whole bundle is rendered as JSON.
func (m Message) ResultText() string {
	data, ok := m.Content["data"].(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := data["text/plain"].(string); ok {
		return s
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(raw)
}
