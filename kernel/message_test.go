package kernel

import (
	"encoding/json"
	"testing"
)

func TestMessage_Accessors(t *testing.T) {
	raw := `{
		"parent_header": {"msg_id": "abc"},
		"header": {"msg_id": "def", "msg_type": "error"},
		"content": {"ename": "ValueError", "evalue": "bad"}
	}`
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if msg.CorrelationKey() != "abc" {
		t.Errorf("CorrelationKey() = %q, want abc", msg.CorrelationKey())
	}
	if msg.ErrorName() != "ValueError" || msg.ErrorValue() != "bad" {
		t.Errorf("error fields = (%q, %q)", msg.ErrorName(), msg.ErrorValue())
	}
}

func TestMessage_ResultText(t *testing.T) {
	tests := []struct {
		name    string
		content map[string]any
		want    string
	}{
		{
			"text plain preferred",
			map[string]any{"data": map[string]any{"text/plain": "42", "text/html": "<b>42</b>"}},
			"42",
		},
		{
			"json fallback",
			map[string]any{"data": map[string]any{"application/json": map[string]any{"n": float64(1)}}},
			`{"application/json":{"n":1}}`,
		},
		{
			"missing data",
			map[string]any{},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Message{Content: tt.content}
			if got := msg.ResultText(); got != tt.want {
				t.Errorf("ResultText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage_MissingFieldsAreEmpty(t *testing.T) {
	var msg Message
	if msg.ExecutionState() != "" || msg.StreamText() != "" || msg.CorrelationKey() != "" {
		t.Error("zero message accessors should return empty strings")
	}
}
