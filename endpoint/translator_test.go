package endpoint

import (
	"errors"
	"strings"
	"testing"
)

func TestTranslator_Translate(t *testing.T) {
	tr := NewTranslator(map[string]string{
		"GET": "print(REQUEST)",
	})

	desc := RequestDescriptor{
		Body:    "",
		Args:    map[string][]string{"name": {"world"}},
		Path:    map[string]string{"id": "7"},
		Headers: map[string]string{"Accept": "text/plain"},
	}

	code, err := tr.Translate("GET", desc)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}

	if !strings.HasPrefix(code, `REQUEST = "`) {
		t.Errorf("code does not open with a REQUEST literal: %q", code)
	}
	if !strings.HasSuffix(code, "\nprint(REQUEST)") {
		t.Errorf("code does not end with the snippet: %q", code)
	}
	for _, fragment := range []string{`\"name\":[\"world\"]`, `\"id\":\"7\"`, `\"Accept\":\"text/plain\"`} {
		if !strings.Contains(code, fragment) {
			t.Errorf("code missing serialized fragment %q:\n%s", fragment, code)
		}
	}
}

func TestTranslator_Deterministic(t *testing.T) {
	tr := NewTranslator(map[string]string{"POST": "handle()"})
	desc := RequestDescriptor{Body: map[string]any{"k": "v"}}

	first, err := tr.Translate("POST", desc)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	second, err := tr.Translate("POST", desc)
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if first != second {
		t.Errorf("Translate() not deterministic:\n%s\n%s", first, second)
	}
}

func TestTranslator_MethodNotSupported(t *testing.T) {
	tr := NewTranslator(map[string]string{"GET": "print(1)"})

	_, err := tr.Translate("PUT", RequestDescriptor{})
	if !errors.Is(err, ErrMethodNotSupported) {
		t.Fatalf("Translate() error = %v, want ErrMethodNotSupported", err)
	}
}

func TestTranslator_MethodCaseInsensitive(t *testing.T) {
	tr := NewTranslator(map[string]string{"get": "print(1)"})

	if !tr.Supports("GET") {
		t.Error("Supports(GET) = false for lower-case configured method")
	}
	if tr.Supports("DELETE") {
		t.Error("Supports(DELETE) = true, want false")
	}
}
