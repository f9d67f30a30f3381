package endpoint

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Translator turns an HTTP request into code a kernel can execute
// directly. It is pure: no state changes, no kernel interaction.
type Translator struct {
	sources map[string]string
}

// NewTranslator creates a translator over a method -> source snippet
// map. Method names are matched case-insensitively.
func NewTranslator(sources map[string]string) *Translator {
	normalized := make(map[string]string, len(sources))
	for method, src := range sources {
		normalized[strings.ToUpper(method)] = src
	}
	return &Translator{sources: normalized}
}

// Supports reports whether a source snippet is configured for the
// method.
func (t *Translator) Supports(method string) bool {
	_, ok := t.sources[strings.ToUpper(method)]
	return ok
}

// Translate serializes the descriptor and embeds it, as a literal
// assignment to REQUEST, ahead of the method's source snippet. The
// snippet therefore sees the full request as an in-scope JSON string.
// Returns ErrMethodNotSupported when no snippet is configured.
func (t *Translator) Translate(method string, desc RequestDescriptor) (string, error) {
	src, ok := t.sources[strings.ToUpper(method)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMethodNotSupported, method)
	}

	encoded, err := json.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("serialize request: %w", err)
	}
	// Quote the JSON document itself so the assignment is a plain
	// string literal in the kernel's language.
	literal, err := json.Marshal(string(encoded))
	if err != nil {
		return "", fmt.Errorf("serialize request: %w", err)
	}

	return fmt.Sprintf("REQUEST = %s\n%s", literal, src), nil
}
