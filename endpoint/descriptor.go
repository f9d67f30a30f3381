package endpoint

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// RequestDescriptor is the immutable snapshot of one HTTP request that
// gets handed to the kernel. One instance is built per request.
type RequestDescriptor struct {
	// Body is the parsed request body: a structured value for JSON
	// payloads, a name->values map for form payloads, a string otherwise.
	Body any `json:"body"`

	// Args maps each query argument name to its ordered values.
	Args map[string][]string `json:"args"`

	// Path maps each path parameter name to its matched value.
	Path map[string]string `json:"path"`

	// Headers maps each header name to its first value.
	Headers map[string]string `json:"headers"`
}

// DescribeRequest builds a RequestDescriptor from an incoming request.
// Path parameters are taken from the chi route context.
func DescribeRequest(r *http.Request) (RequestDescriptor, error) {
	desc := RequestDescriptor{
		Args:    map[string][]string{},
		Path:    map[string]string{},
		Headers: map[string]string{},
	}

	for name, values := range r.URL.Query() {
		desc.Args[name] = values
	}
	for name := range r.Header {
		desc.Headers[name] = r.Header.Get(name)
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for i, name := range rctx.URLParams.Keys {
			desc.Path[name] = rctx.URLParams.Values[i]
		}
	}

	body, err := parseBody(r)
	if err != nil {
		return RequestDescriptor{}, err
	}
	desc.Body = body
	return desc, nil
}

// parseBody decodes the request body by content type. JSON payloads
// that fail to parse fall back to the raw string rather than failing
// the request.
func parseBody(r *http.Request) (any, error) {
	if r.Body == nil {
		return "", nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return "", nil
	}

	ctype, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ctype {
	case "application/json":
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		return string(raw), nil
	case "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return string(raw), nil
		}
		return map[string][]string(form), nil
	default:
		return string(raw), nil
	}
}
