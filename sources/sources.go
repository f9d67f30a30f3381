// Package sources defines HTTP endpoint sources: the mapping from a
// URL path to the code snippets executed for each HTTP method, plus
// parsing of annotated source files into that mapping.
package sources

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoEndpoints is returned when a parsed document defines no
// annotated endpoints.
var ErrNoEndpoints = errors.New("no annotated endpoints found")

// supportedMethods are the HTTP methods an annotation may name.
var supportedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
}

// Endpoint maps one URL path to its per-method source snippets.
type Endpoint struct {
	// Path is the URL path, possibly containing :name parameters.
	Path string `mapstructure:"path"`

	// Methods maps an upper-case HTTP method to the snippet executed
	// for it.
	Methods map[string]string `mapstructure:"methods"`
}

// Validate checks that the endpoint names a path and only supported
// methods.
func (e *Endpoint) Validate() error {
	if e.Path == "" {
		return fmt.Errorf("endpoint path is required")
	}
	if !strings.HasPrefix(e.Path, "/") {
		return fmt.Errorf("endpoint path %q must start with /", e.Path)
	}
	if len(e.Methods) == 0 {
		return fmt.Errorf("endpoint %s defines no methods", e.Path)
	}
	for method := range e.Methods {
		if !supportedMethods[strings.ToUpper(method)] {
			return fmt.Errorf("endpoint %s: unsupported method %q", e.Path, method)
		}
	}
	return nil
}

var pathParamPattern = regexp.MustCompile(`/:([A-Za-z_][A-Za-z0-9_]*)`)

// ParameterizePath rewrites :name path parameters into the {name} form
// the router matches on.
func ParameterizePath(path string) string {
	return pathParamPattern.ReplaceAllString(path, "/{$1}")
}
