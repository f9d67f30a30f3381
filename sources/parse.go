package sources

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// annotationPattern matches a cell annotation line such as
// "# GET /hello/:name".
var annotationPattern = regexp.MustCompile(`^#\s*(GET|POST|PUT|DELETE)\s+(/\S*)\s*$`)

// Document is a parsed annotated source file: the endpoints it defines
// plus any leading unannotated code, which callers submit as setup
// before each request execution.
type Document struct {
	Preamble  string
	Endpoints []Endpoint
}

// Parse reads an annotated source file. Each line of the form
// "# METHOD /path" starts a cell; the lines until the next annotation
// are the snippet executed for that method and path. Code before the
// first annotation becomes the document preamble.
func Parse(r io.Reader) (Document, error) {
	var (
		doc      Document
		byPath   = map[string]*Endpoint{}
		order    []string
		preamble []string
		cell     []string
		method   string
		path     string
	)

	flush := func() {
		if method == "" {
			preamble = append(preamble, cell...)
			cell = nil
			return
		}
		ep, ok := byPath[path]
		if !ok {
			ep = &Endpoint{Path: path, Methods: map[string]string{}}
			byPath[path] = ep
			order = append(order, path)
		}
		ep.Methods[method] = strings.TrimRight(strings.Join(cell, "\n"), "\n")
		cell = nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if m := annotationPattern.FindStringSubmatch(line); m != nil {
			flush()
			method, path = m[1], m[2]
			continue
		}
		cell = append(cell, line)
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("read annotated source: %w", err)
	}
	flush()

	if len(order) == 0 {
		return Document{}, ErrNoEndpoints
	}

	doc.Preamble = strings.TrimSpace(strings.Join(preamble, "\n"))
	for _, p := range order {
		ep := byPath[p]
		if err := ep.Validate(); err != nil {
			return Document{}, err
		}
		doc.Endpoints = append(doc.Endpoints, *ep)
	}
	return doc, nil
}
