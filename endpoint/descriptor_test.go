package endpoint

import (
	"context"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestDescribeRequest_JSONBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/data?tag=a&tag=b", strings.NewReader(`{"count": 3}`))
	r.Header.Set("Content-Type", "application/json")

	desc, err := DescribeRequest(r)
	if err != nil {
		t.Fatalf("DescribeRequest() error = %v", err)
	}

	body, ok := desc.Body.(map[string]any)
	if !ok {
		t.Fatalf("Body type = %T, want parsed object", desc.Body)
	}
	if body["count"] != float64(3) {
		t.Errorf("Body[count] = %v, want 3", body["count"])
	}
	if !reflect.DeepEqual(desc.Args["tag"], []string{"a", "b"}) {
		t.Errorf("Args[tag] = %v, want ordered values", desc.Args["tag"])
	}
	if desc.Headers["Content-Type"] != "application/json" {
		t.Errorf("Headers[Content-Type] = %q", desc.Headers["Content-Type"])
	}
}

func TestDescribeRequest_MalformedJSONFallsBack(t *testing.T) {
	r := httptest.NewRequest("POST", "/data", strings.NewReader(`{not json`))
	r.Header.Set("Content-Type", "application/json")

	desc, err := DescribeRequest(r)
	if err != nil {
		t.Fatalf("DescribeRequest() error = %v", err)
	}
	if desc.Body != `{not json` {
		t.Errorf("Body = %v, want the raw string", desc.Body)
	}
}

func TestDescribeRequest_FormBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/data", strings.NewReader("name=hi&name=there&n=1"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	desc, err := DescribeRequest(r)
	if err != nil {
		t.Fatalf("DescribeRequest() error = %v", err)
	}
	form, ok := desc.Body.(map[string][]string)
	if !ok {
		t.Fatalf("Body type = %T, want form map", desc.Body)
	}
	if !reflect.DeepEqual(form["name"], []string{"hi", "there"}) {
		t.Errorf("Body[name] = %v", form["name"])
	}
}

func TestDescribeRequest_RawBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/data", strings.NewReader("plain payload"))
	r.Header.Set("Content-Type", "text/plain")

	desc, err := DescribeRequest(r)
	if err != nil {
		t.Fatalf("DescribeRequest() error = %v", err)
	}
	if desc.Body != "plain payload" {
		t.Errorf("Body = %v, want raw string", desc.Body)
	}
}

func TestDescribeRequest_EmptyBody(t *testing.T) {
	r := httptest.NewRequest("GET", "/data", nil)

	desc, err := DescribeRequest(r)
	if err != nil {
		t.Fatalf("DescribeRequest() error = %v", err)
	}
	if desc.Body != "" {
		t.Errorf("Body = %v, want empty string", desc.Body)
	}
}

func TestDescribeRequest_PathParams(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("name", "world")

	r := httptest.NewRequest("GET", "/hello/world", nil)
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

	desc, err := DescribeRequest(r)
	if err != nil {
		t.Fatalf("DescribeRequest() error = %v", err)
	}
	if desc.Path["name"] != "world" {
		t.Errorf("Path[name] = %q, want %q", desc.Path["name"], "world")
	}
}
