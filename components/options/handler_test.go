package options

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

type handlerResponse struct {
	Data []Option `json:"data"`
}

var languages = []Option{
	{Value: "go", Label: "Go"},
	{Value: "rust", Label: "Rust"},
	{Value: "ts", Label: "TypeScript"},
	{Value: "gleam", Label: "Gleam"},
}

func serve(t *testing.T, h http.Handler, target string) (*http.Response, handlerResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := rec.Result()
	var payload handlerResponse
	if res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return res, payload
}

func TestHandler_EmptyQuery(t *testing.T) {
	res, payload := serve(t, Handler(Static(languages), WithDefaultLimit(2)), "/api/options")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}
	if diff := cmp.Diff(languages[:2], payload.Data); diff != "" {
		t.Fatalf("top options mismatch (-want +got):\n%s", diff)
	}

	_, payload = serve(t, Handler(Static(languages), WithEmptySearchMode(EmptySearchNone)), "/api/options")
	if payload.Data == nil || len(payload.Data) != 0 {
		t.Fatalf("expected empty data array, got %#v", payload.Data)
	}
}

func TestHandler_SearchAndLimitClamped(t *testing.T) {
	h := Handler(Static(languages), WithMaxLimit(2))

	_, payload := serve(t, h, "/api/options?q=g&limit=10")
	want := []Option{{Value: "go", Label: "Go"}, {Value: "gleam", Label: "Gleam"}}
	if diff := cmp.Diff(want, payload.Data); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	_, payload = serve(t, h, "/api/options?q=script")
	if diff := cmp.Diff([]Option{{Value: "ts", Label: "TypeScript"}}, payload.Data); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_FieldAndErrors(t *testing.T) {
	source := func(_ *http.Request, field string) ([]Option, error) {
		switch field {
		case "language":
			return languages, nil
		case "broken":
			return nil, errors.New("boom")
		default:
			return nil, ErrUnknownField
		}
	}
	h := Handler(source, WithFieldParam("f"))

	res, payload := serve(t, h, "/api/options?f=language&q=rust")
	if res.StatusCode != http.StatusOK || len(payload.Data) != 1 {
		t.Fatalf("unexpected response %d %#v", res.StatusCode, payload.Data)
	}
	if res, _ := serve(t, h, "/api/options?f=nope"); res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
	if res, _ := serve(t, h, "/api/options?f=broken"); res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.StatusCode)
	}
}

func TestHandler_GuardAndMethod(t *testing.T) {
	h := Handler(Static(languages), WithGuard(func(r *http.Request) error {
		if r.Header.Get("X-Token") == "" {
			return StatusError{Code: http.StatusUnauthorized}
		}
		return nil
	}))
	if res, _ := serve(t, h, "/api/options"); res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/options", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed || rec.Header().Get("Allow") == "" {
		t.Fatalf("expected 405 with Allow, got %d", rec.Code)
	}
}
