package callable

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPToolInvokeGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("X-Custom", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	h := NewHTTPTool()
	out, err := h.Invoke(context.Background(), map[string]any{"url": srv.URL})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	result := out.(map[string]any)
	if result["status_code"] != http.StatusOK {
		t.Fatalf("expected 200, got %v", result["status_code"])
	}
	if result["body"] != "pong" {
		t.Fatalf("expected body 'pong', got %v", result["body"])
	}
	headers := result["headers"].(map[string]any)
	if headers["X-Custom"] != "yes" {
		t.Fatalf("expected X-Custom header to round-trip, got %+v", headers)
	}
}

func TestHTTPToolInvokePOSTWithBodyAndHeaders(t *testing.T) {
	var gotBody string
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Request-Id")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	h := NewHTTPTool()
	out, err := h.Invoke(context.Background(), map[string]any{
		"url":     srv.URL,
		"method":  "post",
		"body":    `{"name":"flowdag"}`,
		"headers": map[string]any{"X-Request-Id": "abc123"},
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if gotBody != `{"name":"flowdag"}` {
		t.Fatalf("expected request body to pass through, got %q", gotBody)
	}
	if gotHeader != "abc123" {
		t.Fatalf("expected header to pass through, got %q", gotHeader)
	}
	result := out.(map[string]any)
	if result["status_code"] != http.StatusCreated {
		t.Fatalf("expected 201, got %v", result["status_code"])
	}
}

func TestHTTPToolInvokeRequiresURL(t *testing.T) {
	h := NewHTTPTool()
	if _, err := h.Invoke(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error for missing url")
	}
}

func TestHTTPToolInvokeRejectsUnsupportedMethod(t *testing.T) {
	h := NewHTTPTool()
	_, err := h.Invoke(context.Background(), map[string]any{"url": "http://example.invalid", "method": "DELETE"})
	if err == nil {
		t.Fatal("expected error for unsupported method")
	}
}

func TestHTTPToolInvokeRespectsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewHTTPTool()
	if _, err := h.Invoke(ctx, map[string]any{"url": srv.URL}); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
