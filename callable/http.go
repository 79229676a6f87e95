package callable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dshills/flowdag/dagcore"
)

// HTTPTool is a node callable that makes an HTTP request. Parameters:
// "method" (default GET), "url" (required), "headers" (map[string]any),
// "body" (string). Output carries status_code, headers, and body.
type HTTPTool struct {
	client *http.Client
}

// NewHTTPTool builds an HTTPTool with context-driven timeouts (no fixed
// client-level timeout, so a node's own Drive context controls deadlines).
func NewHTTPTool() *HTTPTool {
	return &HTTPTool{client: &http.Client{}}
}

func (h *HTTPTool) Signature() dagcore.Signature {
	return dagcore.Signature{Params: []dagcore.ParamSpec{
		{Name: "method", HasDefault: true},
		{Name: "url"},
		{Name: "headers", HasDefault: true},
		{Name: "body", HasDefault: true},
	}}
}

func (h *HTTPTool) Invoke(ctx context.Context, params map[string]any) (any, error) {
	urlStr, ok := params["url"].(string)
	if !ok || urlStr == "" {
		return nil, fmt.Errorf("url parameter required (string)")
	}

	method := "GET"
	if m, ok := params["method"].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}
	if method != "GET" && method != "POST" {
		return nil, fmt.Errorf("unsupported HTTP method: %s (supported: GET, POST)", method)
	}

	var body io.Reader
	if bodyStr, ok := params["body"].(string); ok && bodyStr != "" {
		body = bytes.NewBufferString(bodyStr)
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if headers, ok := params["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	respHeaders := make(map[string]any, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) == 1 {
			respHeaders[k] = v[0]
		} else {
			respHeaders[k] = v
		}
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"body":        string(respBody),
	}, nil
}
