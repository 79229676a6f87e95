package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// RowSource yields row records one at a time. Next returns ok=false with a
// nil error once the source is exhausted.
type RowSource interface {
	Next(ctx context.Context) (row map[string]any, ok bool, err error)
}

// JSONLRowSource reads newline-delimited JSON objects, decoding any
// `{"data:<mime>;<kind>": <value>}` discriminated field into a
// MultimediaRef.
type JSONLRowSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLRowSource wraps r as a RowSource over its newline-delimited JSON
// records.
func NewJSONLRowSource(r io.Reader) *JSONLRowSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &JSONLRowSource{scanner: scanner}
}

func (s *JSONLRowSource) Next(ctx context.Context) (map[string]any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	for s.scanner.Scan() {
		s.line++
		text := s.scanner.Bytes()
		if len(bytes.TrimSpace(text)) == 0 {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal(text, &row); err != nil {
			return nil, false, fmt.Errorf("batch: row %d: %w", s.line, err)
		}
		decoded, _ := walkDecodeMultimedia(row).(map[string]any)
		return decoded, true, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, false, fmt.Errorf("batch: scan rows: %w", err)
	}
	return nil, false, nil
}
