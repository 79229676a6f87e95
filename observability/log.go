package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes the domain event stream to a writer, either as
// human-readable text or as JSON Lines.
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter builds a LogEmitter. A nil writer defaults to os.Stdout.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(event Event) {
	if l.jsonMode {
		l.emitJSON(event)
		return
	}
	l.emitText(event)
}

func (l *LogEmitter) emitJSON(event Event) {
	data, err := json.Marshal(struct {
		RunID     string         `json:"runID"`
		LineIndex int            `json:"lineIndex"`
		NodeName  string         `json:"nodeName"`
		Msg       string         `json:"msg"`
		Meta      map[string]any `json:"meta,omitempty"`
	}{event.RunID, event.LineIndex, event.NodeName, event.Msg, event.Meta})
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) emitText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s] runID=%s line=%d node=%s", event.Msg, event.RunID, event.LineIndex, event.NodeName)
	if len(event.Meta) > 0 {
		if metaJSON, err := json.Marshal(event.Meta); err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		}
	}
	_, _ = fmt.Fprint(l.writer, "\n")
}

func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		l.Emit(e)
	}
	return nil
}

// Flush is a no-op: LogEmitter writes synchronously with no internal buffer.
func (l *LogEmitter) Flush(context.Context) error { return nil }
