package batch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/sjson"

	"github.com/dshills/flowdag/dagcore"
	"github.com/dshills/flowdag/sidecar"
)

// LineOutput is one line's entry in outputs.jsonl. line_number is the first
// JSON field by virtue of struct field order.
type LineOutput struct {
	LineNumber   int                             `json:"line_number"`
	Output       map[string]any                  `json:"output"`
	Warnings     []string                         `json:"warnings,omitempty"`
	RunInfo      dagcore.RunInfo                  `json:"run_info"`
	NodeRunInfos map[string]*dagcore.NodeRunInfo  `json:"node_run_infos"`
}

// OutputSink writes outputs.jsonl plus side-car files for multimedia
// artifacts a node output references.
type OutputSink struct {
	file    *os.File
	sidecar sidecar.Store
}

// NewOutputSink creates (or truncates) outputs.jsonl under outDir. sc may be
// nil, in which case base64-embedded multimedia outputs are left untouched
// rather than externalized to a side-car file.
func NewOutputSink(outDir string, sc sidecar.Store) (*OutputSink, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("batch: create output dir: %w", err)
	}
	f, err := os.Create(filepath.Join(outDir, "outputs.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("batch: create outputs.jsonl: %w", err)
	}
	return &OutputSink{file: f, sidecar: sc}, nil
}

// Write appends one line's result, rewriting any base64 multimedia output
// into a side-car file reference.
func (s *OutputSink) Write(ctx context.Context, line LineOutput) error {
	raw, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("batch: marshal line %d: %w", line.LineNumber, err)
	}

	if len(line.Output) > 0 {
		var locs []mediaRefLocation
		collectMultimediaRefs("output", line.Output, &locs)
		for i, loc := range locs {
			if loc.Ref.Kind != "base64" || s.sidecar == nil {
				raw, err = sjson.SetBytes(raw, loc.Path, loc.Ref.Descriptor())
				if err != nil {
					return fmt.Errorf("batch: rewrite multimedia at %q: %w", loc.Path, err)
				}
				continue
			}
			data, err := base64.StdEncoding.DecodeString(loc.Ref.Value)
			if err != nil {
				return fmt.Errorf("batch: decode base64 output at %q: %w", loc.Path, err)
			}
			name := fmt.Sprintf("artifact_%d%s", i, extensionFor(loc.Ref.MIME))
			ref, err := s.sidecar.Put(ctx, line.LineNumber, name, loc.Ref.MIME, data)
			if err != nil {
				return fmt.Errorf("batch: store side-car artifact: %w", err)
			}
			descriptor := map[string]any{multimediaKeyPrefix + loc.Ref.MIME + ";path": ref}
			raw, err = sjson.SetBytes(raw, loc.Path, descriptor)
			if err != nil {
				return fmt.Errorf("batch: rewrite multimedia at %q: %w", loc.Path, err)
			}
		}
	}

	raw = append(raw, '\n')
	if _, err := s.file.Write(raw); err != nil {
		return fmt.Errorf("batch: write line %d: %w", line.LineNumber, err)
	}
	return nil
}

// Close flushes and closes outputs.jsonl.
func (s *OutputSink) Close() error {
	return s.file.Close()
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "audio/wav":
		return ".wav"
	default:
		return ""
	}
}
