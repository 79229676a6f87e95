// Package batch runs a flow over a row source, fanning out line executions
// with bounded concurrency and assembling the per-line and aggregation
// results into an output directory.
package batch

import (
	"fmt"
	"strings"
)

// MultimediaRef is a decoded `{"data:<mime>;<kind>": <value>}` discriminated
// object from a row or node output. Kind is one of "path", "base64", "url".
type MultimediaRef struct {
	MIME  string
	Kind  string
	Value string
}

// MarshalJSON renders as null. A MultimediaRef inside a line's output is
// always rewritten in place by the output sink before the final bytes reach
// a caller; null is a safe placeholder if that rewrite is ever skipped.
func (m MultimediaRef) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Descriptor renders the `{"data:<mime>;<kind>": value}` discriminated form.
func (m MultimediaRef) Descriptor() map[string]any {
	return map[string]any{multimediaKeyPrefix + m.MIME + ";" + m.Kind: m.Value}
}

const multimediaKeyPrefix = "data:"

// decodeMultimediaKey splits a "data:<mime>;<kind>" map key into its MIME
// type and kind, reporting ok=false for anything else.
func decodeMultimediaKey(key string) (mime, kind string, ok bool) {
	if !strings.HasPrefix(key, multimediaKeyPrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(key, multimediaKeyPrefix)
	mime, kind, found := strings.Cut(rest, ";")
	if !found || mime == "" || kind == "" {
		return "", "", false
	}
	return mime, kind, true
}

// mediaRefLocation pairs a MultimediaRef with the sjson path it was found
// at inside a marshaled output, so the sink can rewrite it after the fact
// instead of threading storage calls through arbitrary node output shapes.
type mediaRefLocation struct {
	Path string
	Ref  MultimediaRef
}

// collectMultimediaRefs walks v (a decoded node output, or nested map/slice
// within one) recording every MultimediaRef found, with prefix as the
// sjson-path root to rewrite it at.
func collectMultimediaRefs(prefix string, v any, out *[]mediaRefLocation) {
	switch t := v.(type) {
	case MultimediaRef:
		*out = append(*out, mediaRefLocation{Path: prefix, Ref: t})
	case map[string]any:
		for key, val := range t {
			collectMultimediaRefs(joinPath(prefix, key), val, out)
		}
	case []any:
		for i, val := range t {
			collectMultimediaRefs(fmt.Sprintf("%s.%d", prefix, i), val, out)
		}
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// walkDecodeMultimedia recursively replaces single-key multimedia
// discriminated objects found anywhere in v with a MultimediaRef, leaving
// every other value untouched.
func walkDecodeMultimedia(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			for key, val := range t {
				if mime, kind, ok := decodeMultimediaKey(key); ok {
					if s, ok := val.(string); ok {
						return MultimediaRef{MIME: mime, Kind: kind, Value: s}
					}
				}
			}
		}
		out := make(map[string]any, len(t))
		for key, val := range t {
			out[key] = walkDecodeMultimedia(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = walkDecodeMultimedia(val)
		}
		return out
	default:
		return v
	}
}
