// Package sidecar stores multimedia artifacts a node output references,
// local disk by default or S3 when configured, so a line's JSON output can
// carry a small relative path rather than an inline binary blob.
package sidecar

import "context"

// Store persists one artifact per Put call and returns the reference string
// to embed back into the line's output under a data:<mime>;path descriptor.
type Store interface {
	Put(ctx context.Context, lineIndex int, name string, mime string, data []byte) (ref string, err error)
}
