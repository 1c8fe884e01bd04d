// internal/capture/capture.go
// Package capture defines the device capture collaborator: something that
// can produce a raw media blob from the camera or microphone. The core only
// needs the opaque reference it yields; recording and encoding happen
// outside this process.
package capture

import (
	"context"
	"errors"
)

// Blob is an opaque reference to captured media plus its MIME type.
type Blob struct {
	Ref      string
	MimeType string
	Size     int64
}

// Service produces media blobs on demand.
type Service interface {
	// Capture records until the context is cancelled or the device stops,
	// then resolves with the blob or rejects with an error.
	Capture(ctx context.Context) (Blob, error)
}

// Noop is the fallback used when no capture device is attached.
type Noop struct{}

func (Noop) Capture(context.Context) (Blob, error) {
	return Blob{}, errors.New("capture device not configured")
}
