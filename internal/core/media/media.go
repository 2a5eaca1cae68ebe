// Package media defines the durable media archive interface.
package media

import (
	"context"
)

// Store archives attachment bytes durably, independent of the helpdesk
// backend's own file storage. A failed archive never blocks the backend
// upload; callers treat Put as best-effort.
type Store interface {
	// Put stores a blob and returns its storage id.
	Put(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// Type represents the type of media store.
type Type string

const (
	// TypeGridFS stores media in MongoDB GridFS.
	TypeGridFS Type = "gridfs"
)
