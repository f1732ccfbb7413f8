// Package storage abstracts where template documents live and where
// finished archives go. The engine talks to these interfaces only; the
// filesystem implementation serves local runs and the object-store
// implementation serves deployments.
package storage

import "context"

// TemplateInfo describes one available template.
type TemplateInfo struct {
	ID   string `json:"id"`
	Size int64  `json:"size"`
}

// TemplateSource loads template documents by ID.
type TemplateSource interface {
	// Template returns the raw template bytes, or TEMPLATE_NOT_FOUND.
	Template(ctx context.Context, id string) ([]byte, error)
	// List enumerates the available templates.
	List(ctx context.Context) ([]TemplateInfo, error)
}

// ArchiveSink persists finished batch archives and serves them back.
type ArchiveSink interface {
	// Put stores the archive under name and returns an opaque handle for
	// later retrieval.
	Put(ctx context.Context, name string, data []byte) (string, error)
	// Fetch returns the archive bytes for a handle from Put.
	Fetch(ctx context.Context, handle string) ([]byte, error)
}

// Store is both halves together, as the two implementations provide.
type Store interface {
	TemplateSource
	ArchiveSink
}
