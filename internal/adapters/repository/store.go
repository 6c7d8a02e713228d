// Package repository persists competition and event documents as JSON files.
// Documents are small and rewritten wholesale after each change.
package repository

import "context"

// Store provides read/write access to persisted documents.
type Store interface {
	// Save writes v as JSON at path, replacing any previous content.
	Save(ctx context.Context, path string, v any) error

	// Load reads the JSON document at path into v.
	// Returns ErrNotFound if nothing is stored there.
	Load(ctx context.Context, path string, v any) error

	// Exists reports whether a document is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
}
