package port

import "context"

// FileStore resolves a document's file reference to a path on the local
// filesystem that the OCR backend can read.
type FileStore interface {
	// Localize returns a readable path for ref and a release func that must be
	// called once the caller is done with the file.
	Localize(ctx context.Context, ref string) (path string, release func(), err error)
	Exists(ctx context.Context, ref string) (bool, error)
}
