// Package upload stores report images in two phases. A file is first staged
// under a private directory, then either committed (published under its
// reference) or released. Callers commit only after the owning database row
// is written, so a failed insert never leaves a published orphan.
package upload

import (
	"context"
	"io"
)

// Store stages image content and derives public URLs from references.
type Store interface {
	// Stage persists r privately and returns a handle whose Reference is the
	// path the file will be served under once committed. ext includes the
	// leading dot.
	Stage(ctx context.Context, ext string, r io.Reader) (Staged, error)
	// URL returns the fully-qualified URL for a stored reference.
	URL(ref string) string
}

// Staged is a file that has been written but not yet published.
type Staged interface {
	Reference() string
	// Commit publishes the file under Reference.
	Commit(ctx context.Context) error
	// Release deletes the staged file, and the published one if Commit
	// already ran. Safe to call more than once.
	Release(ctx context.Context) error
}
