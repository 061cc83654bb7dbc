package acquire

import (
	"os"
	"sync"
)

// Artifact is acquired content parked in its own temporary directory for
// the duration of one upload attempt.
type Artifact struct {
	Name string // display name for the remote object
	Path string
	Size int64

	dir       string
	closeOnce sync.Once
	closeErr  error
}

// Open returns a reader over the artifact's content.
func (a *Artifact) Open() (*os.File, error) {
	return os.Open(a.Path)
}

// Close removes the artifact and its directory. It is safe to call more than
// once.
func (a *Artifact) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = os.RemoveAll(a.dir)
	})
	return a.closeErr
}
