package pipeline

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
)

// Lock is an exclusive run lock backed by an O_EXCL lock file. The pipeline
// is single-flight: a second invocation while one is running must fail fast,
// not interleave writes.
type Lock struct {
	path string
}

// AcquireLock creates the lock file, failing if it already exists.
func AcquireLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, eris.Errorf("pipeline: lock %s held by another run (remove it if that run crashed)", path)
		}
		return nil, eris.Wrapf(err, "pipeline: acquire lock %s", path)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		return nil, eris.Wrapf(err, "pipeline: write lock %s", path)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil {
		return eris.Wrapf(err, "pipeline: release lock %s", l.path)
	}
	return nil
}
