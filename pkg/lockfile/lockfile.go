// Package lockfile serializes mutating operations on a config
// repository through an advisory lock file.
package lockfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/logging"
	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds how long Acquire waits for a contended lock.
	DefaultTimeout = 10 * time.Second

	pollInterval = 100 * time.Millisecond
)

// Lock is a held repository lock. Release it when the mutation is done.
type Lock struct {
	path   string
	logger zerolog.Logger
}

// Acquire takes the lock at path, waiting up to timeout for a holder to
// release it. The lock file is created with O_EXCL and carries the
// holder's pid so a stale lock can be diagnosed by hand.
func Acquire(path string, timeout time.Duration) (*Lock, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := logging.GetLogger("lockfile")

	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			if cerr := f.Close(); cerr != nil {
				_ = os.Remove(path)
				return nil, errors.Wrap(cerr, errors.ErrIOFailure, "failed to write lock file")
			}
			logger.Debug().Str("path", path).Msg("Lock acquired")
			return &Lock{path: path, logger: logger}, nil
		}
		if !os.IsExist(err) {
			return nil, errors.Wrapf(err, errors.ErrIOFailure, "failed to create lock file %s", path)
		}
		if time.Now().After(deadline) {
			holder := holderPid(path)
			if holder != "" {
				return nil, errors.Newf(errors.ErrLocked,
					"repository is locked by pid %s (lock file %s)", holder, path)
			}
			return nil, errors.Newf(errors.ErrLocked, "repository is locked (lock file %s)", path)
		}
		time.Sleep(pollInterval)
	}
}

// Release removes the lock file. Releasing twice is harmless.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to remove lock file %s", l.path)
	}
	l.logger.Debug().Str("path", l.path).Msg("Lock released")
	return nil
}

// holderPid reads the pid recorded in an existing lock file, if any.
func holderPid(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	pid := strings.TrimSpace(string(data))
	if _, err := strconv.Atoi(pid); err != nil {
		return ""
	}
	return pid
}
