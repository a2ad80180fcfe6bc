// Package fetch resolves remote config-set references into local
// directories. The engine consumes the resulting directory as a
// template source and never deals with transport itself.
package fetch

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/confset/confset/pkg/archive"
	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/logging"
)

// Fetcher materializes a remote reference as a local directory. The
// cleanup function releases any temporary storage and is safe to call
// even after an error.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (dir string, cleanup func(), err error)
}

// DirFetcher treats the reference as a local directory path. It backs
// pulls from mounted shares and checkouts.
type DirFetcher struct{}

// Fetch validates that ref is an existing directory and returns it
// directly; there is nothing to clean up.
func (DirFetcher) Fetch(_ context.Context, ref string) (string, func(), error) {
	info, err := os.Stat(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return "", func() {}, errors.Newf(errors.ErrNotFound, "bundle directory %s does not exist", ref)
		}
		return "", func() {}, errors.Wrapf(err, errors.ErrIOFailure, "failed to inspect %s", ref)
	}
	if !info.IsDir() {
		return "", func() {}, errors.Newf(errors.ErrInvalidInput, "%s is not a directory", ref)
	}
	return ref, func() {}, nil
}

// HTTPFetcher downloads a gzipped tar bundle over HTTP(S) and extracts
// it into a temporary directory. Transient transport failures are
// retried here; the engine itself never retries.
type HTTPFetcher struct {
	Client  *http.Client
	Retries int
}

// NewHTTPFetcher returns a fetcher with a bounded-timeout client and
// two retries on transport errors.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client:  &http.Client{Timeout: 60 * time.Second},
		Retries: 2,
	}
}

// Fetch downloads ref and extracts the archive into a fresh temp
// directory. The caller owns the directory until cleanup is called.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) (string, func(), error) {
	logger := logging.GetLogger("fetch.http")
	noop := func() {}

	var lastErr error
	for attempt := 0; attempt <= f.Retries; attempt++ {
		if attempt > 0 {
			logger.Warn().Err(lastErr).Int("attempt", attempt).Str("ref", ref).Msg("Retrying fetch")
			select {
			case <-ctx.Done():
				return "", noop, errors.Wrap(ctx.Err(), errors.ErrIOFailure, "fetch cancelled")
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		dir, err := f.fetchOnce(ctx, ref)
		if err == nil {
			return dir, func() { _ = os.RemoveAll(dir) }, nil
		}
		lastErr = err
		if errors.IsCode(err, errors.ErrNotFound) || errors.IsCode(err, errors.ErrInvalidInput) {
			return "", noop, err
		}
	}
	return "", noop, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, ref string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "invalid bundle reference %q", ref)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIOFailure, "failed to fetch %s", ref)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", errors.Newf(errors.ErrNotFound, "bundle %s not found (HTTP 404)", ref)
	case resp.StatusCode != http.StatusOK:
		return "", errors.Newf(errors.ErrIOFailure, "fetching %s returned HTTP %d", ref, resp.StatusCode)
	}

	dir, err := os.MkdirTemp("", "confset-fetch-")
	if err != nil {
		return "", errors.Wrap(err, errors.ErrIOFailure, "failed to create temp directory")
	}
	if err := archive.Extract(resp.Body, dir); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	return dir, nil
}

var _ Fetcher = DirFetcher{}
var _ Fetcher = (*HTTPFetcher)(nil)
