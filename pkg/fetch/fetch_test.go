package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/confset/confset/pkg/archive"
	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirFetcherReturnsExistingDirectory(t *testing.T) {
	dir := t.TempDir()

	got, cleanup, err := fetch.DirFetcher{}.Fetch(context.Background(), dir)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, dir, got)
}

func TestDirFetcherMissingDirectory(t *testing.T) {
	_, _, err := fetch.DirFetcher{}.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
}

func TestDirFetcherRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, _, err := fetch.DirFetcher{}.Fetch(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidInput))
}

func TestHTTPFetcherExtractsBundle(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "config.ini"), []byte("a = 1"), 0644))
	bundle := filepath.Join(t.TempDir(), "bundle.tar.gz")
	require.NoError(t, archive.Create(src, bundle))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, bundle)
	}))
	defer server.Close()

	f := fetch.NewHTTPFetcher()
	dir, cleanup, err := f.Fetch(context.Background(), server.URL+"/bundle.tar.gz")
	require.NoError(t, err)
	defer cleanup()

	data, err := os.ReadFile(filepath.Join(dir, "config.ini"))
	require.NoError(t, err)
	assert.Equal(t, "a = 1", string(data))

	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestHTTPFetcherNotFoundDoesNotRetry(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := fetch.NewHTTPFetcher()
	_, _, err := f.Fetch(context.Background(), server.URL+"/missing.tar.gz")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrNotFound))
	assert.Equal(t, 1, hits)
}

func TestHTTPFetcherRetriesServerErrors(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := fetch.NewHTTPFetcher()
	f.Retries = 2
	_, _, err := f.Fetch(context.Background(), server.URL+"/flaky.tar.gz")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrIOFailure))
	assert.Equal(t, 3, hits)
}
