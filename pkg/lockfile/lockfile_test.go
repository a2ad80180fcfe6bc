package lockfile_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/confset/confset/pkg/errors"
	"github.com/confset/confset/pkg/lockfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	lock, err := lockfile.Acquire(path, time.Second)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestContendedLockTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	lock, err := lockfile.Acquire(path, time.Second)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	start := time.Now()
	_, err = lockfile.Acquire(path, 300*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrLocked))
	assert.Contains(t, err.Error(), strconv.Itoa(os.Getpid()))
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}

func TestLockReacquirableAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	first, err := lockfile.Acquire(path, time.Second)
	require.NoError(t, err)
	require.NoError(t, first.Release())

	second, err := lockfile.Acquire(path, time.Second)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestReleaseTwiceIsHarmless(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lock")

	lock, err := lockfile.Acquire(path, time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())
}
