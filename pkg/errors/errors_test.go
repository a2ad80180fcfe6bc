package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/confset/confset/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := errors.New(errors.ErrNotFound, "config set missing")
	assert.Equal(t, errors.ErrNotFound, err.Code)
	assert.Equal(t, "[NOT_FOUND] config set missing", err.Error())
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := errors.Wrap(cause, errors.ErrIOFailure, "failed to copy snapshot file")

	require.NotNil(t, err)
	assert.Equal(t, errors.ErrIOFailure, err.Code)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrIOFailure, "no-op"))
	assert.Nil(t, errors.Wrapf(nil, errors.ErrIOFailure, "no-op %d", 1))
}

func TestIsMatchesByCode(t *testing.T) {
	err := errors.Newf(errors.ErrConflict, "path %q is a regular file", "/etc/app.conf")
	target := errors.New(errors.ErrConflict, "")

	assert.True(t, stderrors.Is(err, target))
	assert.False(t, stderrors.Is(err, errors.New(errors.ErrNotFound, "")))
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := errors.New(errors.ErrNotManaged, "z.txt not in manifest")
	outer := fmt.Errorf("remove failed: %w", inner)

	assert.True(t, errors.IsCode(outer, errors.ErrNotManaged))
	assert.Equal(t, errors.ErrNotManaged, errors.CodeOf(outer))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, errors.ErrUnknown, errors.CodeOf(fmt.Errorf("boom")))
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrInconsistent, "live tree ahead of manifest").
		WithDetail("path", "etc/app/config.ini")
	assert.Equal(t, "etc/app/config.ini", err.Details["path"])
}
