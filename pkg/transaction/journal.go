package transaction

import (
	"github.com/confset/confset/pkg/types"
	"github.com/rs/zerolog"
)

// journal records inverse operations as a commit progresses. On
// failure the inverses run newest-first, restoring the pre-commit
// state; on success the staged backups it tracked are purged.
type journal struct {
	fs     types.FS
	logger zerolog.Logger
	undos  []func() error
	staged []string
}

func newJournal(fs types.FS, logger zerolog.Logger) *journal {
	return &journal{fs: fs, logger: logger}
}

// undo registers the inverse of the step that just succeeded.
func (j *journal) undo(fn func() error) {
	j.undos = append(j.undos, fn)
}

// stage marks a backup path for deletion once the commit succeeds.
func (j *journal) stage(path string) {
	j.staged = append(j.staged, path)
}

// rollback applies the recorded inverses in reverse order. Inverse
// failures are logged and skipped so as much state as possible is
// restored.
func (j *journal) rollback() {
	for i := len(j.undos) - 1; i >= 0; i-- {
		if err := j.undos[i](); err != nil {
			j.logger.Error().Err(err).Msg("Rollback step failed")
		}
	}
	j.undos = nil
}

// purge deletes staged backups after a successful commit.
func (j *journal) purge() {
	for _, path := range j.staged {
		if err := j.fs.RemoveAll(path); err != nil {
			j.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove staged backup")
		}
	}
	j.staged = nil
	j.undos = nil
}
