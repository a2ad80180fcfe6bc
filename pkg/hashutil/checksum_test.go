package hashutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/confset/confset/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileChecksum(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "empty_file",
			content:  "",
			expected: "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:    "file_with_content",
			content: "port = 8080\n",
		},
		{
			name:    "binary_content",
			content: "\x00\x01\x02\x03",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			sum, err := hashutil.FileChecksum(path)
			require.NoError(t, err)
			assert.Len(t, sum, 71) // "sha256:" + 64 hex chars
			if tt.expected != "" {
				assert.Equal(t, tt.expected, sum)
			}
			assert.Equal(t, hashutil.BytesChecksum([]byte(tt.content)), sum)
		})
	}
}

func TestFileChecksumMissingFile(t *testing.T) {
	_, err := hashutil.FileChecksum(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
