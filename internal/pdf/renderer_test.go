package pdf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMissingFont(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.ttf"))
	assert.Error(t, err)
}

func TestNewDirectoryFont(t *testing.T) {
	_, err := New(t.TempDir())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "directory")
}
