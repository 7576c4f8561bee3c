package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestIsSnapshotPath(t *testing.T) {
	assert.True(t, IsSnapshotPath("/tmp/a.png"))
	assert.True(t, IsSnapshotPath("shot.JPG"))
	assert.False(t, IsSnapshotPath("shot.gif"))
	assert.False(t, IsSnapshotPath("noext"))
}

func TestSaveFrame(t *testing.T) {
	dir := t.TempDir()

	f := NewFrame(solid(24, 32, gocv.MatTypeCV8UC1, 77))
	defer f.Close()

	path := filepath.Join(dir, "frame.png")
	require.NoError(t, SaveFrame(f, path))

	back := gocv.IMRead(path, gocv.IMReadGrayScale)
	defer back.Close()
	require.False(t, back.Empty())
	assert.Equal(t, 32, back.Cols())
	assert.Equal(t, 24, back.Rows())
	assert.Equal(t, uint8(77), back.GetUCharAt(5, 5))

	assert.ErrorIs(t, SaveFrame(f, filepath.Join(dir, "frame.gif")), ErrUnsupportedImageFormat)

	var none *Frame
	assert.ErrorIs(t, SaveFrame(none, filepath.Join(dir, "none.png")), ErrEmptyFrame)
}
