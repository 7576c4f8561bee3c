package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// ErrUnsupportedImageFormat is returned for snapshot paths OpenCV cannot encode.
var ErrUnsupportedImageFormat = errors.New("unsupported image format")

// SnapshotExtensions lists the file extensions SaveFrame accepts.
var SnapshotExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff"}

// SaveFrame writes the frame's pixels to path, picking the encoder from the
// extension.
func SaveFrame(f *Frame, path string) error {
	if f.Empty() {
		return fmt.Errorf("save %s: %w", path, ErrEmptyFrame)
	}
	if !IsSnapshotPath(path) {
		return fmt.Errorf("save %s: %w", path, ErrUnsupportedImageFormat)
	}
	if !gocv.IMWrite(path, f.Mat) {
		return fmt.Errorf("failed to save image: %s", path)
	}
	return nil
}

func IsSnapshotPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SnapshotExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
