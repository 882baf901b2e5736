// Package scanner expands user supplied paths into image files.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// imageExtensions lists the source extensions picked up from directories.
var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "webp": true, "gif": true,
	"bmp": true, "tif": true, "tiff": true, "avif": true, "heic": true, "heif": true,
}

// IsImage reports whether path has a known image extension.
func IsImage(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return imageExtensions[ext]
}

// Expand replaces every directory in paths with the image files below it,
// in lexical order. Plain files are kept as given, whatever their extension,
// and duplicates are preserved. Paths are made absolute. A path that does
// not exist is kept too; the batch reports it as an unreadable file.
func Expand(paths []string) ([]string, error) {
	var out []string

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}

		info, err := os.Stat(abs)
		if errors.Is(err, fs.ErrNotExist) {
			out = append(out, abs)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		if !info.IsDir() {
			out = append(out, abs)
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !IsImage(path) {
				return nil
			}
			out = append(out, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", p, err)
		}
	}

	return out, nil
}
