package file

import (
	"fmt"
	"os"
	"path/filepath"
)

const partSuffix = ".part"

// Storage provides a simple file-based storage backend.
// It stores output files directly under a base directory on the local
// filesystem.
type Storage struct {
	basePath string
}

// NewStorage creates a new Storage instance with the given basePath.
func NewStorage(basePath string) *Storage {
	return &Storage{basePath: basePath}
}

// BasePath returns the directory files are stored in.
func (s *Storage) BasePath() string {
	return s.basePath
}

// Prepare creates the base directory when missing and checks that files
// can be created in it.
func (s *Storage) Prepare() error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.basePath, err)
	}

	probe, err := os.CreateTemp(s.basePath, ".probe-*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", s.basePath, err)
	}
	name := probe.Name()
	_ = probe.Close()

	return os.Remove(name)
}

// Path returns the full path of filename inside the storage.
func (s *Storage) Path(filename string) string {
	return filepath.Join(s.basePath, filename)
}

// Save writes data to filename through a temporary ".part" file renamed into
// place, so a failed write never leaves a truncated output behind.
func (s *Storage) Save(filename string, data []byte) (string, error) {
	dstPath := s.Path(filename)
	partPath := dstPath + partSuffix

	if err := os.WriteFile(partPath, data, 0o644); err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("failed to write file %s: %w", partPath, err)
	}

	if err := os.Rename(partPath, dstPath); err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("failed to move file into place %s: %w", dstPath, err)
	}

	return dstPath, nil
}

// Load reads the file at path. Sources live outside the storage, so path is
// used as given.
func (s *Storage) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

// Delete removes filename from storage.
func (s *Storage) Delete(filename string) error {
	return os.Remove(s.Path(filename))
}
