package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lysyi3m/memo-comb/app/memo"
)

// Store persists the watermark: the highest memo number processed so far.
type Store interface {
	Load() (int, error)
	Save(watermark int) error
}

var _ Store = (*FileStore)(nil)

// FileStore keeps the watermark as a decimal integer in a text file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the stored watermark. A missing file is watermark 0 with no
// error; an unreadable or corrupt file is watermark 0 with an error wrapping
// memo.ErrStateIO so the caller can warn and continue.
func (s *FileStore) Load() (int, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read %s: %v", memo.ErrStateIO, s.path, err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return 0, nil
	}

	watermark, err := strconv.Atoi(value)
	if err != nil || watermark < 0 {
		return 0, fmt.Errorf("%w: corrupt watermark %q in %s", memo.ErrStateIO, value, s.path)
	}

	return watermark, nil
}

// Save replaces the stored watermark through a temp file and rename so a
// crash never leaves a half-written value behind.
func (s *FileStore) Save(watermark int) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", memo.ErrStateIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".watermark-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", memo.ErrStateIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.Itoa(watermark)); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: failed to write watermark: %v", memo.ErrStateIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %v", memo.ErrStateIO, err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: failed to replace %s: %v", memo.ErrStateIO, s.path, err)
	}

	return nil
}

// Advance returns the watermark to persist after a run that saw listingMax
// as its highest memo number. It never moves backwards.
func Advance(previous, listingMax int) int {
	return max(previous, listingMax)
}
