package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/EternisAI/netharvest/internal/credential"
)

// ErrNotExist is returned by ReadSet when the file is absent.
var ErrNotExist = errors.New("set file does not exist")

// rename is swapped in tests to simulate a crash between write and rename.
var rename = os.Rename

// WriteFileAtomic writes data to a temporary file in the destination directory
// and renames it over path. A failure at any step leaves the previous file
// untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := tmpFile.Chmod(perm); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", tmpPath, path, err)
	}

	success = true
	return nil
}

// WriteSet persists a credential set in its canonical on-disk form.
func WriteSet(path string, s credential.Set) error {
	return WriteFileAtomic(path, s.Encode(), 0o600)
}

// ReadSet loads a persisted set. A missing file yields ErrNotExist.
func ReadSet(path string) (credential.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	s, err := credential.DecodeSet(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s, nil
}

// ReadSetOrEmpty is ReadSet with a missing file treated as the empty set.
func ReadSetOrEmpty(path string) (credential.Set, error) {
	s, err := ReadSet(path)
	if errors.Is(err, ErrNotExist) {
		return credential.NewSet(), nil
	}
	return s, err
}
