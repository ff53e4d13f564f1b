package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"stocknews-client/src/helpers"
)

var errCorruptFile = errors.New("token file is not valid JSON")

// FileTokenStore keeps the token slot in a small JSON key/value file readable
// only by the current user.
type FileTokenStore struct {
	Path string
	Key  string

	mu sync.Mutex
}

// -----------------------------------------------------------------------------

func NewFileTokenStore(path, key string) *FileTokenStore {
	return &FileTokenStore{Path: path, Key: key}
}

// -----------------------------------------------------------------------------

func (f *FileTokenStore) Load(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}
	return values[f.Key], nil
}

// -----------------------------------------------------------------------------

// Save replaces the token. A file that does not parse is overwritten.
func (f *FileTokenStore) Save(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if errors.Is(err, errCorruptFile) {
		values = map[string]string{}
	} else if err != nil {
		return err
	}
	values[f.Key] = token
	return f.write(values)
}

// -----------------------------------------------------------------------------

// Clear removes the token. A file that does not parse is removed.
func (f *FileTokenStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if errors.Is(err, errCorruptFile) {
		return f.remove()
	}
	if err != nil {
		return err
	}
	if _, ok := values[f.Key]; !ok {
		return nil
	}
	delete(values, f.Key)

	if len(values) == 0 {
		return f.remove()
	}
	return f.write(values)
}

// -----------------------------------------------------------------------------

func (f *FileTokenStore) Close() error {
	return nil
}

// -----------------------------------------------------------------------------

func (f *FileTokenStore) read() (map[string]string, error) {
	values := map[string]string{}

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, helpers.NewStorageError("failed to read token file", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, helpers.NewStorageError("corrupt token file "+f.Path, fmt.Errorf("%w: %v", errCorruptFile, err))
	}
	return values, nil
}

func (f *FileTokenStore) remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return helpers.NewStorageError("failed to remove token file", err)
	}
	return nil
}

// write replaces the file atomically via a temp file in the same directory.
func (f *FileTokenStore) write(values map[string]string) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return helpers.NewStorageError("failed to create token directory", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return helpers.NewStorageError("failed to encode token file", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return helpers.NewStorageError("failed to create temp token file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return helpers.NewStorageError("failed to restrict token file", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return helpers.NewStorageError("failed to write token file", err)
	}
	if err := tmp.Close(); err != nil {
		return helpers.NewStorageError("failed to write token file", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return helpers.NewStorageError("failed to replace token file", err)
	}
	return nil
}
