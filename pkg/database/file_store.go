package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/puzpuzpuz/xsync/v3"
)

const docExt = ".json"

// FileStore keeps one JSON file per document under <dir>/<collection>/<key>.json.
// Documents are written byte for byte through a temp file renamed over the original,
// and only writers of the same document wait on each other.
type FileStore struct {
	dir   string
	locks *xsync.MapOf[string, *sync.RWMutex]
}

// NewFileStore creates the data directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{dir: dir, locks: xsync.NewMapOf[string, *sync.RWMutex]()}, nil
}

func (s *FileStore) collectionDir(collection string) string {
	return filepath.Join(s.dir, url.PathEscape(collection))
}

// path escapes key so any string maps to a single file name inside the collection
func (s *FileStore) path(collection, key string) string {
	return filepath.Join(s.collectionDir(collection), url.PathEscape(key)+docExt)
}

func (s *FileStore) lock(collection, key string) *sync.RWMutex {
	mu, _ := s.locks.LoadOrCompute(collection+"/"+key, func() *sync.RWMutex {
		return &sync.RWMutex{}
	})
	return mu
}

func (s *FileStore) Load(_ context.Context, collection, key string) ([]byte, bool, error) {
	mu := s.lock(collection, key)
	mu.RLock()
	defer mu.RUnlock()

	data, err := os.ReadFile(s.path(collection, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s/%s: %w", collection, key, err)
	}
	if !json.Valid(data) {
		return nil, false, fmt.Errorf("decoding %s/%s: corrupt document", collection, key)
	}
	return data, true, nil
}

func (s *FileStore) Save(_ context.Context, collection, key string, doc []byte) error {
	mu := s.lock(collection, key)
	mu.Lock()
	defer mu.Unlock()

	dir := s.collectionDir(collection)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, key, err)
	}

	tmp, err := os.CreateTemp(dir, ".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", collection, key, err)
	}
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s/%s: %w", collection, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s/%s: %w", collection, key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(collection, key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, collection, key string) error {
	mu := s.lock(collection, key)
	mu.Lock()
	defer mu.Unlock()

	err := os.Remove(s.path(collection, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s/%s: %w", collection, key, err)
	}
	return nil
}

// Keys lists the documents of a collection. Renames are atomic, so no lock is needed.
func (s *FileStore) Keys(_ context.Context, collection string) ([]string, error) {
	entries, err := os.ReadDir(s.collectionDir(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, docExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, docExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *FileStore) Ping(context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Close(context.Context) error { return nil }
