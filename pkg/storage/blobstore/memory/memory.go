// In-memory blob store used in tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var ErrNotFound = errors.New("blob not found")

type Storage struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewStorage() *Storage {
	return &Storage{
		items: map[string][]byte{},
	}
}

func (s *Storage) Upload(ctx context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[path] = data

	return nil
}

func (s *Storage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, path)
	return nil
}

func (s *Storage) SignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.items[path]; !ok {
		return "", ErrNotFound
	}
	return fmt.Sprintf("memory://%s?expires=%d", path, time.Now().Add(expires).Unix()), nil
}

// Exists reports whether a blob is stored at path. Test helper.
func (s *Storage) Exists(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[path]
	return ok
}
