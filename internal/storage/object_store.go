package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fleveque/thumbnail-service/internal/media"
	"github.com/fleveque/thumbnail-service/internal/model"
)

// ObjectStore persists generated images. Writes overwrite existing objects.
type ObjectStore interface {
	Write(ctx context.Context, path string, data []byte, mimeType model.MimeType) error
	PublicURL(ctx context.Context, path string) (string, error)
}

// MemoryStore is an ObjectStore backed by a map. It is used in tests and
// when storage.provider is "memory" for local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]StoredObject
}

// StoredObject is a single entry in a MemoryStore.
type StoredObject struct {
	Data     []byte
	MimeType model.MimeType
}

// NewMemoryStore creates an empty store. PublicURL joins baseURL and the path.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: baseURL,
		objects: make(map[string]StoredObject),
	}
}

func (m *MemoryStore) Write(ctx context.Context, path string, data []byte, mimeType model.MimeType) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStorage, err)
	}
	if mimeType == "" {
		mimeType = media.FileMimeType(path)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[path] = StoredObject{Data: buf, MimeType: mimeType}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) PublicURL(ctx context.Context, path string) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[path]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s: %v", model.ErrStorage, path, ErrNotFound)
	}
	return m.baseURL + "/" + path, nil
}

// Get returns a stored object.
func (m *MemoryStore) Get(path string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	return obj, ok
}

// Paths lists stored paths in sorted order.
func (m *MemoryStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	paths := make([]string, 0, len(m.objects))
	for p := range m.objects {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
