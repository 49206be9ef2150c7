package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend holds objects in process memory. Used for local development
// and tests; nothing survives a restart.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]Object)}
}

func (b *MemoryBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	b.mu.Lock()
	b.objects[key] = Object{Data: stored, ContentType: contentType}
	b.mu.Unlock()

	return key, nil
}

func (b *MemoryBackend) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	obj, ok := b.objects[key]
	b.mu.RUnlock()
	if !ok {
		return nil, ErrObjectNotFound
	}

	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)
	return &Object{Data: data, ContentType: obj.ContentType}, nil
}

// Keys lists stored keys in sorted order
func (b *MemoryBackend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
