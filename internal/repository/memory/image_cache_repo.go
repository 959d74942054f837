package memory

import (
	"context"
	"sync"

	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/jimlawless/whereami"
)

// ImageCacheRepo — кэш изображений в памяти процесса. Используется при
// CACHE_BACKEND=memory и в тестах; содержимое не переживает рестарт.
type ImageCacheRepo struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewImageCacheRepo() *ImageCacheRepo {
	return &ImageCacheRepo{
		items: make(map[string][]byte),
	}
}

func (i *ImageCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	data, ok := i.items[key]
	if !ok {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrCacheMiss)
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

func (i *ImageCacheRepo) Set(ctx context.Context, key string, data []byte, mimeType string) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	i.mu.Lock()
	defer i.mu.Unlock()

	i.items[key] = stored

	return nil
}
