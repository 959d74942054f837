package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/cfg"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/clients"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// ImageCacheRepo реализует кэш изображений поверх Redis. В отличие от
// MinIO-бэкенда записи имеют TTL, поэтому редко запрашиваемые изображения
// вытесняются и будут перекачаны при следующем перестроении.
type ImageCacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewImageCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *ImageCacheRepo {
	return &ImageCacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Get возвращает содержимое изображения или e.ErrCacheMiss, если ключа нет.
func (i *ImageCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := i.client.Client.Get(ctx, i.imageKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrCacheMiss)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

// Set кэширует содержимое изображения с TTL из конфигурации. MIME-тип Redis
// не хранит, формат заново определяется при декодировании.
func (i *ImageCacheRepo) Set(ctx context.Context, key string, data []byte, mimeType string) error {
	if err := i.client.Client.Set(ctx, i.imageKey(key), data, i.cfg.ImageTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// imageKey возвращает Redis-ключ для содержимого одного изображения
func (i *ImageCacheRepo) imageKey(key string) string {
	return fmt.Sprintf("imgcache:%s", key)
}
