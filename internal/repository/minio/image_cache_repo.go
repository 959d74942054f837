package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/cfg"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ImageCacheRepo реализует кэш изображений поверх MinIO. Ключом объекта
// служит канонизированный ключ ссылки, запись идемпотентна.
type ImageCacheRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewImageCacheRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ImageCacheRepo {
	return &ImageCacheRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Get возвращает содержимое изображения или e.ErrCacheMiss, если объекта нет.
func (i *ImageCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := i.mc.GetObject(ctx, i.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer obj.Close()

	// GetObject ленивый, отсутствие объекта проявляется только при чтении
	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrCacheMiss)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

// Set кладет содержимое изображения в бакет, last-write-wins.
func (i *ImageCacheRepo) Set(ctx context.Context, key string, data []byte, mimeType string) error {
	reader := bytes.NewReader(data)

	_, err := i.mc.PutObject(ctx, i.cfg.BucketName, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
