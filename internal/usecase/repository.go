package usecase

import (
	"context"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
)

type CatalogRepository interface {
	// Append добавляет товар в конец каталога и возвращает запись с позицией.
	Append(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// List возвращает каталог в порядке добавления.
	List(ctx context.Context) ([]domain.Product, error)
}

// ImageCacheRepository — кэш содержимого изображений по канонизированному ключу ссылки.
// Записи идемпотентны: повторная запись того же ключа безопасна, last-write-wins.
type ImageCacheRepository interface {
	// Get возвращает e.ErrCacheMiss, если ключа нет.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, mimeType string) error
}

type OutboxRepository interface {
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}
