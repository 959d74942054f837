package usecase

import (
	"context"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
)

type MlServiceInfra interface {
	VectorizeImage(ctx context.Context, imageData []byte) (*VectorizeRes, error)
}

// VectorEncoder — обертка над внешней моделью: фиксированная размерность и единичная L2-норма.
type VectorEncoder interface {
	Encode(ctx context.Context, img *domain.DecodedImage) (*VectorizeRes, error)
}

type ImageAcquirer interface {
	Acquire(ctx context.Context, ref domain.ImageRef) (*domain.DecodedImage, error)
	// Decode валидирует уже полученные байты (upload-путь), минуя кэш и сеть.
	Decode(data []byte) (*domain.DecodedImage, error)
}

type IndexStore interface {
	Snapshot() *domain.Index
	Publish(idx *domain.Index) error
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
