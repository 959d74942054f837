// Package encoder оборачивает внешнюю ML-модель: контроль размерности и нормализация.
package encoder

import (
	"context"
	"fmt"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
)

// Service реализует usecase.VectorEncoder поверх инжектированного ML-клиента.
// Детерминированность для одних и тех же байтов обеспечивает модель;
// ответственность обертки — фиксированная размерность и единичная L2-норма.
type Service struct {
	ml  usecase.MlServiceInfra
	dim int
}

func NewService(ml usecase.MlServiceInfra, dim int) *Service {
	return &Service{
		ml:  ml,
		dim: dim,
	}
}

// Encode получает вектор от внешней модели, проверяет длину и нормализует.
// Вектор неожиданной длины — e.ErrEncodingFailure, никогда не подгоняется молча.
func (s *Service) Encode(ctx context.Context, img *domain.DecodedImage) (*usecase.VectorizeRes, error) {
	const op = "encoder.Encode"

	res, err := s.ml.VectorizeImage(ctx, img.Bytes)
	if err != nil {
		return nil, e.Wrap(fmt.Sprintf("%s: %v", op, err), e.ErrEncodingFailure)
	}

	if len(res.Vector) != s.dim {
		return nil, e.Wrap(
			fmt.Sprintf("%s: vector length %d, want %d", op, len(res.Vector), s.dim),
			e.ErrEncodingFailure,
		)
	}

	if err := domain.Normalize(res.Vector); err != nil {
		return nil, e.Wrap(fmt.Sprintf("%s: %v", op, err), e.ErrEncodingFailure)
	}

	return res, nil
}
