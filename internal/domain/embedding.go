package domain

import (
	"math"

	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
)

// EmbeddingRecord связывает товар с его вектором признаков
type EmbeddingRecord struct {
	ProductID string
	Vector    []float32
}

func NewEmbeddingRecord(productID string, vector []float32) *EmbeddingRecord {
	return &EmbeddingRecord{
		ProductID: productID,
		Vector:    vector,
	}
}

// Normalize приводит вектор к единичной L2-норме на месте.
// Возвращает e.ErrZeroVector для нулевого вектора.
func Normalize(v []float32) error {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return e.ErrZeroVector
	}

	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}

	return nil
}
