// Package rank реализует ранжирование записей индекса по косинусному сходству с запросом.
package rank

import (
	"fmt"
	"sort"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
)

// Rank вычисляет косинусное сходство запроса с каждой записью индекса,
// отбрасывает записи со score < minScore и возвращает topK результатов
// по убыванию score. Равные score упорядочены по порядку добавления в каталог.
// Чистая функция: безопасна для конкурентных вызовов над одним снимком.
func Rank(query []float32, idx *domain.Index, topK int, minScore float32) ([]domain.QueryResult, error) {
	const op = "rank.Rank"

	if topK <= 0 {
		return nil, e.Wrap(fmt.Sprintf("%s: topK=%d", op, topK), e.ErrInvalidParameter)
	}

	if idx == nil || idx.Len() == 0 {
		return []domain.QueryResult{}, nil
	}

	results := make([]domain.QueryResult, 0, idx.Len())
	for _, rec := range idx.Records {
		// Расхождение размерностей — признак дрейфа версии модели, не пропускается молча
		if len(rec.Vector) != len(query) {
			return nil, e.Wrap(
				fmt.Sprintf("%s: product %s: vector dim %d, query dim %d", op, rec.ProductID, len(rec.Vector), len(query)),
				e.ErrCorruptIndex,
			)
		}

		score := dot(query, rec.Vector)
		if score < minScore {
			continue
		}

		results = append(results, domain.QueryResult{
			ProductID: rec.ProductID,
			Name:      rec.Name,
			Category:  rec.Category,
			ImageRef:  rec.ImageRef,
			Price:     rec.Price,
			Score:     score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// dot — скалярное произведение единичных векторов, аккумуляция в float64.
func dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
