package domain

import "time"

// IndexRecord — запись опубликованного индекса: вектор и метаданные товара.
type IndexRecord struct {
	ProductID string
	Name      string
	Category  string
	ImageRef  string
	Price     int64
	Vector    []float32
}

// Index — неизменяемый снимок индекса эмбеддингов.
// Records упорядочены по порядку добавления товаров в каталог.
// После публикации содержимое не меняется, снимок безопасно разделяется читателями.
type Index struct {
	Version   uint64
	Model     string
	CreatedAt time.Time
	Records   []IndexRecord

	byID map[string]int
}

func NewIndex(version uint64, model string, records []IndexRecord) *Index {
	byID := make(map[string]int, len(records))
	for i, rec := range records {
		byID[rec.ProductID] = i
	}

	return &Index{
		Version:   version,
		Model:     model,
		CreatedAt: time.Now().UTC(),
		Records:   records,
		byID:      byID,
	}
}

func (i *Index) Len() int {
	return len(i.Records)
}

// Dim возвращает размерность векторов индекса, 0 для пустого индекса.
func (i *Index) Dim() int {
	if len(i.Records) == 0 {
		return 0
	}
	return len(i.Records[0].Vector)
}

// Record возвращает запись индекса по идентификатору товара.
func (i *Index) Record(productID string) (IndexRecord, bool) {
	pos, ok := i.byID[productID]
	if !ok {
		return IndexRecord{}, false
	}
	return i.Records[pos], true
}
