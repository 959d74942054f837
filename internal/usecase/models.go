package usecase

import (
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
)

// SEARCH USECASE

// SearchReq — запрос визуального поиска. Транспортный слой заранее
// разрешает «файл или URL»: либо Ref (путь/URL), либо Data (байты загрузки).
type SearchReq struct {
	Ref      string
	Data     []byte
	TopK     int
	MinScore float32
}

// SearchRes — ответ с результатами, упорядоченными по убыванию сходства.
type SearchRes struct {
	Results []domain.QueryResult
}

// PRODUCT USECASE

// AddProductReq — запрос на добавление товара в каталог.
type AddProductReq struct {
	Name     string
	Category string
	Price    int64
	ImageRef string
}

// AddProductRes — добавленный товар и исход перестроения индекса.
type AddProductRes struct {
	Product *domain.Product
	Rebuild *RebuildOutcome
}

// RebuildStatus — машинно-читаемый исход перестроения.
type RebuildStatus string

const (
	RebuildSuccess RebuildStatus = "success"
	RebuildPartial RebuildStatus = "partial"
	RebuildFailed  RebuildStatus = "failed"
)

// ProductFailure — товар, исключённый из индекса при перестроении.
type ProductFailure struct {
	ProductID string
	ImageRef  string
	Reason    string
}

// RebuildOutcome — структурированный исход перестроения индекса.
type RebuildOutcome struct {
	Status       RebuildStatus
	IndexVersion uint64
	Attempted    int
	Indexed      int
	Failed       []ProductFailure
}

// INFRASTRUCTURE

// VectorizeRes — результат векторизации одного изображения.
type VectorizeRes struct {
	Vector       []float32
	ModelVersion string
}

type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	ProductAdded OutboxEventType = "product.added"
)

type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// IndexEvent — событие о перестроении индекса, публикуемое в Kafka.
type IndexEvent struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	Timestamp    int64  `json:"timestamp"`
	IndexVersion uint64 `json:"index_version"`
	Attempted    int    `json:"attempted"`
	Indexed      int    `json:"indexed"`
	FailedCount  int    `json:"failed_count"`
	Detail       string `json:"detail,omitempty"`
}

// MAPPERS

func NewSearchReq(ref string, data []byte, topK int, minScore float32) *SearchReq {
	return &SearchReq{
		Ref:      ref,
		Data:     data,
		TopK:     topK,
		MinScore: minScore,
	}
}

func NewSearchRes(results []domain.QueryResult) *SearchRes {
	return &SearchRes{Results: results}
}

func NewAddProductReq(name string, category string, price int64, imageRef string) *AddProductReq {
	return &AddProductReq{
		Name:     name,
		Category: category,
		Price:    price,
		ImageRef: imageRef,
	}
}

func NewAddProductRes(product *domain.Product, rebuild *RebuildOutcome) *AddProductRes {
	return &AddProductRes{
		Product: product,
		Rebuild: rebuild,
	}
}

func NewVectorizeRes(vector []float32, modelVersion string) *VectorizeRes {
	return &VectorizeRes{
		Vector:       vector,
		ModelVersion: modelVersion,
	}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:     key,
		Payload: payload,
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, productID string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}
}
