package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/rank"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
	"github.com/google/uuid"
)

// SearchUseCase реализует поиск похожих товаров по изображению:
// получение изображения → векторизация → ранжирование по текущему снимку индекса.
type SearchUseCase struct {
	acquirer ImageAcquirer
	encoder  VectorEncoder
	store    IndexStore
	producer MessageProducer
	logger   logger.Logger
	deadline time.Duration
}

func NewSearchUC(
	acquirer ImageAcquirer,
	encoder VectorEncoder,
	store IndexStore,
	producer MessageProducer,
	logger logger.Logger,
	deadline time.Duration,
) *SearchUseCase {
	return &SearchUseCase{
		acquirer: acquirer,
		encoder:  encoder,
		store:    store,
		producer: producer,
		logger:   logger,
		deadline: deadline,
	}
}

// Search выполняет поиск под общим дедлайном на получение, кодирование и ранжирование.
// Поиск читает последний опубликованный снимок и никогда не ждет перестроения.
func (s *SearchUseCase) Search(ctx context.Context, req *SearchReq) (*SearchRes, error) {
	const op = "SearchUseCase.Search"

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	var (
		img *domain.DecodedImage
		err error
	)

	if len(req.Data) > 0 {
		// Загруженные байты: нечего кэшировать под стабильной ссылкой, только валидация
		img, err = s.acquirer.Decode(req.Data)
	} else {
		var ref domain.ImageRef
		ref, err = domain.ParseImageRef(req.Ref)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		img, err = s.acquirer.Acquire(ctx, ref)
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	vec, err := s.encoder.Encode(ctx, img)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	snap := s.store.Snapshot()

	// Несовпадение версии модели индекса и кодировщика — дрейф деплоя, не деградируется молча
	if snap.Model != "" && vec.ModelVersion != "" && snap.Model != vec.ModelVersion {
		err := e.Wrap(op+": index model "+snap.Model+", encoder model "+vec.ModelVersion, e.ErrCorruptIndex)
		s.alertCorruptIndex(err)
		return nil, err
	}

	results, err := rank.Rank(vec.Vector, snap, req.TopK, req.MinScore)
	if err != nil {
		if errors.Is(err, e.ErrCorruptIndex) {
			s.alertCorruptIndex(err)
		}
		return nil, e.Wrap(op, err)
	}

	return NewSearchRes(results), nil
}

// alertCorruptIndex поднимает операционный алерт: повреждение индекса —
// баг деплоя или целостности данных, а не временное состояние.
func (s *SearchUseCase) alertCorruptIndex(cause error) {
	s.logger.Errorf(cause, "corrupt index detected during search")

	payload, err := json.Marshal(IndexEvent{
		EventID:   uuid.NewString(),
		EventType: "index.corrupt",
		Timestamp: time.Now().UnixNano(),
		Detail:    cause.Error(),
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.producer.WriteRawMessage(ctx, NewWriteRawMessageReq("index.corrupt", payload)); err != nil {
		s.logger.Warnf("failed to publish corrupt index alert: %v", err)
	}
}
