package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/index"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
)

type searchEnv struct {
	acquirer *fakeAcquirer
	encoder  *fakeEncoder
	store    *index.Store
	producer *fakeProducer
	search   *SearchUseCase
}

func newSearchEnv(t *testing.T) *searchEnv {
	t.Helper()

	env := &searchEnv{
		acquirer: &fakeAcquirer{failures: make(map[string]error)},
		encoder:  &fakeEncoder{model: "clip-v1", vectors: make(map[string][]float32)},
		store:    index.NewStore(filepath.Join(t.TempDir(), "embeddings.json"), logger.NewSlogLogger()),
		producer: &fakeProducer{},
	}

	env.search = NewSearchUC(
		env.acquirer,
		env.encoder,
		env.store,
		env.producer,
		logger.NewSlogLogger(),
		5*time.Second,
	)

	return env
}

func (env *searchEnv) publish(t *testing.T, model string, records []domain.IndexRecord) {
	t.Helper()

	if err := env.store.Publish(domain.NewIndex(env.store.Snapshot().Version+1, model, records)); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func catalogRecords() []domain.IndexRecord {
	return []domain.IndexRecord{
		{ProductID: "p1", Name: "sneaker", Category: "shoes", ImageRef: "img/p1.png", Price: 4999, Vector: []float32{1, 0}},
		{ProductID: "p2", Name: "boot", Category: "shoes", ImageRef: "img/p2.png", Price: 8999, Vector: []float32{0, 1}},
	}
}

func TestSearchRanksByCosine(t *testing.T) {
	env := newSearchEnv(t)
	env.publish(t, "clip-v1", catalogRecords())
	env.encoder.vectors["img/query.png"] = []float32{1, 0}

	res, err := env.search.Search(context.Background(), NewSearchReq("img/query.png", nil, 10, -1))
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(res.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res.Results))
	}
	if res.Results[0].ProductID != "p1" {
		t.Errorf("expected p1 first, got %s", res.Results[0].ProductID)
	}
	if res.Results[0].Score <= res.Results[1].Score {
		t.Errorf("scores not descending: %v, %v", res.Results[0].Score, res.Results[1].Score)
	}
	if res.Results[0].Name != "sneaker" || res.Results[0].Price != 4999 {
		t.Errorf("result metadata not propagated: %+v", res.Results[0])
	}
}

func TestSearchUploadedBytes(t *testing.T) {
	env := newSearchEnv(t)
	env.publish(t, "clip-v1", catalogRecords())
	env.encoder.vectors["upload"] = []float32{0, 1}

	res, err := env.search.Search(context.Background(), NewSearchReq("", []byte("upload"), 1, 0))
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(res.Results) != 1 || res.Results[0].ProductID != "p2" {
		t.Fatalf("expected single p2 result, got %+v", res.Results)
	}
}

func TestSearchMinScoreFilters(t *testing.T) {
	env := newSearchEnv(t)
	env.publish(t, "clip-v1", catalogRecords())
	env.encoder.vectors["img/query.png"] = []float32{1, 0}

	res, err := env.search.Search(context.Background(), NewSearchReq("img/query.png", nil, 10, 0.5))
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	// Ортогональный p2 отсечен порогом
	if len(res.Results) != 1 || res.Results[0].ProductID != "p1" {
		t.Fatalf("expected only p1 above threshold, got %+v", res.Results)
	}
}

func TestSearchInvalidTopK(t *testing.T) {
	env := newSearchEnv(t)
	env.publish(t, "clip-v1", catalogRecords())

	for _, topK := range []int{0, -5} {
		if _, err := env.search.Search(context.Background(), NewSearchReq("img/query.png", nil, topK, 0)); !errors.Is(err, e.ErrInvalidParameter) {
			t.Errorf("topK %d: expected ErrInvalidParameter, got %v", topK, err)
		}
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	env := newSearchEnv(t)

	res, err := env.search.Search(context.Background(), NewSearchReq("img/query.png", nil, 10, 0))
	if err != nil {
		t.Fatalf("search over empty index failed: %v", err)
	}

	if len(res.Results) != 0 {
		t.Errorf("expected no results, got %+v", res.Results)
	}
}

func TestSearchMissingRef(t *testing.T) {
	env := newSearchEnv(t)

	if _, err := env.search.Search(context.Background(), NewSearchReq("", nil, 10, 0)); !errors.Is(err, e.ErrImageRefRequired) {
		t.Fatalf("expected ErrImageRefRequired, got %v", err)
	}
}

func TestSearchAcquireFailurePropagates(t *testing.T) {
	env := newSearchEnv(t)
	env.publish(t, "clip-v1", catalogRecords())
	env.acquirer.failures["img/query.png"] = e.Wrap("img/query.png", e.ErrNetwork)

	if _, err := env.search.Search(context.Background(), NewSearchReq("img/query.png", nil, 10, 0)); !errors.Is(err, e.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

// stalledAcquirer имитирует зависший источник изображения: получение
// завершается только по отмене контекста, как в реальном HTTP-клиенте.
type stalledAcquirer struct {
	fakeAcquirer
}

func (s *stalledAcquirer) Acquire(ctx context.Context, ref domain.ImageRef) (*domain.DecodedImage, error) {
	<-ctx.Done()
	return nil, e.Wrap("fetch "+ref.Raw, e.ErrNetwork)
}

func TestSearchDeadlineSurfacesError(t *testing.T) {
	env := newSearchEnv(t)
	env.publish(t, "clip-v1", catalogRecords())

	search := NewSearchUC(
		&stalledAcquirer{},
		env.encoder,
		env.store,
		env.producer,
		logger.NewSlogLogger(),
		10*time.Millisecond,
	)

	res, err := search.Search(context.Background(), NewSearchReq("img/query.png", nil, 10, 0))
	if !errors.Is(err, e.ErrNetwork) {
		t.Fatalf("expected ErrNetwork on deadline expiry, got %v", err)
	}
	// Истекший дедлайн — ошибка, а не тихий пустой результат
	if res != nil {
		t.Errorf("expected no result on deadline expiry, got %+v", res)
	}
}

func TestSearchModelDriftAlerts(t *testing.T) {
	env := newSearchEnv(t)
	env.publish(t, "clip-v0", catalogRecords())

	_, err := env.search.Search(context.Background(), NewSearchReq("img/query.png", nil, 10, 0))
	if !errors.Is(err, e.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex on model drift, got %v", err)
	}

	keys := env.producer.keys()
	if len(keys) != 1 || keys[0] != "index.corrupt" {
		t.Errorf("expected index.corrupt alert, got keys %v", keys)
	}
}
