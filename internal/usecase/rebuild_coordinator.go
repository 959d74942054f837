package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
	"github.com/google/uuid"
)

// RebuildCoordinator реализует ProductUC: мутация каталога и сериализованное
// перестроение индекса. Машина состояний Published → Building → Published',
// при агрегатном сбое прежний опубликованный индекс остается авторитетным.
type RebuildCoordinator struct {
	catalog  CatalogRepository
	acquirer ImageAcquirer
	encoder  VectorEncoder
	store    IndexStore
	producer MessageProducer
	logger   logger.Logger

	// rebuildMu сериализует перестроения; добавления каталога идут под тем же
	// замком, поэтому конкурирующие AddProduct выстраиваются в очередь и ни
	// один товар не теряется.
	rebuildMu sync.Mutex

	expectedModel    string
	maxConcurrent    int
	failureThreshold float64
}

func NewRebuildCoordinator(
	catalog CatalogRepository,
	acquirer ImageAcquirer,
	encoder VectorEncoder,
	store IndexStore,
	producer MessageProducer,
	logger logger.Logger,
	expectedModel string,
	maxConcurrent int,
	failureThreshold float64,
) *RebuildCoordinator {
	return &RebuildCoordinator{
		catalog:          catalog,
		acquirer:         acquirer,
		encoder:          encoder,
		store:            store,
		producer:         producer,
		logger:           logger,
		expectedModel:    expectedModel,
		maxConcurrent:    maxConcurrent,
		failureThreshold: failureThreshold,
	}
}

// AddProduct добавляет товар в каталог и запускает перестроение индекса.
// Сбой перестроения не откатывает каталог: товар останется в каталоге и
// попадет в индекс при следующем успешном перестроении.
func (c *RebuildCoordinator) AddProduct(ctx context.Context, req *AddProductReq) (*AddProductRes, error) {
	const op = "RebuildCoordinator.AddProduct"

	if err := validateAddProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	product, err := c.catalog.Append(ctx, domain.NewProduct(
		uuid.NewString(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Category), req.Price, req.ImageRef,
	))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	outcome, err := c.rebuildLocked(ctx, false)
	if err != nil {
		c.logger.Warnf("rebuild after adding product %s failed: %v", product.ID, err)
		if outcome == nil {
			outcome = &RebuildOutcome{
				Status:       RebuildFailed,
				IndexVersion: c.store.Snapshot().Version,
				Failed: []ProductFailure{
					{ProductID: product.ID, ImageRef: product.ImageRef, Reason: err.Error()},
				},
			}
		}
	}

	return NewAddProductRes(product, outcome), nil
}

// ListProducts возвращает каталог в порядке добавления.
func (c *RebuildCoordinator) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "RebuildCoordinator.ListProducts"

	products, err := c.catalog.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// RebuildAll выполняет полное перестроение с повторной векторизацией всего каталога.
// При уже идущем перестроении отвечает e.ErrRebuildInProgress, не вставая в очередь.
func (c *RebuildCoordinator) RebuildAll(ctx context.Context) (*RebuildOutcome, error) {
	const op = "RebuildCoordinator.RebuildAll"

	if !c.rebuildMu.TryLock() {
		return nil, e.Wrap(op, e.ErrRebuildInProgress)
	}
	defer c.rebuildMu.Unlock()

	outcome, err := c.rebuildLocked(ctx, true)
	if err != nil {
		return outcome, e.Wrap(op, err)
	}

	return outcome, nil
}

// EnsureIndex перестраивает индекс при старте, если он отстал от каталога
// или собран другой версией модели.
func (c *RebuildCoordinator) EnsureIndex(ctx context.Context) error {
	const op = "RebuildCoordinator.EnsureIndex"

	products, err := c.catalog.List(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	snap := c.store.Snapshot()

	modelStale := snap.Model != "" && c.expectedModel != "" && snap.Model != c.expectedModel
	if !modelStale && snap.Len() >= len(products) {
		return nil
	}

	c.logger.Infof("index is stale (version=%d, indexed=%d, catalog=%d, model=%q), rebuilding",
		snap.Version, snap.Len(), len(products), snap.Model)

	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	if _, err := c.rebuildLocked(ctx, modelStale); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// encodeSlot — результат векторизации одного товара при перестроении.
type encodeSlot struct {
	vector       []float32
	modelVersion string
	failure      *ProductFailure
}

// rebuildLocked строит и публикует новую версию индекса. Вызывается только
// под rebuildMu. Сбой отдельного товара исключает его из индекса и
// записывается; агрегатный сбой оставляет прежний индекс без изменений.
// Замок хранилища не удерживается во время сетевых операций.
func (c *RebuildCoordinator) rebuildLocked(ctx context.Context, full bool) (*RebuildOutcome, error) {
	const op = "RebuildCoordinator.rebuildLocked"

	products, err := c.catalog.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	snap := c.store.Snapshot()
	slots := make([]encodeSlot, len(products))

	sem := make(chan struct{}, c.maxConcurrent)
	var wg sync.WaitGroup

	for i, product := range products {
		// Инкрементальное перестроение переиспользует векторы товаров,
		// уже присутствующих в снимке с той же ссылкой на изображение
		if !full {
			if rec, ok := snap.Record(product.ID); ok && rec.ImageRef == product.ImageRef {
				slots[i] = encodeSlot{vector: rec.Vector, modelVersion: snap.Model}
				continue
			}
		}

		i, product := i, product
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			slots[i] = c.encodeProduct(ctx, product)
		}()
	}

	wg.Wait()

	// Кооперативная отмена: до публикации просто выходим, частичной публикации не бывает
	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(op, err)
	}

	records := make([]domain.IndexRecord, 0, len(products))
	failures := make([]ProductFailure, 0)
	model := snap.Model

	for i, product := range products {
		slot := slots[i]
		if slot.failure != nil {
			failures = append(failures, *slot.failure)
			continue
		}

		if slot.modelVersion != "" {
			if model != "" && model != slot.modelVersion {
				c.logger.Warnf("model version drift during rebuild: index %q, encoder %q", model, slot.modelVersion)
			}
			model = slot.modelVersion
		}

		records = append(records, domain.IndexRecord{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  product.Category,
			ImageRef:  product.ImageRef,
			Price:     product.Price,
			Vector:    slot.vector,
		})
	}

	outcome := &RebuildOutcome{
		IndexVersion: snap.Version,
		Attempted:    len(products),
		Indexed:      len(records),
		Failed:       failures,
	}

	if aggregateFailure(len(products), len(failures), c.failureThreshold) {
		outcome.Status = RebuildFailed
		c.publishIndexEvent("index.rebuild_failed", outcome, fmt.Sprintf("%d of %d products failed", len(failures), len(products)))
		return outcome, e.Wrap(
			fmt.Sprintf("%s: %d of %d products failed to encode", op, len(failures), len(products)),
			e.ErrRebuildFailed,
		)
	}

	newIdx := domain.NewIndex(snap.Version+1, model, records)
	if err := c.store.Publish(newIdx); err != nil {
		outcome.Status = RebuildFailed
		return outcome, e.Wrap(op, err)
	}

	outcome.IndexVersion = newIdx.Version
	outcome.Status = RebuildSuccess
	if len(failures) > 0 {
		outcome.Status = RebuildPartial
	}

	for _, f := range failures {
		c.logger.Warnf("product %s excluded from index version %d: %s", f.ProductID, newIdx.Version, f.Reason)
	}

	c.publishIndexEvent("index.rebuilt", outcome, "")

	return outcome, nil
}

// encodeProduct получает изображение товара и векторизует его.
func (c *RebuildCoordinator) encodeProduct(ctx context.Context, product domain.Product) encodeSlot {
	failed := func(reason string) encodeSlot {
		return encodeSlot{failure: &ProductFailure{
			ProductID: product.ID,
			ImageRef:  product.ImageRef,
			Reason:    reason,
		}}
	}

	ref, err := domain.ParseImageRef(product.ImageRef)
	if err != nil {
		return failed(err.Error())
	}

	img, err := c.acquirer.Acquire(ctx, ref)
	if err != nil {
		return failed(err.Error())
	}

	res, err := c.encoder.Encode(ctx, img)
	if err != nil {
		return failed(err.Error())
	}

	return encodeSlot{vector: res.Vector, modelVersion: res.ModelVersion}
}

func (c *RebuildCoordinator) publishIndexEvent(eventType string, outcome *RebuildOutcome, detail string) {
	payload, err := json.Marshal(IndexEvent{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		Timestamp:    time.Now().UnixNano(),
		IndexVersion: outcome.IndexVersion,
		Attempted:    outcome.Attempted,
		Indexed:      outcome.Indexed,
		FailedCount:  len(outcome.Failed),
		Detail:       detail,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.producer.WriteRawMessage(ctx, NewWriteRawMessageReq(eventType, payload)); err != nil {
		c.logger.Warnf("failed to publish %s event: %v", eventType, err)
	}
}

// aggregateFailure решает, считать ли перестроение агрегатно провалившимся:
// непустой каталог и (ни одного успеха, либо доля сбоев выше порога).
func aggregateFailure(total int, failed int, threshold float64) bool {
	if total == 0 {
		return false
	}
	if failed == total {
		return true
	}
	return float64(failed)/float64(total) > threshold
}

func validateAddProduct(req *AddProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if strings.TrimSpace(req.Category) == "" {
		return e.ErrCategoryRequired
	}

	if req.Price < 0 {
		return e.ErrInvalidPrice
	}

	if _, err := domain.ParseImageRef(req.ImageRef); err != nil {
		return err
	}

	return nil
}
