// Package index реализует файловое хранилище опубликованного индекса эмбеддингов.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
	"github.com/jimlawless/whereami"
)

// Store хранит опубликованный индекс в одном JSON-файле.
// Публикация пишет во временный файл и атомарно переименовывает его,
// живой файл никогда не мутируется на месте. Снимок отдается через
// atomic-указатель: читатели не блокируются перестроением.
type Store struct {
	path    string
	mu      sync.Mutex // только публикация, чтение без замка
	current atomic.Pointer[domain.Index]
	logger  logger.Logger
}

func NewStore(path string, logger logger.Logger) *Store {
	s := &Store{
		path:   path,
		logger: logger,
	}
	s.current.Store(domain.NewIndex(0, "", nil))

	return s
}

// indexFile — дисковое представление индекса.
type indexFile struct {
	Model     string      `json:"model"`
	Version   uint64      `json:"version"`
	CreatedAt int64       `json:"created_at"`
	Dim       int         `json:"dim"`
	Count     int         `json:"count"`
	Items     []indexItem `json:"items"`
}

type indexItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	ImageRef string    `json:"image_ref"`
	Price    int64     `json:"price"`
	Vector   []float32 `json:"vector"`
}

// Load восстанавливает опубликованный индекс с диска при старте.
// Отсутствующий файл — пустой индекс нулевой версии, не ошибка.
func (s *Store) Load() (*domain.Index, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.Snapshot(), nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, e.Wrap(fmt.Sprintf("%s: %v", s.path, err), e.ErrCorruptIndex)
	}

	records := make([]domain.IndexRecord, 0, len(f.Items))
	for _, item := range f.Items {
		records = append(records, domain.IndexRecord{
			ProductID: item.ID,
			Name:      item.Name,
			Category:  item.Category,
			ImageRef:  item.ImageRef,
			Price:     item.Price,
			Vector:    item.Vector,
		})
	}

	idx := domain.NewIndex(f.Version, f.Model, records)
	idx.CreatedAt = time.Unix(f.CreatedAt, 0).UTC()

	if err := validateDims(idx); err != nil {
		return nil, err
	}

	s.current.Store(idx)
	s.logger.Infof("index loaded: version=%d, model=%s, count=%d", idx.Version, idx.Model, idx.Len())

	return idx, nil
}

// Snapshot возвращает текущий опубликованный индекс для чтения.
// Ссылка остается валидной и неизменной после последующих публикаций.
func (s *Store) Snapshot() *domain.Index {
	return s.current.Load()
}

// Publish атомарно заменяет опубликованный индекс.
// Читатели видят либо целиком старый, либо целиком новый индекс.
func (s *Store) Publish(idx *domain.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if idx.Version <= cur.Version {
		return e.Wrap(
			fmt.Sprintf("publish version %d, current %d", idx.Version, cur.Version),
			e.ErrStaleIndexVersion,
		)
	}

	if err := validateDims(idx); err != nil {
		return err
	}

	if err := s.writeAtomic(idx); err != nil {
		return err
	}

	s.current.Store(idx)
	s.logger.Infof("index published: version=%d, count=%d", idx.Version, idx.Len())

	return nil
}

// writeAtomic сериализует индекс во временный файл и переименовывает его поверх живого.
func (s *Store) writeAtomic(idx *domain.Index) error {
	items := make([]indexItem, 0, idx.Len())
	for _, rec := range idx.Records {
		items = append(items, indexItem{
			ID:       rec.ProductID,
			Name:     rec.Name,
			Category: rec.Category,
			ImageRef: rec.ImageRef,
			Price:    rec.Price,
			Vector:   rec.Vector,
		})
	}

	data, err := json.Marshal(indexFile{
		Model:     idx.Model,
		Version:   idx.Version,
		CreatedAt: idx.CreatedAt.Unix(),
		Dim:       idx.Dim(),
		Count:     idx.Len(),
		Items:     items,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.json")
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	// При любой ошибке временный файл убирается, живой файл не тронут
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// validateDims проверяет, что все векторы индекса одной размерности.
func validateDims(idx *domain.Index) error {
	dim := idx.Dim()
	for _, rec := range idx.Records {
		if len(rec.Vector) != dim {
			return e.Wrap(
				fmt.Sprintf("product %s: vector dim %d, index dim %d", rec.ProductID, len(rec.Vector), dim),
				e.ErrCorruptIndex,
			)
		}
	}

	return nil
}
