// Package acquire загружает изображения по ссылке (локальный путь или URL)
// с кэшированием содержимого и проверкой декодирования.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
	"github.com/jimlawless/whereami"
	_ "golang.org/x/image/webp"
)

const (
	// Лимит на размер загружаемого изображения
	maxImageBytes = 32 << 20

	// Некоторые CDN отклоняют запросы без User-Agent
	fetchUserAgent = "Mozilla/5.0"
)

// Acquirer реализует получение изображений: кэш → диск/сеть → валидация.
type Acquirer struct {
	httpClient *http.Client
	cache      usecase.ImageCacheRepository
	logger     logger.Logger
}

func NewAcquirer(cache usecase.ImageCacheRepository, fetchTimeout time.Duration, logger logger.Logger) *Acquirer {
	return &Acquirer{
		httpClient: &http.Client{Timeout: fetchTimeout},
		cache:      cache,
		logger:     logger,
	}
}

// Acquire возвращает декодированное изображение по ссылке.
// Сначала проверяется кэш содержимого; при промахе байты читаются с диска
// или скачиваются по сети, валидируются и кладутся в кэш.
func (a *Acquirer) Acquire(ctx context.Context, ref domain.ImageRef) (*domain.DecodedImage, error) {
	key := ref.CacheKey()

	if data, err := a.cache.Get(ctx, key); err == nil {
		img, derr := a.Decode(data)
		if derr == nil {
			return img, nil
		}
		a.logger.Warnf("cached bytes for %s no longer decode, refetching: %v", ref.Raw, derr)
	} else if !errors.Is(err, e.ErrCacheMiss) {
		a.logger.Warnf("image cache get failed for %s: %v", ref.Raw, err)
	}

	data, err := a.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	img, err := a.Decode(data)
	if err != nil {
		return nil, err
	}

	// Запись в кэш идемпотентна, промах записи не фатален для запроса
	if err := a.cache.Set(ctx, key, data, MIMEForFormat(img.Format)); err != nil {
		a.logger.Warnf("image cache set failed for %s: %v", ref.Raw, err)
	}

	return img, nil
}

// Decode проверяет, что байты являются поддерживаемым растровым изображением.
// Полное декодирование ловит усечённые и повреждённые данные.
func (a *Acquirer) Decode(data []byte) (*domain.DecodedImage, error) {
	if len(data) == 0 {
		return nil, e.Wrap("empty image data", e.ErrInvalidImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrInvalidImage)
	}

	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return nil, e.Wrap(fmt.Sprintf("%s: %v", format, err), e.ErrInvalidImage)
	}

	return domain.NewDecodedImage(data, format, cfg.Width, cfg.Height), nil
}

func (a *Acquirer) fetch(ctx context.Context, ref domain.ImageRef) ([]byte, error) {
	switch ref.Kind {
	case domain.RefLocal:
		return a.readLocal(ref)
	default:
		return a.fetchRemote(ctx, ref)
	}
}

func (a *Acquirer) readLocal(ref domain.ImageRef) ([]byte, error) {
	data, err := os.ReadFile(ref.Canonical())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, e.Wrap(ref.Raw, e.ErrNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(data) > maxImageBytes {
		return nil, e.Wrap(ref.Raw, e.ErrFileTooLarge)
	}

	return data, nil
}

func (a *Acquirer) fetchRemote(ctx context.Context, ref domain.ImageRef) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.Canonical(), nil)
	if err != nil {
		return nil, e.Wrap(ref.Raw, e.ErrInvalidParameter)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		// Таймауты и сетевые сбои: ретрай — решение вызывающей стороны
		return nil, e.Wrap(fmt.Sprintf("%s: %v", ref.Raw, err), e.ErrNetwork)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, e.Wrap(fmt.Sprintf("%s: HTTP %d", ref.Raw, resp.StatusCode), e.ErrNotFound)
	default:
		return nil, e.Wrap(fmt.Sprintf("%s: HTTP %d", ref.Raw, resp.StatusCode), e.ErrNetwork)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, e.Wrap(fmt.Sprintf("%s: %v", ref.Raw, err), e.ErrNetwork)
	}

	if len(data) > maxImageBytes {
		return nil, e.Wrap(ref.Raw, e.ErrFileTooLarge)
	}

	return data, nil
}

// MIMEForFormat возвращает MIME-тип по имени формата декодера.
func MIMEForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
