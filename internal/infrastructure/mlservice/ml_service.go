package mlservice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/cfg"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/jitter"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
)

// MLService — клиент внешнего ML-сервиса векторизации изображений.
type MLService struct {
	addr       string
	httpClient *http.Client
	maxRetries int
	// sem ограничивает число одновременных запросов к ML-сервису
	sem    chan struct{}
	logger logger.Logger
}

func NewMLService(cfg *cfg.MLServiceCfg, logger logger.Logger) *MLService {
	return &MLService{
		addr:       cfg.Addr,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		sem:        make(chan struct{}, cfg.MaxConcurrent),
		logger:     logger,
	}
}

type vectorizeRequest struct {
	ImageData string `json:"image_data"` // base64
}

type vectorizeResponse struct {
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

// VectorizeImage выполняет векторизацию с retry-логикой и экспоненциальной задержкой
func (m *MLService) VectorizeImage(ctx context.Context, imageData []byte) (*usecase.VectorizeRes, error) {
	const (
		op         = "MLService.VectorizeImage"
		baseJitter = 1 * time.Second
		maxJitter  = 30 * time.Second
	)

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		return nil, e.Wrap(op, ctx.Err())
	}

	var lastErr error
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		res, err := m.vectorize(ctx, imageData)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt == m.maxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		m.logger.Warnf("vectorization failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", m.maxRetries, lastErr))
}

func (m *MLService) vectorize(ctx context.Context, imageData []byte) (*usecase.VectorizeRes, error) {
	const op = "MLService.vectorize"

	body, err := json.Marshal(vectorizeRequest{
		ImageData: base64.StdEncoding.EncodeToString(imageData),
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.addr+"/v1/vectorize", bytes.NewReader(body))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, e.Wrap(op, fmt.Errorf("ml service returned %d: %s", resp.StatusCode, snippet))
	}

	var res vectorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, e.Wrap(op, err)
	}

	return usecase.NewVectorizeRes(res.Vector, res.ModelVersion), nil
}
