package mlservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/cfg"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
)

func newTestService(addr string, maxConcurrent int) *MLService {
	return NewMLService(&cfg.MLServiceCfg{
		Addr:          addr,
		Timeout:       5 * time.Second,
		MaxConcurrent: maxConcurrent,
		MaxRetries:    1,
	}, logger.NewSlogLogger())
}

func TestVectorizeImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/vectorize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"vector":        []float32{0.6, 0.8},
			"model_version": "clip-v1",
		})
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, 4)

	res, err := svc.VectorizeImage(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("vectorize failed: %v", err)
	}
	if len(res.Vector) != 2 || res.ModelVersion != "clip-v1" {
		t.Errorf("unexpected response: %+v", res)
	}
}

func TestVectorizeImageBoundsConcurrency(t *testing.T) {
	const limit = 2

	var inflight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inflight.Add(1)
		defer inflight.Add(-1)

		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"vector":        []float32{1, 0},
			"model_version": "clip-v1",
		})
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, limit)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.VectorizeImage(context.Background(), []byte("img")); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("vectorize failed: %v", err)
	}
	if got := peak.Load(); got > limit {
		t.Errorf("observed %d concurrent requests, limit is %d", got, limit)
	}
}

func TestVectorizeImageCancelledBeforeCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("cancelled call must not reach the service")
	}))
	defer srv.Close()

	svc := newTestService(srv.URL, 1)
	svc.sem <- struct{}{} // слот занят другим запросом

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.VectorizeImage(ctx, []byte("img")); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
