package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
)

type fakeProductUC struct {
	lastReq    *usecase.AddProductReq
	addRes     *usecase.AddProductRes
	addErr     error
	rebuildErr error
}

func (f *fakeProductUC) AddProduct(ctx context.Context, req *usecase.AddProductReq) (*usecase.AddProductRes, error) {
	f.lastReq = req
	return f.addRes, f.addErr
}

func (f *fakeProductUC) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return nil, nil
}

func (f *fakeProductUC) RebuildAll(ctx context.Context) (*usecase.RebuildOutcome, error) {
	if f.rebuildErr != nil {
		return nil, f.rebuildErr
	}
	return &usecase.RebuildOutcome{Status: usecase.RebuildSuccess, IndexVersion: 1}, nil
}

func (f *fakeProductUC) EnsureIndex(ctx context.Context) error {
	return nil
}

func TestAddProductAcceptsJSONBody(t *testing.T) {
	product := domain.NewProduct("p1", "sneaker", "shoes", 59999, "img/p1.png")
	uc := &fakeProductUC{
		addRes: usecase.NewAddProductRes(product, &usecase.RebuildOutcome{
			Status:       usecase.RebuildSuccess,
			IndexVersion: 1,
			Attempted:    1,
			Indexed:      1,
		}),
	}
	handler := NewProductHandler(uc, logger.NewSlogLogger())

	body := `{"name":"sneaker","category":"shoes","price":"599.99","image_ref":"img/p1.png"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.addProduct(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if uc.lastReq == nil {
		t.Fatal("usecase was not called")
	}
	if uc.lastReq.Price != 59999 {
		t.Errorf("expected price 59999 cents, got %d", uc.lastReq.Price)
	}
	if uc.lastReq.ImageRef != "img/p1.png" {
		t.Errorf("expected image_ref passed through, got %q", uc.lastReq.ImageRef)
	}

	var resp struct {
		Product struct {
			ID       string `json:"id"`
			ImageRef string `json:"image_ref"`
		} `json:"product"`
		Rebuild struct {
			Status       string `json:"status"`
			IndexVersion uint64 `json:"index_version"`
		} `json:"rebuild"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("malformed response body: %v", err)
	}
	if resp.Product.ID != "p1" || resp.Product.ImageRef != "img/p1.png" {
		t.Errorf("unexpected product payload: %+v", resp.Product)
	}
	if resp.Rebuild.Status != "success" || resp.Rebuild.IndexVersion != 1 {
		t.Errorf("unexpected rebuild payload: %+v", resp.Rebuild)
	}
}

func TestAddProductRejectsMalformedBody(t *testing.T) {
	handler := NewProductHandler(&fakeProductUC{}, logger.NewSlogLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.addProduct(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestRebuildIndexConflict(t *testing.T) {
	uc := &fakeProductUC{rebuildErr: e.Wrap("RebuildCoordinator.RebuildAll", e.ErrRebuildInProgress)}
	handler := NewProductHandler(uc, logger.NewSlogLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/index/rebuild", nil)
	rec := httptest.NewRecorder()

	handler.rebuildIndex(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
