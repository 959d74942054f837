package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

type addProductRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    string `json:"price"`
	ImageRef string `json:"image_ref"`
}

type productResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     int64     `json:"price"`
	ImageRef  string    `json:"image_ref"`
	Position  int64     `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

type productFailureResponse struct {
	ProductID string `json:"product_id"`
	ImageRef  string `json:"image_ref"`
	Reason    string `json:"reason"`
}

type rebuildResponse struct {
	Status       string                   `json:"status"`
	IndexVersion uint64                   `json:"index_version"`
	Attempted    int                      `json:"attempted"`
	Indexed      int                      `json:"indexed"`
	Failed       []productFailureResponse `json:"failed"`
}

type addProductResponse struct {
	Product *productResponse `json:"product"`
	Rebuild *rebuildResponse `json:"rebuild"`
}

// addProduct добавляет товар в каталог. Исход перестроения индекса
// возвращается в теле ответа, товар остается в каталоге даже при сбое
// перестроения.
func (p *ProductHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		p.logger.Warnf("%d: malformed add product body: %s", http.StatusBadRequest, err.Error())
		WriteError(w, e.Wrap("decode body", e.ErrMissingFields))
		return
	}

	priceCents, err := parsePriceToCents(req.Price)
	if err != nil {
		p.logger.Warnf("%d: %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	res, err := p.productUsecase.AddProduct(r.Context(), usecase.NewAddProductReq(req.Name, req.Category, priceCents, req.ImageRef))
	if err != nil {
		p.logger.Warnf("add product failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, &addProductResponse{
		Product: newProductResponse(res.Product),
		Rebuild: newRebuildResponse(res.Rebuild),
	})
}

// listProducts возвращает каталог в порядке добавления.
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.productUsecase.ListProducts(r.Context())
	if err != nil {
		p.logger.Warnf("list products failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, *newProductResponse(&products[i]))
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"products": out,
	})
}

// rebuildIndex запускает полное перестроение индекса. При уже идущем
// перестроении отвечает 409.
func (p *ProductHandler) rebuildIndex(w http.ResponseWriter, r *http.Request) {
	outcome, err := p.productUsecase.RebuildAll(r.Context())
	if err != nil {
		p.logger.Warnf("index rebuild failed: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newRebuildResponse(outcome))
}

func newProductResponse(product *domain.Product) *productResponse {
	if product == nil {
		return nil
	}

	return &productResponse{
		ID:        product.ID,
		Name:      product.Name,
		Category:  product.Category,
		Price:     product.Price,
		ImageRef:  product.ImageRef,
		Position:  product.Position,
		CreatedAt: product.CreatedAt,
	}
}

func newRebuildResponse(outcome *usecase.RebuildOutcome) *rebuildResponse {
	if outcome == nil {
		return nil
	}

	failed := make([]productFailureResponse, 0, len(outcome.Failed))
	for _, f := range outcome.Failed {
		failed = append(failed, productFailureResponse{
			ProductID: f.ProductID,
			ImageRef:  f.ImageRef,
			Reason:    f.Reason,
		})
	}

	return &rebuildResponse{
		Status:       string(outcome.Status),
		IndexVersion: outcome.IndexVersion,
		Attempted:    outcome.Attempted,
		Indexed:      outcome.Indexed,
		Failed:       failed,
	}
}
