package http

import (
	"errors"
	"net/http"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/cfg"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/e"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
)

type SearchHandler struct {
	searchUsecase usecase.SearchUC
	cfg           *cfg.SearchCfg
	logger        logger.Logger
}

func NewSearchHandler(searchUsecase usecase.SearchUC, cfg *cfg.SearchCfg, logger logger.Logger) *SearchHandler {
	return &SearchHandler{searchUsecase: searchUsecase, cfg: cfg, logger: logger}
}

type searchResultResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	ImageRef  string  `json:"image_ref"`
	Price     int64   `json:"price"`
	Score     float32 `json:"score"`
}

type searchResponse struct {
	Results []searchResultResponse `json:"results"`
}

// search принимает multipart-форму с файлом image либо полем image_url
// и возвращает товары, упорядоченные по убыванию сходства.
func (s *SearchHandler) search(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 48 << 20
		maxMemory           = 32 << 20
		maxFileSize         = 15 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		s.logger.Warnf("%d: %s", http.StatusBadRequest, r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	var data []byte
	ref := r.FormValue("image_url")

	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		fileData, err := readFile(files[0], maxFileSize)
		if err != nil {
			s.logger.Warnf("%d: %s", http.StatusBadRequest, err.Error())
			WriteError(w, err)
			return
		}
		data = fileData
	}

	if len(data) == 0 && ref == "" {
		WriteError(w, e.Wrap("either image or image_url is required", e.ErrMissingFields))
		return
	}

	topK, err := parseIntForm(r, "top_k", s.cfg.DefaultTopK)
	if err != nil {
		WriteError(w, err)
		return
	}

	minScore, err := parseFloatForm(r, "min_score", s.cfg.DefaultMinScore)
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := s.searchUsecase.Search(r.Context(), usecase.NewSearchReq(ref, data, topK, float32(minScore)))
	if err != nil {
		if errors.Is(err, e.ErrCorruptIndex) {
			s.logger.Errorf(err, "search failed on corrupt index")
		} else {
			s.logger.Warnf("search failed: %s", err.Error())
		}
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newSearchResponse(res.Results))
}

func newSearchResponse(results []domain.QueryResult) *searchResponse {
	out := make([]searchResultResponse, 0, len(results))
	for _, res := range results {
		out = append(out, searchResultResponse{
			ProductID: res.ProductID,
			Name:      res.Name,
			Category:  res.Category,
			ImageRef:  res.ImageRef,
			Price:     res.Price,
			Score:     res.Score,
		})
	}

	return &searchResponse{Results: out}
}
