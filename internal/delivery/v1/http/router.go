package http

import (
	"net/http"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/cfg"
	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/usecase"
	"github.com/Vinay8git/Visual-Product-Matcher-App/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(prUC usecase.ProductUC, searchUC usecase.SearchUC, searchCfg *cfg.SearchCfg) {
	r.router.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(prUC, r.logger)
		registerProductRoutes(v1, prHandler)

		searchHandler := NewSearchHandler(searchUC, searchCfg, r.logger)
		registerSearchRoutes(v1, searchHandler)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/", prHandler.addProduct)
		pr.Get("/", prHandler.listProducts)
	})

	router.Post("/index/rebuild", prHandler.rebuildIndex)
}

func registerSearchRoutes(router chi.Router, searchHandler *SearchHandler) {
	router.Post("/search", searchHandler.search)
}
