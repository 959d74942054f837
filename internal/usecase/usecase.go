package usecase

import (
	"context"

	"github.com/Vinay8git/Visual-Product-Matcher-App/internal/domain"
)

type SearchUC interface {
	Search(ctx context.Context, req *SearchReq) (*SearchRes, error)
}

type ProductUC interface {
	AddProduct(ctx context.Context, req *AddProductReq) (*AddProductRes, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	RebuildAll(ctx context.Context) (*RebuildOutcome, error)
	EnsureIndex(ctx context.Context) error
}
