package service

import (
	"context"
	"errors"
	"fmt"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/repository"

	"github.com/google/uuid"
)

var ErrInvalidCategory = errors.New("unknown category")

// CatalogService is the read side of the product catalog
type CatalogService interface {
	ListProducts(ctx context.Context, category string) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

// ListProducts returns the catalog, optionally narrowed to one category. An empty category lists everything.
func (s *catalogService) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	var filter repository.ProductFilter
	if category != "" {
		c := domain.Category(category)
		if !c.Valid() {
			return nil, fmt.Errorf("%q: %w", category, ErrInvalidCategory)
		}
		filter.Category = &c
	}
	return s.productRepo.List(ctx, filter)
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}
