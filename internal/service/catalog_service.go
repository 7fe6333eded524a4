package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"warungmadura/internal/domain"
	"warungmadura/internal/repository"
)

// CatalogQuery фильтр витрины: slug категории и строка поиска
type CatalogQuery struct {
	CategorySlug string
	Search       string
}

// CatalogService чтение каталога для покупателей
type CatalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
}

func NewCatalogService(categories repository.CategoryRepository, products repository.ProductRepository) *CatalogService {
	return &CatalogService{categories: categories, products: products}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

// ListProducts товары в наличии: популярные первыми, затем по имени
func (s *CatalogService) ListProducts(ctx context.Context, q CatalogQuery) ([]domain.Product, error) {
	f := repository.ProductFilter{
		NameSubstring: strings.TrimSpace(q.Search),
		InStockOnly:   true,
	}
	if slug := strings.TrimSpace(q.CategorySlug); slug != "" {
		c, err := s.categories.GetBySlug(ctx, slug)
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.Product{}, nil
		}
		if err != nil {
			return nil, err
		}
		f.CategoryID = &c.ID
	}
	list, err := s.products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	sortForStorefront(list)
	return list, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, slug string) (*domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrInvalidInput
	}
	return s.products.GetBySlug(ctx, slug)
}

func sortForStorefront(list []domain.Product) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].IsPopular != list[j].IsPopular {
			return list[i].IsPopular
		}
		return list[i].Name < list[j].Name
	})
}
