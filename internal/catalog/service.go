package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/repo"
)

type categoryStore interface {
	List(ctx context.Context) ([]repo.Category, error)
	Get(ctx context.Context, id int64) (repo.Category, error)
	Create(ctx context.Context, c repo.Category) (repo.Category, error)
	Update(ctx context.Context, c repo.Category) (repo.Category, error)
	Delete(ctx context.Context, id int64) error
}

type productStore interface {
	List(ctx context.Context, params repo.ListParams) ([]repo.Product, error)
	Count(ctx context.Context, params repo.ListParams) (int64, error)
	Get(ctx context.Context, id int64) (repo.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (repo.Product, error)
	Create(ctx context.Context, p repo.Product) (repo.Product, error)
	Update(ctx context.Context, p repo.Product) (repo.Product, error)
	Delete(ctx context.Context, id int64) error
	Tags(ctx context.Context, productID int64) ([]repo.Tag, error)
	AttachTag(ctx context.Context, productID int64, name string) (repo.Tag, error)
	DetachTag(ctx context.Context, productID, tagID int64) error
}

// Service orchestrates catalog reads and writes with read-through
// caching on the hot listing paths.
type Service struct {
	categories categoryStore
	products   productStore
	cache      *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Categories categoryStore
	Products   productStore
	Cache      *Cache
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{categories: cfg.Categories, products: cfg.Products, cache: cfg.Cache}
}

// CategoryInput is a category submission. Prices are minor units.
type CategoryInput struct {
	Name       string `json:"name" validate:"required,max=120"`
	PriceTier1 int64  `json:"price_tier1" validate:"gte=0"`
	PriceTier2 *int64 `json:"price_tier2"`
	PriceTier3 *int64 `json:"price_tier3"`
	QtyLimit1  *int32 `json:"qty_limit1"`
	QtyLimit2  *int32 `json:"qty_limit2"`
}

func (in CategoryInput) tiers() pricing.TierTable {
	return pricing.TierTable{
		Tier1:  in.PriceTier1,
		Tier2:  in.PriceTier2,
		Tier3:  in.PriceTier3,
		Limit1: in.QtyLimit1,
		Limit2: in.QtyLimit2,
	}
}

func validateTiers(in CategoryInput) error {
	for _, p := range []*int64{in.PriceTier2, in.PriceTier3} {
		if p != nil && *p < 0 {
			return common.Validation("tier prices cannot be negative", nil)
		}
	}
	for _, l := range []*int32{in.QtyLimit1, in.QtyLimit2} {
		if l != nil && *l <= 0 {
			return common.Validation("quantity limits must be positive", nil)
		}
	}
	if in.QtyLimit1 != nil && in.QtyLimit2 != nil && *in.QtyLimit2 <= *in.QtyLimit1 {
		return common.Validation("qty_limit2 must be greater than qty_limit1", nil)
	}
	return nil
}

// ListCategories returns all categories, served from cache when warm.
func (s *Service) ListCategories(ctx context.Context) ([]repo.Category, error) {
	var cached []repo.Category
	if ok, err := s.cache.GetJSON(ctx, keyCategories, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, keyCategories, rows)
	return rows, nil
}

// GetCategory returns one category.
func (s *Service) GetCategory(ctx context.Context, id int64) (repo.Category, error) {
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return repo.Category{}, mapStoreErr(err, "category", id)
	}
	return c, nil
}

// CreateCategory validates and persists a new category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (repo.Category, error) {
	if err := validateTiers(in); err != nil {
		return repo.Category{}, err
	}
	c, err := s.categories.Create(ctx, repo.Category{Name: in.Name, Tiers: in.tiers()})
	if err != nil {
		return repo.Category{}, mapStoreErr(err, "category", 0)
	}
	s.cache.Invalidate(ctx, keyCategories, keyProducts)
	return c, nil
}

// UpdateCategory rewrites a category's name and tier table.
func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (repo.Category, error) {
	if err := validateTiers(in); err != nil {
		return repo.Category{}, err
	}
	c, err := s.categories.Update(ctx, repo.Category{ID: id, Name: in.Name, Tiers: in.tiers()})
	if err != nil {
		return repo.Category{}, mapStoreErr(err, "category", id)
	}
	s.cache.Invalidate(ctx, keyCategories, keyProducts)
	return c, nil
}

// DeleteCategory removes a category. Categories still referenced by
// products surface as a conflict.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return mapStoreErr(err, "category", id)
	}
	s.cache.Invalidate(ctx, keyCategories, keyProducts)
	return nil
}

// ProductInput is a product submission.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description string  `json:"description"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Barcode     *string `json:"barcode"`
	CategoryID  int64   `json:"category_id" validate:"required,gt=0"`
}

// ProductDetail is a product with its tags and category pricing.
type ProductDetail struct {
	repo.Product
	Category repo.Category `json:"category"`
	Tags     []repo.Tag    `json:"tags"`
}

// ProductList is one page of products.
type ProductList struct {
	Items []repo.Product
	Total int64
}

// ListProducts returns a filtered page of products.
func (s *Service) ListProducts(ctx context.Context, params repo.ListParams) (ProductList, error) {
	items, err := s.products.List(ctx, params)
	if err != nil {
		return ProductList{}, err
	}
	total, err := s.products.Count(ctx, params)
	if err != nil {
		return ProductList{}, err
	}
	return ProductList{Items: items, Total: total}, nil
}

// GetProduct returns a product with its category and tags.
func (s *Service) GetProduct(ctx context.Context, id int64) (ProductDetail, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return ProductDetail{}, mapStoreErr(err, "product", id)
	}
	return s.assembleDetail(ctx, p)
}

// GetProductByBarcode resolves a scanned barcode to its product.
func (s *Service) GetProductByBarcode(ctx context.Context, barcode string) (ProductDetail, error) {
	if barcode == "" {
		return ProductDetail{}, common.BadRequest("barcode is required", nil)
	}
	p, err := s.products.GetByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductDetail{}, common.NewAppError("NOT_FOUND",
				fmt.Sprintf("no product with barcode %q", barcode), http.StatusNotFound, nil)
		}
		return ProductDetail{}, err
	}
	return s.assembleDetail(ctx, p)
}

func (s *Service) assembleDetail(ctx context.Context, p repo.Product) (ProductDetail, error) {
	category, err := s.categories.Get(ctx, p.CategoryID)
	if err != nil {
		return ProductDetail{}, err
	}
	tags, err := s.products.Tags(ctx, p.ID)
	if err != nil {
		return ProductDetail{}, err
	}
	return ProductDetail{Product: p, Category: category, Tags: tags}, nil
}

// CreateProduct validates and persists a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (repo.Product, error) {
	if _, err := s.categories.Get(ctx, in.CategoryID); err != nil {
		return repo.Product{}, mapStoreErr(err, "category", in.CategoryID)
	}
	p, err := s.products.Create(ctx, repo.Product{
		Name:        in.Name,
		Description: in.Description,
		Stock:       in.Stock,
		Barcode:     in.Barcode,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		return repo.Product{}, mapStoreErr(err, "product", 0)
	}
	s.cache.Invalidate(ctx, keyProducts)
	return p, nil
}

// UpdateProduct rewrites a product's mutable fields.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (repo.Product, error) {
	if _, err := s.categories.Get(ctx, in.CategoryID); err != nil {
		return repo.Product{}, mapStoreErr(err, "category", in.CategoryID)
	}
	p, err := s.products.Update(ctx, repo.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Stock:       in.Stock,
		Barcode:     in.Barcode,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		return repo.Product{}, mapStoreErr(err, "product", id)
	}
	s.cache.Invalidate(ctx, keyProducts)
	return p, nil
}

// DeleteProduct removes a product unless sale history references it.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return mapStoreErr(err, "product", id)
	}
	s.cache.Invalidate(ctx, keyProducts)
	return nil
}

// TagProduct attaches a tag by name, creating it on first use.
func (s *Service) TagProduct(ctx context.Context, productID int64, name string) (repo.Tag, error) {
	if name == "" {
		return repo.Tag{}, common.Validation("tag name is required", nil)
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return repo.Tag{}, mapStoreErr(err, "product", productID)
	}
	t, err := s.products.AttachTag(ctx, productID, name)
	if err != nil {
		return repo.Tag{}, err
	}
	s.cache.Invalidate(ctx, keyProducts)
	return t, nil
}

// UntagProduct removes a tag link.
func (s *Service) UntagProduct(ctx context.Context, productID, tagID int64) error {
	if err := s.products.DetachTag(ctx, productID, tagID); err != nil {
		return mapStoreErr(err, "tag", tagID)
	}
	s.cache.Invalidate(ctx, keyProducts)
	return nil
}

// mapStoreErr translates storage errors into client-facing ones.
// Foreign key violations become conflicts so "category still in use"
// reads as a state problem, not a server fault.
func mapStoreErr(err error, entity string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return common.NotFound(entity, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return common.Conflict(fmt.Sprintf("%s is referenced by other records", entity))
		case "23505":
			return common.Conflict(fmt.Sprintf("%s already exists", entity))
		}
	}
	return err
}
