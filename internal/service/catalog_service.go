package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

const catalogCacheTTL = 5 * time.Minute

// CatalogStore is the slice of the store the catalog needs
type CatalogStore interface {
	GetProducts(ctx context.Context, categoryID int64) ([]models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	SetProductInventory(ctx context.Context, productID int64, inventory int) error
	DeleteProduct(ctx context.Context, id int64) error
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

// CatalogCache is the read-through cache the catalog uses. A nil cache
// disables caching.
type CatalogCache interface {
	GetCached(ctx context.Context, key string, dest interface{}) (bool, error)
	SetCached(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// CatalogService serves product and category reads with a Redis
// read-through cache. Inventory shown here may lag the checkout path
// by up to the cache TTL; checkout always re-checks under lock.
type CatalogService struct {
	store  CatalogStore
	cache  CatalogCache
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, cache CatalogCache) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		logger: util.NamedLogger("catalog"),
	}
}

// ListProducts returns the catalog, optionally filtered by category id
func (s *CatalogService) ListProducts(ctx context.Context, categoryID int64) ([]models.Product, error) {
	key := fmt.Sprintf("catalog:products:%d", categoryID)

	var products []models.Product
	if s.lookupCache(ctx, key, &products) {
		return products, nil
	}

	products, err := s.store.GetProducts(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, key, products)
	return products, nil
}

// GetProductBySlug returns one product
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	key := "catalog:product:" + slug

	var product models.Product
	if s.lookupCache(ctx, key, &product) {
		return &product, nil
	}

	found, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, key, found)
	return found, nil
}

// ListCategories returns all categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	key := "catalog:categories"

	var categories []models.Category
	if s.lookupCache(ctx, key, &categories) {
		return categories, nil
	}

	categories, err := s.store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	s.fillCache(ctx, key, categories)
	return categories, nil
}

// GetCategoryBySlug returns a category with its products (the product
// list is derived, never stored on the category)
func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, []models.Product, error) {
	category, err := s.store.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	products, err := s.ListProducts(ctx, category.ID)
	if err != nil {
		return nil, nil, err
	}
	return category, products, nil
}

// CreateProduct adds a product to the catalog and drops the listings it
// would appear in
func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	if _, err := s.store.GetCategoryByID(ctx, product.CategoryID); err != nil {
		return err
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return err
	}
	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("slug", product.Slug))
	s.invalidate(ctx, productKeys(product)...)
	return nil
}

// UpdateProduct updates a product's mutable fields. The slug is fixed
// at creation time. Both the old and new category listings are dropped
// from the cache.
func (s *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) error {
	current, err := s.store.GetProductByID(ctx, product.ID)
	if err != nil {
		return err
	}
	product.Slug = current.Slug

	if current.CategoryID != product.CategoryID {
		if _, err := s.store.GetCategoryByID(ctx, product.CategoryID); err != nil {
			return err
		}
	}
	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return err
	}
	s.logger.Info("Product updated", zap.Int64("product_id", product.ID))

	keys := productKeys(product)
	if current.CategoryID != product.CategoryID {
		keys = append(keys, fmt.Sprintf("catalog:products:%d", current.CategoryID))
	}
	s.invalidate(ctx, keys...)
	return nil
}

// SetInventory overwrites a product's inventory count (restock or
// manual correction)
func (s *CatalogService) SetInventory(ctx context.Context, productID int64, inventory int) error {
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.store.SetProductInventory(ctx, productID, inventory); err != nil {
		return err
	}
	s.logger.Info("Product inventory set",
		zap.Int64("product_id", productID),
		zap.Int("inventory", inventory))
	s.invalidate(ctx, productKeys(product)...)
	return nil
}

// DeleteProduct removes a product from the catalog. Existing order
// items keep their snapshot; cart lines referencing it are dropped by
// the database.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	product, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	s.invalidate(ctx, productKeys(product)...)
	return nil
}

// CreateCategory adds a category
func (s *CatalogService) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return err
	}
	s.logger.Info("Category created", zap.String("slug", category.Slug))
	s.invalidate(ctx, "catalog:categories")
	return nil
}

// productKeys lists the cache entries a product mutation makes stale:
// the product itself, its category listing and the unfiltered listing
func productKeys(product *models.Product) []string {
	return []string{
		"catalog:product:" + product.Slug,
		fmt.Sprintf("catalog:products:%d", product.CategoryID),
		"catalog:products:0",
	}
}

func (s *CatalogService) lookupCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetCached(ctx, key, dest)
	if err != nil {
		s.logger.Warn("Catalog cache lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if hit {
		util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
		return true
	}
	util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()
	return false
}

func (s *CatalogService) fillCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetCached(ctx, key, value, catalogCacheTTL); err != nil {
		s.logger.Warn("Catalog cache fill failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CatalogService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
}
