package service

import (
	"context"
	"strings"

	"github.com/maryema-next/internal/cache"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogService 商品目录服务（分类、商品、规格、合集）
type CatalogService struct {
	categoryRepo   repository.CategoryRepository
	productRepo    repository.ProductRepository
	variantRepo    repository.ProductVariantRepository
	collectionRepo repository.CollectionRepository
	cartRepo       repository.CartRepository
	orderRepo      repository.OrderRepository
	recalc         *RecalcService
}

// NewCatalogService 创建商品目录服务
func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.ProductVariantRepository,
	collectionRepo repository.CollectionRepository,
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	recalc *RecalcService,
) *CatalogService {
	return &CatalogService{
		categoryRepo:   categoryRepo,
		productRepo:    productRepo,
		variantRepo:    variantRepo,
		collectionRepo: collectionRepo,
		cartRepo:       cartRepo,
		orderRepo:      orderRepo,
		recalc:         recalc,
	}
}

func requireCatalogManager(actor Actor) error {
	if actor.IsAdmin() || actor.IsProvider() {
		return nil
	}
	return ErrNotProvider
}

// canManageProduct 供应商只能管理自己的商品
func canManageProduct(actor Actor, product *models.Product) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.IsProvider() && product.ProviderID != nil && *product.ProviderID == actor.ProfileID
}

// ---- 分类 ----

// CategoryInput 分类写入参数
type CategoryInput struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

// ListCategories 分类列表，带上架商品数
func (s *CatalogService) ListCategories() ([]models.Category, error) {
	return s.categoryRepo.List()
}

// CreateCategory 创建分类
func (s *CatalogService) CreateCategory(actor Actor, in CategoryInput) (*models.Category, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", CodeRequired, "name is required")
	}
	category := &models.Category{Name: name, SortOrder: in.SortOrder}
	if err := s.categoryRepo.Create(category); err != nil {
		return nil, translateWriteError(err)
	}
	return category, nil
}

// UpdateCategory 更新分类
func (s *CatalogService) UpdateCategory(actor Actor, id uint, in CategoryInput) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", CodeRequired, "name is required")
	}
	category.Name = name
	category.SortOrder = in.SortOrder
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, translateWriteError(err)
	}
	return category, nil
}

// DeleteCategory 删除分类（仍有商品时拒绝）
func (s *CatalogService) DeleteCategory(actor Actor, id uint) error {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	if !actor.IsAdmin() {
		return ErrNotAdmin
	}
	deleted, err := s.categoryRepo.DeleteIfEmpty(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrConflict
	}
	return nil
}

// ---- 商品 ----

// ProductInput 商品写入参数
type ProductInput struct {
	CategoryID  uint     `json:"category_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	IsActive    *bool    `json:"is_active"`
	SortOrder   int      `json:"sort_order"`
}

// ListProducts 商品列表
func (s *CatalogService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// GetProduct 商品详情
func (s *CatalogService) GetProduct(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *CatalogService) validateProduct(in ProductInput) error {
	var vs violations
	if strings.TrimSpace(in.Name) == "" {
		vs.add("name", CodeRequired, "name is required")
	}
	if in.CategoryID == 0 {
		vs.add("category_id", CodeRequired, "category is required")
	} else {
		category, err := s.categoryRepo.GetByID(in.CategoryID)
		if err != nil {
			return err
		}
		if category == nil {
			return ErrCategoryNotFound
		}
	}
	return vs.err()
}

// CreateProduct 供应商/管理员创建商品
func (s *CatalogService) CreateProduct(actor Actor, in ProductInput) (*models.Product, error) {
	if err := requireCatalogManager(actor); err != nil {
		return nil, err
	}
	if err := s.validateProduct(in); err != nil {
		return nil, err
	}
	product := &models.Product{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Tags:        models.StringArray(in.Tags),
		IsActive:    in.IsActive == nil || *in.IsActive,
		SortOrder:   in.SortOrder,
	}
	if actor.IsProvider() {
		providerID := actor.ProfileID
		product.ProviderID = &providerID
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, translateWriteError(err)
	}
	return s.GetProduct(product.ID)
}

// UpdateProduct 更新商品
func (s *CatalogService) UpdateProduct(actor Actor, id uint, in ProductInput) (*models.Product, error) {
	product, err := s.GetProduct(id)
	if err != nil {
		return nil, err
	}
	if !canManageProduct(actor, product) {
		return nil, ErrNotOwner
	}
	if err := s.validateProduct(in); err != nil {
		return nil, err
	}
	product.CategoryID = in.CategoryID
	product.Name = strings.TrimSpace(in.Name)
	product.Description = in.Description
	product.Tags = models.StringArray(in.Tags)
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	product.SortOrder = in.SortOrder
	if err := s.productRepo.Update(product); err != nil {
		return nil, translateWriteError(err)
	}
	return s.GetProduct(id)
}

// DeleteProduct 删除商品及其全部规格
func (s *CatalogService) DeleteProduct(actor Actor, id uint) error {
	product, err := s.GetProduct(id)
	if err != nil {
		return err
	}
	if !canManageProduct(actor, product) {
		return ErrNotOwner
	}
	var cartIDs []uint
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		for _, variant := range product.Variants {
			ids, err := s.deleteVariantTx(tx, variant.ID)
			if err != nil {
				return err
			}
			cartIDs = append(cartIDs, ids...)
		}
		return s.productRepo.WithTx(tx).Delete(id)
	})
	if err != nil {
		return err
	}
	invalidatePreviews(cartIDs)
	return nil
}

// ---- 规格 ----

// VariantInput 规格写入参数
type VariantInput struct {
	Color     string       `json:"color"`
	Size      string       `json:"size"`
	Cost      models.Money `json:"cost"`
	Price     models.Money `json:"price"`
	Stock     int          `json:"stock"`
	SortOrder int          `json:"sort_order"`
}

// ValidateVariant 成本与售价不能为负，售价不能低于成本
func ValidateVariant(in VariantInput) error {
	var vs violations
	if in.Cost.LessThan(decimal.Zero) {
		vs.add("cost", CodeVariantPrice, "cost must not be negative")
	}
	if in.Price.LessThan(decimal.Zero) {
		vs.add("price", CodeVariantPrice, "price must not be negative")
	}
	if in.Price.LessThan(in.Cost.Decimal) {
		vs.add("price", CodeVariantPrice, "price must not be lower than cost")
	}
	if in.Stock < 0 {
		vs.add("stock", CodeQuantityInvalid, "stock must not be negative")
	}
	return vs.err()
}

// ListVariants 商品规格列表
func (s *CatalogService) ListVariants(productID uint) ([]models.ProductVariant, error) {
	if _, err := s.GetProduct(productID); err != nil {
		return nil, err
	}
	return s.variantRepo.ListByProduct(productID)
}

// GetVariant 规格详情
func (s *CatalogService) GetVariant(id uint) (*models.ProductVariant, error) {
	variant, err := s.variantRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, ErrVariantNotFound
	}
	return variant, nil
}

// CreateVariant 创建规格，同商品下颜色+尺码唯一
func (s *CatalogService) CreateVariant(actor Actor, productID uint, in VariantInput) (*models.ProductVariant, error) {
	product, err := s.GetProduct(productID)
	if err != nil {
		return nil, err
	}
	if !canManageProduct(actor, product) {
		return nil, ErrNotOwner
	}
	if err := ValidateVariant(in); err != nil {
		return nil, err
	}
	variant := &models.ProductVariant{
		ProductID: productID,
		Color:     strings.TrimSpace(in.Color),
		Size:      strings.TrimSpace(in.Size),
		Cost:      in.Cost,
		Price:     in.Price,
		Stock:     in.Stock,
		SortOrder: in.SortOrder,
	}
	if err := s.variantRepo.Create(variant); err != nil {
		return nil, translateWriteError(err)
	}
	return variant, nil
}

// UpdateVariant 更新规格；改价后重算包含该规格的当前购物车
func (s *CatalogService) UpdateVariant(actor Actor, id uint, in VariantInput) (*models.ProductVariant, error) {
	variant, err := s.GetVariant(id)
	if err != nil {
		return nil, err
	}
	if variant.Product == nil || !canManageProduct(actor, variant.Product) {
		return nil, ErrNotOwner
	}
	if err := ValidateVariant(in); err != nil {
		return nil, err
	}
	priceChanged := !variant.Price.Equal(in.Price.Decimal)
	variant.Color = strings.TrimSpace(in.Color)
	variant.Size = strings.TrimSpace(in.Size)
	variant.Cost = in.Cost
	variant.Price = in.Price
	variant.Stock = in.Stock
	variant.SortOrder = in.SortOrder

	var cartIDs []uint
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.variantRepo.WithTx(tx).Update(variant); err != nil {
			return translateWriteError(err)
		}
		if !priceChanged {
			return nil
		}
		ids, err := s.cartRepo.WithTx(tx).ListCartIDsByVariant(id, true)
		if err != nil {
			return err
		}
		cartIDs = ids
		return s.recalc.RecalculateCarts(tx, ids)
	})
	if err != nil {
		return nil, err
	}
	invalidatePreviews(cartIDs)
	return s.GetVariant(id)
}

// DeleteVariant 删除规格，并删除引用它的购物车/订单明细后重算
func (s *CatalogService) DeleteVariant(actor Actor, id uint) error {
	variant, err := s.GetVariant(id)
	if err != nil {
		return err
	}
	if variant.Product == nil || !canManageProduct(actor, variant.Product) {
		return ErrNotOwner
	}
	var cartIDs []uint
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		ids, err := s.deleteVariantTx(tx, id)
		cartIDs = ids
		return err
	})
	if err != nil {
		return err
	}
	invalidatePreviews(cartIDs)
	return nil
}

func (s *CatalogService) deleteVariantTx(tx *gorm.DB, variantID uint) ([]uint, error) {
	cartRepo := s.cartRepo.WithTx(tx)
	orderRepo := s.orderRepo.WithTx(tx)
	cartIDs, err := cartRepo.ListCartIDsByVariant(variantID, false)
	if err != nil {
		return nil, err
	}
	orderIDs, err := orderRepo.ListOrderIDsByVariant(variantID)
	if err != nil {
		return nil, err
	}
	if err := cartRepo.DeleteItemsByVariant(variantID); err != nil {
		return nil, err
	}
	if err := orderRepo.DeleteItemsByVariant(variantID); err != nil {
		return nil, err
	}
	if err := s.variantRepo.WithTx(tx).Delete(variantID); err != nil {
		return nil, err
	}
	if err := s.recalc.RecalculateCarts(tx, cartIDs); err != nil {
		return nil, err
	}
	if err := s.recalc.RecalculateOrders(tx, orderIDs); err != nil {
		return nil, err
	}
	logger.Infow("variant_deleted", "variant_id", variantID, "carts", len(cartIDs), "orders", len(orderIDs))
	return cartIDs, nil
}

// ---- 合集 ----

// CollectionInput 合集写入参数
type CollectionInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductIDs  []uint `json:"product_ids"`
}

// ListCollections 合集列表
func (s *CatalogService) ListCollections() ([]models.Collection, error) {
	return s.collectionRepo.List()
}

// GetCollection 合集详情
func (s *CatalogService) GetCollection(id uint) (*models.Collection, error) {
	collection, err := s.collectionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, ErrCollectionNotFound
	}
	return collection, nil
}

// CreateCollection 创建合集
func (s *CatalogService) CreateCollection(actor Actor, in CollectionInput) (*models.Collection, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", CodeRequired, "name is required")
	}
	collection := &models.Collection{Name: name, Description: in.Description}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.collectionRepo.WithTx(tx)
		if err := repo.Create(collection); err != nil {
			return translateWriteError(err)
		}
		return repo.ReplaceProducts(collection.ID, uniqueIDs(in.ProductIDs))
	})
	if err != nil {
		return nil, err
	}
	return s.GetCollection(collection.ID)
}

// UpdateCollection 更新合集及其商品
func (s *CatalogService) UpdateCollection(actor Actor, id uint, in CollectionInput) (*models.Collection, error) {
	collection, err := s.GetCollection(id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", CodeRequired, "name is required")
	}
	collection.Name = name
	collection.Description = in.Description
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.collectionRepo.WithTx(tx)
		if err := repo.Update(collection); err != nil {
			return translateWriteError(err)
		}
		return repo.ReplaceProducts(id, uniqueIDs(in.ProductIDs))
	})
	if err != nil {
		return nil, err
	}
	return s.GetCollection(id)
}

// DeleteCollection 删除合集
func (s *CatalogService) DeleteCollection(actor Actor, id uint) error {
	if _, err := s.GetCollection(id); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return ErrNotAdmin
	}
	return s.collectionRepo.Delete(id)
}

func invalidatePreviews(cartIDs []uint) {
	if len(cartIDs) == 0 {
		return
	}
	if err := cache.InvalidateDiscountPreview(context.Background(), cartIDs...); err != nil {
		logger.Warnw("discount_preview_invalidate_failed", "cart_ids", cartIDs, "error", err)
	}
}
