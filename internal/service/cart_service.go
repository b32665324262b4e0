package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/maryema-next/internal/cache"
	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// AddCartItemInput 加入购物车参数
type AddCartItemInput struct {
	VariantID uint `json:"variant_id"`
	Quantity  *int `json:"quantity"`
}

// CartPreview 折扣预览
type CartPreview struct {
	CartID   uint           `json:"cart_id"`
	Result   DiscountResult `json:"result"`
	CachedAt int64          `json:"cached_at"`
}

// CartService 购物车服务
type CartService struct {
	cfg         config.DiscountConfig
	cartRepo    repository.CartRepository
	variantRepo repository.ProductVariantRepository
	profileRepo repository.ProfileRepository
	codeRepo    repository.DiscountCodeRepository
	orderRepo   repository.OrderRepository
	usageRepo   repository.DiscountUsageRepository
	recalc      *RecalcService
	events      *OrderEventService
	group       singleflight.Group
}

// NewCartService 创建购物车服务
func NewCartService(
	cfg config.DiscountConfig,
	cartRepo repository.CartRepository,
	variantRepo repository.ProductVariantRepository,
	profileRepo repository.ProfileRepository,
	codeRepo repository.DiscountCodeRepository,
	orderRepo repository.OrderRepository,
	usageRepo repository.DiscountUsageRepository,
	recalc *RecalcService,
	events *OrderEventService,
) *CartService {
	return &CartService{
		cfg:         cfg,
		cartRepo:    cartRepo,
		variantRepo: variantRepo,
		profileRepo: profileRepo,
		codeRepo:    codeRepo,
		orderRepo:   orderRepo,
		usageRepo:   usageRepo,
		recalc:      recalc,
		events:      events,
	}
}

// ensureActiveCart 获取或创建顾客当前购物车，并发插入由部分唯一索引兜底
func ensureActiveCart(cartRepo *repository.GormCartRepository, profile *models.Profile) (*models.Cart, error) {
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if !profile.IsCustomer() {
		return nil, ErrNotCustomer
	}
	cart, err := cartRepo.GetActiveByCustomer(profile.ID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	cart = &models.Cart{
		CustomerID:     profile.ID,
		IsActive:       true,
		Subtotal:       models.ZeroMoney(),
		DiscountAmount: models.ZeroMoney(),
		Cost:           models.ZeroMoney(),
	}
	if err := cartRepo.Create(cart); err != nil {
		if !repository.IsDuplicateKeyError(err) {
			return nil, err
		}
		existing, getErr := cartRepo.GetActiveByCustomer(profile.ID)
		if getErr != nil {
			return nil, getErr
		}
		if existing == nil {
			return nil, ErrConflict
		}
		return existing, nil
	}
	return cart, nil
}

// GetOrCreateActiveCart 获取当前购物车（不存在则创建）
func (s *CartService) GetOrCreateActiveCart(actor Actor) (*models.Cart, error) {
	key := strconv.FormatUint(uint64(actor.ProfileID), 10)
	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		profile, err := s.profileRepo.GetByID(actor.ProfileID)
		if err != nil {
			return nil, err
		}
		return ensureActiveCart(s.cartRepo.WithTx(models.DB), profile)
	})
	if err != nil {
		return nil, err
	}
	cart := value.(*models.Cart)
	// singleflight 共享结果，返回副本避免调用方互相修改
	copied := *cart
	return &copied, nil
}

// GetCart 购物车详情
func (s *CartService) GetCart(actor Actor) (*models.Cart, error) {
	cart, err := s.GetOrCreateActiveCart(actor)
	if err != nil {
		return nil, err
	}
	return s.reload(cart.ID)
}

func (s *CartService) reload(cartID uint) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByID(cartID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// AddItem 顾客向当前购物车加入规格
func (s *CartService) AddItem(actor Actor, input AddCartItemInput) (*models.Cart, error) {
	cart, err := s.GetOrCreateActiveCart(actor)
	if err != nil {
		return nil, err
	}
	return s.AddItemToCart(cart.ID, input.VariantID, input.Quantity)
}

// AddItemToCart 向指定购物车写入明细：写入时校验购物车仍为当前购物车，同一规格合并数量
func (s *CartService) AddItemToCart(cartID, variantID uint, quantity *int) (*models.Cart, error) {
	qty, err := normalizeQuantity(quantity)
	if err != nil {
		return nil, err
	}
	if qty == 0 {
		return nil, newValidationError("quantity", CodeQuantityInvalid, "quantity must be positive")
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		cart, err := cartRepo.GetByID(cartID)
		if err != nil {
			return err
		}
		if cart == nil {
			return ErrCartNotFound
		}
		if !cart.IsActive {
			return newValidationError("cart_id", CodeCartInactive, "cart is not active")
		}
		variant, err := s.variantRepo.WithTx(tx).GetByID(variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrVariantNotFound
		}
		existing, err := cartRepo.GetItemByVariant(cartID, variantID)
		if err != nil {
			return err
		}
		if existing != nil {
			merged, err := mergeQuantity(existing.Quantity, qty)
			if err != nil {
				return err
			}
			if err := cartRepo.UpdateItemQuantity(existing.ID, merged); err != nil {
				return err
			}
		} else {
			item := &models.CartItem{CartID: cartID, VariantID: variantID, Quantity: qty}
			if err := cartRepo.CreateItem(item); err != nil {
				return translateWriteError(err)
			}
		}
		_, err = s.recalc.RecalculateCart(tx, cartID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidatePreview(cartID)
	return s.reload(cartID)
}

// loadOwnedItem 先判断存在（404）再判断归属（403）
func (s *CartService) loadOwnedItem(repo *repository.GormCartRepository, actor Actor, itemID uint) (*models.CartItem, *models.Cart, error) {
	item, err := repo.GetItemByID(itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, ErrCartItemNotFound
	}
	cart, err := repo.GetByID(item.CartID)
	if err != nil {
		return nil, nil, err
	}
	if cart == nil {
		return nil, nil, ErrCartItemNotFound
	}
	if cart.CustomerID != actor.ProfileID && !actor.IsAdmin() {
		return nil, nil, ErrNotOwner
	}
	if !cart.IsActive {
		return nil, nil, newValidationError("cart_id", CodeCartInactive, "cart is not active")
	}
	return item, cart, nil
}

// UpdateItem 修改明细数量，数量为 0 时删除
func (s *CartService) UpdateItem(actor Actor, itemID uint, quantity int) (*models.Cart, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	var cartID uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)
		item, cart, err := s.loadOwnedItem(repo, actor, itemID)
		if err != nil {
			return err
		}
		cartID = cart.ID
		if quantity == 0 {
			if err := repo.DeleteItem(item.ID); err != nil {
				return err
			}
		} else if err := repo.UpdateItemQuantity(item.ID, quantity); err != nil {
			return err
		}
		_, err = s.recalc.RecalculateCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidatePreview(cartID)
	return s.reload(cartID)
}

// DeleteItem 删除明细
func (s *CartService) DeleteItem(actor Actor, itemID uint) (*models.Cart, error) {
	return s.UpdateItem(actor, itemID, 0)
}

// ClearCart 清空当前购物车明细
func (s *CartService) ClearCart(actor Actor) (*models.Cart, error) {
	cart, err := s.GetOrCreateActiveCart(actor)
	if err != nil {
		return nil, err
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		removed, err := s.cartRepo.WithTx(tx).ClearItems(cart.ID)
		if err != nil {
			return err
		}
		logger.ForCart(cart.ID).Debugw("cart_items_cleared", "removed", removed)
		_, err = s.recalc.RecalculateCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidatePreview(cart.ID)
	return s.reload(cart.ID)
}

// ApplyCode 为当前购物车应用折扣码
func (s *CartService) ApplyCode(actor Actor, code string) (*models.Cart, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, newValidationError("code", CodeRequired, "code is required")
	}
	cart, err := s.GetOrCreateActiveCart(actor)
	if err != nil {
		return nil, err
	}
	discountCode, err := s.codeRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if discountCode == nil || discountCode.Rule == nil {
		return nil, ErrDiscountCodeNotFound
	}
	if !discountCode.IsActive(time.Now(), discountCode.Rule.UsageLimit) {
		return nil, newValidationError("code", CodeDiscountCodeInactive, "discount code is not active")
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)
		attached, err := repo.ListCodes(cart.ID)
		if err != nil {
			return err
		}
		for _, c := range attached {
			if c.ID == discountCode.ID {
				return nil
			}
		}
		if limit := s.cfg.MaxCodesPerOrder; limit > 0 && len(attached) >= limit {
			return newValidationError("code", CodeCartCodeLimit, "too many discount codes")
		}
		if err := repo.AttachCode(cart.ID, discountCode.ID); err != nil {
			return err
		}
		_, err = s.recalc.RecalculateCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidatePreview(cart.ID)
	return s.reload(cart.ID)
}

// RemoveCode 移除折扣码
func (s *CartService) RemoveCode(actor Actor, code string) (*models.Cart, error) {
	cart, err := s.GetOrCreateActiveCart(actor)
	if err != nil {
		return nil, err
	}
	discountCode, err := s.codeRepo.GetByCode(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if discountCode == nil {
		return nil, ErrDiscountCodeNotFound
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.cartRepo.WithTx(tx).DetachCode(cart.ID, discountCode.ID); err != nil {
			return err
		}
		_, err := s.recalc.RecalculateCart(tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidatePreview(cart.ID)
	return s.reload(cart.ID)
}

// Preview 折扣预览（不占用折扣码次数）
func (s *CartService) Preview(actor Actor) (*CartPreview, error) {
	cart, err := s.GetOrCreateActiveCart(actor)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	var cached CartPreview
	if hit, err := cache.GetDiscountPreview(ctx, cart.ID, &cached); err == nil && hit {
		return &cached, nil
	}
	_, result, err := s.recalc.ComputeCart(nil, cart.ID)
	if err != nil {
		return nil, err
	}
	preview := &CartPreview{CartID: cart.ID, Result: result, CachedAt: time.Now().Unix()}
	ttl := time.Duration(s.cfg.PreviewCacheSeconds) * time.Second
	if err := cache.SetDiscountPreview(ctx, cart.ID, preview, ttl); err != nil {
		logger.ForCart(cart.ID).Warnw("discount_preview_cache_set_failed", "error", err)
	}
	return preview, nil
}

func (s *CartService) invalidatePreview(cartIDs ...uint) {
	if err := cache.InvalidateDiscountPreview(context.Background(), cartIDs...); err != nil {
		logger.Warnw("discount_preview_invalidate_failed", "cart_ids", cartIDs, "error", err)
	}
}

// isCartScopeError 是否为购物车范围内可直接返回给调用方的错误
func isCartScopeError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrConflict)
}
