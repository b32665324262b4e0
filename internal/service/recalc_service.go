package service

import (
	"errors"
	"time"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"

	"gorm.io/gorm"
)

// RecalcService 购物车/订单金额重算
// 每次明细变更后在同一事务内调用，按当前明细全量重算并写回派生金额
type RecalcService struct {
	cartRepo            repository.CartRepository
	orderRepo           repository.OrderRepository
	variantDiscountRepo repository.VariantDiscountRepository
	collectionRepo      repository.CollectionRepository
	ruleRepo            repository.DiscountRuleRepository
	usageRepo           repository.DiscountUsageRepository
	now                 func() time.Time
}

// NewRecalcService 创建重算服务
func NewRecalcService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	variantDiscountRepo repository.VariantDiscountRepository,
	collectionRepo repository.CollectionRepository,
	ruleRepo repository.DiscountRuleRepository,
	usageRepo repository.DiscountUsageRepository,
) *RecalcService {
	return &RecalcService{
		cartRepo:            cartRepo,
		orderRepo:           orderRepo,
		variantDiscountRepo: variantDiscountRepo,
		collectionRepo:      collectionRepo,
		ruleRepo:            ruleRepo,
		usageRepo:           usageRepo,
		now:                 time.Now,
	}
}

type recalcRepos struct {
	cart            *repository.GormCartRepository
	order           *repository.GormOrderRepository
	variantDiscount *repository.GormVariantDiscountRepository
	collection      *repository.GormCollectionRepository
	rule            *repository.GormDiscountRuleRepository
	usage           *repository.GormDiscountUsageRepository
}

func (s *RecalcService) bind(tx *gorm.DB) recalcRepos {
	if tx == nil {
		tx = models.DB
	}
	return recalcRepos{
		cart:            s.cartRepo.WithTx(tx),
		order:           s.orderRepo.WithTx(tx),
		variantDiscount: s.variantDiscountRepo.WithTx(tx),
		collection:      s.collectionRepo.WithTx(tx),
		rule:            s.ruleRepo.WithTx(tx),
		usage:           s.usageRepo.WithTx(tx),
	}
}

type lineSource struct {
	itemID   uint
	variant  *models.ProductVariant
	quantity int
}

// ComputeCart 计算购物车金额但不落库（预览）
func (s *RecalcService) ComputeCart(tx *gorm.DB, cartID uint) (*models.Cart, DiscountResult, error) {
	repos := s.bind(tx)
	cart, err := repos.cart.GetByID(cartID)
	if err != nil {
		return nil, DiscountResult{}, err
	}
	if cart == nil {
		return nil, DiscountResult{}, ErrCartNotFound
	}
	sources := make([]lineSource, 0, len(cart.Items))
	for _, item := range cart.Items {
		sources = append(sources, lineSource{itemID: item.ID, variant: item.Variant, quantity: item.Quantity})
	}
	codes, err := repos.cart.ListCodes(cartID)
	if err != nil {
		return nil, DiscountResult{}, err
	}
	now := s.now()
	result, err := s.evaluate(repos, cart.CustomerID, sources, codes, now, now, 0, false)
	if err != nil {
		return nil, DiscountResult{}, err
	}
	return cart, result, nil
}

// RecalculateCart 重算购物车并写回 subtotal/discount/cost
func (s *RecalcService) RecalculateCart(tx *gorm.DB, cartID uint) (DiscountResult, error) {
	_, result, err := s.ComputeCart(tx, cartID)
	if err != nil {
		return DiscountResult{}, err
	}
	if err := s.bind(tx).cart.UpdateTotals(cartID, result.Subtotal, result.Discount, result.Total); err != nil {
		return DiscountResult{}, err
	}
	return result, nil
}

// RecalculateCarts 批量重算（规格改价/删除、规则变更后使用）
func (s *RecalcService) RecalculateCarts(tx *gorm.DB, cartIDs []uint) error {
	for _, id := range uniqueIDs(cartIDs) {
		if _, err := s.RecalculateCart(tx, id); err != nil {
			if errors.Is(err, ErrCartNotFound) {
				continue
			}
			logger.Warnw("cart_recalculate_failed", "cart_id", id, "error", err)
			return err
		}
	}
	return nil
}

// RefreshCarts 独立事务内重算购物车并清除预览缓存（异步任务使用）
func (s *RecalcService) RefreshCarts(cartIDs []uint) error {
	ids := uniqueIDs(cartIDs)
	if len(ids) == 0 {
		return nil
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		return s.RecalculateCarts(tx, ids)
	})
	if err != nil {
		return err
	}
	invalidatePreviews(ids)
	return nil
}

// CartsCrossingWindows 返回 (from, to] 内折扣窗口开启或结束的当前购物车
func (s *RecalcService) CartsCrossingWindows(from, to time.Time) ([]uint, error) {
	if !to.After(from) {
		return nil, nil
	}
	return s.cartRepo.ListActiveCartIDsByWindowEdge(from, to)
}

// RecalculateOrder 重算订单并写回 subtotal/discount/total
// consumed 表示订单折扣码已计入使用次数，重算时不再校验使用上限
func (s *RecalcService) RecalculateOrder(tx *gorm.DB, orderID uint, consumed bool) (DiscountResult, error) {
	repos := s.bind(tx)
	order, err := repos.order.GetByID(orderID)
	if err != nil {
		return DiscountResult{}, err
	}
	if order == nil {
		return DiscountResult{}, ErrOrderNotFound
	}
	sources := make([]lineSource, 0, len(order.Items))
	for _, item := range order.Items {
		sources = append(sources, lineSource{itemID: item.ID, variant: item.Variant, quantity: item.Quantity})
	}
	codes, err := repos.order.ListCodes(orderID)
	if err != nil {
		return DiscountResult{}, err
	}
	// 折扣窗口按下单时间判断，单价按当前规格价
	evalAt := order.CreatedAt
	priceAt := s.now()
	if evalAt.IsZero() {
		evalAt = priceAt
	}
	result, err := s.evaluate(repos, order.CustomerID, sources, codes, evalAt, priceAt, orderID, consumed)
	if err != nil {
		return DiscountResult{}, err
	}
	if err := repos.order.UpdateTotals(orderID, result.Subtotal, result.Discount, result.Total); err != nil {
		return DiscountResult{}, err
	}
	return result, nil
}

// RecalculateOrders 批量重算订单
func (s *RecalcService) RecalculateOrders(tx *gorm.DB, orderIDs []uint) error {
	for _, id := range uniqueIDs(orderIDs) {
		if _, err := s.RecalculateOrder(tx, id, true); err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				continue
			}
			logger.Warnw("order_recalculate_failed", "order_id", id, "error", err)
			return err
		}
	}
	return nil
}

func (s *RecalcService) evaluate(
	repos recalcRepos,
	customerID uint,
	sources []lineSource,
	codes []models.DiscountCode,
	evalAt time.Time,
	priceAt time.Time,
	excludeOrderID uint,
	consumed bool,
) (DiscountResult, error) {
	lines, err := s.buildLines(repos, sources, priceAt)
	if err != nil {
		return DiscountResult{}, err
	}
	candidates := make([]DiscountCandidate, 0, len(codes))
	for i := range codes {
		code := &codes[i]
		if code.Rule == nil {
			continue
		}
		candidate := DiscountCandidate{Code: code, Rule: code.Rule, Consumed: consumed}
		if code.Rule.CustomerSelection == constants.DiscountSelectionSelected {
			ok, err := repos.rule.HasCustomer(code.Rule.ID, customerID)
			if err != nil {
				return DiscountResult{}, err
			}
			candidate.CustomerSelected = ok
		}
		if code.Rule.OncePerCustomer {
			count, err := repos.usage.CountByRuleAndCustomer(code.Rule.ID, customerID, excludeOrderID)
			if err != nil {
				return DiscountResult{}, err
			}
			candidate.UsedByCustomer = count > 0
		}
		candidates = append(candidates, candidate)
	}
	return EvaluateDiscounts(lines, candidates, evalAt), nil
}

// buildLines 读取规格当前单价（含规格折扣）与商品所属专题
func (s *RecalcService) buildLines(repos recalcRepos, sources []lineSource, priceAt time.Time) ([]DiscountLine, error) {
	variantIDs := make([]uint, 0, len(sources))
	productIDs := make([]uint, 0, len(sources))
	for _, src := range sources {
		if src.variant == nil {
			continue
		}
		variantIDs = append(variantIDs, src.variant.ID)
		productIDs = append(productIDs, src.variant.ProductID)
	}
	discounts, err := repos.variantDiscount.MapActiveByVariants(variantIDs, priceAt)
	if err != nil {
		return nil, err
	}
	collections, err := repos.collection.MapCollectionIDsByProducts(uniqueIDs(productIDs))
	if err != nil {
		return nil, err
	}

	lines := make([]DiscountLine, 0, len(sources))
	for _, src := range sources {
		if src.variant == nil || src.quantity <= 0 {
			continue
		}
		unitPrice := src.variant.Price
		if discount, ok := discounts[src.variant.ID]; ok {
			unitPrice = DiscountedUnitPrice(src.variant.Price, &discount)
		}
		lines = append(lines, DiscountLine{
			ItemID:        src.itemID,
			VariantID:     src.variant.ID,
			ProductID:     src.variant.ProductID,
			CollectionIDs: collections[src.variant.ProductID],
			UnitPrice:     unitPrice.Decimal,
			Quantity:      src.quantity,
		})
	}
	return lines, nil
}
