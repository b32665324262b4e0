package service

import (
	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/queue"

	"gorm.io/gorm"
)

// Checkout 当前购物车下单
// 同一事务内：创建订单并复制明细、计算折扣、累计折扣码次数、停用旧购物车并创建新购物车
func (s *CartService) Checkout(actor Actor) (*models.Order, error) {
	profile, err := s.profileRepo.GetByID(actor.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if !profile.IsCustomer() {
		return nil, ErrNotCustomer
	}

	var (
		order     *models.Order
		oldCartID uint
		applied   []string
	)
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)
		codeRepo := s.codeRepo.WithTx(tx)
		usageRepo := s.usageRepo.WithTx(tx)

		cart, err := cartRepo.LockActiveByCustomer(profile.ID)
		if err != nil {
			return err
		}
		if cart == nil {
			return newValidationError("cart", CodeCartEmpty, "Cart is empty")
		}
		oldCartID = cart.ID
		items, err := cartRepo.ListItems(cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return newValidationError("cart", CodeCartEmpty, "Cart is empty")
		}

		// 仅把当前能生效的折扣码带入订单
		_, preview, err := s.recalc.ComputeCart(tx, cart.ID)
		if err != nil {
			return err
		}
		codes, err := cartRepo.ListCodes(cart.ID)
		if err != nil {
			return err
		}
		codeByID := make(map[uint]models.DiscountCode, len(codes))
		for _, c := range codes {
			codeByID[c.ID] = c
		}
		eligible := make([]uint, 0, len(preview.Rules))
		for _, outcome := range preview.Rules {
			if outcome.Eligible {
				eligible = append(eligible, outcome.CodeID)
			}
		}

		order = &models.Order{
			CustomerID:     profile.ID,
			Status:         constants.OrderStatusPending,
			Subtotal:       models.ZeroMoney(),
			DiscountAmount: models.ZeroMoney(),
			Total:          models.ZeroMoney(),
		}
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			orderItems = append(orderItems, models.OrderItem{VariantID: item.VariantID, Quantity: item.Quantity})
		}
		if err := orderRepo.Create(order, orderItems); err != nil {
			return translateWriteError(err)
		}
		if err := orderRepo.AttachCodes(order.ID, eligible); err != nil {
			return err
		}
		result, err := s.recalc.RecalculateOrder(tx, order.ID, false)
		if err != nil {
			return err
		}

		for _, outcome := range result.Rules {
			if !outcome.Eligible {
				continue
			}
			code, ok := codeByID[outcome.CodeID]
			if !ok || code.Rule == nil {
				continue
			}
			incremented, err := codeRepo.IncrementUsage(code.ID, code.Rule.UsageLimit)
			if err != nil {
				return err
			}
			if !incremented {
				return newValidationError("code", CodeDiscountUsageExceeded, "discount code usage limit reached")
			}
			if err := usageRepo.Create(&models.DiscountUsage{
				RuleID:         code.RuleID,
				CodeID:         code.ID,
				CustomerID:     profile.ID,
				OrderID:        order.ID,
				DiscountAmount: outcome.Amount,
			}); err != nil {
				return err
			}
			applied = append(applied, code.Code)
		}

		if err := cartRepo.Deactivate(cart.ID); err != nil {
			return err
		}
		_, err = ensureActiveCart(cartRepo, profile)
		return err
	})
	if err != nil {
		if !isCartScopeError(err) {
			logger.ForProfile(actor.ProfileID).Warnw("cart_checkout_failed", "error", err)
		}
		return nil, err
	}
	s.invalidatePreview(oldCartID)

	placed, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return nil, err
	}
	if placed == nil {
		return nil, ErrOrderNotFound
	}
	s.events.PublishPlaced(queue.OrderPlacedPayload{
		OrderID:    placed.ID,
		CustomerID: placed.CustomerID,
		CartID:     oldCartID,
		Total:      placed.Total.String(),
		Codes:      applied,
	})
	logger.ForOrder(placed.ID).Infow("order_placed", "customer_id", placed.CustomerID, "total", placed.Total.String())
	return placed, nil
}
