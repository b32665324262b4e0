package service

import (
	"strings"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/queue"
	"github.com/maryema-next/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo   repository.OrderRepository
	variantRepo repository.ProductVariantRepository
	profileRepo repository.ProfileRepository
	recalc      *RecalcService
	events      *OrderEventService
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	variantRepo repository.ProductVariantRepository,
	profileRepo repository.ProfileRepository,
	recalc *RecalcService,
	events *OrderEventService,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		variantRepo: variantRepo,
		profileRepo: profileRepo,
		recalc:      recalc,
		events:      events,
	}
}

// List 订单列表：管理员可查看全部，其余角色仅能查看自己的订单
func (s *OrderService) List(actor Actor, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if !actor.IsAdmin() {
		filter.CustomerID = actor.ProfileID
	}
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	return s.orderRepo.List(filter)
}

// Get 订单详情，先判断存在再判断归属
func (s *OrderService) Get(actor Actor, id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !actor.IsAdmin() && order.CustomerID != actor.ProfileID {
		return nil, ErrNotOwner
	}
	return order, nil
}

// Create 管理员为顾客创建空订单
func (s *OrderService) Create(actor Actor, customerID uint) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	profile, err := s.profileRepo.GetByID(customerID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if !profile.IsCustomer() {
		return nil, ErrNotCustomer
	}
	order := &models.Order{
		CustomerID:     customerID,
		Status:         constants.OrderStatusPending,
		Subtotal:       models.ZeroMoney(),
		DiscountAmount: models.ZeroMoney(),
		Total:          models.ZeroMoney(),
	}
	if err := s.orderRepo.Create(order, nil); err != nil {
		return nil, err
	}
	s.events.PublishPlaced(queue.OrderPlacedPayload{
		OrderID:    order.ID,
		CustomerID: customerID,
		Total:      order.Total.String(),
	})
	return s.reload(order.ID)
}

// UpdateOrderStatusInput 订单状态更新参数
type UpdateOrderStatusInput struct {
	Status      string `json:"status"`
	CloseReason string `json:"close_reason"`
}

// UpdateStatus 管理员更新订单状态（填写关闭原因时强制关闭）
func (s *OrderService) UpdateStatus(actor Actor, id uint, input UpdateOrderStatusInput) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s.changeStatus(actor, id, input.Status, input.CloseReason)
}

// Close 管理员关闭订单，必须填写原因
func (s *OrderService) Close(actor Actor, id uint, reason string) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	if strings.TrimSpace(reason) == "" {
		return nil, newValidationError("close_reason", CodeOrderCloseReason, "close reason is required")
	}
	return s.changeStatus(actor, id, constants.OrderStatusClosed, reason)
}

// Cancel 顾客取消自己的订单
func (s *OrderService) Cancel(actor Actor, id uint) (*models.Order, error) {
	return s.changeStatus(actor, id, constants.OrderStatusCanceled, "")
}

// Process 管理员开始处理订单
func (s *OrderService) Process(actor Actor, id uint) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s.changeStatus(actor, id, constants.OrderStatusProcessing, "")
}

// Fulfill 管理员完成订单
func (s *OrderService) Fulfill(actor Actor, id uint) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s.changeStatus(actor, id, constants.OrderStatusFulfilled, "")
}

func (s *OrderService) changeStatus(actor Actor, id uint, requested, closeReason string) (*models.Order, error) {
	var from, to string
	closeReason = strings.TrimSpace(closeReason)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !actor.IsAdmin() && order.CustomerID != actor.ProfileID {
			return ErrNotOwner
		}
		count, err := repo.CountItems(order.ID)
		if err != nil {
			return err
		}
		target, err := ResolveOrderStatus(order.Status, requested, closeReason, count)
		if err != nil {
			return err
		}
		from, to = order.Status, target
		if target == order.Status {
			return nil
		}
		updates := map[string]interface{}{}
		if closeReason != "" {
			updates["close_reason"] = closeReason
		}
		return repo.UpdateStatus(order.ID, target, updates)
	})
	if err != nil {
		return nil, err
	}
	if from != to {
		logger.ForOrder(id).Infow("order_status_changed", "from", from, "to", to, "actor_id", actor.ProfileID)
		s.events.PublishStatusChanged(queue.OrderStatusChangedPayload{
			OrderID:     id,
			FromStatus:  from,
			ToStatus:    to,
			CloseReason: closeReason,
			ActorID:     actor.ProfileID,
		})
	}
	return s.reload(id)
}

// AddItem 管理员向订单加入规格，同一规格合并数量
func (s *OrderService) AddItem(actor Actor, orderID, variantID uint, quantity *int) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	qty, err := normalizeQuantity(quantity)
	if err != nil {
		return nil, err
	}
	if qty == 0 {
		return nil, newValidationError("quantity", CodeQuantityInvalid, "quantity must be positive")
	}
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if IsTerminalOrderStatus(order.Status) {
			return newValidationError("order_id", CodeOrderTerminal, "order is in a terminal status")
		}
		variant, err := s.variantRepo.WithTx(tx).GetByID(variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrVariantNotFound
		}
		existing, err := repo.GetItemByVariant(orderID, variantID)
		if err != nil {
			return err
		}
		if existing != nil {
			merged, mergeErr := mergeQuantity(existing.Quantity, qty)
			if mergeErr != nil {
				return mergeErr
			}
			err = repo.UpdateItemQuantity(existing.ID, merged)
		} else {
			err = repo.CreateItem(&models.OrderItem{OrderID: orderID, VariantID: variantID, Quantity: qty})
		}
		if err != nil {
			return translateWriteError(err)
		}
		_, err = s.recalc.RecalculateOrder(tx, orderID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.reload(orderID)
}

// UpdateItem 管理员修改订单明细数量，数量为 0 时删除
func (s *OrderService) UpdateItem(actor Actor, itemID uint, quantity int) (*models.Order, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	var orderID uint
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		item, err := repo.GetItemByID(itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrOrderItemNotFound
		}
		if !actor.IsAdmin() {
			return ErrNotAdmin
		}
		order, err := repo.GetByID(item.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderItemNotFound
		}
		if IsTerminalOrderStatus(order.Status) {
			return newValidationError("order_id", CodeOrderTerminal, "order is in a terminal status")
		}
		orderID = order.ID
		if quantity == 0 {
			count, err := repo.CountItems(order.ID)
			if err != nil {
				return err
			}
			if count <= 1 && order.Status == constants.OrderStatusProcessing {
				return newValidationError("order_id", CodeOrderItemsRequired, "order must have items")
			}
			if err := repo.DeleteItem(item.ID); err != nil {
				return err
			}
		} else if err := repo.UpdateItemQuantity(item.ID, quantity); err != nil {
			return err
		}
		_, err = s.recalc.RecalculateOrder(tx, order.ID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.reload(orderID)
}

// DeleteItem 管理员删除订单明细
func (s *OrderService) DeleteItem(actor Actor, itemID uint) (*models.Order, error) {
	return s.UpdateItem(actor, itemID, 0)
}

// ListEvents 订单事件流水（管理员或订单所属顾客）
func (s *OrderService) ListEvents(actor Actor, orderID uint) ([]models.OrderEvent, error) {
	if _, err := s.Get(actor, orderID); err != nil {
		return nil, err
	}
	return s.events.ListByOrder(orderID)
}

func (s *OrderService) reload(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
