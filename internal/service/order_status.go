package service

import (
	"strings"

	"github.com/maryema-next/internal/constants"
)

// orderTransitions 允许的状态流转
var orderTransitions = map[string][]string{
	constants.OrderStatusPending: {
		constants.OrderStatusProcessing,
		constants.OrderStatusCanceled,
		constants.OrderStatusClosed,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusFulfilled,
		constants.OrderStatusCanceled,
		constants.OrderStatusClosed,
	},
}

// IsTerminalOrderStatus 终态订单不允许再变更状态或明细
func IsTerminalOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusFulfilled, constants.OrderStatusCanceled, constants.OrderStatusClosed:
		return true
	}
	return false
}

func isKnownOrderStatus(status string) bool {
	switch status {
	case constants.OrderStatusPending, constants.OrderStatusProcessing,
		constants.OrderStatusFulfilled, constants.OrderStatusCanceled, constants.OrderStatusClosed:
		return true
	}
	return false
}

func canTransitOrder(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ResolveOrderStatus 计算一次保存后的目标状态
// 填写关闭原因时强制为 CLOSED；PROCESSING/FULFILLED 要求订单至少有一条明细
func ResolveOrderStatus(current, requested, closeReason string, itemCount int64) (string, error) {
	if IsTerminalOrderStatus(current) {
		return current, newValidationError("status", CodeOrderTerminal, "order is in a terminal status")
	}
	target := strings.ToUpper(strings.TrimSpace(requested))
	if strings.TrimSpace(closeReason) != "" {
		target = constants.OrderStatusClosed
	}
	if target == "" {
		target = current
	}
	if !isKnownOrderStatus(target) {
		return current, newValidationError("status", CodeOrderStatusInvalid, "unknown order status")
	}
	if target == current {
		return current, nil
	}
	if !canTransitOrder(current, target) {
		return current, newValidationError("status", CodeOrderTransition, "order status transition is not allowed")
	}
	if (target == constants.OrderStatusProcessing || target == constants.OrderStatusFulfilled) && itemCount == 0 {
		return current, newValidationError("status", CodeOrderItemsRequired, "order must have items")
	}
	return target, nil
}
