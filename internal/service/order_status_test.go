package service

import (
	"errors"
	"testing"

	"github.com/maryema-next/internal/constants"
)

func TestResolveOrderStatusRequiresItems(t *testing.T) {
	status, err := ResolveOrderStatus(constants.OrderStatusPending, constants.OrderStatusProcessing, "", 0)
	requireViolation(t, err, CodeOrderItemsRequired)
	if status != constants.OrderStatusPending {
		t.Fatalf("status should remain PENDING, got %s", status)
	}

	status, err = ResolveOrderStatus(constants.OrderStatusPending, constants.OrderStatusProcessing, "", 1)
	if err != nil || status != constants.OrderStatusProcessing {
		t.Fatalf("order with items should move to PROCESSING, got %s err=%v", status, err)
	}
	_, err = ResolveOrderStatus(constants.OrderStatusProcessing, constants.OrderStatusFulfilled, "", 0)
	requireViolation(t, err, CodeOrderItemsRequired)
}

func TestResolveOrderStatusCloseReasonForcesClosed(t *testing.T) {
	for _, requested := range []string{"", constants.OrderStatusProcessing, constants.OrderStatusCanceled} {
		status, err := ResolveOrderStatus(constants.OrderStatusPending, requested, "customer request", 0)
		if err != nil {
			t.Fatalf("close with reason failed for requested=%q: %v", requested, err)
		}
		if status != constants.OrderStatusClosed {
			t.Fatalf("close reason should force CLOSED, got %s", status)
		}
	}
}

func TestResolveOrderStatusTerminalAndTransitions(t *testing.T) {
	for _, terminal := range []string{constants.OrderStatusClosed, constants.OrderStatusFulfilled, constants.OrderStatusCanceled} {
		_, err := ResolveOrderStatus(terminal, constants.OrderStatusPending, "", 1)
		requireViolation(t, err, CodeOrderTerminal)
	}

	_, err := ResolveOrderStatus(constants.OrderStatusPending, constants.OrderStatusFulfilled, "", 1)
	requireViolation(t, err, CodeOrderTransition)

	_, err = ResolveOrderStatus(constants.OrderStatusPending, "SHIPPED", "", 1)
	requireViolation(t, err, CodeOrderStatusInvalid)

	status, err := ResolveOrderStatus(constants.OrderStatusPending, constants.OrderStatusPending, "", 0)
	if err != nil || status != constants.OrderStatusPending {
		t.Fatalf("same status should be a no-op, got %s err=%v", status, err)
	}
	if errors.Is(err, ErrValidation) {
		t.Fatalf("no-op should not be a validation error")
	}
}
