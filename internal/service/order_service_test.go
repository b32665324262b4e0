package service

import (
	"errors"
	"testing"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/repository"
)

func TestOrderServiceEmptyOrderCannotProcess(t *testing.T) {
	env := setupServiceEnv(t)
	admin := env.createAdmin(t)
	customer, _ := env.createCustomer(t, "scenario_b")

	order, err := env.order.Create(admin, customer.ID)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	_, err = env.order.Process(admin, order.ID)
	requireViolation(t, err, CodeOrderItemsRequired)

	reloaded, err := env.order.Get(admin, order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("status must stay PENDING, got %s", reloaded.Status)
	}
}

func TestOrderServiceCloseReasonForcesClosed(t *testing.T) {
	env := setupServiceEnv(t)
	admin := env.createAdmin(t)
	customer, _ := env.createCustomer(t, "scenario_c")
	product := env.createProduct(t, "desk")
	variant := env.createVariant(t, product.ID, "", "99.00")

	order, err := env.order.Create(admin, customer.ID)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := env.order.AddItem(admin, order.ID, variant.ID, nil); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	closed, err := env.order.UpdateStatus(admin, order.ID, UpdateOrderStatusInput{
		Status:      constants.OrderStatusFulfilled,
		CloseReason: "customer request",
	})
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if closed.Status != constants.OrderStatusClosed || closed.CloseReason != "customer request" {
		t.Fatalf("close reason must force CLOSED, got %s (%q)", closed.Status, closed.CloseReason)
	}

	_, err = env.order.AddItem(admin, order.ID, variant.ID, intPtr(1))
	requireViolation(t, err, CodeOrderTerminal)
	_, err = env.order.Process(admin, order.ID)
	requireViolation(t, err, CodeOrderTerminal)

	events, err := env.order.ListEvents(admin, order.ID)
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want placed + status_changed events, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.EventType != constants.OrderEventStatusChanged || last.FromStatus != constants.OrderStatusPending || last.ToStatus != constants.OrderStatusClosed {
		t.Fatalf("unexpected status event: %+v", last)
	}
}

func TestOrderServiceItemsAndLifecycle(t *testing.T) {
	env := setupServiceEnv(t)
	admin := env.createAdmin(t)
	customer, owner := env.createCustomer(t, "lifecycle_owner")
	_, stranger := env.createCustomer(t, "lifecycle_stranger")
	product := env.createProduct(t, "lamp")
	variant := env.createVariant(t, product.ID, "", "10.00")

	order, err := env.order.Create(admin, customer.ID)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := env.order.Create(owner, customer.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customers cannot create orders directly, got %v", err)
	}
	if _, err := env.order.AddItem(admin, order.ID, variant.ID, intPtr(1)); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	order, err = env.order.AddItem(admin, order.ID, variant.ID, intPtr(2))
	if err != nil {
		t.Fatalf("merge item failed: %v", err)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 3 {
		t.Fatalf("want one merged row with quantity 3, got %+v", order.Items)
	}
	assertMoney(t, "total", order.Total, "30.00")

	if _, err := env.order.Get(stranger, order.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("stranger must get 403, got %v", err)
	}
	if _, err := env.order.Get(stranger, 9999); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order must be 404, got %v", err)
	}
	if _, err := env.order.Cancel(stranger, order.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger cannot cancel, got %v", err)
	}
	if _, err := env.order.Process(owner, order.ID); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("owner cannot process, got %v", err)
	}

	processing, err := env.order.Process(admin, order.ID)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if processing.Status != constants.OrderStatusProcessing {
		t.Fatalf("want PROCESSING got %s", processing.Status)
	}
	_, err = env.order.DeleteItem(admin, processing.Items[0].ID)
	requireViolation(t, err, CodeOrderItemsRequired)

	updated, err := env.order.UpdateItem(admin, processing.Items[0].ID, 1)
	if err != nil {
		t.Fatalf("update item failed: %v", err)
	}
	assertMoney(t, "total after update", updated.Total, "10.00")

	fulfilled, err := env.order.Fulfill(admin, order.ID)
	if err != nil {
		t.Fatalf("fulfill failed: %v", err)
	}
	if fulfilled.Status != constants.OrderStatusFulfilled {
		t.Fatalf("want FULFILLED got %s", fulfilled.Status)
	}
	_, err = env.order.Cancel(owner, order.ID)
	requireViolation(t, err, CodeOrderTerminal)
	_, err = env.order.UpdateItem(admin, fulfilled.Items[0].ID, 2)
	requireViolation(t, err, CodeOrderTerminal)
}

func TestOrderServiceCloseRequiresReason(t *testing.T) {
	env := setupServiceEnv(t)
	admin := env.createAdmin(t)
	customer, owner := env.createCustomer(t, "close_owner")

	order, err := env.order.Create(admin, customer.ID)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	_, err = env.order.Close(admin, order.ID, "  ")
	requireViolation(t, err, CodeOrderCloseReason)

	canceled, err := env.order.Cancel(owner, order.ID)
	if err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled {
		t.Fatalf("want CANCELED got %s", canceled.Status)
	}
}

func TestOrderServiceListScopesCustomers(t *testing.T) {
	env := setupServiceEnv(t)
	admin := env.createAdmin(t)
	alice, aliceActor := env.createCustomer(t, "list_alice")
	bob, _ := env.createCustomer(t, "list_bob")
	for _, id := range []uint{alice.ID, bob.ID, bob.ID} {
		if _, err := env.order.Create(admin, id); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	orders, total, err := env.order.List(aliceActor, repository.OrderListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].CustomerID != alice.ID {
		t.Fatalf("customer must only see own orders, got %d", total)
	}
	_, total, err = env.order.List(admin, repository.OrderListFilter{Status: "pending"})
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("admin should see all 3 orders, got %d", total)
	}
}
