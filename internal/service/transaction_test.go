package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"
)

func TestCartServiceRejectsQuantityOverflow(t *testing.T) {
	env := setupServiceEnv(t)
	customer, actor := env.createCustomer(t, "bulk_buyer")
	product := env.createProduct(t, "pencil")
	variant := env.createVariant(t, product.ID, "", "1.00")

	_, err := env.cart.AddItem(actor, AddCartItemInput{VariantID: variant.ID, Quantity: intPtr(MaxLineQuantity + 1)})
	requireViolation(t, err, CodeQuantityInvalid)

	if _, err := env.cart.AddItem(actor, AddCartItemInput{VariantID: variant.ID, Quantity: intPtr(MaxLineQuantity)}); err != nil {
		t.Fatalf("add at ceiling failed: %v", err)
	}
	_, err = env.cart.AddItem(actor, AddCartItemInput{VariantID: variant.ID, Quantity: intPtr(1)})
	requireViolation(t, err, CodeQuantityInvalid)

	cart := env.activeCart(t, customer.ID)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != MaxLineQuantity {
		t.Fatalf("merged quantity must stay at the ceiling: %+v", cart.Items)
	}
	assertMoney(t, "cost", cart.Cost, "2147483647.00")

	_, err = env.cart.UpdateItem(actor, cart.Items[0].ID, MaxLineQuantity+1)
	requireViolation(t, err, CodeQuantityInvalid)
}

func TestOrderServiceRejectsQuantityOverflow(t *testing.T) {
	env := setupServiceEnv(t)
	admin := env.createAdmin(t)
	customer, _ := env.createCustomer(t, "bulk_order_owner")
	product := env.createProduct(t, "eraser")
	variant := env.createVariant(t, product.ID, "", "1.00")

	order, err := env.order.Create(admin, customer.ID)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	order, err = env.order.AddItem(admin, order.ID, variant.ID, intPtr(MaxLineQuantity))
	if err != nil {
		t.Fatalf("add at ceiling failed: %v", err)
	}
	_, err = env.order.AddItem(admin, order.ID, variant.ID, intPtr(1))
	requireViolation(t, err, CodeQuantityInvalid)
	_, err = env.order.UpdateItem(admin, order.Items[0].ID, MaxLineQuantity+1)
	requireViolation(t, err, CodeQuantityInvalid)

	reloaded, err := env.order.Get(admin, order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Items[0].Quantity != MaxLineQuantity {
		t.Fatalf("quantity changed: %d", reloaded.Items[0].Quantity)
	}
	assertMoney(t, "total", reloaded.Total, "2147483647.00")
}

func TestRecalcFailureRollsBackCartItemWrite(t *testing.T) {
	env := setupServiceEnv(t)
	customer, actor := env.createCustomer(t, "rollback_cart")
	product := env.createProduct(t, "stapler")
	variant := env.createVariant(t, product.ID, "", "12.00")
	if _, err := env.cart.AddItem(actor, AddCartItemInput{VariantID: variant.ID}); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	cartID := env.activeCart(t, customer.ID).ID

	// 规格折扣表缺失时重算必然失败
	if err := env.db.Migrator().DropTable(&models.VariantDiscount{}); err != nil {
		t.Fatalf("drop table failed: %v", err)
	}
	if _, err := env.cart.AddItem(actor, AddCartItemInput{VariantID: variant.ID, Quantity: intPtr(4)}); err == nil {
		t.Fatalf("add item must fail when recalculation fails")
	}

	var item models.CartItem
	if err := env.db.Where("cart_id = ?", cartID).First(&item).Error; err != nil {
		t.Fatalf("load item failed: %v", err)
	}
	if item.Quantity != 1 {
		t.Fatalf("merged quantity must be rolled back, got %d", item.Quantity)
	}
	var cart models.Cart
	if err := env.db.First(&cart, cartID).Error; err != nil {
		t.Fatalf("load cart failed: %v", err)
	}
	assertMoney(t, "cost", cart.Cost, "12.00")
}

func TestRecalcFailureRollsBackOrderItemWrite(t *testing.T) {
	env := setupServiceEnv(t)
	admin := env.createAdmin(t)
	customer, _ := env.createCustomer(t, "rollback_order")
	product := env.createProduct(t, "folder")
	variant := env.createVariant(t, product.ID, "", "3.00")
	order, err := env.order.Create(admin, customer.ID)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	order, err = env.order.AddItem(admin, order.ID, variant.ID, intPtr(2))
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	itemID := order.Items[0].ID

	if err := env.db.Migrator().DropTable(&models.VariantDiscount{}); err != nil {
		t.Fatalf("drop table failed: %v", err)
	}
	if _, err := env.order.UpdateItem(admin, itemID, 7); err == nil {
		t.Fatalf("update item must fail when recalculation fails")
	}

	var item models.OrderItem
	if err := env.db.First(&item, itemID).Error; err != nil {
		t.Fatalf("load item failed: %v", err)
	}
	if item.Quantity != 2 {
		t.Fatalf("quantity must be rolled back, got %d", item.Quantity)
	}
	var stored models.Order
	if err := env.db.First(&stored, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	assertMoney(t, "total", stored.Total, "6.00")
}

func TestActiveCartConcurrentCreation(t *testing.T) {
	env := setupServiceEnv(t)
	// 内存库共享缓存下单连接，避免表锁错误；各协程的查询与插入仍然交错
	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	profile := env.createProfile(t, "racing_customer", constants.RoleCustomer)
	actor := Actor{ProfileID: profile.ID, Role: profile.Role}
	variantRepo := repository.NewProductVariantRepository(env.db)
	profileRepo := repository.NewProfileRepository(env.db)

	const workers = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		carts = make([]*models.Cart, workers)
		errs  = make([]error, workers)
	)
	for i := 0; i < workers; i++ {
		// 每个协程独立的服务实例，绕开 singleflight
		svc := NewCartService(config.DiscountConfig{}, env.cartRepo, variantRepo, profileRepo, env.codeRepo, env.orderRepo, env.usageRepo, env.recalc, env.events)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			if i%2 == 0 {
				carts[i], errs[i] = svc.GetOrCreateActiveCart(actor)
				return
			}
			carts[i], errs[i] = ensureActiveCart(env.cartRepo, profile)
		}(i)
	}
	close(start)
	wg.Wait()

	var winner uint
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			if !errors.Is(errs[i], ErrConflict) {
				t.Fatalf("worker %d: unexpected error %v", i, errs[i])
			}
			continue
		}
		if winner == 0 {
			winner = carts[i].ID
		}
		if carts[i].ID != winner {
			t.Fatalf("worker %d got cart %d, want %d", i, carts[i].ID, winner)
		}
	}
	if winner == 0 {
		t.Fatalf("no worker obtained a cart")
	}

	var active int64
	if err := env.db.Model(&models.Cart{}).Where("customer_id = ? AND is_active = ?", profile.ID, true).Count(&active).Error; err != nil {
		t.Fatalf("count carts failed: %v", err)
	}
	if active != 1 {
		t.Fatalf("want exactly one active cart, got %d", active)
	}
}
