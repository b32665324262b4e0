package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupDashboardRepositoryTest(t *testing.T) (*GormDashboardRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.DiscountRule{},
		&models.DiscountUsage{},
	); err != nil {
		t.Fatalf("migrate dashboard models failed: %v", err)
	}
	return NewDashboardRepository(db), db
}

type dashboardFixture struct {
	product *models.Product
	cheap   *models.ProductVariant
	pricey  *models.ProductVariant
}

func seedDashboardCatalog(t *testing.T, db *gorm.DB) dashboardFixture {
	t.Helper()
	category := &models.Category{Name: "dashboard-category"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product := &models.Product{CategoryID: category.ID, Name: "dashboard product", IsActive: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	cheap := &models.ProductVariant{ProductID: product.ID, Size: "S", Price: models.MustMoney("10.00"), Stock: 3}
	pricey := &models.ProductVariant{ProductID: product.ID, Size: "L", Price: models.MustMoney("25.00"), Stock: 40}
	for _, variant := range []*models.ProductVariant{cheap, pricey} {
		if err := db.Create(variant).Error; err != nil {
			t.Fatalf("create variant failed: %v", err)
		}
	}
	// 缺货规格
	if err := db.Create(&models.ProductVariant{ProductID: product.ID, Size: "XL", Price: models.MustMoney("30.00")}).Error; err != nil {
		t.Fatalf("create empty variant failed: %v", err)
	}
	return dashboardFixture{product: product, cheap: cheap, pricey: pricey}
}

func createDashboardOrder(t *testing.T, db *gorm.DB, status, total, discount string, createdAt time.Time, items map[uint]int) *models.Order {
	t.Helper()
	order := &models.Order{
		CustomerID:     1,
		Status:         status,
		Total:          models.MustMoney(total),
		DiscountAmount: models.MustMoney(discount),
		CreatedAt:      createdAt,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	for variantID, qty := range items {
		item := &models.OrderItem{OrderID: order.ID, VariantID: variantID, Quantity: qty}
		if err := db.Create(item).Error; err != nil {
			t.Fatalf("create order item failed: %v", err)
		}
	}
	return order
}

func TestDashboardOverviewCountsOrdersByStatus(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	seedDashboardCatalog(t, db)
	now := time.Now()

	createDashboardOrder(t, db, constants.OrderStatusPending, "10.00", "0", now, nil)
	createDashboardOrder(t, db, constants.OrderStatusProcessing, "45.00", "5.00", now, nil)
	createDashboardOrder(t, db, constants.OrderStatusFulfilled, "20.00", "0", now, nil)
	createDashboardOrder(t, db, constants.OrderStatusCanceled, "99.00", "1.00", now, nil)
	createDashboardOrder(t, db, constants.OrderStatusFulfilled, "70.00", "0", now.AddDate(0, 0, -10), nil)

	customer := &models.Profile{Username: "fresh", PasswordHash: "x", Role: constants.RoleCustomer}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	admin := &models.Profile{Username: "boss", PasswordHash: "x", Role: constants.RoleAdmin}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	row, err := repo.GetOverview(now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if row.OrdersTotal != 4 {
		t.Fatalf("orders total want 4 got %d", row.OrdersTotal)
	}
	if row.PendingOrders != 1 || row.ProcessingOrders != 1 || row.FulfilledOrders != 1 || row.CanceledOrders != 1 {
		t.Fatalf("unexpected status counts: %+v", row)
	}
	if row.Revenue != 65 {
		t.Fatalf("revenue want 65 got %.2f", row.Revenue)
	}
	if row.DiscountGiven != 5 {
		t.Fatalf("discount given want 5 got %.2f", row.DiscountGiven)
	}
	if row.NewCustomers != 1 {
		t.Fatalf("new customers want 1 got %d", row.NewCustomers)
	}
	if row.ActiveProducts != 1 {
		t.Fatalf("active products want 1 got %d", row.ActiveProducts)
	}
}

func TestDashboardStockStatsSkipsInactiveProducts(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	fixture := seedDashboardCatalog(t, db)

	hidden := &models.Product{CategoryID: fixture.product.CategoryID, Name: "hidden", IsActive: true}
	if err := db.Create(hidden).Error; err != nil {
		t.Fatalf("create hidden product failed: %v", err)
	}
	if err := db.Model(hidden).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	if err := db.Create(&models.ProductVariant{ProductID: hidden.ID, Price: models.MustMoney("5.00")}).Error; err != nil {
		t.Fatalf("create hidden variant failed: %v", err)
	}

	stats, err := repo.GetStockStats(5)
	if err != nil {
		t.Fatalf("get stock stats failed: %v", err)
	}
	if stats.OutOfStockVariants != 1 {
		t.Fatalf("out of stock want 1 got %d", stats.OutOfStockVariants)
	}
	if stats.LowStockVariants != 1 {
		t.Fatalf("low stock want 1 got %d", stats.LowStockVariants)
	}
	if stats.AvailableUnits != 43 {
		t.Fatalf("available units want 43 got %d", stats.AvailableUnits)
	}
}

func TestDashboardTopProductsUsesVariantPrice(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	fixture := seedDashboardCatalog(t, db)
	now := time.Now()

	createDashboardOrder(t, db, constants.OrderStatusFulfilled, "45.00", "0", now, map[uint]int{
		fixture.cheap.ID:  2,
		fixture.pricey.ID: 1,
	})
	createDashboardOrder(t, db, constants.OrderStatusProcessing, "10.00", "0", now, map[uint]int{
		fixture.cheap.ID: 1,
	})
	// 未受理订单不计入排行
	createDashboardOrder(t, db, constants.OrderStatusPending, "25.00", "0", now, map[uint]int{
		fixture.pricey.ID: 1,
	})

	rows, err := repo.GetTopProducts(now.Add(-time.Hour), now.Add(time.Hour), 5)
	if err != nil {
		t.Fatalf("get top products failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows len want 1 got %d", len(rows))
	}
	if rows[0].ProductID != fixture.product.ID {
		t.Fatalf("product id want %d got %d", fixture.product.ID, rows[0].ProductID)
	}
	if rows[0].Orders != 2 {
		t.Fatalf("orders want 2 got %d", rows[0].Orders)
	}
	if rows[0].Quantity != 4 {
		t.Fatalf("quantity want 4 got %d", rows[0].Quantity)
	}
	if rows[0].Revenue != 55 {
		t.Fatalf("revenue want 55 got %.2f", rows[0].Revenue)
	}
}

func TestDashboardTopDiscountRules(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()

	popular := &models.DiscountRule{Title: "popular", StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}
	rare := &models.DiscountRule{Title: "rare", StartsAt: now.Add(-time.Hour), EndsAt: now.Add(time.Hour)}
	for _, rule := range []*models.DiscountRule{popular, rare} {
		if err := db.Create(rule).Error; err != nil {
			t.Fatalf("create rule failed: %v", err)
		}
	}
	usages := []models.DiscountUsage{
		{RuleID: popular.ID, CodeID: 1, CustomerID: 1, OrderID: 1, DiscountAmount: models.MustMoney("3.00")},
		{RuleID: popular.ID, CodeID: 1, CustomerID: 2, OrderID: 2, DiscountAmount: models.MustMoney("4.50")},
		{RuleID: rare.ID, CodeID: 2, CustomerID: 1, OrderID: 3, DiscountAmount: models.MustMoney("2.00")},
	}
	if err := db.Create(&usages).Error; err != nil {
		t.Fatalf("create usages failed: %v", err)
	}

	rows, err := repo.GetTopDiscountRules(now.Add(-time.Hour), now.Add(time.Hour), 1)
	if err != nil {
		t.Fatalf("get top discount rules failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("limit must apply, got %d rows", len(rows))
	}
	if rows[0].RuleID != popular.ID || rows[0].Title != "popular" || rows[0].Usages != 2 {
		t.Fatalf("unexpected ranking row: %+v", rows[0])
	}
	if rows[0].DiscountAmount != 7.5 {
		t.Fatalf("discount amount want 7.5 got %.2f", rows[0].DiscountAmount)
	}
}

func TestDashboardOrderTrendsGroupsByDay(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	createDashboardOrder(t, db, constants.OrderStatusFulfilled, "30.00", "0", day, nil)
	createDashboardOrder(t, db, constants.OrderStatusPending, "15.00", "0", day, nil)
	createDashboardOrder(t, db, constants.OrderStatusProcessing, "12.00", "0", day.AddDate(0, 0, 1), nil)

	rows, err := repo.GetOrderTrends(day.AddDate(0, 0, -1), day.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("get order trends failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows len want 2 got %d", len(rows))
	}
	if rows[0].Day != "2026-03-10" || rows[0].OrdersTotal != 2 || rows[0].OrdersFulfilled != 1 || rows[0].Revenue != 30 {
		t.Fatalf("unexpected first day: %+v", rows[0])
	}
	if rows[1].Day != "2026-03-11" || rows[1].OrdersTotal != 1 || rows[1].OrdersFulfilled != 0 || rows[1].Revenue != 12 {
		t.Fatalf("unexpected second day: %+v", rows[1])
	}
}
