//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// postgresIntegrationDSN 优先读取 TEST_POSTGRES_DSN，未设置时启动临时容器。
func postgresIntegrationDSN(t *testing.T) string {
	t.Helper()
	if dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN")); dsn != "" {
		return dsn
	}
	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("maryema"),
		tcpostgres.WithUsername("maryema"),
		tcpostgres.WithPassword("maryema"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skip postgres integration test: container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container failed: %v", err)
		}
	})
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string failed: %v", err)
	}
	return dsn
}

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(postgres.Open(postgresIntegrationDSN(t)), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupTables := []string{
		"cart_discount_codes", "cart_items", "carts", "collection_products", "collections",
		"variant_discounts", "product_variants", "products", "categories", "profiles",
	}
	dropTables := func() {
		for _, table := range cleanupTables {
			_ = db.Migrator().DropTable(table)
		}
	}
	dropTables()

	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		dropTables()
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresActiveCartPartialUniqueIndex(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCartRepository(db)

	customer := &models.Profile{Username: "pg_customer", PasswordHash: "hash", Role: constants.RoleCustomer}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}

	first := &models.Cart{CustomerID: customer.ID, IsActive: true}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first cart failed: %v", err)
	}
	err := repo.Create(&models.Cart{CustomerID: customer.ID, IsActive: true})
	if !IsDuplicateKeyError(err) {
		t.Fatalf("second active cart must violate the partial index, got %v", err)
	}

	if err := repo.Deactivate(first.ID); err != nil {
		t.Fatalf("deactivate cart failed: %v", err)
	}
	if err := repo.Create(&models.Cart{CustomerID: customer.ID, IsActive: true}); err != nil {
		t.Fatalf("inactive carts must not block a new active cart: %v", err)
	}

	var indexDef string
	if err := db.Raw("SELECT indexdef FROM pg_indexes WHERE indexname = ?", models.ActiveCartIndexName).Scan(&indexDef).Error; err != nil {
		t.Fatalf("load index definition failed: %v", err)
	}
	if !strings.Contains(indexDef, "WHERE is_active") {
		t.Fatalf("index must be partial on is_active, got %q", indexDef)
	}
}

func TestPostgresProductSearchAndWindowEdges(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	category := &models.Category{Name: "pg-category"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	productRepo := NewProductRepository(db)
	product := &models.Product{CategoryID: category.ID, Name: "Rocket Runner", Description: "booster foam", IsActive: true}
	if err := productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	rows, total, err := productRepo.List(ProductListFilter{Page: 1, Search: "ROCKET"})
	if err != nil {
		t.Fatalf("product search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("case-insensitive search want 1 got total=%d len=%d", total, len(rows))
	}

	variant := &models.ProductVariant{ProductID: product.ID, Size: "42", Price: models.MustMoney("80.00")}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	customer := &models.Profile{Username: "pg_edge_customer", PasswordHash: "hash", Role: constants.RoleCustomer}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	cart := &models.Cart{CustomerID: customer.ID, IsActive: true}
	if err := db.Create(cart).Error; err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	if err := db.Create(&models.CartItem{CartID: cart.ID, VariantID: variant.ID, Quantity: 1}).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
	now := time.Now().UTC().Truncate(time.Second)
	startsAt := now.Add(-30 * time.Second)
	discount := &models.VariantDiscount{
		VariantID: variant.ID,
		Name:      "pg flash",
		Type:      constants.VariantDiscountTypePercent,
		Value:     models.MustMoney("10"),
		StartsAt:  &startsAt,
		IsActive:  true,
	}
	if err := db.Create(discount).Error; err != nil {
		t.Fatalf("create variant discount failed: %v", err)
	}

	ids, err := NewCartRepository(db).ListActiveCartIDsByWindowEdge(now.Add(-time.Minute), now)
	if err != nil {
		t.Fatalf("window edge query failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != cart.ID {
		t.Fatalf("window edge want cart %d got %v", cart.ID, ids)
	}
}
