package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type serviceEnv struct {
	db               *gorm.DB
	recalc           *RecalcService
	events           *OrderEventService
	cart             *CartService
	order            *OrderService
	catalog          *CatalogService
	discount         *DiscountService
	variantDiscount  *VariantDiscountService
	feedback         *FeedbackService
	auth             *AuthService
	profile          *ProfileService
	cartRepo         *repository.GormCartRepository
	orderRepo        *repository.GormOrderRepository
	codeRepo         *repository.GormDiscountCodeRepository
	usageRepo        *repository.GormDiscountUsageRepository
	eventRepo        *repository.GormOrderEventRepository
	variantDiscounts *repository.GormVariantDiscountRepository
}

func setupServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()
	env, err := openServiceEnv()
	if err != nil {
		t.Fatalf("setup service env failed: %v", err)
	}
	return env
}

// openServiceEnv 独立内存库上组装全部服务
func openServiceEnv() (*serviceEnv, error) {
	dsn := fmt.Sprintf("file:service_env_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewProductVariantRepository(db)
	variantDiscountRepo := repository.NewVariantDiscountRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	ruleRepo := repository.NewDiscountRuleRepository(db)
	codeRepo := repository.NewDiscountCodeRepository(db)
	usageRepo := repository.NewDiscountUsageRepository(db)
	eventRepo := repository.NewOrderEventRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	loginLogRepo := repository.NewProfileLoginLogRepository(db)

	cfg := config.DiscountConfig{MaxCodesPerOrder: 3, GeneratedCodeLength: 10}
	recalc := NewRecalcService(cartRepo, orderRepo, variantDiscountRepo, collectionRepo, ruleRepo, usageRepo)
	events := NewOrderEventService(eventRepo, nil)
	auth := NewAuthService(&config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireNumber: true},
		},
	}, profileRepo, loginLogRepo, cartRepo)

	return &serviceEnv{
		db:               db,
		recalc:           recalc,
		events:           events,
		cart:             NewCartService(cfg, cartRepo, variantRepo, profileRepo, codeRepo, orderRepo, usageRepo, recalc, events),
		order:            NewOrderService(orderRepo, variantRepo, profileRepo, recalc, events),
		catalog:          NewCatalogService(categoryRepo, productRepo, variantRepo, collectionRepo, cartRepo, orderRepo, recalc),
		discount:         NewDiscountService(cfg, ruleRepo, codeRepo, variantRepo, cartRepo, recalc),
		variantDiscount:  NewVariantDiscountService(variantDiscountRepo, variantRepo, cartRepo, recalc),
		feedback:         NewFeedbackService(feedbackRepo, profileRepo, productRepo),
		auth:             auth,
		profile:          NewProfileService(profileRepo, variantRepo, cartRepo, auth),
		cartRepo:         cartRepo,
		orderRepo:        orderRepo,
		codeRepo:         codeRepo,
		usageRepo:        usageRepo,
		eventRepo:        eventRepo,
		variantDiscounts: variantDiscountRepo,
	}, nil
}

func (e *serviceEnv) createProfile(t *testing.T, username, role string) *models.Profile {
	t.Helper()
	profile := &models.Profile{Username: username, PasswordHash: "hash", Role: role}
	if err := e.db.Create(profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	return profile
}

func (e *serviceEnv) createCustomer(t *testing.T, username string) (*models.Profile, Actor) {
	t.Helper()
	profile := e.createProfile(t, username, constants.RoleCustomer)
	if _, err := ensureActiveCart(e.cartRepo, profile); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	return profile, Actor{ProfileID: profile.ID, Role: profile.Role}
}

func (e *serviceEnv) createAdmin(t *testing.T) Actor {
	t.Helper()
	profile := e.createProfile(t, fmt.Sprintf("admin_%d", time.Now().UnixNano()), constants.RoleAdmin)
	return Actor{ProfileID: profile.ID, Role: profile.Role}
}

func (e *serviceEnv) createProduct(t *testing.T, name string) *models.Product {
	t.Helper()
	category := &models.Category{Name: fmt.Sprintf("%s_category_%d", name, time.Now().UnixNano())}
	if err := e.db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product := &models.Product{CategoryID: category.ID, Name: name, IsActive: true}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (e *serviceEnv) createVariant(t *testing.T, productID uint, size, price string) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID: productID,
		Size:      size,
		Cost:      models.ZeroMoney(),
		Price:     models.MustMoney(price),
		Stock:     100,
	}
	if err := e.db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func (e *serviceEnv) activeCart(t *testing.T, customerID uint) *models.Cart {
	t.Helper()
	cart, err := e.cartRepo.GetActiveByCustomer(customerID)
	if err != nil {
		t.Fatalf("load active cart failed: %v", err)
	}
	if cart == nil {
		t.Fatalf("active cart missing for customer %d", customerID)
	}
	return cart
}

func (e *serviceEnv) createRuleWithCode(t *testing.T, in DiscountRuleInput, code string) (*DiscountRuleView, *models.DiscountCode) {
	t.Helper()
	rule, err := e.discount.CreateRule(in)
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	created, err := e.discount.CreateCode(rule.ID, DiscountCodeInput{Code: code})
	if err != nil {
		t.Fatalf("create code failed: %v", err)
	}
	return rule, created
}

func openWindowRule(title, valueType, value string) DiscountRuleInput {
	now := time.Now()
	return DiscountRuleInput{
		Title:     title,
		StartsAt:  now.Add(-time.Hour),
		EndsAt:    now.Add(24 * time.Hour),
		ValueType: valueType,
		Value:     models.MustMoney(value),
	}
}

func intPtr(v int) *int {
	return &v
}
