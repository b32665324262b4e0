package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"

	"github.com/cucumber/godog"
)

type scenarioContext struct {
	env      *serviceEnv
	admin    Actor
	customer Actor
	variants map[string]*models.ProductVariant
	order    *models.Order
	err      error
}

func (c *scenarioContext) reset() error {
	env, err := openServiceEnv()
	if err != nil {
		return err
	}
	c.env = env
	c.variants = map[string]*models.ProductVariant{}
	c.order = nil
	c.err = nil

	admin := &models.Profile{Username: "scenario_admin", PasswordHash: "hash", Role: constants.RoleAdmin}
	if err := env.db.Create(admin).Error; err != nil {
		return err
	}
	c.admin = Actor{ProfileID: admin.ID, Role: admin.Role}
	return nil
}

func (c *scenarioContext) aCustomerWithAnEmptyActiveCart(username string) error {
	profile := &models.Profile{Username: username, PasswordHash: "hash", Role: constants.RoleCustomer}
	if err := c.env.db.Create(profile).Error; err != nil {
		return err
	}
	if _, err := ensureActiveCart(c.env.cartRepo, profile); err != nil {
		return err
	}
	c.customer = Actor{ProfileID: profile.ID, Role: profile.Role}
	return nil
}

func (c *scenarioContext) aVariantPriced(name, price string) error {
	category := &models.Category{Name: "category_" + name}
	if err := c.env.db.Create(category).Error; err != nil {
		return err
	}
	product := &models.Product{CategoryID: category.ID, Name: "product_" + name, IsActive: true}
	if err := c.env.db.Create(product).Error; err != nil {
		return err
	}
	variant := &models.ProductVariant{ProductID: product.ID, Size: name, Price: models.MustMoney(price), Stock: 10}
	if err := c.env.db.Create(variant).Error; err != nil {
		return err
	}
	c.variants[name] = variant
	return nil
}

func (c *scenarioContext) variant(name string) (*models.ProductVariant, error) {
	variant, ok := c.variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q", name)
	}
	return variant, nil
}

func (c *scenarioContext) cart() (*models.Cart, error) {
	return c.env.cart.GetCart(c.customer)
}

func (c *scenarioContext) theCustomerAddsOfVariant(quantity int, name string) error {
	variant, err := c.variant(name)
	if err != nil {
		return err
	}
	_, err = c.env.cart.AddItem(c.customer, AddCartItemInput{VariantID: variant.ID, Quantity: &quantity})
	return err
}

func (c *scenarioContext) theCustomerRemovesTheItemForVariant(name string) error {
	variant, err := c.variant(name)
	if err != nil {
		return err
	}
	cart, err := c.cart()
	if err != nil {
		return err
	}
	for _, item := range cart.Items {
		if item.VariantID == variant.ID {
			_, err := c.env.cart.DeleteItem(c.customer, item.ID)
			return err
		}
	}
	return fmt.Errorf("no cart line for variant %q", name)
}

func (c *scenarioContext) theCustomerClearsTheCart() error {
	_, err := c.env.cart.ClearCart(c.customer)
	return err
}

func (c *scenarioContext) theCartCostIs(expected string) error {
	cart, err := c.cart()
	if err != nil {
		return err
	}
	if cart.Cost.String() != expected {
		return fmt.Errorf("cart cost %s, want %s", cart.Cost, expected)
	}
	return nil
}

func (c *scenarioContext) theCartHasLineForVariantWithQuantity(lines int, name string, quantity int) error {
	variant, err := c.variant(name)
	if err != nil {
		return err
	}
	var items []models.CartItem
	if err := c.env.db.Where("variant_id = ?", variant.ID).Find(&items).Error; err != nil {
		return err
	}
	if len(items) != lines {
		return fmt.Errorf("want %d line(s) got %d", lines, len(items))
	}
	if items[0].Quantity != quantity {
		return fmt.Errorf("quantity %d, want %d", items[0].Quantity, quantity)
	}
	return nil
}

func (c *scenarioContext) anAdminCreatesAnOrderForTheCustomer() error {
	order, err := c.env.order.Create(c.admin, c.customer.ProfileID)
	if err != nil {
		return err
	}
	c.order = order
	return nil
}

func (c *scenarioContext) theAdminAddsOfVariantToTheOrder(quantity int, name string) error {
	variant, err := c.variant(name)
	if err != nil {
		return err
	}
	_, err = c.env.order.AddItem(c.admin, c.order.ID, variant.ID, &quantity)
	return err
}

func (c *scenarioContext) theAdminSetsTheOrderStatusTo(status string) error {
	_, c.err = c.env.order.UpdateStatus(c.admin, c.order.ID, UpdateOrderStatusInput{Status: status})
	return nil
}

func (c *scenarioContext) theAdminSetsTheOrderStatusWithCloseReason(status, reason string) error {
	_, c.err = c.env.order.UpdateStatus(c.admin, c.order.ID, UpdateOrderStatusInput{Status: status, CloseReason: reason})
	return c.err
}

func (c *scenarioContext) theOrderStatusIs(expected string) error {
	order, err := c.env.order.Get(c.admin, c.order.ID)
	if err != nil {
		return err
	}
	if order.Status != expected {
		return fmt.Errorf("order status %s, want %s", order.Status, expected)
	}
	return nil
}

func (c *scenarioContext) theAdminSavesARuleEntitledToACollectionAndAProduct() error {
	collection, err := c.env.catalog.CreateCollection(c.admin, CollectionInput{Name: "scenario collection"})
	if err != nil {
		return err
	}
	in := openWindowRule("mixed targets", constants.DiscountValueTypePercentage, "10")
	in.TargetSelection = constants.DiscountSelectionSelected
	in.EntitledCollectionIDs = []uint{collection.ID}
	in.EntitledProductIDs = []uint{c.variants["V1"].ProductID}
	_, c.err = c.env.discount.CreateRule(in)
	return nil
}

func (c *scenarioContext) theRequestFailsWithViolation(code string) error {
	if c.err == nil {
		return errors.New("expected a validation error")
	}
	var verr *ValidationError
	if !errors.As(c.err, &verr) || !verr.HasCode(code) {
		return fmt.Errorf("expected violation %s, got %v", code, c.err)
	}
	return nil
}

func initializeCommerceScenario(ctx *godog.ScenarioContext) {
	sc := &scenarioContext{}

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, sc.reset()
	})

	ctx.Step(`^a customer "([^"]*)" with an empty active cart$`, sc.aCustomerWithAnEmptyActiveCart)
	ctx.Step(`^a variant "([^"]*)" priced "([^"]*)"$`, sc.aVariantPriced)
	ctx.Step(`^the customer adds (\d+) of variant "([^"]*)"$`, sc.theCustomerAddsOfVariant)
	ctx.Step(`^the customer removes the item for variant "([^"]*)"$`, sc.theCustomerRemovesTheItemForVariant)
	ctx.Step(`^the customer clears the cart$`, sc.theCustomerClearsTheCart)
	ctx.Step(`^the cart cost is "([^"]*)"$`, sc.theCartCostIs)
	ctx.Step(`^the cart has (\d+) line for variant "([^"]*)" with quantity (\d+)$`, sc.theCartHasLineForVariantWithQuantity)
	ctx.Step(`^an admin creates an order for the customer$`, sc.anAdminCreatesAnOrderForTheCustomer)
	ctx.Step(`^the admin adds (\d+) of variant "([^"]*)" to the order$`, sc.theAdminAddsOfVariantToTheOrder)
	ctx.Step(`^the admin sets the order status to "([^"]*)"$`, sc.theAdminSetsTheOrderStatusTo)
	ctx.Step(`^the admin sets the order status to "([^"]*)" with close reason "([^"]*)"$`, sc.theAdminSetsTheOrderStatusWithCloseReason)
	ctx.Step(`^the order status is "([^"]*)"$`, sc.theOrderStatusIs)
	ctx.Step(`^the admin saves a discount rule entitled to a collection and a product$`, sc.theAdminSavesARuleEntitledToACollectionAndAProduct)
	ctx.Step(`^the request fails with violation "([^"]*)"$`, sc.theRequestFailsWithViolation)
}

func TestCommerceFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeCommerceScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
