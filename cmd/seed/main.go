package main

import (
	"errors"
	"log"
	"time"

	"github.com/maryema-next/internal/app"
	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

type seedVariant struct {
	Color string
	Size  string
	Cost  string
	Price string
	Stock int
}

type seedProduct struct {
	Category    string
	Name        string
	Description string
	Tags        []string
	Variants    []seedVariant
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := app.OpenDatabase(cfg.Database); err != nil {
		stdLog.Fatalf("Failed to prepare database: %v", err)
	}

	// 添加分类
	categoryIDs := map[string]uint{}
	for i, name := range []string{"Apparel", "Footwear", "Accessories"} {
		category := models.Category{Name: name, SortOrder: i}
		if err := firstOrCreate(&category, "name = ?", name); err != nil {
			stdLog.Fatalf("Failed to seed category %s: %v", name, err)
		}
		categoryIDs[name] = category.ID
	}

	// 添加商品与规格
	products := []seedProduct{
		{
			Category:    "Apparel",
			Name:        "Organic Cotton Tee",
			Description: "Heavyweight tee in organic cotton.",
			Tags:        []string{"cotton", "basics"},
			Variants: []seedVariant{
				{Color: "white", Size: "M", Cost: "6.00", Price: "18.00", Stock: 40},
				{Color: "white", Size: "L", Cost: "6.00", Price: "18.00", Stock: 30},
				{Color: "black", Size: "M", Cost: "6.50", Price: "20.00", Stock: 25},
			},
		},
		{
			Category:    "Apparel",
			Name:        "Rain Shell Jacket",
			Description: "Packable waterproof shell.",
			Tags:        []string{"outerwear"},
			Variants: []seedVariant{
				{Color: "olive", Size: "M", Cost: "40.00", Price: "120.00", Stock: 10},
				{Color: "olive", Size: "L", Cost: "40.00", Price: "120.00", Stock: 8},
			},
		},
		{
			Category:    "Footwear",
			Name:        "Trail Runner",
			Description: "Lightweight trail running shoe.",
			Tags:        []string{"running", "trail"},
			Variants: []seedVariant{
				{Color: "grey", Size: "42", Cost: "35.00", Price: "95.00", Stock: 12},
				{Color: "grey", Size: "43", Cost: "35.00", Price: "95.00", Stock: 12},
			},
		},
		{
			Category:    "Accessories",
			Name:        "Wool Socks",
			Description: "Merino blend crew socks.",
			Tags:        []string{"wool"},
			Variants: []seedVariant{
				{Color: "charcoal", Size: "M", Cost: "2.00", Price: "9.00", Stock: 100},
			},
		},
	}

	productIDs := map[string]uint{}
	for _, item := range products {
		product := models.Product{
			CategoryID:  categoryIDs[item.Category],
			Name:        item.Name,
			Description: item.Description,
			Tags:        models.StringArray(item.Tags),
			IsActive:    true,
		}
		if err := firstOrCreate(&product, "name = ?", item.Name); err != nil {
			stdLog.Printf("Failed to seed product %s: %v", item.Name, err)
			continue
		}
		productIDs[item.Name] = product.ID
		for _, v := range item.Variants {
			variant := models.ProductVariant{
				ProductID: product.ID,
				Color:     v.Color,
				Size:      v.Size,
				Cost:      models.MustMoney(v.Cost),
				Price:     models.MustMoney(v.Price),
				Stock:     v.Stock,
			}
			if err := firstOrCreate(&variant, "product_id = ? AND color = ? AND size = ?", product.ID, v.Color, v.Size); err != nil {
				stdLog.Printf("Failed to seed variant %s/%s/%s: %v", item.Name, v.Color, v.Size, err)
			}
		}
		stdLog.Printf("Seeded product: %s", item.Name)
	}

	// 合集
	essentials := models.Collection{Name: "Essentials", Description: "Everyday basics."}
	if err := firstOrCreate(&essentials, "name = ?", essentials.Name); err != nil {
		stdLog.Fatalf("Failed to seed collection: %v", err)
	}
	var members []models.Product
	for _, name := range []string{"Organic Cotton Tee", "Wool Socks"} {
		if id, ok := productIDs[name]; ok {
			members = append(members, models.Product{ID: id})
		}
	}
	if len(members) > 0 {
		if err := models.DB.Model(&essentials).Association("Products").Append(members); err != nil {
			stdLog.Printf("Failed to attach collection products: %v", err)
		}
	}

	seedDiscounts(stdLog, essentials.ID)
	stdLog.Printf("Seed completed")
}

// seedDiscounts 全场九折与合集买二送一示例
func seedDiscounts(stdLog *log.Logger, collectionID uint) {
	now := time.Now()
	ends := now.AddDate(1, 0, 0)

	welcome := models.DiscountRule{
		Title:             "Welcome 10% off",
		StartsAt:          now,
		EndsAt:            ends,
		ValueType:         constants.DiscountValueTypePercentage,
		Value:             models.MustMoney("10"),
		CustomerSelection: constants.DiscountSelectionAll,
		TargetSelection:   constants.DiscountSelectionAll,
		OncePerCustomer:   true,
		UsageLimit:        1000,
		AllocationMethod:  constants.DiscountAllocationAcross,
	}
	if err := firstOrCreate(&welcome, "title = ?", welcome.Title); err != nil {
		stdLog.Printf("Failed to seed rule %s: %v", welcome.Title, err)
		return
	}
	seedCode(stdLog, welcome, "WELCOME10")

	bxgy := models.DiscountRule{
		Title:             "Essentials buy 2 get 1",
		StartsAt:          now,
		EndsAt:            ends,
		ValueType:         constants.DiscountValueTypePercentage,
		Value:             models.MustMoney("100"),
		CustomerSelection: constants.DiscountSelectionAll,
		TargetSelection:   constants.DiscountSelectionSelected,
		UsageLimit:        500,
		AllocationMethod:  constants.DiscountAllocationEach,
	}
	if err := firstOrCreate(&bxgy, "title = ?", bxgy.Title); err != nil {
		stdLog.Printf("Failed to seed rule %s: %v", bxgy.Title, err)
		return
	}
	for _, kind := range []string{constants.DiscountTargetEntitled, constants.DiscountTargetPrerequisite} {
		target := models.DiscountRuleTarget{RuleID: bxgy.ID, Kind: kind, RefType: constants.DiscountRefCollection, RefID: collectionID}
		if err := firstOrCreate(&target, "rule_id = ? AND kind = ? AND ref_type = ? AND ref_id = ?", bxgy.ID, kind, target.RefType, collectionID); err != nil {
			stdLog.Printf("Failed to seed rule target: %v", err)
		}
	}
	ratio := models.DiscountRuleRatio{RuleID: bxgy.ID, PrerequisiteQuantity: 2, EntitledQuantity: 1}
	if err := firstOrCreate(&ratio, "rule_id = ?", bxgy.ID); err != nil {
		stdLog.Printf("Failed to seed rule ratio: %v", err)
	}
	seedCode(stdLog, bxgy, "ESSENTIALS3")
}

func seedCode(stdLog *log.Logger, rule models.DiscountRule, code string) {
	record := models.DiscountCode{RuleID: rule.ID, Code: code, StartsAt: rule.StartsAt, EndsAt: rule.EndsAt}
	if err := firstOrCreate(&record, "code = ?", code); err != nil {
		stdLog.Printf("Failed to seed code %s: %v", code, err)
		return
	}
	stdLog.Printf("Seeded discount code: %s (%s)", code, rule.Title)
}

// firstOrCreate 按条件查找，不存在则写入 dest
func firstOrCreate(dest interface{}, query string, args ...interface{}) error {
	err := models.DB.Where(query, args...).First(dest).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return models.DB.Create(dest).Error
}
