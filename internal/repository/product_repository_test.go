package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

func createFilterProduct(t *testing.T, db *gorm.DB, categoryID uint, name string, variants ...models.ProductVariant) models.Product {
	t.Helper()
	product := models.Product{CategoryID: categoryID, Name: name, IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	for i := range variants {
		variants[i].ProductID = product.ID
		if err := db.Create(&variants[i]).Error; err != nil {
			t.Fatalf("create variant failed: %v", err)
		}
	}
	return product
}

func TestProductRepositoryListVariantFilters(t *testing.T) {
	_, db := setupCartRepositoryTest(t)
	category := models.Category{Name: fmt.Sprintf("filters_%d", time.Now().UnixNano())}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	shirt := createFilterProduct(t, db, category.ID, "Shirt",
		models.ProductVariant{Color: "white", Size: "M", Price: models.MustMoney("10.00")},
		models.ProductVariant{Color: "black", Size: "L", Price: models.MustMoney("30.00")},
	)
	coat := createFilterProduct(t, db, category.ID, "Coat",
		models.ProductVariant{Color: "black", Size: "M", Price: models.MustMoney("120.00")},
	)
	createFilterProduct(t, db, category.ID, "Poster")

	repo := NewProductRepository(db)
	money := func(v string) *models.Money {
		m := models.MustMoney(v)
		return &m
	}
	cases := []struct {
		name   string
		filter ProductListFilter
		want   []uint
	}{
		{"no_variant_filter", ProductListFilter{}, nil},
		{"min_price", ProductListFilter{MinPrice: money("100")}, []uint{coat.ID}},
		{"max_price", ProductListFilter{MaxPrice: money("10.00")}, []uint{shirt.ID}},
		{"price_range", ProductListFilter{MinPrice: money("20"), MaxPrice: money("200")}, []uint{coat.ID, shirt.ID}},
		{"size", ProductListFilter{Size: "m"}, []uint{coat.ID, shirt.ID}},
		{"color", ProductListFilter{Color: "White"}, []uint{shirt.ID}},
		// 条件须落在同一规格上
		{"size_and_color_same_variant", ProductListFilter{Size: "L", Color: "white"}, []uint{}},
		{"color_and_price_same_variant", ProductListFilter{Color: "black", MaxPrice: money("50")}, []uint{shirt.ID}},
		{"no_match", ProductListFilter{Size: "XXL"}, []uint{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.filter.CategoryID = category.ID
			rows, total, err := repo.List(tc.filter)
			if err != nil {
				t.Fatalf("list products failed: %v", err)
			}
			if tc.want == nil {
				if total != 3 {
					t.Fatalf("unfiltered list want 3 products, got %d", total)
				}
				return
			}
			if int(total) != len(tc.want) || len(rows) != len(tc.want) {
				t.Fatalf("want %d products, got total=%d rows=%d", len(tc.want), total, len(rows))
			}
			// 默认按 id 倒序
			for i, id := range tc.want {
				if rows[i].ID != id {
					t.Fatalf("row %d want product %d, got %d", i, id, rows[i].ID)
				}
			}
		})
	}
}
