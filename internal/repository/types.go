package repository

import (
	"time"

	"github.com/maryema-next/internal/models"
)

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryID   uint
	ProviderID   uint
	CollectionID uint
	Search       string
	// 规格维度：任一规格同时满足价格区间与颜色尺码即命中
	MinPrice     *models.Money
	MaxPrice     *models.Money
	Size         string
	Color        string
	OnlyActive   bool
	WithVariants bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	CustomerID  uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ProfileListFilter 查询账号列表的过滤条件
type ProfileListFilter struct {
	Page     int
	PageSize int
	Role     string
	Search   string
}

// FeedbackListFilter 查询评价列表的过滤条件
type FeedbackListFilter struct {
	Page       int
	PageSize   int
	ProductID  uint
	CustomerID uint
}

// DiscountRuleListFilter 查询折扣规则列表的过滤条件
type DiscountRuleListFilter struct {
	Page     int
	PageSize int
	Search   string
	ActiveAt *time.Time
}

// DiscountCodeListFilter 查询折扣码列表的过滤条件
type DiscountCodeListFilter struct {
	Page     int
	PageSize int
	RuleID   uint
	Code     string
}
