package repository

import (
	"fmt"
	"time"

	"github.com/maryema-next/internal/constants"
	"github.com/maryema-next/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error)
	GetStockStats(lowStockThreshold int64) (DashboardStockStatsRow, error)
	GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error)
	GetTopDiscountRules(startAt, endAt time.Time, limit int) ([]DashboardDiscountRankingRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	OrdersTotal      int64
	PendingOrders    int64
	ProcessingOrders int64
	FulfilledOrders  int64
	CanceledOrders   int64
	ClosedOrders     int64
	Revenue          float64
	DiscountGiven    float64
	NewCustomers     int64
	ActiveProducts   int64
	ActiveCarts      int64
}

// DashboardOrderTrendRow 订单趋势统计
type DashboardOrderTrendRow struct {
	Day             string
	OrdersTotal     int64
	OrdersFulfilled int64
	Revenue         float64
}

// DashboardStockStatsRow 规格库存统计
type DashboardStockStatsRow struct {
	OutOfStockVariants int64
	LowStockVariants   int64
	AvailableUnits     int64
}

// DashboardProductRankingRow 商品排行原始行
type DashboardProductRankingRow struct {
	ProductID uint
	Name      string
	Orders    int64
	Quantity  int64
	Revenue   float64
}

// DashboardDiscountRankingRow 折扣规则排行原始行
type DashboardDiscountRankingRow struct {
	RuleID         uint
	Title          string
	Usages         int64
	DiscountAmount float64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// revenueOrderStatuses 计入营收的订单状态
func revenueOrderStatuses() []string {
	return []string{
		constants.OrderStatusProcessing,
		constants.OrderStatusFulfilled,
	}
}

const dashboardDayExpr = "CAST(date(created_at) AS TEXT)"

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}

	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}

	type statusRow struct {
		Status string
		Total  int64
	}
	var statuses []statusRow
	if err := orderBase().
		Select("status, COUNT(*) as total").
		Group("status").
		Scan(&statuses).Error; err != nil {
		return result, err
	}
	for _, row := range statuses {
		switch row.Status {
		case constants.OrderStatusPending:
			result.PendingOrders = row.Total
		case constants.OrderStatusProcessing:
			result.ProcessingOrders = row.Total
		case constants.OrderStatusFulfilled:
			result.FulfilledOrders = row.Total
		case constants.OrderStatusCanceled:
			result.CanceledOrders = row.Total
		case constants.OrderStatusClosed:
			result.ClosedOrders = row.Total
		}
	}

	if err := orderBase().
		Where("status IN ?", revenueOrderStatuses()).
		Select("COALESCE(SUM(total), 0)").
		Scan(&result.Revenue).Error; err != nil {
		return result, err
	}
	if err := orderBase().
		Where("status IN ?", revenueOrderStatuses()).
		Select("COALESCE(SUM(discount_amount), 0)").
		Scan(&result.DiscountGiven).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Profile{}).
		Where("role = ? AND created_at >= ? AND created_at < ?", constants.RoleCustomer, startAt, endAt).
		Count(&result.NewCustomers).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Product{}).
		Where("is_active = ?", true).
		Count(&result.ActiveProducts).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Cart{}).
		Where("is_active = ? AND EXISTS (SELECT 1 FROM cart_items WHERE cart_items.cart_id = carts.id)", true).
		Count(&result.ActiveCarts).Error; err != nil {
		return result, err
	}

	return result, nil
}

// GetOrderTrends 获取订单趋势
func (r *GormDashboardRepository) GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error) {
	type totalRow struct {
		Day   string
		Total int64
	}
	type revenueRow struct {
		Day       string
		Fulfilled int64
		Revenue   float64
	}

	var totals []totalRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dashboardDayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dashboardDayExpr).
		Order("day asc").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var revenues []revenueRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf(
			"%s as day, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) as fulfilled, COALESCE(SUM(total), 0) as revenue",
			dashboardDayExpr,
		), constants.OrderStatusFulfilled).
		Where("created_at >= ? AND created_at < ? AND status IN ?", startAt, endAt, revenueOrderStatuses()).
		Group(dashboardDayExpr).
		Order("day asc").
		Scan(&revenues).Error; err != nil {
		return nil, err
	}
	revenueMap := make(map[string]revenueRow, len(revenues))
	for _, item := range revenues {
		revenueMap[item.Day] = item
	}

	result := make([]DashboardOrderTrendRow, 0, len(totals))
	for _, item := range totals {
		rev := revenueMap[item.Day]
		result = append(result, DashboardOrderTrendRow{
			Day:             item.Day,
			OrdersTotal:     item.Total,
			OrdersFulfilled: rev.Fulfilled,
			Revenue:         rev.Revenue,
		})
	}
	return result, nil
}

// GetStockStats 获取上架商品规格的库存统计
func (r *GormDashboardRepository) GetStockStats(lowStockThreshold int64) (DashboardStockStatsRow, error) {
	result := DashboardStockStatsRow{}
	var stocks []int64
	if err := r.db.Model(&models.ProductVariant{}).
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("products.is_active = ?", true).
		Pluck("product_variants.stock", &stocks).Error; err != nil {
		return result, err
	}
	for _, stock := range stocks {
		if stock <= 0 {
			result.OutOfStockVariants++
			continue
		}
		result.AvailableUnits += stock
		if stock <= lowStockThreshold {
			result.LowStockVariants++
		}
	}
	return result, nil
}

// GetTopProducts 获取商品排行榜（按当前规格售价估算营收）
func (r *GormDashboardRepository) GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardProductRankingRow, 0)
	if err := r.db.Model(&models.OrderItem{}).
		Select(`
			products.id as product_id,
			products.name as name,
			COUNT(DISTINCT order_items.order_id) as orders,
			COALESCE(SUM(order_items.quantity), 0) as quantity,
			COALESCE(SUM(order_items.quantity * product_variants.price), 0) as revenue
		`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN product_variants ON product_variants.id = order_items.variant_id").
		Joins("JOIN products ON products.id = product_variants.product_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status IN ?", startAt, endAt, revenueOrderStatuses()).
		Group("products.id, products.name").
		Order("revenue DESC, quantity DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopDiscountRules 获取折扣规则使用排行
func (r *GormDashboardRepository) GetTopDiscountRules(startAt, endAt time.Time, limit int) ([]DashboardDiscountRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardDiscountRankingRow, 0)
	if err := r.db.Model(&models.DiscountUsage{}).
		Select(`
			discount_usages.rule_id as rule_id,
			COALESCE(discount_rules.title, '') as title,
			COUNT(*) as usages,
			COALESCE(SUM(discount_usages.discount_amount), 0) as discount_amount
		`).
		Joins("LEFT JOIN discount_rules ON discount_rules.id = discount_usages.rule_id").
		Where("discount_usages.created_at >= ? AND discount_usages.created_at < ?", startAt, endAt).
		Group("discount_usages.rule_id, discount_rules.title").
		Order("discount_amount DESC, usages DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
