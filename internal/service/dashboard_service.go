package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maryema-next/internal/cache"
	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/repository"
)

const (
	dashboardDefaultCacheTTL = 45 * time.Second
	dashboardCustomMaxDays   = 90
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页核心经营数据，仅管理员可查。
type DashboardService struct {
	repo repository.DashboardRepository
	cfg  config.DashboardConfig
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository, cfg config.DashboardConfig) *DashboardService {
	return &DashboardService{repo: repo, cfg: normalizeDashboardConfig(cfg)}
}

func normalizeDashboardConfig(cfg config.DashboardConfig) config.DashboardConfig {
	if cfg.LowStockThreshold < 0 {
		cfg.LowStockThreshold = 0
	}
	if cfg.OutOfStockThreshold <= 0 {
		cfg.OutOfStockThreshold = 1
	}
	if cfg.PendingThreshold <= 0 {
		cfg.PendingThreshold = 20
	}
	if cfg.TopProductsLimit <= 0 || cfg.TopProductsLimit > 50 {
		cfg.TopProductsLimit = 5
	}
	if cfg.TopDiscountsLimit <= 0 || cfg.TopDiscountsLimit > 50 {
		cfg.TopDiscountsLimit = 5
	}
	return cfg
}

func (s *DashboardService) cacheTTL() time.Duration {
	if s.cfg.CacheSeconds < 0 {
		return 0
	}
	if s.cfg.CacheSeconds == 0 {
		return dashboardDefaultCacheTTL
	}
	return time.Duration(s.cfg.CacheSeconds) * time.Second
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Range    string               `json:"range"`
	From     string               `json:"from"`
	To       string               `json:"to"`
	Timezone string               `json:"timezone"`
	KPI      DashboardKPI         `json:"kpi"`
	Funnel   DashboardFunnel      `json:"funnel"`
	Alerts   []DashboardAlertItem `json:"alerts"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	OrdersTotal        int64  `json:"orders_total"`
	PendingOrders      int64  `json:"pending_orders"`
	ProcessingOrders   int64  `json:"processing_orders"`
	FulfilledOrders    int64  `json:"fulfilled_orders"`
	CanceledOrders     int64  `json:"canceled_orders"`
	ClosedOrders       int64  `json:"closed_orders"`
	Revenue            string `json:"revenue"`
	DiscountGiven      string `json:"discount_given"`
	NewCustomers       int64  `json:"new_customers"`
	ActiveProducts     int64  `json:"active_products"`
	ActiveCarts        int64  `json:"active_carts"`
	OutOfStockVariants int64  `json:"out_of_stock_variants"`
	LowStockVariants   int64  `json:"low_stock_variants"`
	AvailableUnits     int64  `json:"available_units"`
}

// DashboardFunnel 订单转化漏斗
type DashboardFunnel struct {
	OrdersCreated   int64  `json:"orders_created"`
	OrdersAccepted  int64  `json:"orders_accepted"`
	OrdersFulfilled int64  `json:"orders_fulfilled"`
	AcceptRate      string `json:"accept_rate"`
	FulfillRate     string `json:"fulfill_rate"`
}

// DashboardAlertItem 仪表盘告警项
type DashboardAlertItem struct {
	Type  string `json:"type"`
	Level string `json:"level"`
	Value int64  `json:"value"`
}

// DashboardTrendResponse 仪表盘趋势响应
type DashboardTrendResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Points   []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date            string `json:"date"`
	OrdersTotal     int64  `json:"orders_total"`
	OrdersFulfilled int64  `json:"orders_fulfilled"`
	Revenue         string `json:"revenue"`
}

// DashboardRankingsResponse 仪表盘排行榜响应
type DashboardRankingsResponse struct {
	Range        string                     `json:"range"`
	From         string                     `json:"from"`
	To           string                     `json:"to"`
	Timezone     string                     `json:"timezone"`
	TopProducts  []DashboardProductRanking  `json:"top_products"`
	TopDiscounts []DashboardDiscountRanking `json:"top_discounts"`
}

// DashboardProductRanking 商品排行项
type DashboardProductRanking struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Orders    int64  `json:"orders"`
	Quantity  int64  `json:"quantity"`
	Revenue   string `json:"revenue"`
}

// DashboardDiscountRanking 折扣规则排行项
type DashboardDiscountRanking struct {
	RuleID         uint   `json:"rule_id"`
	Title          string `json:"title"`
	Usages         int64  `json:"usages"`
	DiscountAmount string `json:"discount_amount"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

func (w dashboardWindow) from() string {
	return w.startAt.Format(time.RFC3339)
}

func (w dashboardWindow) to() string {
	return w.endAt.Add(-time.Second).Format(time.RFC3339)
}

// GetOverview 获取仪表盘总览
func (s *DashboardService) GetOverview(ctx context.Context, actor Actor, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:overview:%s:%d:%d:%s:%d",
		window.rangeKey,
		window.startAt.Unix(),
		window.endAt.Unix(),
		window.timezone,
		s.cfg.LowStockThreshold,
	)
	var cached DashboardOverviewResponse
	if s.loadCached(ctx, input, cacheKey, &cached) {
		return &cached, nil
	}

	overview, err := s.repo.GetOverview(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	stockStats, err := s.repo.GetStockStats(s.cfg.LowStockThreshold)
	if err != nil {
		return nil, err
	}

	accepted := overview.ProcessingOrders + overview.FulfilledOrders
	acceptRate := 0.0
	if overview.OrdersTotal > 0 {
		acceptRate = float64(accepted) / float64(overview.OrdersTotal) * 100
	}
	fulfillRate := 0.0
	if accepted > 0 {
		fulfillRate = float64(overview.FulfilledOrders) / float64(accepted) * 100
	}

	response := &DashboardOverviewResponse{
		Range:    window.rangeKey,
		From:     window.from(),
		To:       window.to(),
		Timezone: window.timezone,
		KPI: DashboardKPI{
			OrdersTotal:        overview.OrdersTotal,
			PendingOrders:      overview.PendingOrders,
			ProcessingOrders:   overview.ProcessingOrders,
			FulfilledOrders:    overview.FulfilledOrders,
			CanceledOrders:     overview.CanceledOrders,
			ClosedOrders:       overview.ClosedOrders,
			Revenue:            formatMoneyValue(overview.Revenue),
			DiscountGiven:      formatMoneyValue(overview.DiscountGiven),
			NewCustomers:       overview.NewCustomers,
			ActiveProducts:     overview.ActiveProducts,
			ActiveCarts:        overview.ActiveCarts,
			OutOfStockVariants: stockStats.OutOfStockVariants,
			LowStockVariants:   stockStats.LowStockVariants,
			AvailableUnits:     stockStats.AvailableUnits,
		},
		Funnel: DashboardFunnel{
			OrdersCreated:   overview.OrdersTotal,
			OrdersAccepted:  accepted,
			OrdersFulfilled: overview.FulfilledOrders,
			AcceptRate:      formatPercentValue(acceptRate),
			FulfillRate:     formatPercentValue(fulfillRate),
		},
		Alerts: buildDashboardAlerts(overview, stockStats, s.cfg),
	}

	s.storeCached(ctx, cacheKey, response)
	return response, nil
}

// GetTrends 获取仪表盘趋势，无数据的日期补零
func (s *DashboardService) GetTrends(ctx context.Context, actor Actor, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:trends:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	var cached DashboardTrendResponse
	if s.loadCached(ctx, input, cacheKey, &cached) {
		return &cached, nil
	}

	rows, err := s.repo.GetOrderTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	rowMap := make(map[string]repository.DashboardOrderTrendRow, len(rows))
	for _, item := range rows {
		rowMap[item.Day] = item
	}

	points := make([]DashboardTrendPoint, 0)
	for cursor := time.Date(window.startAt.Year(), window.startAt.Month(), window.startAt.Day(), 0, 0, 0, 0, window.startAt.Location()); cursor.Before(window.endAt); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Format("2006-01-02")
		item := rowMap[day]
		points = append(points, DashboardTrendPoint{
			Date:            day,
			OrdersTotal:     item.OrdersTotal,
			OrdersFulfilled: item.OrdersFulfilled,
			Revenue:         formatMoneyValue(item.Revenue),
		})
	}

	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.from(),
		To:       window.to(),
		Timezone: window.timezone,
		Points:   points,
	}
	s.storeCached(ctx, cacheKey, response)
	return response, nil
}

// GetRankings 获取商品与折扣规则排行
func (s *DashboardService) GetRankings(ctx context.Context, actor Actor, input DashboardQueryInput) (*DashboardRankingsResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:rankings:%s:%d:%d:%s:%d:%d",
		window.rangeKey,
		window.startAt.Unix(),
		window.endAt.Unix(),
		window.timezone,
		s.cfg.TopProductsLimit,
		s.cfg.TopDiscountsLimit,
	)
	var cached DashboardRankingsResponse
	if s.loadCached(ctx, input, cacheKey, &cached) {
		return &cached, nil
	}

	productRows, err := s.repo.GetTopProducts(window.startAt, window.endAt, s.cfg.TopProductsLimit)
	if err != nil {
		return nil, err
	}
	discountRows, err := s.repo.GetTopDiscountRules(window.startAt, window.endAt, s.cfg.TopDiscountsLimit)
	if err != nil {
		return nil, err
	}

	products := make([]DashboardProductRanking, 0, len(productRows))
	for _, item := range productRows {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = "-"
		}
		products = append(products, DashboardProductRanking{
			ProductID: item.ProductID,
			Name:      name,
			Orders:    item.Orders,
			Quantity:  item.Quantity,
			Revenue:   formatMoneyValue(item.Revenue),
		})
	}

	discounts := make([]DashboardDiscountRanking, 0, len(discountRows))
	for _, item := range discountRows {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "-"
		}
		discounts = append(discounts, DashboardDiscountRanking{
			RuleID:         item.RuleID,
			Title:          title,
			Usages:         item.Usages,
			DiscountAmount: formatMoneyValue(item.DiscountAmount),
		})
	}

	response := &DashboardRankingsResponse{
		Range:        window.rangeKey,
		From:         window.from(),
		To:           window.to(),
		Timezone:     window.timezone,
		TopProducts:  products,
		TopDiscounts: discounts,
	}
	s.storeCached(ctx, cacheKey, response)
	return response, nil
}

func (s *DashboardService) loadCached(ctx context.Context, input DashboardQueryInput, key string, dest interface{}) bool {
	if input.ForceRefresh || s.cacheTTL() == 0 {
		return false
	}
	hit, err := cache.GetJSON(ctx, key, dest)
	return err == nil && hit
}

func (s *DashboardService) storeCached(ctx context.Context, key string, value interface{}) {
	if ttl := s.cacheTTL(); ttl > 0 {
		_ = cache.SetJSON(ctx, key, value, ttl)
	}
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		if endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}

	if !window.endAt.After(window.startAt) {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func buildDashboardAlerts(overview repository.DashboardOverviewRow, stockStats repository.DashboardStockStatsRow, cfg config.DashboardConfig) []DashboardAlertItem {
	alerts := make([]DashboardAlertItem, 0, 3)
	if stockStats.OutOfStockVariants >= cfg.OutOfStockThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "out_of_stock_variants", Level: "error", Value: stockStats.OutOfStockVariants})
	}
	if stockStats.LowStockVariants > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "low_stock_variants", Level: "warning", Value: stockStats.LowStockVariants})
	}
	if overview.PendingOrders >= cfg.PendingThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_orders", Level: "warning", Value: overview.PendingOrders})
	}
	return alerts
}
