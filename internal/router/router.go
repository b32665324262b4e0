package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maryema-next/internal/authz"
	"github.com/maryema-next/internal/cache"
	"github.com/maryema-next/internal/config"
	adminhandlers "github.com/maryema-next/internal/http/handlers/admin"
	publichandlers "github.com/maryema-next/internal/http/handlers/public"
	"github.com/maryema-next/internal/http/response"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "mn"
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	discountCodeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:discount_code", redisPrefix),
		WindowSeconds: cfg.Security.DiscountCodeRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.DiscountCodeRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.DiscountCodeRateLimit.BlockSeconds,
		FailOpen:      true,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(cache.Client(), loginRule, KeyByIPAndJSONField("username")), publicHandler.Login)
		}

		// 商品目录只读接口
		catalog := apiV1.Group("/catalog")
		{
			catalog.GET("/categories", publicHandler.GetCategories)
			catalog.GET("/products", publicHandler.GetProducts)
			catalog.GET("/products/:id", publicHandler.GetProduct)
			catalog.GET("/products/:id/variants", publicHandler.GetProductVariants)
			catalog.GET("/products/:id/feedback", publicHandler.GetProductFeedback)
			catalog.GET("/products/:id/feedback/summary", publicHandler.GetProductFeedbackSummary)
			catalog.GET("/variants/:id", publicHandler.GetVariant)
			catalog.GET("/collections", publicHandler.GetCollections)
			catalog.GET("/collections/:id", publicHandler.GetCollection)
		}

		// 登录后接口，按角色策略放行
		authorized := apiV1.Group("")
		authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AuthService), RBACMiddleware(c.AuthzService))
		{
			authorized.GET("/me", publicHandler.GetMe)
			authorized.PUT("/me", publicHandler.UpdateMe)
			authorized.PUT("/me/password", publicHandler.ChangePassword)
			authorized.GET("/me/login-logs", publicHandler.GetMyLoginLogs)
			authorized.GET("/me/wishlist", publicHandler.GetWishlist)
			authorized.POST("/me/wishlist/:variant_id", publicHandler.AddWishlist)
			authorized.DELETE("/me/wishlist/:variant_id", publicHandler.RemoveWishlist)

			// 购物车
			authorized.GET("/cart", publicHandler.GetCart)
			authorized.POST("/cart/items", publicHandler.AddCartItem)
			authorized.PUT("/cart/items/:id", publicHandler.UpdateCartItem)
			authorized.DELETE("/cart/items/:id", publicHandler.DeleteCartItem)
			authorized.DELETE("/cart/items", publicHandler.ClearCart)
			authorized.POST("/cart/codes", RateLimitMiddleware(cache.Client(), discountCodeRule, KeyByProfile), publicHandler.ApplyCartCode)
			authorized.DELETE("/cart/codes/:code", publicHandler.RemoveCartCode)
			authorized.GET("/cart/preview", publicHandler.PreviewCart)
			authorized.POST("/cart/checkout", publicHandler.Checkout)

			// 订单
			authorized.GET("/orders", publicHandler.ListOrders)
			authorized.GET("/orders/:id", publicHandler.GetOrder)
			authorized.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			authorized.GET("/orders/:id/events", publicHandler.ListOrderEvents)

			// 评价
			authorized.POST("/feedback", publicHandler.CreateFeedback)
			authorized.PUT("/feedback/:id", publicHandler.UpdateFeedback)
			authorized.DELETE("/feedback/:id", publicHandler.DeleteFeedback)

			// 商品维护（提供方与管理员）
			authorized.POST("/catalog/products", publicHandler.CreateProduct)
			authorized.PUT("/catalog/products/:id", publicHandler.UpdateProduct)
			authorized.DELETE("/catalog/products/:id", publicHandler.DeleteProduct)
			authorized.POST("/catalog/products/:id/variants", publicHandler.CreateVariant)
			authorized.PUT("/catalog/variants/:id", publicHandler.UpdateVariant)
			authorized.DELETE("/catalog/variants/:id", publicHandler.DeleteVariant)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AuthService), RBACMiddleware(c.AuthzService))
		{
			// 分类与集合
			admin.POST("/categories", adminHandler.CreateCategory)
			admin.PUT("/categories/:id", adminHandler.UpdateCategory)
			admin.DELETE("/categories/:id", adminHandler.DeleteCategory)
			admin.POST("/collections", adminHandler.CreateCollection)
			admin.PUT("/collections/:id", adminHandler.UpdateCollection)
			admin.DELETE("/collections/:id", adminHandler.DeleteCollection)

			// 规格折扣
			admin.GET("/variant-discounts", adminHandler.ListVariantDiscounts)
			admin.POST("/variant-discounts", adminHandler.CreateVariantDiscount)
			admin.PUT("/variant-discounts/:id", adminHandler.UpdateVariantDiscount)
			admin.DELETE("/variant-discounts/:id", adminHandler.DeleteVariantDiscount)

			// 折扣规则与折扣码
			admin.GET("/discount-rules", adminHandler.ListDiscountRules)
			admin.POST("/discount-rules", adminHandler.CreateDiscountRule)
			admin.GET("/discount-rules/:id", adminHandler.GetDiscountRule)
			admin.PUT("/discount-rules/:id", adminHandler.UpdateDiscountRule)
			admin.DELETE("/discount-rules/:id", adminHandler.DeleteDiscountRule)
			admin.PUT("/discount-rules/:id/ratio", adminHandler.SetDiscountRuleRatio)
			admin.DELETE("/discount-rules/:id/ratio", adminHandler.DeleteDiscountRuleRatio)
			admin.GET("/discount-rules/:id/codes", adminHandler.ListDiscountRuleCodes)
			admin.POST("/discount-rules/:id/codes", adminHandler.CreateDiscountCode)
			admin.POST("/discount-rules/:id/codes/generate", adminHandler.GenerateDiscountCodes)
			admin.GET("/discount-codes", adminHandler.ListDiscountCodes)
			admin.PUT("/discount-codes/:id", adminHandler.UpdateDiscountCode)
			admin.DELETE("/discount-codes/:id", adminHandler.DeleteDiscountCode)

			// 仪表盘
			admin.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
			admin.GET("/dashboard/trends", adminHandler.GetDashboardTrends)
			admin.GET("/dashboard/rankings", adminHandler.GetDashboardRankings)

			// 订单管理
			admin.GET("/orders", adminHandler.GetOrders)
			admin.POST("/orders", adminHandler.CreateOrder)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.POST("/orders/:id/process", adminHandler.ProcessOrder)
			admin.POST("/orders/:id/fulfill", adminHandler.FulfillOrder)
			admin.POST("/orders/:id/close", adminHandler.CloseOrder)
			admin.POST("/orders/:id/items", adminHandler.AddOrderItem)
			admin.GET("/orders/:id/events", adminHandler.GetOrderEvents)
			admin.PUT("/order-items/:id", adminHandler.UpdateOrderItem)
			admin.DELETE("/order-items/:id", adminHandler.DeleteOrderItem)

			// 账号管理
			admin.GET("/profiles", adminHandler.GetProfiles)
			admin.GET("/profiles/:id", adminHandler.GetProfile)
			admin.PUT("/profiles/:id/role", adminHandler.UpdateProfileRole)
			admin.GET("/profiles/:id/login-logs", adminHandler.GetProfileLoginLogs)

			// 权限管理
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

// buildPermissionCatalog 列出需要鉴权的路由，供授予策略时选择
func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/") || isAnonymousRoute(method, item.Path) {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func isAnonymousRoute(method, path string) bool {
	if strings.HasPrefix(path, "/api/v1/auth/") {
		return true
	}
	return method == "GET" && strings.HasPrefix(path, "/api/v1/catalog/")
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if segments[0] != "admin" || len(segments) == 1 {
		return segments[0]
	}
	return segments[1]
}
