package provider

import (
	"github.com/maryema-next/internal/authz"
	"github.com/maryema-next/internal/cache"
	"github.com/maryema-next/internal/config"
	"github.com/maryema-next/internal/logger"
	"github.com/maryema-next/internal/models"
	"github.com/maryema-next/internal/queue"
	"github.com/maryema-next/internal/repository"
	"github.com/maryema-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	ProfileRepo         repository.ProfileRepository
	ProfileLoginLogRepo repository.ProfileLoginLogRepository
	CategoryRepo        repository.CategoryRepository
	ProductRepo         repository.ProductRepository
	VariantRepo         repository.ProductVariantRepository
	VariantDiscountRepo repository.VariantDiscountRepository
	CollectionRepo      repository.CollectionRepository
	CartRepo            repository.CartRepository
	OrderRepo           repository.OrderRepository
	DiscountRuleRepo    repository.DiscountRuleRepository
	DiscountCodeRepo    repository.DiscountCodeRepository
	DiscountUsageRepo   repository.DiscountUsageRepository
	OrderEventRepo      repository.OrderEventRepository
	FeedbackRepo        repository.FeedbackRepository
	AdminAuditLogRepo   repository.AdminAuditLogRepository
	DashboardRepo       repository.DashboardRepository

	// Services
	AuthzService           *authz.Service
	AdminAuditService      *service.AdminAuditService
	AuthService            *service.AuthService
	ProfileService         *service.ProfileService
	RecalcService          *service.RecalcService
	OrderEventService      *service.OrderEventService
	CatalogService         *service.CatalogService
	VariantDiscountService *service.VariantDiscountService
	DiscountService        *service.DiscountService
	CartService            *service.CartService
	OrderService           *service.OrderService
	FeedbackService        *service.FeedbackService
	DashboardService       *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()

	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ProfileRepo = repository.NewProfileRepository(db)
	c.ProfileLoginLogRepo = repository.NewProfileLoginLogRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewProductVariantRepository(db)
	c.VariantDiscountRepo = repository.NewVariantDiscountRepository(db)
	c.CollectionRepo = repository.NewCollectionRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.DiscountRuleRepo = repository.NewDiscountRuleRepository(db)
	c.DiscountCodeRepo = repository.NewDiscountCodeRepository(db)
	c.DiscountUsageRepo = repository.NewDiscountUsageRepository(db)
	c.OrderEventRepo = repository.NewOrderEventRepository(db)
	c.FeedbackRepo = repository.NewFeedbackRepository(db)
	c.AdminAuditLogRepo = repository.NewAdminAuditLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	c.AdminAuditService = service.NewAdminAuditService(c.AdminAuditLogRepo)

	c.RecalcService = service.NewRecalcService(c.CartRepo, c.OrderRepo, c.VariantDiscountRepo, c.CollectionRepo, c.DiscountRuleRepo, c.DiscountUsageRepo)
	c.OrderEventService = service.NewOrderEventService(c.OrderEventRepo, c.QueueClient)
	c.AuthService = service.NewAuthService(c.Config, c.ProfileRepo, c.ProfileLoginLogRepo, c.CartRepo)
	c.ProfileService = service.NewProfileService(c.ProfileRepo, c.VariantRepo, c.CartRepo, c.AuthService)
	c.CatalogService = service.NewCatalogService(c.CategoryRepo, c.ProductRepo, c.VariantRepo, c.CollectionRepo, c.CartRepo, c.OrderRepo, c.RecalcService)
	c.VariantDiscountService = service.NewVariantDiscountService(c.VariantDiscountRepo, c.VariantRepo, c.CartRepo, c.RecalcService)
	c.DiscountService = service.NewDiscountService(c.Config.Discount, c.DiscountRuleRepo, c.DiscountCodeRepo, c.VariantRepo, c.CartRepo, c.RecalcService)
	c.CartService = service.NewCartService(c.Config.Discount, c.CartRepo, c.VariantRepo, c.ProfileRepo, c.DiscountCodeRepo, c.OrderRepo, c.DiscountUsageRepo, c.RecalcService, c.OrderEventService)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.VariantRepo, c.ProfileRepo, c.RecalcService, c.OrderEventService)
	c.FeedbackService = service.NewFeedbackService(c.FeedbackRepo, c.ProfileRepo, c.ProductRepo)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.Config.Dashboard)

	if err := c.ProfileService.EnsureDefaultAdmin(c.Config.Bootstrap.AdminUsername, c.Config.Bootstrap.AdminPassword); err != nil {
		logger.Warnw("provider_ensure_default_admin_failed", "error", err)
	}
}
