package constants

// 用户角色常量
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
	RoleProvider = "provider"
)

// 订单状态常量
const (
	OrderStatusPending    = "PENDING"
	OrderStatusProcessing = "PROCESSING"
	OrderStatusFulfilled  = "FULFILLED"
	OrderStatusCanceled   = "CANCELED"
	OrderStatusClosed     = "CLOSED"
)

// 订单事件类型常量
const (
	OrderEventPlaced        = "placed"
	OrderEventStatusChanged = "status_changed"
)

// 折扣规则取值类型
const (
	DiscountValueTypePercentage = "PERCENTAGE"
	DiscountValueTypeFixed      = "FIXED"
)

// 折扣规则客户/目标选择方式
const (
	DiscountSelectionAll      = "ALL"
	DiscountSelectionSelected = "SELECTED"
)

// 折扣规则分摊方式
const (
	DiscountAllocationAcross = "ACROSS"
	DiscountAllocationEach   = "EACH"
)

// 折扣规则关联集合类型（rule_targets.kind）
const (
	DiscountTargetEntitled     = "entitled"
	DiscountTargetPrerequisite = "prerequisite"
)

// 折扣规则关联对象类型（rule_targets.ref_type）
const (
	DiscountRefCollection = "collection"
	DiscountRefProduct    = "product"
	DiscountRefVariant    = "variant"
)

// 规格折扣类型
const (
	VariantDiscountTypeFixed   = "fixed"
	VariantDiscountTypePercent = "percent"
)

// 评价评分范围
const (
	FeedbackRateMin = 0
	FeedbackRateMax = 5
)

// 队列与任务类型
const (
	QueueDefault            = "default"
	QueueCritical           = "critical"
	TaskOrderPlaced         = "order:placed"
	TaskOrderStatusChanged  = "order:status_changed"
	TaskCartRecalculateByID = "cart:recalculate"
)

// 登录日志状态与失败原因
const (
	LoginLogStatusSuccess      = "success"
	LoginLogStatusFailed       = "failed"
	LoginFailReasonNotFound    = "profile_not_found"
	LoginFailReasonBadPassword = "invalid_password"
	LoginFailReasonTokenIssue  = "token_issue_failed"
)
