package i18n

var catalogs = map[string]map[string]string{
	LocaleZH: messagesZH,
	LocaleTW: messagesTW,
	LocaleEN: messagesEN,
}

var messagesZH = map[string]string{
	"error.bad_request":                "请求参数错误",
	"error.authz_policy_locked":        "管理员的全量权限不可撤销",
	"error.authz_action_invalid":       "动作必须是 HTTP 方法或 *",
	"error.unauthorized":               "未登录或登录已失效",
	"error.forbidden":                  "没有权限执行此操作",
	"error.not_found":                  "资源不存在",
	"error.conflict":                   "数据冲突，请刷新后重试",
	"error.dashboard_range_invalid":    "统计时间范围无效，自定义范围最多 90 天",
	"error.not_customer":               "仅顾客账号可执行此操作",
	"error.not_owner":                  "无权访问其他账号的数据",
	"error.not_provider":               "仅商品提供方或管理员可维护商品",
	"error.profile_not_found":          "账号不存在",
	"error.cart_not_found":             "购物车不存在",
	"error.cart_item_not_found":        "购物车明细不存在",
	"error.order_not_found":            "订单不存在",
	"error.order_item_not_found":       "订单明细不存在",
	"error.category_not_found":         "分类不存在",
	"error.product_not_found":          "商品不存在",
	"error.variant_not_found":          "商品规格不存在",
	"error.variant_discount_not_found": "规格折扣不存在",
	"error.collection_not_found":       "商品集合不存在",
	"error.discount_rule_not_found":    "折扣规则不存在",
	"error.discount_code_not_found":    "折扣码不存在",
	"error.feedback_not_found":         "评价不存在",
	"error.login_invalid":              "用户名或密码错误",
	"error.login_failed":               "登录失败",
	"error.login_too_many":             "登录尝试过于频繁，请 %d 秒后再试",
	"error.register_failed":            "注册失败",
	"error.username_exists":            "用户名已被占用",
	"error.password_old_invalid":       "原密码错误",
	"error.password_weak":              "密码强度不足",
	"error.password_min_length":        "密码长度不能少于 %d 位",
	"error.password_require_upper":     "密码需包含大写字母",
	"error.password_require_lower":     "密码需包含小写字母",
	"error.password_require_number":    "密码需包含数字",
	"error.password_require_special":   "密码需包含特殊字符",
	"error.password_max_length":        "密码不能超过 %d 字节",
	"error.password_contains_username": "密码不能包含账号名",
	"error.jwt_secret_missing":         "服务端未配置 JWT 密钥",
	"error.auth_header_missing":        "缺少 Authorization 请求头",
	"error.auth_header_invalid":        "Authorization 格式错误",
	"error.token_invalid":              "登录凭证无效",
	"error.token_revoked":              "登录凭证已失效，请重新登录",
	"error.rate_limited":               "请求过于频繁，请 %d 秒后再试",
	"error.rate_limit_unavailable":     "限流服务不可用",
	"error.profile_id_invalid":         "账号 ID 无效",
	"error.profile_id_type_invalid":    "账号 ID 类型错误",
	"error.profile_fetch_failed":       "获取账号信息失败",
	"error.profile_update_failed":      "更新账号信息失败",
	"error.cart_fetch_failed":          "获取购物车失败",
	"error.cart_update_failed":         "更新购物车失败",
	"error.order_fetch_failed":         "获取订单失败",
	"error.order_create_failed":        "创建订单失败",
	"error.order_update_failed":        "更新订单失败",
	"error.fetch_failed":               "获取数据失败",
	"error.create_failed":              "创建失败",
	"error.update_failed":              "更新失败",
	"error.delete_failed":              "删除失败",
}

var messagesTW = map[string]string{
	"error.bad_request":                "請求參數錯誤",
	"error.authz_policy_locked":        "管理員的全量權限不可撤銷",
	"error.authz_action_invalid":       "動作必須是 HTTP 方法或 *",
	"error.unauthorized":               "未登入或登入已失效",
	"error.forbidden":                  "沒有權限執行此操作",
	"error.not_found":                  "資源不存在",
	"error.conflict":                   "資料衝突，請重新整理後重試",
	"error.dashboard_range_invalid":    "統計時間範圍無效，自訂範圍最多 90 天",
	"error.not_customer":               "僅顧客帳號可執行此操作",
	"error.not_owner":                  "無權存取其他帳號的資料",
	"error.not_provider":               "僅商品提供方或管理員可維護商品",
	"error.profile_not_found":          "帳號不存在",
	"error.cart_not_found":             "購物車不存在",
	"error.cart_item_not_found":        "購物車明細不存在",
	"error.order_not_found":            "訂單不存在",
	"error.order_item_not_found":       "訂單明細不存在",
	"error.category_not_found":         "分類不存在",
	"error.product_not_found":          "商品不存在",
	"error.variant_not_found":          "商品規格不存在",
	"error.variant_discount_not_found": "規格折扣不存在",
	"error.collection_not_found":       "商品集合不存在",
	"error.discount_rule_not_found":    "折扣規則不存在",
	"error.discount_code_not_found":    "折扣碼不存在",
	"error.feedback_not_found":         "評價不存在",
	"error.login_invalid":              "使用者名稱或密碼錯誤",
	"error.login_failed":               "登入失敗",
	"error.login_too_many":             "登入嘗試過於頻繁，請 %d 秒後再試",
	"error.register_failed":            "註冊失敗",
	"error.username_exists":            "使用者名稱已被使用",
	"error.password_old_invalid":       "原密碼錯誤",
	"error.password_weak":              "密碼強度不足",
	"error.password_min_length":        "密碼長度不能少於 %d 位",
	"error.password_require_upper":     "密碼需包含大寫字母",
	"error.password_require_lower":     "密碼需包含小寫字母",
	"error.password_require_number":    "密碼需包含數字",
	"error.password_require_special":   "密碼需包含特殊字元",
	"error.password_max_length":        "密碼不能超過 %d 位元組",
	"error.password_contains_username": "密碼不能包含帳號名稱",
	"error.jwt_secret_missing":         "服務端未設定 JWT 金鑰",
	"error.auth_header_missing":        "缺少 Authorization 請求標頭",
	"error.auth_header_invalid":        "Authorization 格式錯誤",
	"error.token_invalid":              "登入憑證無效",
	"error.token_revoked":              "登入憑證已失效，請重新登入",
	"error.rate_limited":               "請求過於頻繁，請 %d 秒後再試",
	"error.rate_limit_unavailable":     "限流服務不可用",
	"error.profile_id_invalid":         "帳號 ID 無效",
	"error.profile_id_type_invalid":    "帳號 ID 型別錯誤",
	"error.profile_fetch_failed":       "取得帳號資訊失敗",
	"error.profile_update_failed":      "更新帳號資訊失敗",
	"error.cart_fetch_failed":          "取得購物車失敗",
	"error.cart_update_failed":         "更新購物車失敗",
	"error.order_fetch_failed":         "取得訂單失敗",
	"error.order_create_failed":        "建立訂單失敗",
	"error.order_update_failed":        "更新訂單失敗",
	"error.fetch_failed":               "取得資料失敗",
	"error.create_failed":              "建立失敗",
	"error.update_failed":              "更新失敗",
	"error.delete_failed":              "刪除失敗",
}

var messagesEN = map[string]string{
	"error.bad_request":                "Invalid request parameters",
	"error.authz_policy_locked":        "The admin wildcard policy cannot be revoked",
	"error.authz_action_invalid":       "Action must be an HTTP method or *",
	"error.unauthorized":               "Unauthorized",
	"error.forbidden":                  "Permission denied",
	"error.not_found":                  "Resource not found",
	"error.conflict":                   "Conflicting update, please retry",
	"error.dashboard_range_invalid":    "Invalid dashboard range, custom ranges are limited to 90 days",
	"error.not_customer":               "Only customer profiles can do this",
	"error.not_owner":                  "The resource belongs to another profile",
	"error.not_provider":               "Only providers or admins can manage the catalog",
	"error.profile_not_found":          "Profile not found",
	"error.cart_not_found":             "Cart not found",
	"error.cart_item_not_found":        "Cart item not found",
	"error.order_not_found":            "Order not found",
	"error.order_item_not_found":       "Order item not found",
	"error.category_not_found":         "Category not found",
	"error.product_not_found":          "Product not found",
	"error.variant_not_found":          "Variant not found",
	"error.variant_discount_not_found": "Variant discount not found",
	"error.collection_not_found":       "Collection not found",
	"error.discount_rule_not_found":    "Discount rule not found",
	"error.discount_code_not_found":    "Discount code not found",
	"error.feedback_not_found":         "Feedback not found",
	"error.login_invalid":              "Invalid username or password",
	"error.login_failed":               "Login failed",
	"error.login_too_many":             "Too many login attempts, retry in %d seconds",
	"error.register_failed":            "Registration failed",
	"error.username_exists":            "Username already exists",
	"error.password_old_invalid":       "Current password is incorrect",
	"error.password_weak":              "Password is too weak",
	"error.password_min_length":        "Password must be at least %d characters",
	"error.password_require_upper":     "Password must contain an uppercase letter",
	"error.password_require_lower":     "Password must contain a lowercase letter",
	"error.password_require_number":    "Password must contain a digit",
	"error.password_require_special":   "Password must contain a special character",
	"error.password_max_length":        "Password must not exceed %d bytes",
	"error.password_contains_username": "Password must not contain the username",
	"error.jwt_secret_missing":         "JWT secret is not configured",
	"error.auth_header_missing":        "Missing Authorization header",
	"error.auth_header_invalid":        "Malformed Authorization header",
	"error.token_invalid":              "Invalid token",
	"error.token_revoked":              "Token revoked, please sign in again",
	"error.rate_limited":               "Too many requests, retry in %d seconds",
	"error.rate_limit_unavailable":     "Rate limiter unavailable",
	"error.profile_id_invalid":         "Invalid profile id",
	"error.profile_id_type_invalid":    "Profile id has an unexpected type",
	"error.profile_fetch_failed":       "Failed to load profile",
	"error.profile_update_failed":      "Failed to update profile",
	"error.cart_fetch_failed":          "Failed to load cart",
	"error.cart_update_failed":         "Failed to update cart",
	"error.order_fetch_failed":         "Failed to load orders",
	"error.order_create_failed":        "Failed to create order",
	"error.order_update_failed":        "Failed to update order",
	"error.fetch_failed":               "Failed to load data",
	"error.create_failed":              "Create failed",
	"error.update_failed":              "Update failed",
	"error.delete_failed":              "Delete failed",
}
