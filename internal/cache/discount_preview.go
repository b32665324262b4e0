package cache

import (
	"context"
	"fmt"
	"time"
)

func discountPreviewKey(cartID uint) string {
	return fmt.Sprintf("discount:preview:cart:%d", cartID)
}

// GetDiscountPreview 获取购物车折扣预览缓存
func GetDiscountPreview(ctx context.Context, cartID uint, dest interface{}) (bool, error) {
	if cartID == 0 {
		return false, nil
	}
	return GetJSON(ctx, discountPreviewKey(cartID), dest)
}

// SetDiscountPreview 写入购物车折扣预览缓存，ttl<=0 时不写入
func SetDiscountPreview(ctx context.Context, cartID uint, value interface{}, ttl time.Duration) error {
	if cartID == 0 || ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, discountPreviewKey(cartID), value, ttl)
}

// InvalidateDiscountPreview 购物车明细或折扣码变化后清除预览缓存
func InvalidateDiscountPreview(ctx context.Context, cartIDs ...uint) error {
	keys := make([]string, 0, len(cartIDs))
	for _, id := range cartIDs {
		if id == 0 {
			continue
		}
		keys = append(keys, discountPreviewKey(id))
	}
	return Del(ctx, keys...)
}
