package service

import (
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxLineQuantity 单条明细数量上限，与数据库 integer 列一致
const MaxLineQuantity = math.MaxInt32

// clampPercent 百分比限制在 [0,100]
func clampPercent(value decimal.Decimal) decimal.Decimal {
	if value.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if value.GreaterThan(hundred) {
		return hundred
	}
	return value
}

// percentOff 返回 amount × value/100（保留 2 位）
func percentOff(amount, value decimal.Decimal) decimal.Decimal {
	return amount.Mul(clampPercent(value)).Div(hundred).Round(2)
}

// applyPercentage amount − amount × factor
func applyPercentage(amount, value decimal.Decimal) decimal.Decimal {
	return floorZero(amount.Sub(percentOff(amount, value)))
}

// applyFixed 固定金额扣减，不低于 0
func applyFixed(amount, value decimal.Decimal) decimal.Decimal {
	return floorZero(amount.Sub(value))
}

func floorZero(amount decimal.Decimal) decimal.Decimal {
	if amount.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return amount.Round(2)
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// lineSubtotal 单价 × 数量
func lineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// checkQuantity 数量须在 [0, MaxLineQuantity]
func checkQuantity(quantity int) error {
	if quantity < 0 {
		return newValidationError("quantity", CodeQuantityInvalid, "quantity must not be negative")
	}
	if quantity > MaxLineQuantity {
		return newValidationError("quantity", CodeQuantityInvalid, "quantity exceeds the per-line maximum")
	}
	return nil
}

// normalizeQuantity 未传数量时默认 1
func normalizeQuantity(quantity *int) (int, error) {
	if quantity == nil {
		return 1, nil
	}
	if err := checkQuantity(*quantity); err != nil {
		return 0, err
	}
	return *quantity, nil
}

// mergeQuantity 同规格合并后的数量，两者均已校验过上限，相加不会溢出
func mergeQuantity(existing, added int) (int, error) {
	if existing < 0 || existing > MaxLineQuantity {
		return 0, newValidationError("quantity", CodeQuantityInvalid, "stored quantity is out of range")
	}
	if added > MaxLineQuantity-existing {
		return 0, newValidationError("quantity", CodeQuantityInvalid, "quantity exceeds the per-line maximum")
	}
	return existing + added, nil
}
