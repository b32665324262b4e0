package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 以 json 文本落库的对象，用于事件载荷与审计明细
type JSON map[string]interface{}

// Value 实现 driver.Valuer
func (j JSON) Value() (driver.Value, error) {
	return jsonValue(j, j == nil)
}

// Scan 实现 sql.Scanner，NULL 读为空对象
func (j *JSON) Scan(value interface{}) error {
	*j = JSON{}
	return jsonScan(value, j)
}

// StringArray 以 json 数组落库的字符串列表（商品标签）
type StringArray []string

// Value 实现 driver.Valuer
func (s StringArray) Value() (driver.Value, error) {
	return jsonValue(s, s == nil)
}

// Scan 实现 sql.Scanner，NULL 读为空数组
func (s *StringArray) Scan(value interface{}) error {
	*s = StringArray{}
	return jsonScan(value, s)
}

func jsonValue(v any, isNil bool) (driver.Value, error) {
	if isNil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func jsonScan(value interface{}, dest any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
