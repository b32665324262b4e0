package repository

import (
	"strings"

	"gorm.io/gorm"
)

// 单页上限，与接口层一致
const maxPageSize = 100

// paginate 分页 scope；pageSize 不大于零时不分页（导出、后台全量查询）
func paginate(page, pageSize int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		pageSize = min(pageSize, maxPageSize)
		page = max(page, 1)
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 通配符，配合 ESCAPE '\' 使用
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
