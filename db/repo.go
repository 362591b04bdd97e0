package db

import (
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB

	// 注入时钟：逾期判定、延期上限、撤销窗口全部走这里，测试换假钟
	now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithNowFunc 替换时钟（测试用）
func (r *Repo) WithNowFunc(f func() time.Time) *Repo {
	r.now = f
	return r
}

func normPage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}
	return page, size
}
