// models/material.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const MaterialTable = "ws_materials"

// StockStatus 派生状态，不落库
type StockStatus string

const (
	StockStatusOut    StockStatus = "out"    // current <= 0
	StockStatusLow    StockStatus = "low"    // 0 < current <= threshold
	StockStatusNormal StockStatus = "normal" // current > threshold
)

// Material 按数量计的消耗品库存池，没有单元级跟踪
type Material struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayID  string    `gorm:"size:20;uniqueIndex;not null" json:"displayId"` // MT-001
	Name       string    `gorm:"size:200;not null" json:"name"`
	CategoryID string    `gorm:"type:uuid;index;not null" json:"categoryId"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	CurrentQuantity   decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"currentQuantity"`
	ThresholdQuantity decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"thresholdQuantity"` // 补货点
	Unit              string          `gorm:"size:30;not null" json:"unit"`                         // 计量单位 kg / pcs / L
	Version           int             `gorm:"not null;default:0" json:"-"`                          // 乐观锁，扣减用

	Location  string    `gorm:"size:200" json:"location,omitempty"`
	Supplier  string    `gorm:"size:200" json:"supplier,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Material) TableName() string { return MaterialTable }

func (m *Material) StockStatus() StockStatus {
	if m.CurrentQuantity.LessThanOrEqual(decimal.Zero) {
		return StockStatusOut
	}
	if m.CurrentQuantity.LessThanOrEqual(m.ThresholdQuantity) {
		return StockStatusLow
	}
	return StockStatusNormal
}
