// models/tool.go
package models

import "time"

const ToolTable = "ws_tools"
const ToolUnitTable = "ws_tool_units"

// Condition 按质量排序：EXCELLENT > GOOD > FAIR > POOR
type Condition string

const (
	ConditionExcellent Condition = "EXCELLENT"
	ConditionGood      Condition = "GOOD"
	ConditionFair      Condition = "FAIR"
	ConditionPoor      Condition = "POOR"
)

// Rank EXCELLENT=4, GOOD=3, FAIR=2, POOR=1；未知值为 0
func (c Condition) Rank() int {
	switch c {
	case ConditionExcellent:
		return 4
	case ConditionGood:
		return 3
	case ConditionFair:
		return 2
	case ConditionPoor:
		return 1
	}
	return 0
}

func (c Condition) Valid() bool { return c.Rank() > 0 }

// WorseThan 严格更差（两边都必须是合法值）
func (c Condition) WorseThan(o Condition) bool {
	return c.Valid() && o.Valid() && c.Rank() < o.Rank()
}

type Tool struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayID  string    `gorm:"size:20;uniqueIndex;not null" json:"displayId"` // TL-001
	Name       string    `gorm:"size:200;not null" json:"name"`
	CategoryID string    `gorm:"type:uuid;index;not null" json:"categoryId"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	TotalQuantity     int `gorm:"not null" json:"totalQuantity"`     // = 单元数，创建后不变
	AvailableQuantity int `gorm:"not null" json:"availableQuantity"` // ✅ 冗余列：必须始终等于可用单元数

	Location  string     `gorm:"size:200" json:"location,omitempty"`
	Supplier  string     `gorm:"size:200" json:"supplier,omitempty"`
	Units     []ToolUnit `gorm:"foreignKey:ToolID" json:"units,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ToolUnit 一件可单独借出的实体单元，创建 Tool 时按 1..N 批量生成
type ToolUnit struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	ToolID      string    `gorm:"type:uuid;not null;uniqueIndex:ws_tool_units_tool_no" json:"toolId"`
	UnitNumber  int       `gorm:"not null;uniqueIndex:ws_tool_units_tool_no" json:"unitNumber"`
	Condition   Condition `gorm:"size:20;not null;default:'GOOD'" json:"condition"` // 只会通过归还路径变差
	IsAvailable bool      `gorm:"not null;default:true" json:"isAvailable"`
	Notes       string    `gorm:"size:255" json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Tool) TableName() string     { return ToolTable }
func (ToolUnit) TableName() string { return ToolUnitTable }

// WorstCondition 展示用：取所有单元里最差的成色（单一数据源，不另存 Tool 级字段）
func (t *Tool) WorstCondition() Condition {
	var worst Condition
	for _, u := range t.Units {
		if !u.Condition.Valid() {
			continue
		}
		if worst == "" || u.Condition.WorseThan(worst) {
			worst = u.Condition
		}
	}
	return worst
}
