// models/consumption.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const ConsumptionTable = "ws_consumptions"
const ConsumptionItemTable = "ws_consumption_items"

// ConsumptionTransaction 一次性材料消耗记录，创建后不可改，只能在 24h 内整笔撤销
type ConsumptionTransaction struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayID string `gorm:"size:20;uniqueIndex;not null" json:"displayId"` // CS-2026-001

	ConsumerName    string    `gorm:"size:200;index;not null" json:"consumerName"`
	ConsumptionDate time.Time `gorm:"not null" json:"consumptionDate"`
	Purpose         string    `gorm:"size:255" json:"purpose,omitempty"`
	ProjectName     string    `gorm:"size:200" json:"projectName,omitempty"`

	// 所有有单价的行的合计；一行单价都没有时为 null
	TotalValue *decimal.Decimal `gorm:"type:numeric(14,2)" json:"totalValue,omitempty"`

	Items     []ConsumptionItem `gorm:"foreignKey:TransactionID" json:"items,omitempty"`
	CreatedAt time.Time         `gorm:"index" json:"createdAt"`
}

type ConsumptionItem struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID string    `gorm:"type:uuid;index;not null" json:"transactionId"`
	MaterialID    string    `gorm:"type:uuid;index;not null" json:"materialId"`
	Material      *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`

	// 撤销时按这里记录的数量回补，不重算
	Quantity   decimal.Decimal  `gorm:"type:numeric(14,3);not null" json:"quantity"`
	UnitPrice  *decimal.Decimal `gorm:"type:numeric(14,2)" json:"unitPrice,omitempty"`
	TotalPrice *decimal.Decimal `gorm:"type:numeric(14,2)" json:"totalPrice,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func (ConsumptionTransaction) TableName() string { return ConsumptionTable }
func (ConsumptionItem) TableName() string        { return ConsumptionItemTable }
