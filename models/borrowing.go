// models/borrowing.go
package models

import "time"

const BorrowingTable = "ws_borrowings"
const BorrowingItemTable = "ws_borrowing_items"
const BorrowingItemUnitTable = "ws_borrowing_item_units"

type BorrowingStatus string

const (
	BorrowingActive    BorrowingStatus = "ACTIVE"
	BorrowingOverdue   BorrowingStatus = "OVERDUE"
	BorrowingCompleted BorrowingStatus = "COMPLETED"
	BorrowingCancelled BorrowingStatus = "CANCELLED"
)

// Terminal 终态不可再变
func (s BorrowingStatus) Terminal() bool {
	return s == BorrowingCompleted || s == BorrowingCancelled
}

// BorrowingTransaction 一次借用：借走若干 ToolUnit，到期归还
type BorrowingTransaction struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayID string `gorm:"size:20;uniqueIndex;not null" json:"displayId"` // BR-2026-001

	BorrowerName string     `gorm:"size:200;index;not null" json:"borrowerName"`
	BorrowDate   time.Time  `gorm:"not null" json:"borrowDate"`
	DueDate      time.Time  `gorm:"index;not null" json:"dueDate"`
	ReturnDate   *time.Time `json:"returnDate,omitempty"` // 全部归还的时间

	Status  BorrowingStatus `gorm:"size:20;index;not null;default:'ACTIVE'" json:"status"`
	Purpose string          `gorm:"size:255" json:"purpose,omitempty"`
	Notes   string          `gorm:"size:255" json:"notes,omitempty"`

	Items     []BorrowingItem `gorm:"foreignKey:TransactionID" json:"items,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// BorrowingItem 同一笔借用里按 Tool 分组
type BorrowingItem struct {
	ID            string              `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID string              `gorm:"type:uuid;index;not null" json:"transactionId"`
	ToolID        string              `gorm:"type:uuid;index;not null" json:"toolId"`
	Tool          *Tool               `gorm:"foreignKey:ToolID" json:"tool,omitempty"`
	Quantity      int                 `gorm:"not null" json:"quantity"` // = len(Units)
	Units         []BorrowingItemUnit `gorm:"foreignKey:ItemID" json:"units,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// BorrowingItemUnit 具体占用的那一件单元，借出/归还成色都记在这里
type BorrowingItemUnit struct {
	ID     string    `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID string    `gorm:"type:uuid;index;not null" json:"itemId"`
	UnitID string    `gorm:"type:uuid;index;not null" json:"unitId"`
	Unit   *ToolUnit `gorm:"foreignKey:UnitID" json:"unit,omitempty"`

	ConditionAtBorrow Condition  `gorm:"size:20;not null" json:"conditionAtBorrow"`
	ReturnCondition   *Condition `gorm:"size:20" json:"returnCondition,omitempty"`
	ReturnDate        *time.Time `gorm:"index" json:"returnDate,omitempty"`
	ReturnNotes       string     `gorm:"size:255" json:"returnNotes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func (BorrowingTransaction) TableName() string { return BorrowingTable }
func (BorrowingItem) TableName() string        { return BorrowingItemTable }
func (BorrowingItemUnit) TableName() string    { return BorrowingItemUnitTable }
