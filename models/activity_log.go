// models/activity_log.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

const ActivityLogTable = "ws_activity_logs"

// 动作
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionBorrow  = "BORROW"
	ActionReturn  = "RETURN"
	ActionExtend  = "EXTEND"
	ActionConsume = "CONSUME"
)

// 实体类型
const (
	EntityCategory    = "category"
	EntityTool        = "tool"
	EntityMaterial    = "material"
	EntityBorrowing   = "borrowing"
	EntityConsumption = "consumption"
)

// ActivityLogEntry 只追加的审计记录，核心从不改写或删除
type ActivityLogEntry struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType string `gorm:"size:50;index;not null" json:"entityType"`
	EntityID   string `gorm:"type:uuid;index" json:"entityId"`
	Action     string `gorm:"size:20;index;not null" json:"action"`
	ActorName  string `gorm:"size:200" json:"actorName"`

	Before   datatypes.JSON `json:"before,omitempty"`
	After    datatypes.JSON `json:"after,omitempty"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (ActivityLogEntry) TableName() string { return ActivityLogTable }
