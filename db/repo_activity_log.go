package db

import (
	"context"
	"fmt"

	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/google/uuid"
)

// AppendActivity 审计只追加，失败与否由调用方（audit.Recorder）决定怎么处理
func (r *Repo) AppendActivity(ctx context.Context, e *models.ActivityLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := r.DB.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

type ActivityLogsQuery struct {
	EntityType string
	EntityID   string
	Action     string
	Page       int
	Size       int
}

type PagedActivityLogs struct {
	Total   int64                     `json:"total"`
	Entries []models.ActivityLogEntry `json:"entries"`
}

func (r *Repo) ListActivityLogs(ctx context.Context, q ActivityLogsQuery) (*PagedActivityLogs, error) {
	q.Page, q.Size = normPage(q.Page, q.Size)

	tx := r.DB.WithContext(ctx).Model(&models.ActivityLogEntry{})
	if q.EntityType != "" {
		tx = tx.Where("entity_type = ?", q.EntityType)
	}
	if q.EntityID != "" {
		tx = tx.Where("entity_id = ?", q.EntityID)
	}
	if q.Action != "" {
		tx = tx.Where("action = ?", q.Action)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var entries []models.ActivityLogEntry
	if err := tx.
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return &PagedActivityLogs{Total: total, Entries: entries}, nil
}
