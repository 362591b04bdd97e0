// db/repo_tool.go
package db

import (
	"context"
	"strings"

	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tools

type CreateToolInput struct {
	DisplayID     string
	Name          string
	CategoryID    string
	TotalQuantity int
	Condition     models.Condition // 新单元的初始成色，空则 GOOD
	Location      string
	Supplier      string
}

// CreateTool 建一个 Tool 并按 1..N 批量生成单元，全部在一个事务里
func (r *Repo) CreateTool(ctx context.Context, in CreateToolInput) (*models.Tool, error) {
	if in.TotalQuantity <= 0 {
		return nil, ErrNonPositiveQuantity
	}
	cond := in.Condition
	if cond == "" {
		cond = models.ConditionGood
	}
	if !cond.Valid() {
		return nil, ErrInvalidCondition
	}

	var tool *models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 分类必须存在
		if err := tx.First(&models.Category{}, "id = ?", in.CategoryID).Error; err != nil {
			return err
		}

		t := &models.Tool{
			ID:                uuid.NewString(),
			DisplayID:         in.DisplayID,
			Name:              in.Name,
			CategoryID:        in.CategoryID,
			TotalQuantity:     in.TotalQuantity,
			AvailableQuantity: in.TotalQuantity,
			Location:          in.Location,
			Supplier:          in.Supplier,
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}

		units := make([]models.ToolUnit, 0, in.TotalQuantity)
		for i := 1; i <= in.TotalQuantity; i++ {
			units = append(units, models.ToolUnit{
				ID:          uuid.NewString(),
				ToolID:      t.ID,
				UnitNumber:  i,
				Condition:   cond,
				IsAvailable: true,
			})
		}
		if err := tx.Create(&units).Error; err != nil {
			return err
		}
		t.Units = units
		tool = t
		return nil
	})
	return tool, err
}

func (r *Repo) FindToolByID(ctx context.Context, id string) (*models.Tool, error) {
	var t models.Tool
	if err := r.DB.WithContext(ctx).
		Preload("Category").
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("unit_number ASC") }).
		First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

type ToolsQuery struct {
	Q          string // 模糊搜索 name/display_id
	CategoryID string
	Page       int
	Size       int
}

type PagedTools struct {
	Total int64         `json:"total"`
	Tools []models.Tool `json:"tools"`
}

func (r *Repo) ListTools(ctx context.Context, q ToolsQuery) (*PagedTools, error) {
	q.Page, q.Size = normPage(q.Page, q.Size)

	tx := r.DB.WithContext(ctx).Model(&models.Tool{})
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(display_id) LIKE ?", like, like)
	}
	if q.CategoryID != "" {
		tx = tx.Where("category_id = ?", q.CategoryID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var tools []models.Tool
	if err := tx.
		Preload("Category").
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("unit_number ASC") }).
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&tools).Error; err != nil {
		return nil, err
	}
	return &PagedTools{Total: total, Tools: tools}, nil
}

type UpdateToolInput struct {
	Name       *string
	CategoryID *string
	Location   *string
	Supplier   *string
}

// UpdateToolMeta 只改元数据，数量和可用性永远不从这里走
func (r *Repo) UpdateToolMeta(ctx context.Context, id string, in UpdateToolInput) (*models.Tool, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.Supplier != nil {
		updates["supplier"] = *in.Supplier
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tool
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		if in.CategoryID != nil {
			if err := tx.First(&models.Category{}, "id = ?", *in.CategoryID).Error; err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Tool{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindToolByID(ctx, id)
}

// CountAvailableUnits 校验冗余列用：可用单元的真实数量
func (r *Repo) CountAvailableUnits(ctx context.Context, toolID string) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.ToolUnit{}).
		Where("tool_id = ? AND is_available = ?", toolID, true).
		Count(&n).Error
	return n, err
}
