// db/repo_material.go
package db

import (
	"context"
	"errors"
	"strings"

	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Materials

type CreateMaterialInput struct {
	DisplayID         string
	Name              string
	CategoryID        string
	CurrentQuantity   decimal.Decimal
	ThresholdQuantity decimal.Decimal
	Unit              string
	Location          string
	Supplier          string
}

func (r *Repo) CreateMaterial(ctx context.Context, in CreateMaterialInput) (*models.Material, error) {
	if in.CurrentQuantity.IsNegative() || in.ThresholdQuantity.IsNegative() {
		return nil, ErrNonPositiveQuantity
	}
	m := &models.Material{
		ID:                uuid.NewString(),
		DisplayID:         in.DisplayID,
		Name:              in.Name,
		CategoryID:        in.CategoryID,
		CurrentQuantity:   in.CurrentQuantity,
		ThresholdQuantity: in.ThresholdQuantity,
		Unit:              in.Unit,
		Location:          in.Location,
		Supplier:          in.Supplier,
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Category{}, "id = ?", in.CategoryID).Error; err != nil {
			return err
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repo) FindMaterialByID(ctx context.Context, id string) (*models.Material, error) {
	var m models.Material
	if err := r.DB.WithContext(ctx).Preload("Category").First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

type MaterialsQuery struct {
	Q          string
	CategoryID string
	Page       int
	Size       int
}

type PagedMaterials struct {
	Total     int64             `json:"total"`
	Materials []models.Material `json:"materials"`
}

func (r *Repo) ListMaterials(ctx context.Context, q MaterialsQuery) (*PagedMaterials, error) {
	q.Page, q.Size = normPage(q.Page, q.Size)

	tx := r.DB.WithContext(ctx).Model(&models.Material{})
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

	var ms []models.Material
	if err := tx.
		Preload("Category").
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return &PagedMaterials{Total: total, Materials: ms}, nil
}

// ListLowStock 库存 <= 补货点的材料（含已耗尽），列与列比较，跨方言安全
func (r *Repo) ListLowStock(ctx context.Context) ([]models.Material, error) {
	var ms []models.Material
	err := r.DB.WithContext(ctx).
		Where("current_quantity <= threshold_quantity").
		Order("name ASC").
		Find(&ms).Error
	return ms, err
}

type UpdateMaterialInput struct {
	Name              *string
	CategoryID        *string
	ThresholdQuantity *decimal.Decimal
	Unit              *string
	Location          *string
	Supplier          *string
}

// UpdateMaterialMeta current_quantity 不在这里改，库存只走消耗/撤销路径
func (r *Repo) UpdateMaterialMeta(ctx context.Context, id string, in UpdateMaterialInput) (*models.Material, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	if in.ThresholdQuantity != nil {
		if in.ThresholdQuantity.IsNegative() {
			return nil, ErrNonPositiveQuantity
		}
		updates["threshold_quantity"] = *in.ThresholdQuantity
	}
	if in.Unit != nil {
		updates["unit"] = *in.Unit
	}
	if in.Location != nil {
		updates["location"] = *in.Location
	}
	if in.Supplier != nil {
		updates["supplier"] = *in.Supplier
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Material
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
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
		return tx.Model(&models.Material{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindMaterialByID(ctx, id)
}

// ReserveMaterial 独立的扣减入口（消耗事务内部也走同一条路径）
func (r *Repo) ReserveMaterial(ctx context.Context, materialID string, quantity decimal.Decimal) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return decrementStock(tx, materialID, quantity)
	})
}

const stockRetries = 3

// decrementStock 版本号 CAS：读一把、够不够在 Go 里判，条件更新没命中就重读重试。
// 并发扣减要么看到对方提交后的余量，要么在 CAS 上落空，不会双扣。
func decrementStock(tx *gorm.DB, materialID string, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrNonPositiveQuantity
	}
	for i := 0; i < stockRetries; i++ {
		var m models.Material
		if err := tx.First(&m, "id = ?", materialID).Error; err != nil {
			return err
		}
		if m.CurrentQuantity.LessThan(quantity) {
			return &InsufficientStockError{
				MaterialName: m.Name,
				Requested:    quantity,
				Available:    m.CurrentQuantity,
			}
		}
		res := tx.Model(&models.Material{}).
			Where("id = ? AND version = ?", materialID, m.Version).
			Updates(map[string]interface{}{
				"current_quantity": m.CurrentQuantity.Sub(quantity),
				"version":          m.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		// 版本落空：别人先提交了，重读再试
	}
	return errors.New("stock update contention, giving up")
}

// restoreStock 回补，按调用方给定的数量原样加回
func restoreStock(tx *gorm.DB, materialID string, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return ErrNonPositiveQuantity
	}
	for i := 0; i < stockRetries; i++ {
		var m models.Material
		if err := tx.First(&m, "id = ?", materialID).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Material{}).
			Where("id = ? AND version = ?", materialID, m.Version).
			Updates(map[string]interface{}{
				"current_quantity": m.CurrentQuantity.Add(quantity),
				"version":          m.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
	}
	return errors.New("stock update contention, giving up")
}
