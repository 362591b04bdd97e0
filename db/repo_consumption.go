// db/repo_consumption.go
package db

import (
	"context"
	"strings"
	"time"

	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 创建后多久内还能撤销
const reversalWindow = 24 * time.Hour

// Consumptions

type ConsumptionLine struct {
	MaterialID string
	Quantity   decimal.Decimal
	UnitPrice  *decimal.Decimal
}

type CreateConsumptionInput struct {
	DisplayID    string
	ConsumerName string
	Purpose      string
	ProjectName  string
	Lines        []ConsumptionLine
}

// CreateConsumption 一次性消耗：先对每一行做够量校验（任何一行不够整笔拒绝，
// 不做任何扣减），之后行扣减 + 三层记录在同一个事务里落库。
// 行金额 = quantity × unitPrice（没给单价就是 null），笔金额为有价行的合计。
func (r *Repo) CreateConsumption(ctx context.Context, in CreateConsumptionInput) (*models.ConsumptionTransaction, error) {
	if len(in.Lines) == 0 {
		return nil, ErrNonPositiveQuantity
	}
	for _, line := range in.Lines {
		if !line.Quantity.IsPositive() {
			return nil, ErrNonPositiveQuantity
		}
	}
	now := r.now()

	var txn *models.ConsumptionTransaction
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 全部行先过一遍够量检查，再动库存
		for _, line := range in.Lines {
			var m models.Material
			if err := tx.First(&m, "id = ?", line.MaterialID).Error; err != nil {
				return err
			}
			if m.CurrentQuantity.LessThan(line.Quantity) {
				return &InsufficientStockError{
					MaterialName: m.Name,
					Requested:    line.Quantity,
					Available:    m.CurrentQuantity,
				}
			}
		}

		ct := &models.ConsumptionTransaction{
			ID:              uuid.NewString(),
			DisplayID:       in.DisplayID,
			ConsumerName:    in.ConsumerName,
			ConsumptionDate: now,
			Purpose:         in.Purpose,
			ProjectName:     in.ProjectName,
		}

		var total decimal.Decimal
		hasPrice := false
		items := make([]models.ConsumptionItem, 0, len(in.Lines))
		for _, line := range in.Lines {
			// 2) 逐行原子扣减；并发抢量时 CAS 内部重查，仍不够就整笔回滚
			if err := decrementStock(tx, line.MaterialID, line.Quantity); err != nil {
				return err
			}
			item := models.ConsumptionItem{
				ID:            uuid.NewString(),
				TransactionID: ct.ID,
				MaterialID:    line.MaterialID,
				Quantity:      line.Quantity,
				UnitPrice:     line.UnitPrice,
			}
			if line.UnitPrice != nil {
				lineTotal := line.Quantity.Mul(*line.UnitPrice).Round(2)
				item.TotalPrice = &lineTotal
				total = total.Add(lineTotal)
				hasPrice = true
			}
			items = append(items, item)
		}
		if hasPrice {
			ct.TotalValue = &total
		}

		if err := tx.Create(ct).Error; err != nil {
			return err
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		ct.Items = items
		txn = ct
		return nil
	})
	return txn, err
}

// ReverseConsumption 撤销：只允许创建后 24h 内。按行里记录的数量原样回补
// （不重算，材料后来被改也不影响回补量），先删行再删主记录。
func (r *Repo) ReverseConsumption(ctx context.Context, transactionID string) error {
	now := r.now()

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ct models.ConsumptionTransaction
		if err := tx.Preload("Items").First(&ct, "id = ?", transactionID).Error; err != nil {
			return err
		}
		if now.Sub(ct.CreatedAt) > reversalWindow {
			return ErrReversalWindowExpired
		}

		for _, item := range ct.Items {
			if err := restoreStock(tx, item.MaterialID, item.Quantity); err != nil {
				return err
			}
		}

		if err := tx.Where("transaction_id = ?", ct.ID).Delete(&models.ConsumptionItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ConsumptionTransaction{}, "id = ?", ct.ID).Error
	})
}

func (r *Repo) FindConsumptionByID(ctx context.Context, id string) (*models.ConsumptionTransaction, error) {
	var ct models.ConsumptionTransaction
	if err := r.DB.WithContext(ctx).
		Preload("Items.Material").
		First(&ct, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ct, nil
}

type ConsumptionsQuery struct {
	Consumer string
	Project  string
	Page     int
	Size     int
}

type PagedConsumptions struct {
	Total        int64                           `json:"total"`
	Consumptions []models.ConsumptionTransaction `json:"consumptions"`
}

func (r *Repo) ListConsumptions(ctx context.Context, q ConsumptionsQuery) (*PagedConsumptions, error) {
	q.Page, q.Size = normPage(q.Page, q.Size)

	tx := r.DB.WithContext(ctx).Model(&models.ConsumptionTransaction{})
	if s := strings.TrimSpace(q.Consumer); s != "" {
		tx = tx.Where("LOWER(consumer_name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if s := strings.TrimSpace(q.Project); s != "" {
		tx = tx.Where("LOWER(project_name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var cts []models.ConsumptionTransaction
	if err := tx.
		Preload("Items.Material").
		Order("consumption_date DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&cts).Error; err != nil {
		return nil, err
	}
	return &PagedConsumptions{Total: total, Consumptions: cts}, nil
}
