// db/repo_borrowing.go
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 延期最多到 now + 30 天
const extensionHorizon = 30 * 24 * time.Hour

// Borrowings

type BorrowLine struct {
	ToolID   string
	UnitIDs  []string // 指定单元借；为空则按 Quantity 挑可用单元
	Quantity int
}

type CreateBorrowingInput struct {
	DisplayID    string
	BorrowerName string
	DueDate      time.Time
	Purpose      string
	Notes        string
	Lines        []BorrowLine
}

// CreateBorrowing 借出：原子操作 = 校验可用 → 占用单元 → 扣冗余列 → 建借用三层记录。
// 任何一个 Tool 差一件都整笔拒绝，不做部分占用。
func (r *Repo) CreateBorrowing(ctx context.Context, in CreateBorrowingInput) (*models.BorrowingTransaction, error) {
	now := r.now()
	if !in.DueDate.After(now) {
		return nil, ErrDueDatePast
	}
	if len(in.Lines) == 0 {
		return nil, ErrNonPositiveQuantity
	}

	var txn *models.BorrowingTransaction
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bt := &models.BorrowingTransaction{
			ID:           uuid.NewString(),
			DisplayID:    in.DisplayID,
			BorrowerName: in.BorrowerName,
			BorrowDate:   now,
			DueDate:      in.DueDate,
			Status:       models.BorrowingActive,
			Purpose:      in.Purpose,
			Notes:        in.Notes,
		}
		if err := tx.Create(bt).Error; err != nil {
			return err
		}

		for _, line := range in.Lines {
			var tool models.Tool
			if err := tx.First(&tool, "id = ?", line.ToolID).Error; err != nil {
				return err
			}

			// 1) 选单元：只拿 is_available = TRUE 的
			var units []models.ToolUnit
			q := tx.Where("tool_id = ? AND is_available = ?", line.ToolID, true).
				Order("unit_number ASC")
			requested := line.Quantity
			if len(line.UnitIDs) > 0 {
				requested = len(line.UnitIDs)
				q = q.Where("id IN ?", line.UnitIDs)
			} else {
				if requested <= 0 {
					return ErrNonPositiveQuantity
				}
				q = q.Limit(requested)
			}
			if err := q.Find(&units).Error; err != nil {
				return err
			}
			if len(units) < requested {
				return &InsufficientAvailabilityError{
					ToolName:  tool.Name,
					Requested: requested,
					Available: len(units),
				}
			}

			unitIDs := make([]string, 0, len(units))
			for _, u := range units {
				unitIDs = append(unitIDs, u.ID)
			}

			// 2) 占用：条件更新 + RowsAffected 复核，并发抢同一单元时第二个必然落空
			res := tx.Model(&models.ToolUnit{}).
				Where("id IN ? AND is_available = ?", unitIDs, true).
				Update("is_available", false)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != int64(len(unitIDs)) {
				return &InsufficientAvailabilityError{
					ToolName:  tool.Name,
					Requested: requested,
					Available: int(res.RowsAffected),
				}
			}

			// 3) 冗余列同步扣减，同样带下限保护
			res = tx.Model(&models.Tool{}).
				Where("id = ? AND available_quantity >= ?", tool.ID, len(unitIDs)).
				Update("available_quantity", gorm.Expr("available_quantity - ?", len(unitIDs)))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return fmt.Errorf("available_quantity drifted for tool %s", tool.ID)
			}

			// 4) 借用明细：每个 Tool 一条 item，每件单元一条 item unit，记借出成色
			item := &models.BorrowingItem{
				ID:            uuid.NewString(),
				TransactionID: bt.ID,
				ToolID:        tool.ID,
				Quantity:      len(units),
			}
			if err := tx.Create(item).Error; err != nil {
				return err
			}
			ius := make([]models.BorrowingItemUnit, 0, len(units))
			for _, u := range units {
				ius = append(ius, models.BorrowingItemUnit{
					ID:                uuid.NewString(),
					ItemID:            item.ID,
					UnitID:            u.ID,
					ConditionAtBorrow: u.Condition,
				})
			}
			if err := tx.Create(&ius).Error; err != nil {
				return err
			}
			item.Units = ius
			bt.Items = append(bt.Items, *item)
		}

		txn = bt
		return nil
	})
	return txn, err
}

type UnitReturn struct {
	ItemUnitID string
	Condition  models.Condition
	Notes      string
}

// ReturnBorrowingUnits 归还若干单元（可以是一部分）。每件：记归还成色/时间，
// 释放占用，加回冗余列；成色比借出时差就把单元成色改差（只降不升）。
// 全部归还后整笔转 COMPLETED —— 完整性每次都全量重数，不靠计数器累加。
func (r *Repo) ReturnBorrowingUnits(ctx context.Context, transactionID string, returns []UnitReturn) (*models.BorrowingTransaction, error) {
	if len(returns) == 0 {
		return nil, ErrNonPositiveQuantity
	}
	for _, ret := range returns {
		if !ret.Condition.Valid() {
			return nil, ErrInvalidCondition
		}
	}
	now := r.now()

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sweepOverdueTx(tx, now); err != nil {
			return err
		}

		var bt models.BorrowingTransaction
		if err := tx.First(&bt, "id = ?", transactionID).Error; err != nil {
			return err
		}
		if bt.Status.Terminal() {
			return &InvalidStateTransitionError{Current: bt.Status, Attempted: "return"}
		}

		for _, ret := range returns {
			// item unit 必须属于这笔借用
			var iu models.BorrowingItemUnit
			if err := tx.
				Joins("JOIN "+models.BorrowingItemTable+" bi ON bi.id = "+models.BorrowingItemUnitTable+".item_id").
				Where(models.BorrowingItemUnitTable+".id = ? AND bi.transaction_id = ?", ret.ItemUnitID, transactionID).
				First(&iu).Error; err != nil {
				return err
			}
			if iu.ReturnDate != nil {
				return ErrUnitAlreadyReturned
			}

			cond := ret.Condition
			updates := map[string]interface{}{
				"return_condition": cond,
				"return_date":      now,
			}
			if ret.Notes != "" {
				updates["return_notes"] = ret.Notes
			}
			if err := tx.Model(&models.BorrowingItemUnit{}).
				Where("id = ?", iu.ID).
				Updates(updates).Error; err != nil {
				return err
			}

			var unit models.ToolUnit
			if err := tx.First(&unit, "id = ?", iu.UnitID).Error; err != nil {
				return err
			}

			// 释放占用
			res := tx.Model(&models.ToolUnit{}).
				Where("id = ? AND is_available = ?", unit.ID, false).
				Update("is_available", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return fmt.Errorf("unit %s was not reserved", unit.ID)
			}
			if err := tx.Model(&models.Tool{}).
				Where("id = ?", unit.ToolID).
				Update("available_quantity", gorm.Expr("available_quantity + ?", 1)).Error; err != nil {
				return err
			}

			// 成色只降不升
			if cond.WorseThan(unit.Condition) {
				if err := tx.Model(&models.ToolUnit{}).
					Where("id = ?", unit.ID).
					Update("condition", cond).Error; err != nil {
					return err
				}
			}
		}

		// 完整性：还有没有未归还的单元，全量重数
		var open int64
		if err := tx.Model(&models.BorrowingItemUnit{}).
			Joins("JOIN "+models.BorrowingItemTable+" bi ON bi.id = "+models.BorrowingItemUnitTable+".item_id").
			Where("bi.transaction_id = ? AND "+models.BorrowingItemUnitTable+".return_date IS NULL", transactionID).
			Count(&open).Error; err != nil {
			return err
		}
		if open == 0 {
			res := tx.Model(&models.BorrowingTransaction{}).
				Where("id = ? AND status IN ?", transactionID,
					[]models.BorrowingStatus{models.BorrowingActive, models.BorrowingOverdue}).
				Updates(map[string]interface{}{
					"status":      models.BorrowingCompleted,
					"return_date": now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				return &InvalidStateTransitionError{Current: bt.Status, Attempted: "complete"}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.findBorrowing(ctx, transactionID)
}

// ExtendDueDate 延期。三种拒绝分开报：过去的日期 / 不晚于当前到期日 / 超过 30 天上限。
// 逾期单延期成功后回到 ACTIVE。
func (r *Repo) ExtendDueDate(ctx context.Context, transactionID string, newDueDate time.Time, reason string) (*models.BorrowingTransaction, error) {
	now := r.now()

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sweepOverdueTx(tx, now); err != nil {
			return err
		}

		var bt models.BorrowingTransaction
		if err := tx.First(&bt, "id = ?", transactionID).Error; err != nil {
			return err
		}
		if bt.Status.Terminal() {
			return &InvalidStateTransitionError{Current: bt.Status, Attempted: "extend"}
		}

		if !newDueDate.After(now) {
			return ErrDueDatePast
		}
		if !newDueDate.After(bt.DueDate) {
			return ErrDueDateNotLater
		}
		// 正好 now+30d 放行，多一秒都不行
		if newDueDate.After(now.Add(extensionHorizon)) {
			return ErrDueDateTooFar
		}

		updates := map[string]interface{}{
			"due_date": newDueDate,
			"status":   models.BorrowingActive,
		}
		if reason != "" {
			notes := bt.Notes
			if notes != "" {
				notes += "\n"
			}
			updates["notes"] = notes + "extended: " + reason
		}
		res := tx.Model(&models.BorrowingTransaction{}).
			Where("id = ? AND status IN ?", transactionID,
				[]models.BorrowingStatus{models.BorrowingActive, models.BorrowingOverdue}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return &InvalidStateTransitionError{Current: bt.Status, Attempted: "extend"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.findBorrowing(ctx, transactionID)
}

// CancelBorrowing 整笔取消：只要有一件已归还就不允许；未归还单元全部释放回可用。
func (r *Repo) CancelBorrowing(ctx context.Context, transactionID string) error {
	now := r.now()

	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := sweepOverdueTx(tx, now); err != nil {
			return err
		}

		var bt models.BorrowingTransaction
		if err := tx.Preload("Items.Units").First(&bt, "id = ?", transactionID).Error; err != nil {
			return err
		}
		if bt.Status.Terminal() {
			return &InvalidStateTransitionError{Current: bt.Status, Attempted: "cancel"}
		}

		perTool := map[string][]string{} // toolID -> 要释放的 tool unit ids
		for _, item := range bt.Items {
			for _, iu := range item.Units {
				if iu.ReturnDate != nil {
					return &InvalidStateTransitionError{
						Current:   bt.Status,
						Attempted: "cancel",
						Detail:    "some units already returned",
					}
				}
				perTool[item.ToolID] = append(perTool[item.ToolID], iu.UnitID)
			}
		}

		for toolID, unitIDs := range perTool {
			res := tx.Model(&models.ToolUnit{}).
				Where("id IN ? AND is_available = ?", unitIDs, false).
				Update("is_available", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != int64(len(unitIDs)) {
				return fmt.Errorf("reserved units drifted for tool %s", toolID)
			}
			if err := tx.Model(&models.Tool{}).
				Where("id = ?", toolID).
				Update("available_quantity", gorm.Expr("available_quantity + ?", len(unitIDs))).Error; err != nil {
				return err
			}
		}

		res := tx.Model(&models.BorrowingTransaction{}).
			Where("id = ? AND status IN ?", transactionID,
				[]models.BorrowingStatus{models.BorrowingActive, models.BorrowingOverdue}).
			Update("status", models.BorrowingCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return &InvalidStateTransitionError{Current: bt.Status, Attempted: "cancel"}
		}
		return nil
	})
}

// SweepOverdue 惰性清扫：到期未完结的 ACTIVE 批量转 OVERDUE。
// 借用相关的读写路径入口都先跑一遍，幂等，没有后台定时任务。
func (r *Repo) SweepOverdue(ctx context.Context) error {
	return sweepOverdueTx(r.DB.WithContext(ctx), r.now())
}

func sweepOverdueTx(tx *gorm.DB, now time.Time) error {
	return tx.Model(&models.BorrowingTransaction{}).
		Where("status = ? AND due_date < ?", models.BorrowingActive, now).
		Update("status", models.BorrowingOverdue).Error
}

type BorrowingsQuery struct {
	Status   models.BorrowingStatus
	Borrower string // 模糊搜索
	Page     int
	Size     int
}

type PagedBorrowings struct {
	Total      int64                         `json:"total"`
	Borrowings []models.BorrowingTransaction `json:"borrowings"`
}

func (r *Repo) ListBorrowings(ctx context.Context, q BorrowingsQuery) (*PagedBorrowings, error) {
	if err := r.SweepOverdue(ctx); err != nil {
		return nil, err
	}
	q.Page, q.Size = normPage(q.Page, q.Size)

	tx := r.DB.WithContext(ctx).Model(&models.BorrowingTransaction{})
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if s := strings.TrimSpace(q.Borrower); s != "" {
		tx = tx.Where("LOWER(borrower_name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var bts []models.BorrowingTransaction
	if err := tx.
		Preload("Items.Tool").
		Preload("Items.Units").
		Order("borrow_date DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&bts).Error; err != nil {
		return nil, err
	}
	return &PagedBorrowings{Total: total, Borrowings: bts}, nil
}

func (r *Repo) FindBorrowingByID(ctx context.Context, id string) (*models.BorrowingTransaction, error) {
	if err := r.SweepOverdue(ctx); err != nil {
		return nil, err
	}
	return r.findBorrowing(ctx, id)
}

func (r *Repo) findBorrowing(ctx context.Context, id string) (*models.BorrowingTransaction, error) {
	var bt models.BorrowingTransaction
	if err := r.DB.WithContext(ctx).
		Preload("Items.Tool").
		Preload("Items.Units.Unit").
		First(&bt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bt, nil
}
