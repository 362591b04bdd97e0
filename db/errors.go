// db/errors.go
package db

import (
	"errors"
	"fmt"

	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/shopspring/decimal"
)

// 延期的三种拒绝原因，分开报给调用方
var ErrDueDatePast = errors.New("new due date is in the past")
var ErrDueDateNotLater = errors.New("new due date is not later than the current due date")
var ErrDueDateTooFar = errors.New("new due date exceeds the 30-day extension horizon")

var ErrReversalWindowExpired = errors.New("consumption is older than 24h and can no longer be reversed")
var ErrUnitAlreadyReturned = errors.New("unit already returned")
var ErrInvalidCondition = errors.New("invalid condition value")
var ErrNonPositiveQuantity = errors.New("quantity must be positive")

// InsufficientAvailabilityError 单元不够借，带上差额方便前端提示
type InsufficientAvailabilityError struct {
	ToolName  string
	Requested int
	Available int
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient availability for %q: Available: %d, Requested: %d",
		e.ToolName, e.Available, e.Requested)
}

// InsufficientStockError 材料库存不足
type InsufficientStockError struct {
	MaterialName string
	Requested    decimal.Decimal
	Available    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: Available: %s, Requested: %s",
		e.MaterialName, e.Available, e.Requested)
}

// InvalidStateTransitionError 在终态（或不允许的状态）上做了操作
type InvalidStateTransitionError struct {
	Current   models.BorrowingStatus
	Attempted string
	Detail    string
}

func (e *InvalidStateTransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s a %s borrowing", e.Attempted, e.Current)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
