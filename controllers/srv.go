// controllers/srv.go
package controllers

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_workshop_inventory/app"
	"Gin_postgres_redis_workshop_inventory/audit"
	"Gin_postgres_redis_workshop_inventory/db"
	"Gin_postgres_redis_workshop_inventory/sequence"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Srv struct {
	Repo  *db.Repo
	Audit *audit.Recorder
	Seq   *sequence.Store
	Log   *zap.Logger
}

func GetSrv(a *app.App) *Srv {
	repo := db.NewRepo(a.DB)
	return &Srv{
		Repo:  repo,
		Audit: audit.NewRecorder(repo, a.Logger),
		Seq:   sequence.NewStore(a.RDB),
		Log:   a.Logger,
	}
}

func auditEntry(entityType, entityID, action, actor string, before, after interface{}, metadata map[string]interface{}) audit.Entry {
	return audit.Entry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorName:  actor,
		Before:     before,
		After:      after,
		Metadata:   metadata,
	}
}

// writeError 领域错误 → HTTP 状态码的唯一映射点
func writeError(c *gin.Context, err error) {
	var availErr *db.InsufficientAvailabilityError
	var stockErr *db.InsufficientStockError
	var stateErr *db.InvalidStateTransitionError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "not found"})
	case errors.As(err, &availErr):
		c.JSON(http.StatusConflict, app.H{
			"error":     availErr.Error(),
			"tool":      availErr.ToolName,
			"requested": availErr.Requested,
			"available": availErr.Available,
		})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, app.H{
			"error":     stockErr.Error(),
			"material":  stockErr.MaterialName,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, app.H{
			"error":  stateErr.Error(),
			"status": stateErr.Current,
		})
	case errors.Is(err, db.ErrDueDatePast),
		errors.Is(err, db.ErrDueDateNotLater),
		errors.Is(err, db.ErrDueDateTooFar),
		errors.Is(err, db.ErrReversalWindowExpired),
		errors.Is(err, db.ErrUnitAlreadyReturned),
		errors.Is(err, db.ErrInvalidCondition),
		errors.Is(err, db.ErrNonPositiveQuantity):
		c.JSON(http.StatusUnprocessableEntity, app.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
