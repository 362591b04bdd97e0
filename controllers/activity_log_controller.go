package controllers

import (
	"net/http"
	"strconv"

	"Gin_postgres_redis_workshop_inventory/db"

	"github.com/gin-gonic/gin"
)

type ActivityLogController struct{ *Srv }

func NewActivityLogController(s *Srv) *ActivityLogController { return &ActivityLogController{Srv: s} }

// ListLogs 审计读侧，只查不写
func (lc *ActivityLogController) ListLogs(c *gin.Context) {
	q := db.ActivityLogsQuery{
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		Action:     c.Query("action"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := lc.Repo.ListActivityLogs(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
