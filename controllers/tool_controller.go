// controllers/tool_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"Gin_postgres_redis_workshop_inventory/app"
	"Gin_postgres_redis_workshop_inventory/db"
	"Gin_postgres_redis_workshop_inventory/models"
	"Gin_postgres_redis_workshop_inventory/sequence"

	"github.com/gin-gonic/gin"
)

type ToolController struct{ *Srv }

func NewToolController(s *Srv) *ToolController { return &ToolController{Srv: s} }

// CreateTool 建 Tool 时一并按 1..N 生成单元
func (tc *ToolController) CreateTool(c *gin.Context) {
	var in struct {
		Name          string           `json:"name" binding:"required"`
		CategoryID    string           `json:"categoryId" binding:"required"`
		TotalQuantity int              `json:"totalQuantity" binding:"required,gt=0"`
		Condition     models.Condition `json:"condition"`
		Location      string           `json:"location"`
		Supplier      string           `json:"supplier"`
		ActorName     string           `json:"actorName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	displayID, err := tc.Seq.Next(c.Request.Context(), sequence.PrefixTool)
	if err != nil {
		writeError(c, err)
		return
	}

	tool, err := tc.Repo.CreateTool(c.Request.Context(), db.CreateToolInput{
		DisplayID:     displayID,
		Name:          in.Name,
		CategoryID:    in.CategoryID,
		TotalQuantity: in.TotalQuantity,
		Condition:     in.Condition,
		Location:      in.Location,
		Supplier:      in.Supplier,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	tc.Audit.Record(auditEntry(models.EntityTool, tool.ID, models.ActionCreate, in.ActorName, nil, tool, nil))
	c.JSON(http.StatusCreated, tool)
}

func (tc *ToolController) ListTools(c *gin.Context) {
	q := db.ToolsQuery{
		Q:          c.Query("q"),
		CategoryID: c.Query("categoryId"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := tc.Repo.ListTools(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (tc *ToolController) GetTool(c *gin.Context) {
	tool, err := tc.Repo.FindToolByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"tool": tool, "condition": tool.WorstCondition()})
}

func (tc *ToolController) UpdateTool(c *gin.Context) {
	var in struct {
		Name       *string `json:"name"`
		CategoryID *string `json:"categoryId"`
		Location   *string `json:"location"`
		Supplier   *string `json:"supplier"`
		ActorName  string  `json:"actorName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	before, err := tc.Repo.FindToolByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	tool, err := tc.Repo.UpdateToolMeta(c.Request.Context(), id, db.UpdateToolInput{
		Name:       in.Name,
		CategoryID: in.CategoryID,
		Location:   in.Location,
		Supplier:   in.Supplier,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	tc.Audit.Record(auditEntry(models.EntityTool, id, models.ActionUpdate, in.ActorName, before, tool, nil))
	c.JSON(http.StatusOK, tool)
}
