// controllers/material_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"Gin_postgres_redis_workshop_inventory/app"
	"Gin_postgres_redis_workshop_inventory/db"
	"Gin_postgres_redis_workshop_inventory/models"
	"Gin_postgres_redis_workshop_inventory/sequence"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type MaterialController struct{ *Srv }

func NewMaterialController(s *Srv) *MaterialController { return &MaterialController{Srv: s} }

func (mc *MaterialController) CreateMaterial(c *gin.Context) {
	var in struct {
		Name              string          `json:"name" binding:"required"`
		CategoryID        string          `json:"categoryId" binding:"required"`
		CurrentQuantity   decimal.Decimal `json:"currentQuantity"`
		ThresholdQuantity decimal.Decimal `json:"thresholdQuantity"`
		Unit              string          `json:"unit" binding:"required"`
		Location          string          `json:"location"`
		Supplier          string          `json:"supplier"`
		ActorName         string          `json:"actorName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	displayID, err := mc.Seq.Next(c.Request.Context(), sequence.PrefixMaterial)
	if err != nil {
		writeError(c, err)
		return
	}

	m, err := mc.Repo.CreateMaterial(c.Request.Context(), db.CreateMaterialInput{
		DisplayID:         displayID,
		Name:              in.Name,
		CategoryID:        in.CategoryID,
		CurrentQuantity:   in.CurrentQuantity,
		ThresholdQuantity: in.ThresholdQuantity,
		Unit:              in.Unit,
		Location:          in.Location,
		Supplier:          in.Supplier,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	mc.Audit.Record(auditEntry(models.EntityMaterial, m.ID, models.ActionCreate, in.ActorName, nil, m, nil))
	c.JSON(http.StatusCreated, materialView(m))
}

func (mc *MaterialController) ListMaterials(c *gin.Context) {
	q := db.MaterialsQuery{
		Q:          c.Query("q"),
		CategoryID: c.Query("categoryId"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := mc.Repo.ListMaterials(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}

	views := make([]app.H, 0, len(res.Materials))
	for i := range res.Materials {
		views = append(views, materialView(&res.Materials[i]))
	}
	c.JSON(http.StatusOK, app.H{"total": res.Total, "materials": views})
}

func (mc *MaterialController) GetMaterial(c *gin.Context) {
	m, err := mc.Repo.FindMaterialByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, materialView(m))
}

// ListLowStock 库存告警面板：low + out
func (mc *MaterialController) ListLowStock(c *gin.Context) {
	ms, err := mc.Repo.ListLowStock(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]app.H, 0, len(ms))
	for i := range ms {
		views = append(views, materialView(&ms[i]))
	}
	c.JSON(http.StatusOK, app.H{"materials": views})
}

func (mc *MaterialController) UpdateMaterial(c *gin.Context) {
	var in struct {
		Name              *string          `json:"name"`
		CategoryID        *string          `json:"categoryId"`
		ThresholdQuantity *decimal.Decimal `json:"thresholdQuantity"`
		Unit              *string          `json:"unit"`
		Location          *string          `json:"location"`
		Supplier          *string          `json:"supplier"`
		ActorName         string           `json:"actorName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	before, err := mc.Repo.FindMaterialByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	m, err := mc.Repo.UpdateMaterialMeta(c.Request.Context(), id, db.UpdateMaterialInput{
		Name:              in.Name,
		CategoryID:        in.CategoryID,
		ThresholdQuantity: in.ThresholdQuantity,
		Unit:              in.Unit,
		Location:          in.Location,
		Supplier:          in.Supplier,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	mc.Audit.Record(auditEntry(models.EntityMaterial, id, models.ActionUpdate, in.ActorName, before, m, nil))
	c.JSON(http.StatusOK, materialView(m))
}

// materialView 附带派生的库存状态
func materialView(m *models.Material) app.H {
	return app.H{"material": m, "stockStatus": m.StockStatus()}
}
