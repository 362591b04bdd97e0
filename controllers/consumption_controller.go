// controllers/consumption_controller.go
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

type ConsumptionController struct{ *Srv }

func NewConsumptionController(s *Srv) *ConsumptionController { return &ConsumptionController{Srv: s} }

type consumptionLineReq struct {
	MaterialID string           `json:"materialId" binding:"required"`
	Quantity   decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice  *decimal.Decimal `json:"unitPrice"`
}

// CreateConsumption 所有行先校验够量，再原子扣减并落记录
func (cc *ConsumptionController) CreateConsumption(c *gin.Context) {
	var in struct {
		ConsumerName string               `json:"consumerName" binding:"required"`
		Purpose      string               `json:"purpose"`
		ProjectName  string               `json:"projectName"`
		Lines        []consumptionLineReq `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	displayID, err := cc.Seq.NextYearly(c.Request.Context(), sequence.PrefixConsumption)
	if err != nil {
		writeError(c, err)
		return
	}

	lines := make([]db.ConsumptionLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, db.ConsumptionLine{MaterialID: l.MaterialID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}

	ct, err := cc.Repo.CreateConsumption(c.Request.Context(), db.CreateConsumptionInput{
		DisplayID:    displayID,
		ConsumerName: in.ConsumerName,
		Purpose:      in.Purpose,
		ProjectName:  in.ProjectName,
		Lines:        lines,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	cc.Audit.Record(auditEntry(models.EntityConsumption, ct.ID, models.ActionConsume, in.ConsumerName, nil, ct, nil))
	c.JSON(http.StatusCreated, ct)
}

func (cc *ConsumptionController) ListConsumptions(c *gin.Context) {
	q := db.ConsumptionsQuery{
		Consumer: c.Query("consumer"),
		Project:  c.Query("project"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := cc.Repo.ListConsumptions(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (cc *ConsumptionController) GetConsumption(c *gin.Context) {
	ct, err := cc.Repo.FindConsumptionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

// ReverseConsumption 24h 内撤销：回补库存并删除记录
func (cc *ConsumptionController) ReverseConsumption(c *gin.Context) {
	var in struct {
		ActorName string `json:"actorName"`
	}
	_ = c.ShouldBindJSON(&in)

	id := c.Param("id")
	before, err := cc.Repo.FindConsumptionByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := cc.Repo.ReverseConsumption(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	cc.Audit.Record(auditEntry(models.EntityConsumption, id, models.ActionDelete, in.ActorName, before, nil, nil))
	c.JSON(http.StatusOK, app.H{"ok": true})
}
