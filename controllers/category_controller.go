package controllers

import (
	"net/http"

	"Gin_postgres_redis_workshop_inventory/app"
	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CategoryController struct{ *Srv }

func NewCategoryController(s *Srv) *CategoryController { return &CategoryController{Srv: s} }

func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var in struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		ActorName   string `json:"actorName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	cat := &models.Category{ID: uuid.NewString(), Name: in.Name, Description: in.Description}
	if err := cc.Repo.CreateCategory(c.Request.Context(), cat); err != nil {
		writeError(c, err)
		return
	}
	cc.Audit.Record(auditEntry(models.EntityCategory, cat.ID, models.ActionCreate, in.ActorName, nil, cat, nil))
	c.JSON(http.StatusCreated, cat)
}

func (cc *CategoryController) ListCategories(c *gin.Context) {
	cats, err := cc.Repo.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": cats})
}
