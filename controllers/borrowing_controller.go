// controllers/borrowing_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"Gin_postgres_redis_workshop_inventory/app"
	"Gin_postgres_redis_workshop_inventory/db"
	"Gin_postgres_redis_workshop_inventory/models"
	"Gin_postgres_redis_workshop_inventory/sequence"

	"github.com/gin-gonic/gin"
)

type BorrowingController struct{ *Srv }

func NewBorrowingController(s *Srv) *BorrowingController { return &BorrowingController{Srv: s} }

type borrowLineReq struct {
	ToolID   string   `json:"toolId" binding:"required"`
	UnitIDs  []string `json:"unitIds"`
	Quantity int      `json:"quantity"`
}

// CreateBorrowing 借出若干单元，任何一行不够整笔 409
func (bc *BorrowingController) CreateBorrowing(c *gin.Context) {
	var in struct {
		BorrowerName string          `json:"borrowerName" binding:"required"`
		DueDate      time.Time       `json:"dueDate" binding:"required"`
		Purpose      string          `json:"purpose"`
		Notes        string          `json:"notes"`
		Lines        []borrowLineReq `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	displayID, err := bc.Seq.NextYearly(c.Request.Context(), sequence.PrefixBorrowing)
	if err != nil {
		writeError(c, err)
		return
	}

	lines := make([]db.BorrowLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, db.BorrowLine{ToolID: l.ToolID, UnitIDs: l.UnitIDs, Quantity: l.Quantity})
	}

	bt, err := bc.Repo.CreateBorrowing(c.Request.Context(), db.CreateBorrowingInput{
		DisplayID:    displayID,
		BorrowerName: in.BorrowerName,
		DueDate:      in.DueDate,
		Purpose:      in.Purpose,
		Notes:        in.Notes,
		Lines:        lines,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	bc.Audit.Record(auditEntry(models.EntityBorrowing, bt.ID, models.ActionBorrow, in.BorrowerName, nil, bt, nil))
	c.JSON(http.StatusCreated, bt)
}

func (bc *BorrowingController) ListBorrowings(c *gin.Context) {
	q := db.BorrowingsQuery{
		Status:   models.BorrowingStatus(c.Query("status")),
		Borrower: c.Query("borrower"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := bc.Repo.ListBorrowings(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (bc *BorrowingController) GetBorrowing(c *gin.Context) {
	bt, err := bc.Repo.FindBorrowingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bt)
}

type unitReturnReq struct {
	ItemUnitID string           `json:"itemUnitId" binding:"required"`
	Condition  models.Condition `json:"condition" binding:"required"`
	Notes      string           `json:"notes"`
}

// ReturnUnits 归还部分或全部单元；全还完整笔转 COMPLETED
func (bc *BorrowingController) ReturnUnits(c *gin.Context) {
	var in struct {
		Returns   []unitReturnReq `json:"returns" binding:"required,min=1"`
		ActorName string          `json:"actorName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	returns := make([]db.UnitReturn, 0, len(in.Returns))
	for _, r := range in.Returns {
		returns = append(returns, db.UnitReturn{ItemUnitID: r.ItemUnitID, Condition: r.Condition, Notes: r.Notes})
	}

	bt, err := bc.Repo.ReturnBorrowingUnits(c.Request.Context(), id, returns)
	if err != nil {
		writeError(c, err)
		return
	}
	bc.Audit.Record(auditEntry(models.EntityBorrowing, id, models.ActionReturn, in.ActorName, nil, bt,
		map[string]interface{}{"returnedUnits": len(returns)}))
	c.JSON(http.StatusOK, bt)
}

// Extend 延期，三种拒绝各自 422
func (bc *BorrowingController) Extend(c *gin.Context) {
	var in struct {
		NewDueDate time.Time `json:"newDueDate" binding:"required"`
		Reason     string    `json:"reason"`
		ActorName  string    `json:"actorName"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	bt, err := bc.Repo.ExtendDueDate(c.Request.Context(), id, in.NewDueDate, in.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	bc.Audit.Record(auditEntry(models.EntityBorrowing, id, models.ActionExtend, in.ActorName, nil, bt,
		map[string]interface{}{"reason": in.Reason, "newDueDate": in.NewDueDate}))
	c.JSON(http.StatusOK, bt)
}

// Cancel 只要还没归还过任何一件就可以整笔取消
func (bc *BorrowingController) Cancel(c *gin.Context) {
	var in struct {
		ActorName string `json:"actorName"`
	}
	_ = c.ShouldBindJSON(&in)

	id := c.Param("id")
	if err := bc.Repo.CancelBorrowing(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	bc.Audit.Record(auditEntry(models.EntityBorrowing, id, models.ActionUpdate, in.ActorName, nil,
		app.H{"status": models.BorrowingCancelled}, nil))
	c.JSON(http.StatusOK, app.H{"ok": true})
}
