package routes

import (
	"Gin_postgres_redis_workshop_inventory/app"
	"Gin_postgres_redis_workshop_inventory/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	catCtl := controllers.NewCategoryController(s)
	toolCtl := controllers.NewToolController(s)
	matCtl := controllers.NewMaterialController(s)
	borrowCtl := controllers.NewBorrowingController(s)
	consCtl := controllers.NewConsumptionController(s)
	logCtl := controllers.NewActivityLogController(s)

	// ------------------------------
	// 分类
	// ------------------------------
	cats := r.Group("/api/categories")
	{
		cats.POST("", catCtl.CreateCategory)
		cats.GET("", catCtl.ListCategories)
	}

	// ------------------------------
	// 工具（单元级库存）
	// ------------------------------
	tools := r.Group("/api/tools")
	{
		tools.POST("", toolCtl.CreateTool)
		tools.GET("", toolCtl.ListTools) // ?q=&categoryId=&page=&size=
		tools.GET("/:id", toolCtl.GetTool)
		tools.PATCH("/:id", toolCtl.UpdateTool)
	}

	// ------------------------------
	// 材料（数量级库存）
	// ------------------------------
	materials := r.Group("/api/materials")
	{
		materials.POST("", matCtl.CreateMaterial)
		materials.GET("", matCtl.ListMaterials)
		materials.GET("/low-stock", matCtl.ListLowStock)
		materials.GET("/:id", matCtl.GetMaterial)
		materials.PATCH("/:id", matCtl.UpdateMaterial)
	}

	// ------------------------------
	// 借还
	// ------------------------------
	borrowings := r.Group("/api/borrowings")
	{
		borrowings.POST("", borrowCtl.CreateBorrowing)
		borrowings.GET("", borrowCtl.ListBorrowings) // ?status=&borrower=&page=&size=
		borrowings.GET("/:id", borrowCtl.GetBorrowing)
		borrowings.POST("/:id/return", borrowCtl.ReturnUnits)
		borrowings.POST("/:id/extend", borrowCtl.Extend)
		borrowings.POST("/:id/cancel", borrowCtl.Cancel)
	}

	// ------------------------------
	// 消耗
	// ------------------------------
	consumptions := r.Group("/api/consumptions")
	{
		consumptions.POST("", consCtl.CreateConsumption)
		consumptions.GET("", consCtl.ListConsumptions)
		consumptions.GET("/:id", consCtl.GetConsumption)
		consumptions.DELETE("/:id", consCtl.ReverseConsumption) // 24h 内撤销
	}

	// ------------------------------
	// 审计读侧
	// ------------------------------
	r.GET("/api/activity-logs", logCtl.ListLogs)
}
