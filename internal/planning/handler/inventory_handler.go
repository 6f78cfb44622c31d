package handler

import (
	"errors"
	"time"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/service"
	"github.com/gin-gonic/gin"
)

// InventoryHandler 库存接口
type InventoryHandler struct {
	inventorySvc *service.InventoryService
	repos        *repository.Repositories
}

func NewInventoryHandler(inventorySvc *service.InventoryService, repos *repository.Repositories) *InventoryHandler {
	return &InventoryHandler{
		inventorySvc: inventorySvc,
		repos:        repos,
	}
}

// List 库存记录列表
// GET /api/v1/inventory
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.repos.Inventory.FindAll(c.Request.Context())
	if err != nil {
		InternalError(c, "获取库存列表失败: "+err.Error())
		return
	}
	Success(c, items)
}

// Get 单条库存记录
// GET /api/v1/inventory/:part_id
func (h *InventoryHandler) Get(c *gin.Context) {
	inv, err := h.repos.Inventory.FindByPartID(c.Request.Context(), c.Param("part_id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "库存记录不存在")
			return
		}
		InternalError(c, "获取库存记录失败: "+err.Error())
		return
	}
	Success(c, inv)
}

// Upsert 创建或更新库存记录
// PUT /api/v1/inventory/:part_id
func (h *InventoryHandler) Upsert(c *gin.Context) {
	var inv entity.Inventory
	if err := c.ShouldBindJSON(&inv); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	inv.PartID = c.Param("part_id")
	inv.TotalValue = float64(inv.CurrentStock) * inv.UnitCost
	if err := h.repos.Inventory.Upsert(c.Request.Context(), &inv); err != nil {
		InternalError(c, "保存库存记录失败: "+err.Error())
		return
	}
	Success(c, inv)
}

// Delete 删除库存记录
// DELETE /api/v1/inventory/:part_id
func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.repos.Inventory.Delete(c.Request.Context(), c.Param("part_id")); err != nil {
		InternalError(c, "删除库存记录失败: "+err.Error())
		return
	}
	Success(c, nil)
}

// GetProjected 含在途与占用的库存投影
// GET /api/v1/inventory/projected?part_id=
func (h *InventoryHandler) GetProjected(c *gin.Context) {
	items, err := h.inventorySvc.GetProjectedInventory(c.Request.Context(), c.Query("part_id"))
	if err != nil {
		InternalError(c, "获取库存投影失败: "+err.Error())
		return
	}
	Success(c, items)
}

// GetProjections 周粒度时间序列库存投影
// GET /api/v1/inventory/projections?start_date=&end_date=&part_id=
func (h *InventoryHandler) GetProjections(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		BadRequest(c, "start_date 格式错误，应为 YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		BadRequest(c, "end_date 格式错误，应为 YYYY-MM-DD")
		return
	}

	projections, err := h.inventorySvc.GetProjections(c.Request.Context(), start, end, c.Query("part_id"))
	if err != nil {
		InternalError(c, "获取库存投影失败: "+err.Error())
		return
	}
	Success(c, projections)
}

// GetAlerts 库存告警
// GET /api/v1/inventory/alerts
func (h *InventoryHandler) GetAlerts(c *gin.Context) {
	alerts, err := h.inventorySvc.GetAlerts(c.Request.Context())
	if err != nil {
		InternalError(c, "获取库存告警失败: "+err.Error())
		return
	}
	Success(c, alerts)
}
