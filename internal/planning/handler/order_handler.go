package handler

import (
	"errors"
	"strconv"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/service"
	"github.com/gin-gonic/gin"
)

// OrderHandler 在途订单与身份对账接口
type OrderHandler struct {
	matchingSvc *service.MatchingService
	repos       *repository.Repositories
}

func NewOrderHandler(matchingSvc *service.MatchingService, repos *repository.Repositories) *OrderHandler {
	return &OrderHandler{
		matchingSvc: matchingSvc,
		repos:       repos,
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "ID 格式错误")
		return 0, false
	}
	return uint(id), true
}

// List 订单列表
// GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.repos.Order.FindAll(c.Request.Context())
	if err != nil {
		InternalError(c, "获取订单列表失败: "+err.Error())
		return
	}
	Success(c, orders)
}

// Create 创建订单
// POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var order entity.PendingOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	if order.Status == "" {
		order.Status = entity.OrderStatusPending
	}
	if err := h.repos.Order.Create(c.Request.Context(), &order); err != nil {
		InternalError(c, "创建订单失败: "+err.Error())
		return
	}
	Created(c, order)
}

// Update 更新订单
// PUT /api/v1/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	order, err := h.repos.Order.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "订单不存在")
			return
		}
		InternalError(c, "获取订单失败: "+err.Error())
		return
	}
	if err := c.ShouldBindJSON(order); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	order.ID = id
	if err := h.repos.Order.Update(c.Request.Context(), order); err != nil {
		InternalError(c, "更新订单失败: "+err.Error())
		return
	}
	Success(c, order)
}

// Delete 删除订单
// DELETE /api/v1/orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repos.Order.Delete(c.Request.Context(), id); err != nil {
		InternalError(c, "删除订单失败: "+err.Error())
		return
	}
	Success(c, nil)
}

// Reconcile 批量对账：在途订单 → 规范零件号
// POST /api/v1/orders/reconcile
func (h *OrderHandler) Reconcile(c *gin.Context) {
	summary, err := h.matchingSvc.ReconcileOrders(c.Request.Context())
	if err != nil {
		InternalError(c, "订单对账失败: "+err.Error())
		return
	}
	Success(c, summary)
}

type setMappingRequest struct {
	MappedPartID string `json:"mapped_part_id" binding:"required"`
}

// SetMapping 人工修正订单映射
// PUT /api/v1/orders/:id/mapping
func (h *OrderHandler) SetMapping(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req setMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	// 人工修正视为最高置信度
	if err := h.repos.Order.SetMappingManual(c.Request.Context(), id, req.MappedPartID, 100); err != nil {
		InternalError(c, "修正订单映射失败: "+err.Error())
		return
	}
	Success(c, nil)
}

// ListAliases 别名列表
// GET /api/v1/aliases
func (h *OrderHandler) ListAliases(c *gin.Context) {
	aliases, err := h.repos.Alias.FindAll(c.Request.Context())
	if err != nil {
		InternalError(c, "获取别名列表失败: "+err.Error())
		return
	}
	Success(c, aliases)
}

// DeleteAlias 删除别名
// DELETE /api/v1/aliases/:id
func (h *OrderHandler) DeleteAlias(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repos.Alias.Delete(c.Request.Context(), id); err != nil {
		InternalError(c, "删除别名失败: "+err.Error())
		return
	}
	Success(c, nil)
}
