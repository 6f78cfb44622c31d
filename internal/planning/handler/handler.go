package handler

import (
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/service"
	"github.com/gin-gonic/gin"
)

// Handlers 规划域处理器集合
type Handlers struct {
	Planner   *PlannerHandler
	Inventory *InventoryHandler
	Order     *OrderHandler
	Data      *DataHandler
}

// NewHandlers 创建规划域处理器集合
func NewHandlers(services *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		Planner:   NewPlannerHandler(services.Planner, services.Tariff),
		Inventory: NewInventoryHandler(services.Inventory, repos),
		Order:     NewOrderHandler(services.Matching, repos),
		Data:      NewDataHandler(services.Import, repos),
	}
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}
