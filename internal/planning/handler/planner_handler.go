package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/service"
	"github.com/gin-gonic/gin"
)

// PlannerHandler 规划引擎接口
type PlannerHandler struct {
	plannerSvc *service.PlannerService
	tariffSvc  *service.TariffService
}

func NewPlannerHandler(plannerSvc *service.PlannerService, tariffSvc *service.TariffService) *PlannerHandler {
	return &PlannerHandler{
		plannerSvc: plannerSvc,
		tariffSvc:  tariffSvc,
	}
}

type runPlanRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// RunPlan 执行规划运行
// POST /api/v1/plan/run
func (h *PlannerHandler) RunPlan(c *gin.Context) {
	var req runPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		BadRequest(c, "start_date 格式错误，应为 YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		BadRequest(c, "end_date 格式错误，应为 YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		BadRequest(c, "end_date 不能早于 start_date")
		return
	}

	result, err := h.plannerSvc.RunPlan(c.Request.Context(), start, end)
	if err != nil {
		InternalError(c, "规划运行失败: "+err.Error())
		return
	}
	Success(c, result)
}

// GetLatestPlan 获取最近一次规划结果
// GET /api/v1/plan/latest
func (h *PlannerHandler) GetLatestPlan(c *gin.Context) {
	result, err := h.plannerSvc.GetLastPlan(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "暂无规划结果")
			return
		}
		InternalError(c, "获取规划结果失败: "+err.Error())
		return
	}
	Success(c, result)
}

// ExportSchedule 导出最近一次下单排程为CSV
// GET /api/v1/plan/schedule/export
func (h *PlannerHandler) ExportSchedule(c *gin.Context) {
	result, err := h.plannerSvc.GetLastPlan(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "暂无规划结果，请先执行规划")
			return
		}
		InternalError(c, "获取规划结果失败: "+err.Error())
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=order_schedule_%s.csv", time.Now().Format("20060102")))

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	w.Write([]string{
		"po_number", "part_id", "part_name", "supplier", "need_date", "order_date",
		"payment_date", "qty", "unit_cost", "base_cost", "shipping_cost",
		"tariff_rate", "tariff_amount", "total_cost",
	})
	for i := range result.OrderSchedules {
		e := &result.OrderSchedules[i]
		supplier := ""
		if e.SupplierName != nil {
			supplier = *e.SupplierName
		}
		w.Write([]string{
			e.PONumber,
			e.PartID,
			e.PartName,
			supplier,
			e.NeedDate.Format("2006-01-02"),
			e.OrderDate.Format("2006-01-02"),
			e.PaymentDate.Format("2006-01-02"),
			strconv.Itoa(e.Qty),
			strconv.FormatFloat(e.UnitCost, 'f', 4, 64),
			strconv.FormatFloat(e.BaseCost, 'f', 2, 64),
			strconv.FormatFloat(e.ShippingCost, 'f', 2, 64),
			strconv.FormatFloat(e.TariffRate, 'f', 2, 64),
			strconv.FormatFloat(e.TariffAmount, 'f', 2, 64),
			strconv.FormatFloat(e.TotalCost, 'f', 2, 64),
		})
	}
}

// ExportCashFlow 导出最近一次现金流投影为CSV
// GET /api/v1/plan/cashflow/export
func (h *PlannerHandler) ExportCashFlow(c *gin.Context) {
	result, err := h.plannerSvc.GetLastPlan(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "暂无规划结果，请先执行规划")
			return
		}
		InternalError(c, "获取规划结果失败: "+err.Error())
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=cash_flow_%s.csv", time.Now().Format("20060102")))

	w := csv.NewWriter(c.Writer)
	defer w.Flush()

	w.Write([]string{"date", "total_outflow", "total_inflow", "net_cash_flow", "cumulative_cash_flow"})
	for i := range result.CashFlow {
		p := &result.CashFlow[i]
		w.Write([]string{
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.TotalOutflow, 'f', 2, 64),
			strconv.FormatFloat(p.TotalInflow, 'f', 2, 64),
			strconv.FormatFloat(p.NetCashFlow, 'f', 2, 64),
			strconv.FormatFloat(p.CumulativeCashFlow, 'f', 2, 64),
		})
	}
}

// CalculateDuty 报关口径税费试算
// POST /api/v1/tariff/calculate
func (h *PlannerHandler) CalculateDuty(c *gin.Context) {
	var input service.DutyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		BadRequest(c, "请求参数错误: "+err.Error())
		return
	}
	Success(c, h.tariffSvc.CalculateDuty(input))
}

// GetTariffRate 查询国别关税费率
// GET /api/v1/tariff/rate?country=China&hts_code=...
func (h *PlannerHandler) GetTariffRate(c *gin.Context) {
	country := c.Query("country")
	if country == "" {
		BadRequest(c, "country 参数必填")
		return
	}
	base, surcharge, note := h.tariffSvc.ResolveRate(c.Query("hts_code"), country, c.Query("importing_country"))
	Success(c, gin.H{
		"country":        country,
		"base_rate":      base,
		"surcharge_rate": surcharge,
		"composite_rate": base + surcharge,
		"note":           note,
	})
}
