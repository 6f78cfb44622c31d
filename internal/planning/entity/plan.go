package entity

import "time"

// OrderScheduleEntry 规划产生的下单建议行（每次运行派生，不落库）。
// 不变量：order_date = need_date − (生产周期 + 有效运输周期)，
// payment_date = order_date + 账期。
type OrderScheduleEntry struct {
	PartID          string  `json:"part_id"`
	PartName        string  `json:"part_name"`
	PartDescription string  `json:"part_description"`
	SupplierID      *string `json:"supplier_id"`
	SupplierName    *string `json:"supplier_name"`
	PONumber        string  `json:"po_number"`

	NeedDate    time.Time `json:"need_date"`
	OrderDate   time.Time `json:"order_date"`
	PaymentDate time.Time `json:"payment_date"`
	Qty         int       `json:"qty"`

	// 成本拆分
	UnitCost             float64 `json:"unit_cost"`
	BaseCost             float64 `json:"base_cost"`
	ShippingCost         float64 `json:"shipping_cost"`
	TariffRate           float64 `json:"tariff_rate"` // 百分比
	TariffAmount         float64 `json:"tariff_amount"`
	TotalCost            float64 `json:"total_cost"`
	TotalCostSansTariffs float64 `json:"total_cost_without_tariffs"`

	CountryOfOrigin  string `json:"country_of_origin,omitempty"`
	HTSCode          string `json:"hts_code,omitempty"`
	SubjectToTariffs bool   `json:"subject_to_tariffs"`

	Status           string `json:"status"`
	DaysUntilOrder   int    `json:"days_until_order"`
	DaysUntilPayment int    `json:"days_until_payment"`
}

// SupplierOrderSummary 按（供应商, 下单日期）合并后的采购单摘要
type SupplierOrderSummary struct {
	SupplierID   *string   `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	OrderDate    time.Time `json:"order_date"`
	PaymentDate  time.Time `json:"payment_date"` // 组内最晚付款日

	TotalParts   int      `json:"total_parts"`
	TotalCost    float64  `json:"total_cost"`
	TariffAmount float64  `json:"tariff_amount"`
	ShippingCost float64  `json:"shipping_cost"`
	Parts        []string `json:"parts"`

	DaysUntilOrder   int `json:"days_until_order"`
	DaysUntilPayment int `json:"days_until_payment"`
}

// CashFlowPoint 按付款日的现金流投影点
type CashFlowPoint struct {
	Date               time.Time `json:"date"`
	TotalOutflow       float64   `json:"total_outflow"`
	TotalInflow        float64   `json:"total_inflow"` // 销售回款占位，暂恒为0
	NetCashFlow        float64   `json:"net_cash_flow"`
	CumulativeCashFlow float64   `json:"cumulative_cash_flow"`
}

// KeyMetrics 规划关键指标
type KeyMetrics struct {
	OrdersNext30d   int     `json:"orders_next_30d"`
	OrdersNext60d   int     `json:"orders_next_60d"`
	CashOut90d      float64 `json:"cash_out_90d"`
	TariffSpend90d  float64 `json:"tariff_spend_90d"`
	LargestPurchase float64 `json:"largest_purchase"`
	TotalParts      int     `json:"total_parts"`
	TotalSuppliers  int     `json:"total_suppliers"`
}

// PlanResult 一次规划运行的完整输出
type PlanResult struct {
	RunID          string                 `json:"run_id"`
	StartDate      time.Time              `json:"start_date"`
	EndDate        time.Time              `json:"end_date"`
	GeneratedAt    time.Time              `json:"generated_at"`
	OrderSchedules []OrderScheduleEntry   `json:"order_schedules"`
	SupplierOrders []SupplierOrderSummary `json:"supplier_orders"`
	CashFlow       []CashFlowPoint        `json:"cash_flow"`
	Metrics        KeyMetrics             `json:"metrics"`
}
