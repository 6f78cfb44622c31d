package entity

import "time"

// Inventory 库存记录（part_id 唯一；库存量由外部流程维护，规划引擎只读）
type Inventory struct {
	ID              uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	PartID          string     `json:"part_id" gorm:"size:50;uniqueIndex;not null"`
	PartName        string     `json:"part_name" gorm:"size:200;not null"`
	CurrentStock    int        `json:"current_stock" gorm:"not null;default:0"`
	MinimumStock    int        `json:"minimum_stock" gorm:"not null;default:0"`
	MaximumStock    *int       `json:"maximum_stock"`
	UnitCost        float64    `json:"unit_cost" gorm:"type:decimal(12,4);default:0"`
	TotalValue      float64    `json:"total_value" gorm:"type:decimal(15,2);default:0"`
	SupplierID      *string    `json:"supplier_id" gorm:"size:50"`
	SupplierName    *string    `json:"supplier_name" gorm:"size:200"`
	Location        *string    `json:"location" gorm:"size:100"`
	LastRestockDate *time.Time `json:"last_restock_date"`
	Notes           *string    `json:"notes" gorm:"type:text"`

	SubjectToTariffs bool    `json:"subject_to_tariffs" gorm:"default:false"`
	HTSCode          *string `json:"hts_code" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Inventory) TableName() string {
	return "inventory"
}

// 短缺风险等级（按序评估，首个命中生效）
const (
	RiskCritical = "Critical"
	RiskHigh     = "High"
	RiskMedium   = "Medium"
	RiskLow      = "Low"
)

// ProjectedInventory 含在途与占用的库存投影行（派生结果，不落库）
type ProjectedInventory struct {
	PartID               string   `json:"part_id"`
	PartName             string   `json:"part_name"`
	CurrentStock         int      `json:"current_stock"`
	PendingQty           int      `json:"pending_qty"`
	AllocatedQty         int      `json:"allocated_qty"`
	NetAvailable         int      `json:"net_available"`
	DaysOfSupply         *float64 `json:"days_of_supply"` // 无需求信号时为空
	MinimumStock         int      `json:"minimum_stock"`
	MaximumStock         *int     `json:"maximum_stock"`
	UnitCost             float64  `json:"unit_cost"`
	TotalValue           float64  `json:"total_value"`
	SupplierName         *string  `json:"supplier_name"`
	Location             *string  `json:"location"`
	ShortageRisk         string   `json:"shortage_risk"`
	PendingOrdersSummary string   `json:"pending_orders_summary,omitempty"`
}

// InventoryProjection 按日期的库存投影（周粒度时间序列）
type InventoryProjection struct {
	PartID             string    `json:"part_id"`
	PartName           string    `json:"part_name"`
	ProjectionDate     time.Time `json:"projection_date"`
	ProjectedStock     int       `json:"projected_stock"`
	PendingDeliveries  int       `json:"pending_deliveries"`
	PlannedConsumption int       `json:"planned_consumption"`
	NetPosition        int       `json:"net_position"`
	DaysOfSupply       *float64  `json:"days_of_supply"`
	ShortageRisk       string    `json:"shortage_risk"`
}

// 告警类型
const (
	AlertShortage = "shortage"
	AlertReorder  = "reorder"
	AlertExcess   = "excess"
)

// 告警级别
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// InventoryAlert 库存告警
type InventoryAlert struct {
	PartID            string  `json:"part_id"`
	PartName          string  `json:"part_name"`
	AlertType         string  `json:"alert_type"`
	CurrentStock      int     `json:"current_stock"`
	TargetStock       int     `json:"target_stock"`
	Severity          string  `json:"severity"`
	RecommendedAction string  `json:"recommended_action"`
	DaysUntilShortage *int    `json:"days_until_shortage,omitempty"`
	SuggestedOrderQty int     `json:"suggested_order_qty"`
}
