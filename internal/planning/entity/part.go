package entity

import "time"

// Part 规范零件主数据（canonical part）
type Part struct {
	PartID         string    `json:"part_id" gorm:"primaryKey;size:50"`
	PartName       string    `json:"part_name" gorm:"size:200;not null"`
	SupplierID     *string   `json:"supplier_id" gorm:"size:50"`
	SupplierName   *string   `json:"supplier_name" gorm:"size:200"`
	Manufacturer   *string   `json:"manufacturer" gorm:"size:200"`
	UnitCost       float64   `json:"unit_cost" gorm:"type:decimal(12,4);default:0"`
	SafetyStockPct float64   `json:"safety_stock_pct" gorm:"type:decimal(6,4);default:0.1"` // 平均需求的百分比
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Part) TableName() string {
	return "parts"
}

// Supplier 供应商主数据
type Supplier struct {
	SupplierID   string    `json:"supplier_id" gorm:"primaryKey;size:50"`
	Name         string    `json:"name" gorm:"size:200;not null"`
	APTermsDays  int       `json:"ap_terms_days" gorm:"default:30"` // 账期（Net 30）
	ContactEmail string    `json:"contact_email" gorm:"size:200"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Supplier) TableName() string {
	return "suppliers"
}
