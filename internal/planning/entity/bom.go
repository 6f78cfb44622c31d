package entity

import "time"

// BOMLine BOM行项：产品到零件的用量与采购属性
type BOMLine struct {
	ID        uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID string  `json:"product_id" gorm:"size:50;index;not null"`
	PartID    string  `json:"part_id" gorm:"size:50;index;not null"`
	PartName  string  `json:"part_name" gorm:"size:200;not null"`
	Quantity  float64 `json:"quantity" gorm:"type:decimal(12,4);not null"` // 单台用量

	UnitCost           float64 `json:"unit_cost" gorm:"type:decimal(12,4);default:0"`
	CostPerProduct     float64 `json:"cost_per_product" gorm:"type:decimal(12,4);default:0"`
	BeginningInventory int     `json:"beginning_inventory" gorm:"default:0"`

	SupplierID   *string `json:"supplier_id" gorm:"size:50"`
	SupplierName *string `json:"supplier_name" gorm:"size:200"`
	Manufacturer *string `json:"manufacturer" gorm:"size:200"`

	// 交期与账期（缺省值见 config.Planning）
	APTerms               *int `json:"ap_terms"`                // 账期天数
	ManufacturingLeadTime *int `json:"manufacturing_lead_time"` // 生产周期天数
	ShippingLeadTime      *int `json:"shipping_lead_time"`      // 运输周期天数

	// 运输
	ShippingMode  *string  `json:"shipping_mode" gorm:"size:20"` // air/sea/courier
	UnitWeightKg  *float64 `json:"unit_weight_kg" gorm:"type:decimal(10,4)"`
	UnitVolumeCBM *float64 `json:"unit_volume_cbm" gorm:"type:decimal(10,4)"`
	ShippingCost  *float64 `json:"shipping_cost" gorm:"type:decimal(12,4)"` // 每件运费

	// 关税
	CountryOfOrigin  *string `json:"country_of_origin" gorm:"size:100"`
	HTSCode          *string `json:"hts_code" gorm:"size:20"`
	SubjectToTariffs bool    `json:"subject_to_tariffs" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BOMLine) TableName() string {
	return "bom_lines"
}
