package entity

import "time"

// 运输方式
const (
	ShippingModeAir     = "air"
	ShippingModeSea     = "sea"
	ShippingModeCourier = "courier"
)

// ShippingQuote 货代运输报价；有效报价可覆盖BOM行的运输周期与每件运费
type ShippingQuote struct {
	ID           uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	ProviderName *string `json:"provider_name" gorm:"size:200"`
	Mode         *string `json:"mode" gorm:"size:50;index"` // air/sea/courier
	ServiceLevel *string `json:"service_level" gorm:"size:100"`

	Origin          *string `json:"origin" gorm:"size:200"`
	Destination     *string `json:"destination" gorm:"size:200"`
	OriginPort      *string `json:"origin_port" gorm:"size:100"`
	DestinationPort *string `json:"destination_port" gorm:"size:100"`

	ValidFrom      *time.Time `json:"valid_from"`
	ValidTo        *time.Time `json:"valid_to"`
	TransitDaysMin *int       `json:"transit_days_min"`
	TransitDaysMax *int       `json:"transit_days_max"`
	TransitDays    *int       `json:"transit_days"`

	Currency         *string  `json:"currency" gorm:"size:10"`
	CostPerKg        *float64 `json:"cost_per_kg" gorm:"type:decimal(12,4)"`
	CostPerCBM       *float64 `json:"cost_per_cbm" gorm:"type:decimal(12,4)"`
	MinCharge        *float64 `json:"min_charge" gorm:"type:decimal(12,2)"`
	FuelSurchargePct *float64 `json:"fuel_surcharge_pct" gorm:"type:decimal(6,2)"`
	SecurityFee      *float64 `json:"security_fee" gorm:"type:decimal(12,2)"`
	HandlingFee      *float64 `json:"handling_fee" gorm:"type:decimal(12,2)"`
	OtherFees        *float64 `json:"other_fees" gorm:"type:decimal(12,2)"`

	Notes     *string   `json:"notes" gorm:"type:text"`
	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ShippingQuote) TableName() string {
	return "shipping_quotes"
}
