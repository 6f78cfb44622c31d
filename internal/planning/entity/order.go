package entity

import "time"

// 在途订单状态
const (
	OrderStatusPending   = "pending"
	OrderStatusOrdered   = "ordered"
	OrderStatusReceived  = "received"
	OrderStatusCancelled = "cancelled"
)

// PendingOrder 在途/待收订单行（来源：发票、报价单或手工录入；
// part_id 为供应商侧标识，经对账服务映射到规范零件）
type PendingOrder struct {
	ID                    uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	PartID                string     `json:"part_id" gorm:"size:200;not null;index"` // 供应商侧零件号或描述
	SupplierID            *string    `json:"supplier_id" gorm:"size:50"`
	SupplierName          *string    `json:"supplier_name" gorm:"size:200;index"`
	OrderDate             time.Time  `json:"order_date" gorm:"not null"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	Qty                   int        `json:"qty" gorm:"not null"`
	UnitCost              float64    `json:"unit_cost" gorm:"type:decimal(12,4);default:0"`
	PaymentDate           *time.Time `json:"payment_date"`
	Status                string     `json:"status" gorm:"size:20;default:pending;index"`
	PONumber              *string    `json:"po_number" gorm:"size:100"`
	Notes                 *string    `json:"notes" gorm:"type:text"`

	// 身份对账结果（对账服务写入；置信度单调不减）
	MappedPartID    *string `json:"mapped_part_id" gorm:"size:50;index"`
	MatchConfidence *int    `json:"match_confidence"` // 0-100

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PendingOrder) TableName() string {
	return "orders"
}

// Incoming 订单是否计入在途供给
func (o *PendingOrder) Incoming() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusOrdered
}
