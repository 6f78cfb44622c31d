package entity

import "time"

// PartAlias 学习到的别名映射：(供应商, 供应商零件号) → 规范零件号。
// 同键多次学习时保留历史最高置信度。
type PartAlias struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SupplierName    string    `json:"supplier_name" gorm:"size:200;index:idx_alias_key,unique"`
	VendorPartID    string    `json:"vendor_part_id" gorm:"size:200;not null;index:idx_alias_key,unique"`
	VendorDesc      *string   `json:"vendor_desc" gorm:"type:text"`
	CanonicalPartID string    `json:"canonical_part_id" gorm:"size:50;not null;index"`
	Confidence      int       `json:"confidence" gorm:"default:100"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (PartAlias) TableName() string {
	return "part_aliases"
}
