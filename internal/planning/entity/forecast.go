package entity

import "time"

// Forecast 装机预测：某序列号产品在某日期的装机台数
type Forecast struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SystemSN         string    `json:"system_sn" gorm:"size:50;index;not null"` // 产品序列号/SKU键
	InstallationDate time.Time `json:"installation_date" gorm:"not null;index"`
	Units            int       `json:"units" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Forecast) TableName() string {
	return "forecasts"
}
