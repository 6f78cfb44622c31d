package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 规划域仓库集合
type Repositories struct {
	Part      *PartRepository
	BOM       *BOMRepository
	Forecast  *ForecastRepository
	Inventory *InventoryRepository
	Order     *OrderRepository
	Alias     *AliasRepository
	Quote     *QuoteRepository
}

// NewRepositories 创建规划域仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Part:      NewPartRepository(db),
		BOM:       NewBOMRepository(db),
		Forecast:  NewForecastRepository(db),
		Inventory: NewInventoryRepository(db),
		Order:     NewOrderRepository(db),
		Alias:     NewAliasRepository(db),
		Quote:     NewQuoteRepository(db),
	}
}
