package repository

import (
	"context"
	"errors"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository 库存仓库（规划引擎只读；写入来自导入与人工维护）
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// FindAll 查询全部库存记录
func (r *InventoryRepository) FindAll(ctx context.Context) ([]entity.Inventory, error) {
	var items []entity.Inventory
	err := r.db.WithContext(ctx).Order("part_id ASC").Find(&items).Error
	return items, err
}

// FindByPartID 根据零件号查找库存
func (r *InventoryRepository) FindByPartID(ctx context.Context, partID string) (*entity.Inventory, error) {
	var inv entity.Inventory
	err := r.db.WithContext(ctx).Where("part_id = ?", partID).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// Upsert 按零件号写入或更新库存
func (r *InventoryRepository) Upsert(ctx context.Context, inv *entity.Inventory) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "part_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"part_name", "current_stock", "minimum_stock", "maximum_stock",
				"unit_cost", "total_value", "supplier_id", "supplier_name",
				"location", "subject_to_tariffs", "hts_code", "updated_at",
			}),
		}).
		Create(inv).Error
}

// Delete 删除库存记录
func (r *InventoryRepository) Delete(ctx context.Context, partID string) error {
	return r.db.WithContext(ctx).Where("part_id = ?", partID).Delete(&entity.Inventory{}).Error
}
