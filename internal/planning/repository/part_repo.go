package repository

import (
	"context"
	"errors"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartRepository 零件主数据仓库
type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

// FindAll 查询全部零件
func (r *PartRepository) FindAll(ctx context.Context) ([]entity.Part, error) {
	var items []entity.Part
	err := r.db.WithContext(ctx).Order("part_id ASC").Find(&items).Error
	return items, err
}

// FindByID 根据零件号查找
func (r *PartRepository) FindByID(ctx context.Context, partID string) (*entity.Part, error) {
	var part entity.Part
	err := r.db.WithContext(ctx).Where("part_id = ?", partID).First(&part).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// Upsert 按零件号写入或更新（BOM/库存导入时补建主数据）
func (r *PartRepository) Upsert(ctx context.Context, part *entity.Part) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "part_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"part_name", "unit_cost", "safety_stock_pct", "supplier_id", "supplier_name", "updated_at"}),
		}).
		Create(part).Error
}

// Delete 删除零件
func (r *PartRepository) Delete(ctx context.Context, partID string) error {
	return r.db.WithContext(ctx).Where("part_id = ?", partID).Delete(&entity.Part{}).Error
}

// FindSuppliers 查询全部供应商
func (r *PartRepository) FindSuppliers(ctx context.Context) ([]entity.Supplier, error) {
	var items []entity.Supplier
	err := r.db.WithContext(ctx).Order("supplier_id ASC").Find(&items).Error
	return items, err
}

// UpsertSupplier 按供应商ID写入或更新
func (r *PartRepository) UpsertSupplier(ctx context.Context, supplier *entity.Supplier) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "supplier_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "ap_terms_days", "contact_email", "updated_at"}),
		}).
		Create(supplier).Error
}
