package repository

import (
	"context"
	"errors"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"gorm.io/gorm"
)

// BOMRepository BOM行项仓库
type BOMRepository struct {
	db *gorm.DB
}

func NewBOMRepository(db *gorm.DB) *BOMRepository {
	return &BOMRepository{db: db}
}

// FindAll 查询全部BOM行项
func (r *BOMRepository) FindAll(ctx context.Context) ([]entity.BOMLine, error) {
	var items []entity.BOMLine
	err := r.db.WithContext(ctx).Order("product_id ASC, part_id ASC").Find(&items).Error
	return items, err
}

// FindByProduct 查询指定产品的BOM行项
func (r *BOMRepository) FindByProduct(ctx context.Context, productID string) ([]entity.BOMLine, error) {
	var items []entity.BOMLine
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).Find(&items).Error
	return items, err
}

// FindByPart 查询引用某零件的BOM行项
func (r *BOMRepository) FindByPart(ctx context.Context, partID string) ([]entity.BOMLine, error) {
	var items []entity.BOMLine
	err := r.db.WithContext(ctx).Where("part_id = ?", partID).Find(&items).Error
	return items, err
}

// FindByID 根据ID查找BOM行项
func (r *BOMRepository) FindByID(ctx context.Context, id uint) (*entity.BOMLine, error) {
	var line entity.BOMLine
	err := r.db.WithContext(ctx).First(&line, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

// Create 创建BOM行项
func (r *BOMRepository) Create(ctx context.Context, line *entity.BOMLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// BatchCreate 批量创建BOM行项（导入用）
func (r *BOMRepository) BatchCreate(ctx context.Context, lines []entity.BOMLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(lines, 200).Error
}

// Update 更新BOM行项
func (r *BOMRepository) Update(ctx context.Context, line *entity.BOMLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// Delete 删除BOM行项
func (r *BOMRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.BOMLine{}, id).Error
}

// DeleteByProduct 删除某产品的全部BOM行项（重新导入前清理）
func (r *BOMRepository) DeleteByProduct(ctx context.Context, productID string) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&entity.BOMLine{}).Error
}
