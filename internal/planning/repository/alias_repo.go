package repository

import (
	"context"
	"errors"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AliasRepository 零件别名仓库
type AliasRepository struct {
	db *gorm.DB
}

func NewAliasRepository(db *gorm.DB) *AliasRepository {
	return &AliasRepository{db: db}
}

// FindAll 查询全部别名
func (r *AliasRepository) FindAll(ctx context.Context) ([]entity.PartAlias, error) {
	var items []entity.PartAlias
	err := r.db.WithContext(ctx).Order("supplier_name ASC, vendor_part_id ASC").Find(&items).Error
	return items, err
}

// Lookup 按(供应商, 供应商零件号)精确查找别名
func (r *AliasRepository) Lookup(ctx context.Context, supplierName, vendorPartID string) (*entity.PartAlias, error) {
	var alias entity.PartAlias
	err := r.db.WithContext(ctx).
		Where("supplier_name = ? AND vendor_part_id = ?", supplierName, vendorPartID).
		First(&alias).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alias, nil
}

// Upsert 原子写入别名：同键冲突时取历史最高置信度。
// 置信度单调不减由存储层保证，避免并发对账互相回退。
func (r *AliasRepository) Upsert(ctx context.Context, alias *entity.PartAlias) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "supplier_name"}, {Name: "vendor_part_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"canonical_part_id": alias.CanonicalPartID,
				"confidence":        gorm.Expr("GREATEST(part_aliases.confidence, EXCLUDED.confidence)"),
				"updated_at":        gorm.Expr("NOW()"),
			}),
		}).
		Create(alias).Error
}

// Delete 删除别名（人工维护纠错用）
func (r *AliasRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.PartAlias{}, id).Error
}
