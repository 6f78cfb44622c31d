package repository

import (
	"context"
	"errors"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"gorm.io/gorm"
)

// QuoteRepository 运输报价仓库
type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// FindAll 查询全部报价
func (r *QuoteRepository) FindAll(ctx context.Context) ([]entity.ShippingQuote, error) {
	var items []entity.ShippingQuote
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error
	return items, err
}

// FindActive 查询有效报价，按创建时间倒序（选择策略见 service.SelectQuote）
func (r *QuoteRepository) FindActive(ctx context.Context) ([]entity.ShippingQuote, error) {
	var items []entity.ShippingQuote
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找报价
func (r *QuoteRepository) FindByID(ctx context.Context, id uint) (*entity.ShippingQuote, error) {
	var quote entity.ShippingQuote
	err := r.db.WithContext(ctx).First(&quote, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}

// Create 创建报价
func (r *QuoteRepository) Create(ctx context.Context, quote *entity.ShippingQuote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

// Update 更新报价
func (r *QuoteRepository) Update(ctx context.Context, quote *entity.ShippingQuote) error {
	return r.db.WithContext(ctx).Save(quote).Error
}

// Delete 删除报价
func (r *QuoteRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.ShippingQuote{}, id).Error
}
