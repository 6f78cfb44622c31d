package repository

import (
	"context"
	"errors"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"gorm.io/gorm"
)

// OrderRepository 在途订单仓库
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindAll 查询全部订单
func (r *OrderRepository) FindAll(ctx context.Context) ([]entity.PendingOrder, error) {
	var items []entity.PendingOrder
	err := r.db.WithContext(ctx).Order("order_date DESC").Find(&items).Error
	return items, err
}

// FindIncoming 查询计入在途供给的订单（pending/ordered）
func (r *OrderRepository) FindIncoming(ctx context.Context) ([]entity.PendingOrder, error) {
	var items []entity.PendingOrder
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{entity.OrderStatusPending, entity.OrderStatusOrdered}).
		Order("estimated_delivery_date ASC").
		Find(&items).Error
	return items, err
}

// FindByID 根据ID查找订单
func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*entity.PendingOrder, error) {
	var order entity.PendingOrder
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *entity.PendingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// Update 更新订单
func (r *OrderRepository) Update(ctx context.Context, order *entity.PendingOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// Delete 删除订单
func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.PendingOrder{}, id).Error
}

// UpdateMapping 写入对账结果。置信度只升不降：并发或重复对账不会
// 覆盖更高的历史置信度。
func (r *OrderRepository) UpdateMapping(ctx context.Context, id uint, mappedPartID string, confidence int) error {
	return r.db.WithContext(ctx).
		Model(&entity.PendingOrder{}).
		Where("id = ? AND (match_confidence IS NULL OR match_confidence <= ?)", id, confidence).
		Updates(map[string]interface{}{
			"mapped_part_id":   mappedPartID,
			"match_confidence": confidence,
		}).Error
}

// SetMappingManual 人工修正映射（人工操作允许覆盖自动结果）
func (r *OrderRepository) SetMappingManual(ctx context.Context, id uint, mappedPartID string, confidence int) error {
	return r.db.WithContext(ctx).
		Model(&entity.PendingOrder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"mapped_part_id":   mappedPartID,
			"match_confidence": confidence,
		}).Error
}
