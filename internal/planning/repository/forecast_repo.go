package repository

import (
	"context"
	"time"

	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"gorm.io/gorm"
)

// ForecastRepository 装机预测仓库
type ForecastRepository struct {
	db *gorm.DB
}

func NewForecastRepository(db *gorm.DB) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// FindAll 查询全部预测
func (r *ForecastRepository) FindAll(ctx context.Context) ([]entity.Forecast, error) {
	var items []entity.Forecast
	err := r.db.WithContext(ctx).Order("installation_date ASC").Find(&items).Error
	return items, err
}

// FindInRange 查询装机日期在[start, end]内的预测
func (r *ForecastRepository) FindInRange(ctx context.Context, start, end time.Time) ([]entity.Forecast, error) {
	var items []entity.Forecast
	err := r.db.WithContext(ctx).
		Where("installation_date >= ? AND installation_date <= ?", start, end).
		Order("installation_date ASC").
		Find(&items).Error
	return items, err
}

// FindBefore 查询装机日期不晚于end的预测（占用量计算用）
func (r *ForecastRepository) FindBefore(ctx context.Context, end time.Time) ([]entity.Forecast, error) {
	var items []entity.Forecast
	err := r.db.WithContext(ctx).
		Where("installation_date <= ?", end).
		Order("installation_date ASC").
		Find(&items).Error
	return items, err
}

// Create 创建预测
func (r *ForecastRepository) Create(ctx context.Context, forecast *entity.Forecast) error {
	return r.db.WithContext(ctx).Create(forecast).Error
}

// BatchCreate 批量创建预测（导入用）
func (r *ForecastRepository) BatchCreate(ctx context.Context, forecasts []entity.Forecast) error {
	if len(forecasts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(forecasts, 500).Error
}

// Delete 删除预测
func (r *ForecastRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Forecast{}, id).Error
}
