package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/KNT-AJ/SupplyXplorer/internal/config"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"go.uber.org/zap"
)

// InventoryService 库存投影与告警引擎。
// 输入在调用时快照，全部派生结果在内存计算。
type InventoryService struct {
	repos    *repository.Repositories
	cfg      *config.PlanningConfig
	matching *MatchingService
	logger   *zap.Logger
}

func NewInventoryService(repos *repository.Repositories, cfg *config.PlanningConfig, matching *MatchingService, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		repos:    repos,
		cfg:      cfg,
		matching: matching,
		logger:   logger,
	}
}

// invSnapshot 库存投影所需的只读快照
type invSnapshot struct {
	inventory     []entity.Inventory
	bomLines      []entity.BOMLine
	forecasts     []entity.Forecast
	pendingByPart map[string][]*entity.PendingOrder
}

func (s *InventoryService) loadSnapshot(ctx context.Context, now time.Time) (*invSnapshot, error) {
	snap := &invSnapshot{}
	var err error

	if snap.inventory, err = s.repos.Inventory.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	if snap.bomLines, err = s.repos.BOM.FindAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to load bom lines: %w", err)
	}
	// 年化需求用一年展望窗口
	if snap.forecasts, err = s.repos.Forecast.FindBefore(ctx, now.AddDate(1, 0, 0)); err != nil {
		return nil, fmt.Errorf("failed to load forecasts: %w", err)
	}
	pending, err := s.repos.Order.FindIncoming(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending orders: %w", err)
	}

	// 在途量经身份对账归并到规范零件
	idx := NewInventoryIndex(snap.inventory)
	snap.pendingByPart = make(map[string][]*entity.PendingOrder)
	for i := range pending {
		order := &pending[i]
		partID, _ := s.matching.ResolvePartID(order, idx)
		if partID == "" {
			continue
		}
		snap.pendingByPart[partID] = append(snap.pendingByPart[partID], order)
	}
	return snap, nil
}

// GetProjectedInventory 含在途与占用的库存投影。partID为空时返回全部。
func (s *InventoryService) GetProjectedInventory(ctx context.Context, partID string) ([]entity.ProjectedInventory, error) {
	now := time.Now()
	snap, err := s.loadSnapshot(ctx, now)
	if err != nil {
		return nil, err
	}

	lookahead := now.AddDate(0, 0, s.cfg.LookaheadDays)
	projected := []entity.ProjectedInventory{}
	for i := range snap.inventory {
		item := &snap.inventory[i]
		if partID != "" && item.PartID != partID {
			continue
		}

		pendingQty, earliestETA := pendingPosition(snap.pendingByPart[item.PartID], nil)
		allocated := allocatedQuantity(item.PartID, snap.bomLines, snap.forecasts, lookahead)
		netAvailable := item.CurrentStock + pendingQty - allocated
		dos := s.daysOfSupply(item.PartID, netAvailable, snap, now)
		risk := AssessShortageRisk(item.CurrentStock, netAvailable, item.MinimumStock, dos)

		summary := ""
		if pendingQty > 0 {
			if earliestETA != nil {
				summary = fmt.Sprintf("%d units expected by %s", pendingQty, earliestETA.Format("2006-01-02"))
			} else {
				summary = fmt.Sprintf("%d units pending", pendingQty)
			}
		}

		projected = append(projected, entity.ProjectedInventory{
			PartID:               item.PartID,
			PartName:             item.PartName,
			CurrentStock:         item.CurrentStock,
			PendingQty:           pendingQty,
			AllocatedQty:         allocated,
			NetAvailable:         netAvailable,
			DaysOfSupply:         dos,
			MinimumStock:         item.MinimumStock,
			MaximumStock:         item.MaximumStock,
			UnitCost:             item.UnitCost,
			TotalValue:           item.TotalValue,
			SupplierName:         item.SupplierName,
			Location:             item.Location,
			ShortageRisk:         risk,
			PendingOrdersSummary: summary,
		})
	}
	return projected, nil
}

// GetProjections 按周粒度的时间序列库存投影
func (s *InventoryService) GetProjections(ctx context.Context, start, end time.Time, partID string) ([]entity.InventoryProjection, error) {
	now := time.Now()
	snap, err := s.loadSnapshot(ctx, now)
	if err != nil {
		return nil, err
	}

	projections := []entity.InventoryProjection{}
	for date := start; !date.After(end); date = date.AddDate(0, 0, 7) {
		for i := range snap.inventory {
			item := &snap.inventory[i]
			if partID != "" && item.PartID != partID {
				continue
			}

			deliveries, _ := pendingPosition(snap.pendingByPart[item.PartID], &date)
			consumption := allocatedQuantity(item.PartID, snap.bomLines, snap.forecasts, date)
			projectedStock := item.CurrentStock + deliveries - consumption
			netPosition := projectedStock
			if netPosition < 0 {
				netPosition = 0
			}
			dos := s.daysOfSupply(item.PartID, netPosition, snap, now)
			risk := AssessShortageRisk(projectedStock, netPosition, item.MinimumStock, dos)

			projections = append(projections, entity.InventoryProjection{
				PartID:             item.PartID,
				PartName:           item.PartName,
				ProjectionDate:     date,
				ProjectedStock:     projectedStock,
				PendingDeliveries:  deliveries,
				PlannedConsumption: consumption,
				NetPosition:        netPosition,
				DaysOfSupply:       dos,
				ShortageRisk:       risk,
			})
		}
	}
	return projections, nil
}

// GetAlerts 生成库存告警：短缺、补货、积压。按严重度排序。
func (s *InventoryService) GetAlerts(ctx context.Context) ([]entity.InventoryAlert, error) {
	projected, err := s.GetProjectedInventory(ctx, "")
	if err != nil {
		return nil, err
	}
	alerts := BuildAlerts(projected)

	s.logger.Info("inventory alerts generated", zap.Int("count", len(alerts)))
	return alerts, nil
}

// BuildAlerts 从投影行生成告警
func BuildAlerts(projected []entity.ProjectedInventory) []entity.InventoryAlert {
	alerts := []entity.InventoryAlert{}
	for i := range projected {
		p := &projected[i]
		switch {
		case p.CurrentStock <= p.MinimumStock:
			severity := entity.SeverityMedium
			if p.CurrentStock == 0 {
				severity = entity.SeverityHigh
			}
			deficit := p.MinimumStock - p.CurrentStock + 50
			zero := 0
			alerts = append(alerts, entity.InventoryAlert{
				PartID:            p.PartID,
				PartName:          p.PartName,
				AlertType:         entity.AlertShortage,
				CurrentStock:      p.CurrentStock,
				TargetStock:       p.MinimumStock,
				Severity:          severity,
				RecommendedAction: fmt.Sprintf("Order %d units immediately", deficit),
				DaysUntilShortage: &zero,
				SuggestedOrderQty: deficit,
			})

		case p.DaysOfSupply != nil && *p.DaysOfSupply < 30:
			daysUntil := int(*p.DaysOfSupply)
			severity := entity.SeverityMedium
			if daysUntil > 14 {
				severity = entity.SeverityLow
			}
			suggested := suggestedOrderQty(p)
			alerts = append(alerts, entity.InventoryAlert{
				PartID:            p.PartID,
				PartName:          p.PartName,
				AlertType:         entity.AlertReorder,
				CurrentStock:      p.CurrentStock,
				TargetStock:       p.MinimumStock,
				Severity:          severity,
				RecommendedAction: fmt.Sprintf("Consider ordering %d units within %d days", suggested, daysUntil-7),
				DaysUntilShortage: &daysUntil,
				SuggestedOrderQty: suggested,
			})

		case p.MaximumStock != nil && p.NetAvailable > *p.MaximumStock:
			excess := p.NetAvailable - *p.MaximumStock
			alerts = append(alerts, entity.InventoryAlert{
				PartID:            p.PartID,
				PartName:          p.PartName,
				AlertType:         entity.AlertExcess,
				CurrentStock:      p.CurrentStock,
				TargetStock:       *p.MaximumStock,
				Severity:          entity.SeverityLow,
				RecommendedAction: fmt.Sprintf("Consider reducing future orders - excess of %d units", excess),
				SuggestedOrderQty: -excess,
			})
		}
	}

	rank := map[string]int{
		entity.SeverityCritical: 0,
		entity.SeverityHigh:     1,
		entity.SeverityMedium:   2,
		entity.SeverityLow:      3,
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return rank[alerts[i].Severity] < rank[alerts[j].Severity]
	})
	return alerts
}

// suggestedOrderQty 建议补货量：补足到上限库存（无上限时取2倍下限）
func suggestedOrderQty(p *entity.ProjectedInventory) int {
	target := p.MinimumStock * 2
	if p.MaximumStock != nil {
		target = *p.MaximumStock
	}
	qty := target - (p.CurrentStock + p.PendingQty)
	if qty < 0 {
		qty = 0
	}
	return qty
}

// AssessShortageRisk 短缺风险分级，按序评估，首个命中生效
func AssessShortageRisk(currentStock, netAvailable, minimumStock int, daysOfSupply *float64) string {
	switch {
	case currentStock <= 0:
		return entity.RiskCritical
	case currentStock <= minimumStock:
		return entity.RiskHigh
	case netAvailable <= minimumStock:
		return entity.RiskHigh
	case daysOfSupply != nil && *daysOfSupply < 14:
		return entity.RiskHigh
	case daysOfSupply != nil && *daysOfSupply < 30:
		return entity.RiskMedium
	default:
		return entity.RiskLow
	}
}

// pendingPosition 在途量汇总与最早到货日。cutoff非空时只计该日前到货的订单。
func pendingPosition(orders []*entity.PendingOrder, cutoff *time.Time) (int, *time.Time) {
	qty := 0
	var earliest *time.Time
	for _, o := range orders {
		if cutoff != nil {
			if o.EstimatedDeliveryDate == nil || o.EstimatedDeliveryDate.After(*cutoff) {
				continue
			}
		}
		qty += o.Qty
		if o.EstimatedDeliveryDate != nil {
			if earliest == nil || o.EstimatedDeliveryDate.Before(*earliest) {
				earliest = o.EstimatedDeliveryDate
			}
		}
	}
	return qty, earliest
}

// allocatedQuantity 占用量：引用该零件的BOM行 × 截止日前的预测台数
func allocatedQuantity(partID string, bomLines []entity.BOMLine, forecasts []entity.Forecast, until time.Time) int {
	total := 0.0
	for i := range bomLines {
		line := &bomLines[i]
		if line.PartID != partID {
			continue
		}
		for j := range forecasts {
			f := &forecasts[j]
			if f.SystemSN == line.ProductID && !f.InstallationDate.After(until) {
				total += line.Quantity * float64(f.Units)
			}
		}
	}
	return int(total)
}

// daysOfSupply 可用天数 = 净可用量 / 日均需求（年化BOM加权预测 ÷ 365）。
// 无需求信号返回nil。
func (s *InventoryService) daysOfSupply(partID string, available int, snap *invSnapshot, now time.Time) *float64 {
	if available <= 0 {
		zero := 0.0
		return &zero
	}

	hasBOM := false
	annual := 0.0
	for i := range snap.bomLines {
		line := &snap.bomLines[i]
		if line.PartID != partID {
			continue
		}
		hasBOM = true
		for j := range snap.forecasts {
			f := &snap.forecasts[j]
			if f.SystemSN == line.ProductID {
				annual += line.Quantity * float64(f.Units)
			}
		}
	}
	if !hasBOM || annual == 0 {
		return nil
	}
	days := float64(available) / (annual / 365.0)
	return &days
}
