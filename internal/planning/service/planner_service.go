package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/KNT-AJ/SupplyXplorer/internal/config"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	planCacheKey = "plan:latest"
	planCacheTTL = 24 * time.Hour
)

// PeriodSequence 按期间递增的PO序号发生器。显式注入，
// 避免跨运行的隐藏全局状态。
type PeriodSequence struct {
	mu   sync.Mutex
	next map[string]int
}

func NewPeriodSequence() *PeriodSequence {
	return &PeriodSequence{next: make(map[string]int)}
}

// Next 返回该期间的下一个序号（从1开始）
func (s *PeriodSequence) Next(period string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[period]++
	return s.next[period]
}

// DemandRow 零件级毛需求行：(零件, 需求日期) → 数量
type DemandRow struct {
	PartID string
	Date   time.Time
	Qty    float64
}

// planInputs 一次规划运行的全量只读快照
type planInputs struct {
	forecasts []entity.Forecast
	bomLines  []entity.BOMLine
	inventory []entity.Inventory
	pending   []entity.PendingOrder
	quotes    []entity.ShippingQuote
	parts     []entity.Part
	suppliers []entity.Supplier
}

// PlannerService 规划引擎：需求展开、分期净算、下单排程、
// 供应商合并、现金流投影
type PlannerService struct {
	repos    *repository.Repositories
	cfg      *config.Config
	tariff   *TariffService
	matching *MatchingService
	logger   *zap.Logger
	seq      *PeriodSequence
	cache    *redis.Client
}

func NewPlannerService(repos *repository.Repositories, cfg *config.Config, tariff *TariffService, matching *MatchingService, logger *zap.Logger) *PlannerService {
	return &PlannerService{
		repos:    repos,
		cfg:      cfg,
		tariff:   tariff,
		matching: matching,
		logger:   logger,
		seq:      NewPeriodSequence(),
	}
}

// SetCache 注入结果缓存（可选）
func (s *PlannerService) SetCache(client *redis.Client) {
	s.cache = client
}

// RunPlan 执行一次完整规划。所有输入在调用时快照，
// 派生结果全部在内存计算后返回。
func (s *PlannerService) RunPlan(ctx context.Context, start, end time.Time) (*entity.PlanResult, error) {
	in, err := s.loadInputs(ctx, start, end)
	if err != nil {
		return nil, err
	}

	result := s.buildPlan(in, start, end, time.Now())

	s.cachePlan(ctx, result)

	s.logger.Info("planning run completed",
		zap.String("run_id", result.RunID),
		zap.Int("order_schedules", len(result.OrderSchedules)),
		zap.Int("supplier_orders", len(result.SupplierOrders)))
	return result, nil
}

func (s *PlannerService) loadInputs(ctx context.Context, start, end time.Time) (planInputs, error) {
	var in planInputs
	var err error

	if in.forecasts, err = s.repos.Forecast.FindInRange(ctx, start, end); err != nil {
		return in, fmt.Errorf("failed to load forecasts: %w", err)
	}
	if in.bomLines, err = s.repos.BOM.FindAll(ctx); err != nil {
		return in, fmt.Errorf("failed to load bom lines: %w", err)
	}
	if in.inventory, err = s.repos.Inventory.FindAll(ctx); err != nil {
		return in, fmt.Errorf("failed to load inventory: %w", err)
	}
	if in.pending, err = s.repos.Order.FindIncoming(ctx); err != nil {
		return in, fmt.Errorf("failed to load pending orders: %w", err)
	}
	if in.quotes, err = s.repos.Quote.FindActive(ctx); err != nil {
		return in, fmt.Errorf("failed to load shipping quotes: %w", err)
	}
	if in.parts, err = s.repos.Part.FindAll(ctx); err != nil {
		return in, fmt.Errorf("failed to load parts: %w", err)
	}
	if in.suppliers, err = s.repos.Part.FindSuppliers(ctx); err != nil {
		return in, fmt.Errorf("failed to load suppliers: %w", err)
	}
	return in, nil
}

// buildPlan 纯内存规划：输入快照 → 完整结果
func (s *PlannerService) buildPlan(in planInputs, start, end, now time.Time) *entity.PlanResult {
	demand := ExplodeDemand(in.forecasts, in.bomLines, s.cfg.Planning.SingleProductFallback)
	schedules := s.buildSchedule(demand, in, now)
	supplierOrders := AggregateBySupplier(schedules, now)
	cashFlow := BuildCashFlow(schedules, start, end)
	metrics := CalculateMetrics(schedules)

	return &entity.PlanResult{
		RunID:          uuid.New().String(),
		StartDate:      start,
		EndDate:        end,
		GeneratedAt:    now,
		OrderSchedules: schedules,
		SupplierOrders: supplierOrders,
		CashFlow:       cashFlow,
		Metrics:        metrics,
	}
}

// ExplodeDemand 需求展开：预测台数 × BOM单台用量 → 零件级毛需求。
// 同(零件, 日期)的需求合并求和，输出按日期、零件号排序。
// singleProductFallback 开启且预测的产品在BOM中无精确匹配时，
// 若BOM只含唯一产品，则以该产品的BOM行兜底。
func ExplodeDemand(forecasts []entity.Forecast, bomLines []entity.BOMLine, singleProductFallback bool) []DemandRow {
	byProduct := make(map[string][]*entity.BOMLine)
	productSet := make(map[string]struct{})
	for i := range bomLines {
		line := &bomLines[i]
		byProduct[line.ProductID] = append(byProduct[line.ProductID], line)
		productSet[line.ProductID] = struct{}{}
	}

	var fallbackProduct string
	if singleProductFallback && len(productSet) == 1 {
		for pid := range productSet {
			fallbackProduct = pid
		}
	}

	type key struct {
		partID string
		date   time.Time
	}
	agg := make(map[key]float64)
	for i := range forecasts {
		f := &forecasts[i]
		lines := byProduct[f.SystemSN]
		if len(lines) == 0 && fallbackProduct != "" {
			lines = byProduct[fallbackProduct]
		}
		for _, line := range lines {
			k := key{partID: line.PartID, date: f.InstallationDate}
			agg[k] += float64(f.Units) * line.Quantity
		}
	}

	rows := make([]DemandRow, 0, len(agg))
	for k, qty := range agg {
		rows = append(rows, DemandRow{PartID: k.partID, Date: k.date, Qty: qty})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		return rows[i].PartID < rows[j].PartID
	})
	return rows
}

// buildSchedule 分期净算与下单排程
func (s *PlannerService) buildSchedule(demand []DemandRow, in planInputs, now time.Time) []entity.OrderScheduleEntry {
	invByPart := make(map[string]*entity.Inventory, len(in.inventory))
	for i := range in.inventory {
		invByPart[in.inventory[i].PartID] = &in.inventory[i]
	}
	partByID := make(map[string]*entity.Part, len(in.parts))
	for i := range in.parts {
		partByID[in.parts[i].PartID] = &in.parts[i]
	}
	supplierByID := make(map[string]*entity.Supplier, len(in.suppliers))
	for i := range in.suppliers {
		supplierByID[in.suppliers[i].SupplierID] = &in.suppliers[i]
	}
	bomByPart := make(map[string]*entity.BOMLine)
	for i := range in.bomLines {
		line := &in.bomLines[i]
		if _, exists := bomByPart[line.PartID]; !exists {
			bomByPart[line.PartID] = line
		}
	}
	pendingByPart := s.groupPendingByPart(in.pending, in.inventory)

	demandByPart := make(map[string][]DemandRow)
	partOrder := []string{}
	for _, row := range demand {
		if _, seen := demandByPart[row.PartID]; !seen {
			partOrder = append(partOrder, row.PartID)
		}
		demandByPart[row.PartID] = append(demandByPart[row.PartID], row)
	}
	sort.Strings(partOrder)

	schedules := []entity.OrderScheduleEntry{}
	for _, partID := range partOrder {
		rows := demandByPart[partID]
		bomLine := bomByPart[partID]
		part := partByID[partID]
		inv := invByPart[partID]

		// 安全库存 = max(平均需求 × 安全库存比例, 最低库存)
		total := 0.0
		for _, r := range rows {
			total += r.Qty
		}
		avgDemand := total / float64(len(rows))
		safetyPct := s.cfg.Planning.DefaultSafetyStockPct
		if part != nil {
			safetyPct = part.SafetyStockPct
		}
		safetyStock := avgDemand * safetyPct
		minStock := 0.0
		running := 0.0
		if inv != nil {
			minStock = float64(inv.MinimumStock)
			running = float64(inv.CurrentStock)
		}
		if minStock > safetyStock {
			safetyStock = minStock
		}

		pending := pendingByPart[partID]
		pendingIdx := 0

		for _, row := range rows {
			// 需求日前可到货的在途量先入账
			for pendingIdx < len(pending) {
				p := pending[pendingIdx]
				if p.EstimatedDeliveryDate == nil || p.EstimatedDeliveryDate.After(row.Date) {
					break
				}
				running += float64(p.Qty)
				pendingIdx++
			}

			available := running - safetyStock
			if available < 0 {
				available = 0
			}
			var net float64
			if row.Qty > available {
				net = row.Qty - available
			}
			running -= row.Qty
			if running < 0 {
				running = 0
			}
			if net <= 0 {
				continue
			}

			orderQty := net
			if running+orderQty < safetyStock {
				orderQty += safetyStock - (running + orderQty)
			}
			running += orderQty

			schedules = append(schedules, s.buildEntry(partID, row.Date, int(math.Ceil(orderQty)), bomLine, part, inv, supplierByID, in.quotes, now))
		}
	}
	return schedules
}

// buildEntry 为单笔净需求生成下单建议行并完成成本拆分
func (s *PlannerService) buildEntry(partID string, needDate time.Time, qty int, bomLine *entity.BOMLine, part *entity.Part, inv *entity.Inventory, supplierByID map[string]*entity.Supplier, quotes []entity.ShippingQuote, now time.Time) entity.OrderScheduleEntry {
	planCfg := &s.cfg.Planning

	mfgLead := planCfg.DefaultLeadTimeDays
	shipLead := 0
	apTerms := planCfg.DefaultAPTermsDays
	unitCost := 0.0
	shippingPerUnit := 0.0
	partName := partID
	var supplierID, supplierName *string
	var preferredMode *string
	subjectToTariffs := false
	country := ""
	hts := ""

	if part != nil {
		partName = part.PartName
		unitCost = part.UnitCost
	}
	if bomLine != nil {
		if bomLine.PartName != "" {
			partName = bomLine.PartName
		}
		if bomLine.UnitCost > 0 {
			unitCost = bomLine.UnitCost
		}
		if bomLine.ManufacturingLeadTime != nil {
			mfgLead = *bomLine.ManufacturingLeadTime
		}
		if bomLine.ShippingLeadTime != nil {
			shipLead = *bomLine.ShippingLeadTime
		}
		if bomLine.APTerms != nil {
			apTerms = *bomLine.APTerms
		} else if bomLine.SupplierID != nil {
			if sup, ok := supplierByID[*bomLine.SupplierID]; ok {
				apTerms = sup.APTermsDays
			}
		}
		if bomLine.ShippingCost != nil {
			shippingPerUnit = *bomLine.ShippingCost
		}
		supplierID = bomLine.SupplierID
		supplierName = bomLine.SupplierName
		preferredMode = bomLine.ShippingMode
		subjectToTariffs = bomLine.SubjectToTariffs
		country = derefStr(bomLine.CountryOfOrigin)
		hts = derefStr(bomLine.HTSCode)
	}

	// 有效运输报价可覆盖运输周期与每件运费
	if quote := SelectQuote(quotes, preferredMode); quote != nil {
		if days := quoteTransitDays(quote); days > 0 {
			shipLead = days
		}
		if perUnit, ok := quoteCostPerUnit(quote, bomLine, qty); ok {
			shippingPerUnit = perUnit
		}
	}

	// 关税口径：标记应税时取原产地与HTS（缺省回退配置值），否则按境内免税处理
	if subjectToTariffs {
		if country == "" {
			country = s.tariff.DefaultOrigin()
		}
		if hts == "" {
			hts = s.tariff.DefaultHTSCode()
		}
	} else {
		country = "USA"
		hts = ""
	}

	orderDate := needDate.AddDate(0, 0, -(mfgLead + shipLead))
	paymentDate := orderDate.AddDate(0, 0, apTerms)

	cost := s.tariff.CalculateLandedCost(unitCost, qty, country, shippingPerUnit, hts, s.tariff.DefaultImporting())

	period := orderDate.Format("20060102")
	poNumber := fmt.Sprintf("PO-%s-%03d", period, s.seq.Next(period))

	return entity.OrderScheduleEntry{
		PartID:               partID,
		PartName:             partName,
		PartDescription:      partName,
		SupplierID:           supplierID,
		SupplierName:         supplierName,
		PONumber:             poNumber,
		NeedDate:             needDate,
		OrderDate:            orderDate,
		PaymentDate:          paymentDate,
		Qty:                  qty,
		UnitCost:             unitCost,
		BaseCost:             cost.BaseCost,
		ShippingCost:         cost.ShippingCost,
		TariffRate:           cost.TariffRate,
		TariffAmount:         cost.TariffAmount,
		TotalCost:            cost.TotalCost,
		TotalCostSansTariffs: cost.TotalWithoutTariff,
		CountryOfOrigin:      country,
		HTSCode:              hts,
		SubjectToTariffs:     subjectToTariffs,
		Status:               "planned",
		DaysUntilOrder:       daysBetween(now, orderDate),
		DaysUntilPayment:     daysBetween(now, paymentDate),
	}
}

// groupPendingByPart 将在途订单按规范零件号分组，按到货日升序。
// 已持久化的映射优先，否则做一次无副作用匹配。
func (s *PlannerService) groupPendingByPart(pending []entity.PendingOrder, inventory []entity.Inventory) map[string][]*entity.PendingOrder {
	idx := NewInventoryIndex(inventory)
	grouped := make(map[string][]*entity.PendingOrder)
	for i := range pending {
		order := &pending[i]
		if !order.Incoming() {
			continue
		}
		partID, _ := s.matching.ResolvePartID(order, idx)
		if partID == "" {
			continue
		}
		grouped[partID] = append(grouped[partID], order)
	}
	for _, orders := range grouped {
		sort.Slice(orders, func(i, j int) bool {
			a, b := orders[i].EstimatedDeliveryDate, orders[j].EstimatedDeliveryDate
			if a == nil {
				return false
			}
			if b == nil {
				return true
			}
			return a.Before(*b)
		})
	}
	return grouped
}

// SelectQuote 运输报价排序选择：方式匹配优先，其次创建时间最新
func SelectQuote(quotes []entity.ShippingQuote, preferredMode *string) *entity.ShippingQuote {
	var best *entity.ShippingQuote
	bestRank := -1
	for i := range quotes {
		q := &quotes[i]
		if !q.IsActive {
			continue
		}
		rank := 0
		if preferredMode != nil && q.Mode != nil && *q.Mode == *preferredMode {
			rank = 1
		}
		if best == nil || rank > bestRank || (rank == bestRank && q.CreatedAt.After(best.CreatedAt)) {
			best = q
			bestRank = rank
		}
	}
	return best
}

// quoteTransitDays 报价运输天数：优先明示值，否则区间中值
func quoteTransitDays(q *entity.ShippingQuote) int {
	if q.TransitDays != nil {
		return *q.TransitDays
	}
	if q.TransitDaysMin != nil && q.TransitDaysMax != nil {
		return (*q.TransitDaysMin + *q.TransitDaysMax) / 2
	}
	return 0
}

// quoteCostPerUnit 按报价计算每件运费：计费重量取 kg/cbm 口径较高者，
// 加燃油附加，整票不低于最低收费，再摊固定费用。
// BOM行缺少重量/体积数据时返回false，沿用BOM行运费。
func quoteCostPerUnit(q *entity.ShippingQuote, bomLine *entity.BOMLine, qty int) (float64, bool) {
	if bomLine == nil || qty <= 0 {
		return 0, false
	}
	perUnit := 0.0
	priced := false
	if q.CostPerKg != nil && bomLine.UnitWeightKg != nil {
		perUnit = *q.CostPerKg * *bomLine.UnitWeightKg
		priced = true
	}
	if q.CostPerCBM != nil && bomLine.UnitVolumeCBM != nil {
		if byVolume := *q.CostPerCBM * *bomLine.UnitVolumeCBM; byVolume > perUnit {
			perUnit = byVolume
		}
		priced = true
	}
	if !priced {
		return 0, false
	}
	if q.FuelSurchargePct != nil {
		perUnit *= 1 + *q.FuelSurchargePct/100
	}
	total := perUnit * float64(qty)
	if q.MinCharge != nil && total < *q.MinCharge {
		total = *q.MinCharge
	}
	for _, fee := range []*float64{q.SecurityFee, q.HandlingFee, q.OtherFees} {
		if fee != nil {
			total += *fee
		}
	}
	return total / float64(qty), true
}

// AggregateBySupplier 按(供应商, 下单日期)合并下单建议。
// 付款日取组内最晚，输出按下单日期升序。
func AggregateBySupplier(schedules []entity.OrderScheduleEntry, now time.Time) []entity.SupplierOrderSummary {
	type key struct {
		supplier string
		date     time.Time
	}
	groups := make(map[key]*entity.SupplierOrderSummary)
	order := []key{}

	for i := range schedules {
		e := &schedules[i]
		supplierKey := "UNKNOWN"
		if e.SupplierID != nil && *e.SupplierID != "" {
			supplierKey = *e.SupplierID
		} else if e.SupplierName != nil && *e.SupplierName != "" {
			supplierKey = *e.SupplierName
		}
		k := key{supplier: supplierKey, date: e.OrderDate}

		g, exists := groups[k]
		if !exists {
			name := supplierKey
			if e.SupplierName != nil && *e.SupplierName != "" {
				name = *e.SupplierName
			}
			g = &entity.SupplierOrderSummary{
				SupplierID:   e.SupplierID,
				SupplierName: name,
				OrderDate:    e.OrderDate,
				PaymentDate:  e.PaymentDate,
			}
			groups[k] = g
			order = append(order, k)
		}
		g.TotalParts++
		g.TotalCost += e.TotalCost
		g.TariffAmount += e.TariffAmount
		g.ShippingCost += e.ShippingCost
		g.Parts = append(g.Parts, e.PartID)
		if e.PaymentDate.After(g.PaymentDate) {
			g.PaymentDate = e.PaymentDate
		}
	}

	summaries := make([]entity.SupplierOrderSummary, 0, len(groups))
	for _, k := range order {
		g := groups[k]
		g.DaysUntilOrder = daysBetween(now, g.OrderDate)
		g.DaysUntilPayment = daysBetween(now, g.PaymentDate)
		summaries = append(summaries, *g)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].OrderDate.Equal(summaries[j].OrderDate) {
			return summaries[i].OrderDate.Before(summaries[j].OrderDate)
		}
		return summaries[i].SupplierName < summaries[j].SupplierName
	})
	return summaries
}

// BuildCashFlow 按付款日汇总现金流出并计算累计净流
func BuildCashFlow(schedules []entity.OrderScheduleEntry, start, end time.Time) []entity.CashFlowPoint {
	outflows := make(map[time.Time]float64)
	for i := range schedules {
		outflows[schedules[i].PaymentDate] += schedules[i].TotalCost
	}

	dates := make([]time.Time, 0, len(outflows))
	for d := range outflows {
		if d.Before(start) || d.After(end) {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	points := make([]entity.CashFlowPoint, 0, len(dates))
	cumulative := 0.0
	for _, d := range dates {
		outflow := outflows[d]
		net := -outflow // 回款占位恒为0
		cumulative += net
		points = append(points, entity.CashFlowPoint{
			Date:               d,
			TotalOutflow:       outflow,
			TotalInflow:        0,
			NetCashFlow:        net,
			CumulativeCashFlow: cumulative,
		})
	}
	return points
}

// CalculateMetrics 规划关键指标
func CalculateMetrics(schedules []entity.OrderScheduleEntry) entity.KeyMetrics {
	m := entity.KeyMetrics{}
	parts := make(map[string]struct{})
	suppliers := make(map[string]struct{})

	for i := range schedules {
		e := &schedules[i]
		if e.DaysUntilOrder >= 0 && e.DaysUntilOrder <= 30 {
			m.OrdersNext30d++
		}
		if e.DaysUntilOrder >= 0 && e.DaysUntilOrder <= 60 {
			m.OrdersNext60d++
		}
		if e.DaysUntilPayment >= 0 && e.DaysUntilPayment <= 90 {
			m.CashOut90d += e.TotalCost
			m.TariffSpend90d += e.TariffAmount
		}
		if e.TotalCost > m.LargestPurchase {
			m.LargestPurchase = e.TotalCost
		}
		parts[e.PartID] = struct{}{}
		if e.SupplierID != nil && *e.SupplierID != "" {
			suppliers[*e.SupplierID] = struct{}{}
		} else if e.SupplierName != nil && *e.SupplierName != "" {
			suppliers[*e.SupplierName] = struct{}{}
		}
	}
	m.TotalParts = len(parts)
	m.TotalSuppliers = len(suppliers)
	return m
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// cachePlan 缓存最近一次规划结果（尽力而为，失败仅告警）
func (s *PlannerService) cachePlan(ctx context.Context, result *entity.PlanResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("failed to marshal plan result for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, planCacheKey, data, planCacheTTL).Err(); err != nil {
		s.logger.Warn("failed to cache plan result", zap.Error(err))
	}
}

// GetLastPlan 读取最近一次规划结果缓存
func (s *PlannerService) GetLastPlan(ctx context.Context) (*entity.PlanResult, error) {
	if s.cache == nil {
		return nil, repository.ErrNotFound
	}
	data, err := s.cache.Get(ctx, planCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cached plan: %w", err)
	}
	var result entity.PlanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached plan: %w", err)
	}
	return &result, nil
}
