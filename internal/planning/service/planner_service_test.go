package service

import (
	"strings"
	"testing"
	"time"

	"github.com/KNT-AJ/SupplyXplorer/internal/config"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"go.uber.org/zap"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func floatPtr(f float64) *float64 { return &f }

func newTestPlanner() *PlannerService {
	logger := zap.NewNop()
	cfg := &config.Config{
		Planning: config.PlanningConfig{
			DefaultLeadTimeDays:    30,
			DefaultAPTermsDays:     30,
			DefaultSafetyStockPct:  0.1,
			SupplierMatchThreshold: 90,
			GlobalMatchThreshold:   75,
			AliasLearnThreshold:    90,
			LookaheadDays:          90,
		},
		Tariff: config.TariffConfig{
			DefaultImportingCountry: "USA",
			DefaultOriginCountry:    "China",
			DefaultHTSCode:          "7307.29.0090",
		},
	}
	tariff := NewTariffService(&cfg.Tariff, logger)
	matching := NewMatchingService(nil, &cfg.Planning, logger, NewTokenSetMatcher())
	return NewPlannerService(nil, cfg, tariff, matching, logger)
}

func baseInputs() planInputs {
	return planInputs{
		forecasts: []entity.Forecast{
			{SystemSN: "SYS-A", InstallationDate: day("2026-04-10"), Units: 50},
		},
		bomLines: []entity.BOMLine{
			{
				ProductID:             "SYS-A",
				PartID:                "VLV-100",
				PartName:              "Ball Valve",
				Quantity:              2,
				UnitCost:              10,
				SupplierID:            strPtr("SUP-1"),
				SupplierName:          strPtr("Acme Corp"),
				ManufacturingLeadTime: intPtr(10),
				ShippingLeadTime:      intPtr(5),
				APTerms:               intPtr(30),
			},
		},
		inventory: []entity.Inventory{
			{PartID: "VLV-100", PartName: "Ball Valve", CurrentStock: 0},
		},
		parts: []entity.Part{
			{PartID: "VLV-100", PartName: "Ball Valve", UnitCost: 10, SafetyStockPct: 0},
		},
	}
}

func TestBuildPlanSingleOrder(t *testing.T) {
	svc := newTestPlanner()
	now := day("2026-01-01")

	result := svc.buildPlan(baseInputs(), day("2026-01-01"), day("2026-12-31"), now)

	if len(result.OrderSchedules) != 1 {
		t.Fatalf("expected 1 schedule entry, got %d", len(result.OrderSchedules))
	}
	e := result.OrderSchedules[0]
	if e.PartID != "VLV-100" {
		t.Errorf("part = %s, want VLV-100", e.PartID)
	}
	// 50 units x 2 per unit, no stock, no safety stock
	if e.Qty != 100 {
		t.Errorf("qty = %d, want 100", e.Qty)
	}
	// order date = need date - (manufacturing + shipping lead)
	if !e.OrderDate.Equal(day("2026-03-26")) {
		t.Errorf("order date = %s, want 2026-03-26", e.OrderDate.Format("2006-01-02"))
	}
	// payment date = order date + AP terms
	if !e.PaymentDate.Equal(day("2026-04-25")) {
		t.Errorf("payment date = %s, want 2026-04-25", e.PaymentDate.Format("2006-01-02"))
	}
	if e.BaseCost != 1000.0 {
		t.Errorf("base cost = %v, want 1000", e.BaseCost)
	}
	// not subject to tariffs: no duty regardless of config defaults
	if e.TariffAmount != 0 {
		t.Errorf("tariff amount = %v, want 0", e.TariffAmount)
	}
	if !strings.HasPrefix(e.PONumber, "PO-20260326-") {
		t.Errorf("po number = %s, want PO-20260326-NNN", e.PONumber)
	}

	if len(result.SupplierOrders) != 1 {
		t.Fatalf("expected 1 supplier summary, got %d", len(result.SupplierOrders))
	}
	if len(result.CashFlow) != 1 {
		t.Fatalf("expected 1 cash flow point, got %d", len(result.CashFlow))
	}
	if result.CashFlow[0].TotalOutflow != 1000.0 {
		t.Errorf("outflow = %v, want 1000", result.CashFlow[0].TotalOutflow)
	}
}

func TestBuildPlanStockCoversDemand(t *testing.T) {
	svc := newTestPlanner()
	in := baseInputs()
	in.inventory[0].CurrentStock = 120

	result := svc.buildPlan(in, day("2026-01-01"), day("2026-12-31"), day("2026-01-01"))
	if len(result.OrderSchedules) != 0 {
		t.Fatalf("expected no orders with sufficient stock, got %d", len(result.OrderSchedules))
	}
}

func TestBuildPlanSafetyStockTopUp(t *testing.T) {
	svc := newTestPlanner()
	in := baseInputs()
	// Small demand against a high stock floor: order covers demand plus top-up
	in.forecasts[0].Units = 5 // demand = 10
	in.inventory[0].MinimumStock = 30

	result := svc.buildPlan(in, day("2026-01-01"), day("2026-12-31"), day("2026-01-01"))
	if len(result.OrderSchedules) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.OrderSchedules))
	}
	// net 10 + top-up 20 to reach the 30-unit floor
	if qty := result.OrderSchedules[0].Qty; qty != 30 {
		t.Errorf("qty = %d, want 30", qty)
	}
}

func TestBuildPlanPendingOrderCoversDemand(t *testing.T) {
	svc := newTestPlanner()
	in := baseInputs()
	eta := day("2026-04-01")
	in.pending = []entity.PendingOrder{
		{
			PartID:                "ACME VALVE 100",
			SupplierName:          strPtr("Acme Corp"),
			Qty:                   100,
			Status:                entity.OrderStatusOrdered,
			EstimatedDeliveryDate: &eta,
			MappedPartID:          strPtr("VLV-100"),
			MatchConfidence:       intPtr(100),
		},
	}

	result := svc.buildPlan(in, day("2026-01-01"), day("2026-12-31"), day("2026-01-01"))
	if len(result.OrderSchedules) != 0 {
		t.Fatalf("pending arrival should cover demand, got %d entries", len(result.OrderSchedules))
	}
}

func TestBuildPlanPendingAfterNeedDateIgnored(t *testing.T) {
	svc := newTestPlanner()
	in := baseInputs()
	eta := day("2026-05-01") // arrives after the need date
	in.pending = []entity.PendingOrder{
		{
			PartID:                "VLV-100",
			Qty:                   100,
			Status:                entity.OrderStatusPending,
			EstimatedDeliveryDate: &eta,
		},
	}

	result := svc.buildPlan(in, day("2026-01-01"), day("2026-12-31"), day("2026-01-01"))
	if len(result.OrderSchedules) != 1 {
		t.Fatalf("late arrival must not offset demand, got %d entries", len(result.OrderSchedules))
	}
	if qty := result.OrderSchedules[0].Qty; qty != 100 {
		t.Errorf("qty = %d, want 100", qty)
	}
}

func TestBuildPlanTariffLine(t *testing.T) {
	svc := newTestPlanner()
	in := baseInputs()
	in.bomLines[0].SubjectToTariffs = true
	// origin and HTS unset: config defaults apply (China, special HTS)

	result := svc.buildPlan(in, day("2026-01-01"), day("2026-12-31"), day("2026-01-01"))
	if len(result.OrderSchedules) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.OrderSchedules))
	}
	e := result.OrderSchedules[0]
	if e.TariffRate != 30.0 {
		t.Errorf("tariff rate = %v, want 30", e.TariffRate)
	}
	if e.TariffAmount != 300.0 {
		t.Errorf("tariff amount = %v, want 300", e.TariffAmount)
	}
	if e.CountryOfOrigin != "China" || e.HTSCode != "7307.29.0090" {
		t.Errorf("origin/hts = %s/%s, want China/7307.29.0090", e.CountryOfOrigin, e.HTSCode)
	}
}

func TestExplodeDemand(t *testing.T) {
	forecasts := []entity.Forecast{
		{SystemSN: "SYS-A", InstallationDate: day("2026-03-01"), Units: 10},
		{SystemSN: "SYS-A", InstallationDate: day("2026-03-01"), Units: 5},
		{SystemSN: "SYS-A", InstallationDate: day("2026-02-01"), Units: 2},
	}
	bomLines := []entity.BOMLine{
		{ProductID: "SYS-A", PartID: "VLV-100", Quantity: 2},
		{ProductID: "SYS-A", PartID: "FLG-200", Quantity: 0.5},
	}

	rows := ExplodeDemand(forecasts, bomLines, false)
	if len(rows) != 4 {
		t.Fatalf("expected 4 demand rows, got %d", len(rows))
	}
	// sorted by date, then part id
	if rows[0].PartID != "FLG-200" || !rows[0].Date.Equal(day("2026-02-01")) || rows[0].Qty != 1 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].PartID != "VLV-100" || rows[1].Qty != 4 {
		t.Errorf("row 1 = %+v", rows[1])
	}
	// same-day forecasts merge: (10+5) x 2 = 30
	if rows[3].PartID != "VLV-100" || rows[3].Qty != 30 {
		t.Errorf("row 3 = %+v", rows[3])
	}
}

func TestExplodeDemandSingleProductFallback(t *testing.T) {
	forecasts := []entity.Forecast{
		{SystemSN: "UNKNOWN-SKU", InstallationDate: day("2026-03-01"), Units: 10},
	}
	bomLines := []entity.BOMLine{
		{ProductID: "SYS-A", PartID: "VLV-100", Quantity: 2},
	}

	if rows := ExplodeDemand(forecasts, bomLines, false); len(rows) != 0 {
		t.Errorf("fallback disabled: expected no rows, got %d", len(rows))
	}

	rows := ExplodeDemand(forecasts, bomLines, true)
	if len(rows) != 1 || rows[0].Qty != 20 {
		t.Fatalf("fallback enabled: expected single 20-unit row, got %+v", rows)
	}

	// Fallback only applies when the BOM holds exactly one product
	bomLines = append(bomLines, entity.BOMLine{ProductID: "SYS-B", PartID: "FLG-200", Quantity: 1})
	if rows := ExplodeDemand(forecasts, bomLines, true); len(rows) != 0 {
		t.Errorf("ambiguous fallback: expected no rows, got %d", len(rows))
	}
}

func TestAggregateBySupplier(t *testing.T) {
	now := day("2026-01-01")
	sup := strPtr("SUP-1")
	name := strPtr("Acme Corp")
	schedules := []entity.OrderScheduleEntry{
		{PartID: "A", SupplierID: sup, SupplierName: name, OrderDate: day("2026-02-01"), PaymentDate: day("2026-03-01"), TotalCost: 100, TariffAmount: 10},
		{PartID: "B", SupplierID: sup, SupplierName: name, OrderDate: day("2026-02-01"), PaymentDate: day("2026-03-15"), TotalCost: 200, TariffAmount: 20},
		{PartID: "C", OrderDate: day("2026-01-15"), PaymentDate: day("2026-02-15"), TotalCost: 50},
	}

	summaries := AggregateBySupplier(schedules, now)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	// sorted by order date: the unknown-supplier group first
	if summaries[0].SupplierName != "UNKNOWN" {
		t.Errorf("first summary supplier = %s, want UNKNOWN", summaries[0].SupplierName)
	}
	acme := summaries[1]
	if acme.TotalParts != 2 || acme.TotalCost != 300 || acme.TariffAmount != 30 {
		t.Errorf("acme summary = %+v", acme)
	}
	// payment date is the latest in the group
	if !acme.PaymentDate.Equal(day("2026-03-15")) {
		t.Errorf("payment date = %s, want 2026-03-15", acme.PaymentDate.Format("2006-01-02"))
	}
}

func TestBuildCashFlow(t *testing.T) {
	schedules := []entity.OrderScheduleEntry{
		{PaymentDate: day("2026-02-01"), TotalCost: 100},
		{PaymentDate: day("2026-02-01"), TotalCost: 50},
		{PaymentDate: day("2026-03-01"), TotalCost: 200},
		{PaymentDate: day("2027-01-01"), TotalCost: 999}, // outside window
	}

	points := BuildCashFlow(schedules, day("2026-01-01"), day("2026-12-31"))
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].TotalOutflow != 150 || points[0].CumulativeCashFlow != -150 {
		t.Errorf("point 0 = %+v", points[0])
	}
	if points[1].TotalOutflow != 200 || points[1].CumulativeCashFlow != -350 {
		t.Errorf("point 1 = %+v", points[1])
	}
}

func TestCalculateMetrics(t *testing.T) {
	schedules := []entity.OrderScheduleEntry{
		{PartID: "A", SupplierID: strPtr("SUP-1"), DaysUntilOrder: 10, DaysUntilPayment: 40, TotalCost: 100, TariffAmount: 10},
		{PartID: "B", SupplierID: strPtr("SUP-1"), DaysUntilOrder: 45, DaysUntilPayment: 75, TotalCost: 500, TariffAmount: 0},
		{PartID: "A", SupplierID: strPtr("SUP-2"), DaysUntilOrder: -5, DaysUntilPayment: 120, TotalCost: 50, TariffAmount: 5},
	}

	m := CalculateMetrics(schedules)
	if m.OrdersNext30d != 1 {
		t.Errorf("orders 30d = %d, want 1", m.OrdersNext30d)
	}
	if m.OrdersNext60d != 2 {
		t.Errorf("orders 60d = %d, want 2", m.OrdersNext60d)
	}
	if m.CashOut90d != 600 {
		t.Errorf("cash out 90d = %v, want 600", m.CashOut90d)
	}
	if m.TariffSpend90d != 10 {
		t.Errorf("tariff spend 90d = %v, want 10", m.TariffSpend90d)
	}
	if m.LargestPurchase != 500 {
		t.Errorf("largest = %v, want 500", m.LargestPurchase)
	}
	if m.TotalParts != 2 || m.TotalSuppliers != 2 {
		t.Errorf("distinct parts/suppliers = %d/%d, want 2/2", m.TotalParts, m.TotalSuppliers)
	}
}

func TestSelectQuote(t *testing.T) {
	air := strPtr("air")
	sea := strPtr("sea")
	quotes := []entity.ShippingQuote{
		{ID: 1, Mode: sea, IsActive: true, CreatedAt: day("2026-01-01")},
		{ID: 2, Mode: air, IsActive: true, CreatedAt: day("2025-06-01")},
		{ID: 3, Mode: air, IsActive: false, CreatedAt: day("2026-02-01")},
	}

	// Mode match wins over recency; inactive quotes never selected
	if q := SelectQuote(quotes, air); q == nil || q.ID != 2 {
		t.Errorf("expected quote 2 for air preference, got %+v", q)
	}
	// Without preference the newest active quote wins
	if q := SelectQuote(quotes, nil); q == nil || q.ID != 1 {
		t.Errorf("expected quote 1 without preference, got %+v", q)
	}
	if q := SelectQuote(nil, air); q != nil {
		t.Errorf("expected nil for empty quote list, got %+v", q)
	}
}

func TestQuoteTransitDays(t *testing.T) {
	if d := quoteTransitDays(&entity.ShippingQuote{TransitDays: intPtr(12)}); d != 12 {
		t.Errorf("explicit transit days = %d, want 12", d)
	}
	q := &entity.ShippingQuote{TransitDaysMin: intPtr(10), TransitDaysMax: intPtr(20)}
	if d := quoteTransitDays(q); d != 15 {
		t.Errorf("midpoint transit days = %d, want 15", d)
	}
	if d := quoteTransitDays(&entity.ShippingQuote{}); d != 0 {
		t.Errorf("unspecified transit days = %d, want 0", d)
	}
}

func TestQuoteCostPerUnit(t *testing.T) {
	bomLine := &entity.BOMLine{
		UnitWeightKg:  floatPtr(2.0),
		UnitVolumeCBM: floatPtr(0.01),
	}
	q := &entity.ShippingQuote{
		CostPerKg:        floatPtr(5.0),   // 10/unit by weight
		CostPerCBM:       floatPtr(200.0), // 2/unit by volume
		FuelSurchargePct: floatPtr(10.0),
		HandlingFee:      floatPtr(50.0),
	}

	// chargeable basis is the higher of weight and volume pricing
	perUnit, ok := quoteCostPerUnit(q, bomLine, 100)
	if !ok {
		t.Fatal("expected pricing to succeed")
	}
	// 10 * 1.1 = 11/unit, total 1100 + 50 handling = 1150 -> 11.50/unit
	if !almostEqual(perUnit, 11.50) {
		t.Errorf("per unit = %v, want 11.50", perUnit)
	}

	// minimum charge applies to the shipment total
	qMin := &entity.ShippingQuote{CostPerKg: floatPtr(1.0), MinCharge: floatPtr(500.0)}
	perUnit, ok = quoteCostPerUnit(qMin, bomLine, 10) // 2kg * 10 = 20 < 500
	if !ok || !almostEqual(perUnit, 50.0) {
		t.Errorf("per unit = %v ok=%v, want 50.00", perUnit, ok)
	}

	// no weight or volume data: caller keeps the BOM line shipping cost
	if _, ok := quoteCostPerUnit(q, &entity.BOMLine{}, 100); ok {
		t.Error("expected pricing to fail without weight/volume data")
	}
}

func TestPeriodSequence(t *testing.T) {
	seq := NewPeriodSequence()
	if n := seq.Next("20260101"); n != 1 {
		t.Errorf("first = %d, want 1", n)
	}
	if n := seq.Next("20260101"); n != 2 {
		t.Errorf("second = %d, want 2", n)
	}
	// independent counter per period
	if n := seq.Next("20260102"); n != 1 {
		t.Errorf("new period = %d, want 1", n)
	}
}
