package service

import (
	"testing"

	"github.com/KNT-AJ/SupplyXplorer/internal/config"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"go.uber.org/zap"
)

func newTestInventoryService() *InventoryService {
	cfg := &config.PlanningConfig{LookaheadDays: 90}
	return NewInventoryService(nil, cfg, nil, zap.NewNop())
}

func TestAssessShortageRisk(t *testing.T) {
	dos := func(f float64) *float64 { return &f }

	tests := []struct {
		name         string
		currentStock int
		netAvailable int
		minimumStock int
		daysOfSupply *float64
		want         string
	}{
		{"zero stock is always critical", 0, 500, 10, dos(365), entity.RiskCritical},
		{"negative stock is critical", -5, 0, 0, nil, entity.RiskCritical},
		{"stock at minimum", 10, 100, 10, dos(365), entity.RiskHigh},
		{"net position at minimum", 50, 10, 10, dos(365), entity.RiskHigh},
		{"under two weeks of supply", 50, 40, 10, dos(13), entity.RiskHigh},
		{"under a month of supply", 50, 40, 10, dos(29), entity.RiskMedium},
		{"healthy", 50, 40, 10, dos(120), entity.RiskLow},
		{"healthy without demand signal", 50, 40, 10, nil, entity.RiskLow},
	}
	for _, tt := range tests {
		if got := AssessShortageRisk(tt.currentStock, tt.netAvailable, tt.minimumStock, tt.daysOfSupply); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestBuildAlertsShortage(t *testing.T) {
	projected := []entity.ProjectedInventory{
		{PartID: "A", CurrentStock: 0, MinimumStock: 10},
		{PartID: "B", CurrentStock: 5, MinimumStock: 10},
	}

	alerts := BuildAlerts(projected)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	// zero stock sorts first (high before medium)
	if alerts[0].PartID != "A" || alerts[0].Severity != entity.SeverityHigh {
		t.Errorf("alert 0 = %+v", alerts[0])
	}
	if alerts[0].AlertType != entity.AlertShortage {
		t.Errorf("alert type = %s, want shortage", alerts[0].AlertType)
	}
	// deficit plus the fixed reorder buffer
	if alerts[0].SuggestedOrderQty != 60 {
		t.Errorf("suggested qty = %d, want 60", alerts[0].SuggestedOrderQty)
	}
	if alerts[1].PartID != "B" || alerts[1].Severity != entity.SeverityMedium {
		t.Errorf("alert 1 = %+v", alerts[1])
	}
	if alerts[1].SuggestedOrderQty != 55 {
		t.Errorf("suggested qty = %d, want 55", alerts[1].SuggestedOrderQty)
	}
}

func TestBuildAlertsReorder(t *testing.T) {
	dosNear := 10.0
	dosFar := 20.0
	max := 100
	projected := []entity.ProjectedInventory{
		{PartID: "NEAR", CurrentStock: 20, MinimumStock: 10, DaysOfSupply: &dosNear, MaximumStock: &max, PendingQty: 5},
		{PartID: "FAR", CurrentStock: 20, MinimumStock: 10, DaysOfSupply: &dosFar},
	}

	alerts := BuildAlerts(projected)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	// tighter runway sorts first (medium before low)
	near := alerts[0]
	if near.PartID != "NEAR" || near.AlertType != entity.AlertReorder || near.Severity != entity.SeverityMedium {
		t.Errorf("near alert = %+v", near)
	}
	// top up to the maximum, net of stock on hand and in transit
	if near.SuggestedOrderQty != 75 {
		t.Errorf("suggested qty = %d, want 75", near.SuggestedOrderQty)
	}
	far := alerts[1]
	if far.Severity != entity.SeverityLow {
		t.Errorf("far severity = %s, want low", far.Severity)
	}
	// no maximum: target twice the minimum
	if far.SuggestedOrderQty != 0 {
		t.Errorf("suggested qty = %d, want 0", far.SuggestedOrderQty)
	}
}

func TestBuildAlertsExcess(t *testing.T) {
	max := 50
	projected := []entity.ProjectedInventory{
		{PartID: "X", CurrentStock: 60, MinimumStock: 5, NetAvailable: 80, MaximumStock: &max},
	}

	alerts := BuildAlerts(projected)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.AlertType != entity.AlertExcess || a.Severity != entity.SeverityLow {
		t.Errorf("alert = %+v", a)
	}
	// negative quantity signals an order reduction
	if a.SuggestedOrderQty != -30 {
		t.Errorf("suggested qty = %d, want -30", a.SuggestedOrderQty)
	}
}

func TestBuildAlertsHealthyStockSilent(t *testing.T) {
	dos := 120.0
	projected := []entity.ProjectedInventory{
		{PartID: "OK", CurrentStock: 100, MinimumStock: 10, NetAvailable: 90, DaysOfSupply: &dos},
	}
	if alerts := BuildAlerts(projected); len(alerts) != 0 {
		t.Fatalf("healthy stock should raise no alerts, got %d", len(alerts))
	}
}

func TestPendingPosition(t *testing.T) {
	etaEarly := day("2026-02-01")
	etaLate := day("2026-06-01")
	orders := []*entity.PendingOrder{
		{Qty: 10, EstimatedDeliveryDate: &etaLate},
		{Qty: 20, EstimatedDeliveryDate: &etaEarly},
		{Qty: 5}, // no ETA
	}

	qty, earliest := pendingPosition(orders, nil)
	if qty != 35 {
		t.Errorf("total qty = %d, want 35", qty)
	}
	if earliest == nil || !earliest.Equal(etaEarly) {
		t.Errorf("earliest = %v, want %s", earliest, etaEarly.Format("2006-01-02"))
	}

	// cutoff keeps only confirmed arrivals on or before the date
	cutoff := day("2026-03-01")
	qty, _ = pendingPosition(orders, &cutoff)
	if qty != 20 {
		t.Errorf("qty before cutoff = %d, want 20", qty)
	}
}

func TestAllocatedQuantity(t *testing.T) {
	bomLines := []entity.BOMLine{
		{ProductID: "SYS-A", PartID: "VLV-100", Quantity: 2},
		{ProductID: "SYS-B", PartID: "VLV-100", Quantity: 1},
		{ProductID: "SYS-A", PartID: "FLG-200", Quantity: 4},
	}
	forecasts := []entity.Forecast{
		{SystemSN: "SYS-A", InstallationDate: day("2026-02-01"), Units: 10},
		{SystemSN: "SYS-B", InstallationDate: day("2026-03-01"), Units: 5},
		{SystemSN: "SYS-A", InstallationDate: day("2026-09-01"), Units: 100}, // beyond cutoff
	}

	got := allocatedQuantity("VLV-100", bomLines, forecasts, day("2026-06-01"))
	if got != 25 { // 10*2 + 5*1
		t.Errorf("allocated = %d, want 25", got)
	}
	if got := allocatedQuantity("FLG-200", bomLines, forecasts, day("2026-06-01")); got != 40 {
		t.Errorf("allocated = %d, want 40", got)
	}
	if got := allocatedQuantity("NONE", bomLines, forecasts, day("2026-06-01")); got != 0 {
		t.Errorf("allocated = %d, want 0", got)
	}
}

func TestDaysOfSupply(t *testing.T) {
	svc := newTestInventoryService()
	now := day("2026-01-01")
	snap := &invSnapshot{
		bomLines: []entity.BOMLine{
			{ProductID: "SYS-A", PartID: "VLV-100", Quantity: 1},
		},
		forecasts: []entity.Forecast{
			{SystemSN: "SYS-A", InstallationDate: day("2026-06-01"), Units: 365},
		},
	}

	// annual demand 365 -> one unit per day
	dos := svc.daysOfSupply("VLV-100", 10, snap, now)
	if dos == nil || *dos != 10.0 {
		t.Fatalf("days of supply = %v, want 10", dos)
	}

	// nothing available always reports zero runway
	dos = svc.daysOfSupply("VLV-100", 0, snap, now)
	if dos == nil || *dos != 0.0 {
		t.Fatalf("days of supply = %v, want 0", dos)
	}

	// no BOM reference: no demand signal
	if dos := svc.daysOfSupply("UNKNOWN", 10, snap, now); dos != nil {
		t.Fatalf("days of supply = %v, want nil", dos)
	}

	// BOM exists but no forecast demand
	snap.forecasts = nil
	if dos := svc.daysOfSupply("VLV-100", 10, snap, now); dos != nil {
		t.Fatalf("days of supply = %v, want nil", dos)
	}
}

func TestSuggestedOrderQty(t *testing.T) {
	max := 100
	p := &entity.ProjectedInventory{MinimumStock: 10, CurrentStock: 20, PendingQty: 5, MaximumStock: &max}
	if got := suggestedOrderQty(p); got != 75 {
		t.Errorf("qty = %d, want 75", got)
	}

	// no maximum: target twice the minimum stock
	p = &entity.ProjectedInventory{MinimumStock: 10, CurrentStock: 5}
	if got := suggestedOrderQty(p); got != 15 {
		t.Errorf("qty = %d, want 15", got)
	}

	// already above target clamps at zero
	p = &entity.ProjectedInventory{MinimumStock: 10, CurrentStock: 50}
	if got := suggestedOrderQty(p); got != 0 {
		t.Errorf("qty = %d, want 0", got)
	}
}
