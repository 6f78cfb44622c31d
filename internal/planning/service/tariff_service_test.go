package service

import (
	"math"
	"testing"

	"github.com/KNT-AJ/SupplyXplorer/internal/config"
	"go.uber.org/zap"
)

func newTestTariffService(overrides map[string]float64) *TariffService {
	return NewTariffService(&config.TariffConfig{
		DefaultImportingCountry: "USA",
		DefaultOriginCountry:    "China",
		DefaultHTSCode:          "7307.29.0090",
		RateOverrides:           overrides,
	}, zap.NewNop())
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestResolveRateSpecialCombination(t *testing.T) {
	svc := newTestTariffService(nil)

	base, surcharge, note := svc.ResolveRate("7307.29.0090", "China", "USA")
	if base != 5.0 || surcharge != 25.0 {
		t.Fatalf("expected 5%% + 25%%, got base=%v surcharge=%v", base, surcharge)
	}
	if note == "" {
		t.Error("expected rate note for special HTS combination")
	}

	// Same HTS but different origin falls back to the country table
	base, surcharge, _ = svc.ResolveRate("7307.29.0090", "Japan", "USA")
	if base != 0.0 || surcharge != 0.0 {
		t.Errorf("Japan origin should be duty free, got base=%v surcharge=%v", base, surcharge)
	}

	// China without the special HTS uses the Section 301 country rate
	base, surcharge, _ = svc.ResolveRate("8481.80.1050", "China", "USA")
	if base != 25.0 || surcharge != 0.0 {
		t.Errorf("China country rate should be 25%%, got base=%v surcharge=%v", base, surcharge)
	}
}

func TestGetRate(t *testing.T) {
	svc := newTestTariffService(nil)

	tests := []struct {
		country string
		want    float64
	}{
		{"China", 25.0},
		{"CHINA", 25.0},
		{"china mainland", 25.0}, // partial match
		{"South Korea", 0.0},
		{"south-korea", 0.0},
		{"Brazil", 3.0}, // unknown country falls back to default
		{"", 0.0},
	}
	for _, tt := range tests {
		if got := svc.GetRate(tt.country); got != tt.want {
			t.Errorf("GetRate(%q) = %v, want %v", tt.country, got, tt.want)
		}
	}
}

func TestGetRateOverrides(t *testing.T) {
	svc := newTestTariffService(map[string]float64{
		"Brazil":       10.0,
		"default_rate": 7.5,
	})

	if got := svc.GetRate("Brazil"); got != 10.0 {
		t.Errorf("override rate = %v, want 10.0", got)
	}
	if got := svc.GetRate("Atlantis"); got != 7.5 {
		t.Errorf("default rate override = %v, want 7.5", got)
	}
}

func TestCalculateLandedCost(t *testing.T) {
	svc := newTestTariffService(nil)

	cost := svc.CalculateLandedCost(10.0, 100, "China", 0.5, "7307.29.0090", "USA")
	if !almostEqual(cost.BaseCost, 1000.0) {
		t.Errorf("base cost = %v, want 1000", cost.BaseCost)
	}
	if !almostEqual(cost.ShippingCost, 50.0) {
		t.Errorf("shipping cost = %v, want 50", cost.ShippingCost)
	}
	if !almostEqual(cost.TariffRate, 30.0) {
		t.Errorf("tariff rate = %v, want 30", cost.TariffRate)
	}
	// Duty is assessed on merchandise value only, not freight
	if !almostEqual(cost.TariffAmount, 300.0) {
		t.Errorf("tariff amount = %v, want 300", cost.TariffAmount)
	}
	if !almostEqual(cost.TotalWithoutTariff, 1050.0) {
		t.Errorf("total without tariffs = %v, want 1050", cost.TotalWithoutTariff)
	}
	if !almostEqual(cost.TotalCost, 1350.0) {
		t.Errorf("total cost = %v, want 1350", cost.TotalCost)
	}
}

func TestCalculateLandedCostDomestic(t *testing.T) {
	svc := newTestTariffService(nil)

	cost := svc.CalculateLandedCost(10.0, 100, "USA", 0, "", "USA")
	if cost.TariffAmount != 0 {
		t.Errorf("domestic purchase should carry no tariff, got %v", cost.TariffAmount)
	}
	if !almostEqual(cost.TotalCost, 1000.0) {
		t.Errorf("total cost = %v, want 1000", cost.TotalCost)
	}
}

func TestCalculateDutyDutiableValue(t *testing.T) {
	svc := newTestTariffService(nil)

	// FOB terms: freight and insurance are added to the dutiable value
	res := svc.CalculateDuty(DutyInput{
		InvoiceValue:     10000,
		Incoterm:         "FOB",
		FreightCost:      500,
		InsuranceCost:    100,
		Assists:          200,
		CountryOfOrigin:  "Japan",
		ImportingCountry: "USA",
	})
	if !almostEqual(res.DutiableValue, 10800.0) {
		t.Errorf("FOB dutiable value = %v, want 10800", res.DutiableValue)
	}

	// CIF terms: freight and insurance are already in the invoice value
	res = svc.CalculateDuty(DutyInput{
		InvoiceValue:     10000,
		Incoterm:         "CIF",
		FreightCost:      500,
		InsuranceCost:    100,
		CountryOfOrigin:  "Japan",
		ImportingCountry: "USA",
	})
	if !almostEqual(res.DutiableValue, 10000.0) {
		t.Errorf("CIF dutiable value = %v, want 10000", res.DutiableValue)
	}
}

func TestCalculateDutyFXRate(t *testing.T) {
	svc := newTestTariffService(nil)

	res := svc.CalculateDuty(DutyInput{
		InvoiceValue:     70000, // RMB
		FXRate:           0.14,
		CountryOfOrigin:  "Japan",
		ImportingCountry: "USA",
	})
	if !almostEqual(res.DutiableValue, 9800.0) {
		t.Errorf("dutiable value = %v, want 9800", res.DutiableValue)
	}
}

func TestCalculateDutyFTA(t *testing.T) {
	svc := newTestTariffService(nil)

	res := svc.CalculateDuty(DutyInput{
		InvoiceValue:     10000,
		CountryOfOrigin:  "China",
		HTSCode:          "7307.29.0090",
		ImportingCountry: "USA",
		FTAEligible:      true,
		ADCVDRate:        10.0,
	})
	// FTA zeroes the base MFN rate but not the 301 surcharge or AD/CVD
	if res.BaseRate != 0.0 {
		t.Errorf("FTA base rate = %v, want 0", res.BaseRate)
	}
	if res.SurchargeRate != 25.0 {
		t.Errorf("surcharge rate = %v, want 25", res.SurchargeRate)
	}
	if !almostEqual(res.DutyAmount, 2500.0) {
		t.Errorf("duty amount = %v, want 2500", res.DutyAmount)
	}
	if !almostEqual(res.ADCVDAmount, 1000.0) {
		t.Errorf("AD/CVD amount = %v, want 1000", res.ADCVDAmount)
	}
}

func TestCalculateDutyMPFClamping(t *testing.T) {
	svc := newTestTariffService(nil)

	// Small shipment clamps MPF to the minimum
	res := svc.CalculateDuty(DutyInput{
		InvoiceValue:     100,
		CountryOfOrigin:  "Japan",
		ImportingCountry: "USA",
	})
	if !almostEqual(res.MerchandiseProcessingFee, 31.67) {
		t.Errorf("MPF = %v, want minimum 31.67", res.MerchandiseProcessingFee)
	}

	// Large shipment clamps MPF to the maximum
	res = svc.CalculateDuty(DutyInput{
		InvoiceValue:     1000000,
		CountryOfOrigin:  "Japan",
		ImportingCountry: "USA",
	})
	if !almostEqual(res.MerchandiseProcessingFee, 614.35) {
		t.Errorf("MPF = %v, want maximum 614.35", res.MerchandiseProcessingFee)
	}

	// In-range MPF is ad valorem
	res = svc.CalculateDuty(DutyInput{
		InvoiceValue:     100000,
		CountryOfOrigin:  "Japan",
		ImportingCountry: "USA",
	})
	if !almostEqual(res.MerchandiseProcessingFee, 346.40) {
		t.Errorf("MPF = %v, want 346.40", res.MerchandiseProcessingFee)
	}
}

func TestCalculateDutyHMFSeaOnly(t *testing.T) {
	svc := newTestTariffService(nil)

	res := svc.CalculateDuty(DutyInput{
		InvoiceValue:     100000,
		CountryOfOrigin:  "Japan",
		ImportingCountry: "USA",
		TransportMode:    "sea",
	})
	if !almostEqual(res.HarborMaintenanceFee, 125.0) {
		t.Errorf("sea HMF = %v, want 125", res.HarborMaintenanceFee)
	}

	res = svc.CalculateDuty(DutyInput{
		InvoiceValue:     100000,
		CountryOfOrigin:  "Japan",
		ImportingCountry: "USA",
		TransportMode:    "air",
	})
	if res.HarborMaintenanceFee != 0 {
		t.Errorf("air HMF = %v, want 0", res.HarborMaintenanceFee)
	}
}

func TestCalculateDutyNonUSImport(t *testing.T) {
	svc := newTestTariffService(nil)

	res := svc.CalculateDuty(DutyInput{
		InvoiceValue:     100000,
		CountryOfOrigin:  "China",
		ImportingCountry: "Germany",
		TransportMode:    "sea",
	})
	if res.MerchandiseProcessingFee != 0 || res.HarborMaintenanceFee != 0 {
		t.Errorf("US-only fees applied to non-US import: MPF=%v HMF=%v",
			res.MerchandiseProcessingFee, res.HarborMaintenanceFee)
	}
}
