package service

import (
	"fmt"
	"strings"

	"github.com/KNT-AJ/SupplyXplorer/internal/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 美国进口规费常量
var (
	mpfRate = decimal.NewFromFloat(0.3464) // 货物处理费，从价百分比
	mpfMin  = decimal.NewFromFloat(31.67)
	mpfMax  = decimal.NewFromFloat(614.35)
	hmfRate = decimal.NewFromFloat(0.125) // 港口维护费，仅海运
)

// 特例组合：不锈钢管件，中国原产地进口美国。
// 基础MFN 5% 叠加301条款附加 25%，合计从价 30%。
const (
	specialHTSCode  = "7307.29.0090"
	specialBaseRate = 5.0
	special301Rate  = 25.0
)

// 已含运费保险的贸易术语（到岸价口径）
var cifIncoterms = map[string]bool{
	"CIF": true,
	"CFR": true,
	"CIP": true,
	"DDP": true,
}

// TariffService 关税计算服务。无状态纯计算，费率表在构造时固化。
type TariffService struct {
	rates            map[string]float64
	defaultRate      float64
	defaultImporting string
	defaultOrigin    string
	defaultHTS       string
	logger           *zap.Logger
}

// NewTariffService 创建关税服务；cfg.RateOverrides 覆盖内置国别费率
func NewTariffService(cfg *config.TariffConfig, logger *zap.Logger) *TariffService {
	rates := map[string]float64{
		"china":         25.0, // 301条款
		"japan":         0.0,
		"germany":       0.0,
		"mexico":        0.0, // USMCA
		"canada":        0.0, // USMCA
		"south_korea":   0.0, // KORUS
		"vietnam":       0.0,
		"taiwan":        0.0,
		"india":         0.0,
		"thailand":      0.0,
		"malaysia":      0.0,
		"singapore":     0.0,
		"philippines":   0.0,
		"indonesia":     0.0,
		"usa":           0.0,
		"united_states": 0.0,
	}
	defaultRate := 3.0
	for country, rate := range cfg.RateOverrides {
		key := normalizeCountry(country)
		if key == "default_rate" {
			defaultRate = rate
			continue
		}
		rates[key] = rate
	}

	return &TariffService{
		rates:            rates,
		defaultRate:      defaultRate,
		defaultImporting: cfg.DefaultImportingCountry,
		defaultOrigin:    cfg.DefaultOriginCountry,
		defaultHTS:       cfg.DefaultHTSCode,
		logger:           logger,
	}
}

// normalizeCountry 国家名归一化：小写，空格和连字符折叠为下划线
func normalizeCountry(country string) string {
	s := strings.ToLower(strings.TrimSpace(country))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// GetRate 查询国别从价费率。先精确匹配，再部分匹配，最后回退默认费率。
func (s *TariffService) GetRate(country string) float64 {
	if country == "" {
		return 0.0
	}
	key := normalizeCountry(country)
	if rate, ok := s.rates[key]; ok {
		return rate
	}
	for known, rate := range s.rates {
		if strings.Contains(key, known) || strings.Contains(known, key) {
			return rate
		}
	}
	return s.defaultRate
}

// ResolveRate 费率决议：特例组合返回固定复合费率，否则走国别费率表。
// 返回(基础费率, 附加费率, 说明)。
func (s *TariffService) ResolveRate(htsCode, origin, importing string) (float64, float64, string) {
	if htsCode == specialHTSCode &&
		normalizeCountry(origin) == "china" &&
		isUSA(importing) {
		return specialBaseRate, special301Rate, "HTS 7307.29.0090: 5% MFN + 25% Section 301"
	}
	return s.GetRate(origin), 0.0, ""
}

func isUSA(country string) bool {
	key := normalizeCountry(country)
	return key == "usa" || key == "united_states"
}

// LandedCost 采购行落地成本拆分（规划引擎调用口径）
type LandedCost struct {
	BaseCost           float64 `json:"base_cost"`
	ShippingCost       float64 `json:"shipping_cost"`
	TariffRate         float64 `json:"tariff_rate"` // 复合从价费率（百分比）
	TariffAmount       float64 `json:"tariff_amount"`
	TotalCost          float64 `json:"total_cost"`
	TotalWithoutTariff float64 `json:"total_cost_without_tariffs"`
	Country            string  `json:"country"`
}

// CalculateLandedCost 计算一笔采购的落地成本。
// 关税基数为货值（不含运费）；复合费率含特例附加。
func (s *TariffService) CalculateLandedCost(unitCost float64, qty int, country string, shippingPerUnit float64, htsCode string, importing string) LandedCost {
	if importing == "" {
		importing = s.defaultImporting
	}

	unitDec := decimal.NewFromFloat(unitCost)
	qtyDec := decimal.NewFromInt(int64(qty))
	baseCost := unitDec.Mul(qtyDec)
	shippingCost := decimal.NewFromFloat(shippingPerUnit).Mul(qtyDec)

	baseRate, surchargeRate, _ := s.ResolveRate(htsCode, country, importing)
	compositeRate := decimal.NewFromFloat(baseRate).Add(decimal.NewFromFloat(surchargeRate))
	tariffAmount := baseCost.Mul(compositeRate).Div(decimal.NewFromInt(100))

	totalWithout := baseCost.Add(shippingCost)
	total := totalWithout.Add(tariffAmount)

	rate, _ := compositeRate.Float64()
	return LandedCost{
		BaseCost:           round2(baseCost),
		ShippingCost:       round2(shippingCost),
		TariffRate:         rate,
		TariffAmount:       round2(tariffAmount),
		TotalCost:          round2(total),
		TotalWithoutTariff: round2(totalWithout),
		Country:            country,
	}
}

// DutyInput 报关口径的完税价格与税费计算输入
type DutyInput struct {
	InvoiceValue  float64 `json:"invoice_value"`  // 发票金额（原币）
	FXRate        float64 `json:"fx_rate"`        // 原币→美元汇率，0视为1
	Incoterm      string  `json:"incoterm"`       // EXW/FOB/CIF/...
	FreightCost   float64 `json:"freight_cost"`   // 国际运费
	InsuranceCost float64 `json:"insurance_cost"` // 保险费
	Assists       float64 `json:"assists"`        // 协助费用
	Royalties     float64 `json:"royalties"`      // 特许权使用费
	OtherDutiable float64 `json:"other_dutiable"` // 其他应税增项

	CountryOfOrigin  string `json:"country_of_origin"`
	HTSCode          string `json:"hts_code"`
	ImportingCountry string `json:"importing_country"`
	TransportMode    string `json:"transport_mode"` // air/sea/courier

	FTAEligible          bool    `json:"fta_eligible"`           // 自贸协定优惠资格
	ADCVDRate            float64 `json:"adcvd_rate"`             // 反倾销/反补贴从价费率
	SpecialSurchargeRate float64 `json:"special_surcharge_rate"` // 额外贸易救济附加费率
}

// DutyResult 完税价格与税费拆分结果
type DutyResult struct {
	DutiableValue float64 `json:"dutiable_value"`

	BaseRate      float64 `json:"base_rate"`      // 基础从价费率
	SurchargeRate float64 `json:"surcharge_rate"` // 特例附加费率（如301条款）
	EffectiveRate float64 `json:"effective_rate"` // 生效的关税费率

	DutyAmount      float64 `json:"duty_amount"`
	ADCVDAmount     float64 `json:"adcvd_amount"`
	SurchargeAmount float64 `json:"surcharge_amount"` // 额外附加费金额

	MerchandiseProcessingFee float64 `json:"merchandise_processing_fee"` // 仅美国
	HarborMaintenanceFee     float64 `json:"harbor_maintenance_fee"`     // 仅美国海运

	TotalDutiesAndFees float64  `json:"total_duties_and_fees"`
	TotalEffectiveRate float64  `json:"total_effective_rate"` // 占完税价格百分比
	Notes              []string `json:"notes"`
}

// CalculateDuty 报关口径税费计算。
// 完税价格 = 发票金额×汇率 + 运保费（到岸价口径除外）+ 协助/特许权/其他增项。
// FTA资格将基础费率归零，但不豁免反倾销与附加费。
func (s *TariffService) CalculateDuty(in DutyInput) DutyResult {
	notes := []string{}

	fx := decimal.NewFromFloat(in.FXRate)
	if fx.IsZero() {
		fx = decimal.NewFromInt(1)
	}
	dutiable := decimal.NewFromFloat(in.InvoiceValue).Mul(fx)

	incoterm := strings.ToUpper(strings.TrimSpace(in.Incoterm))
	if cifIncoterms[incoterm] {
		notes = append(notes, fmt.Sprintf("incoterm %s: freight/insurance already in invoice value", incoterm))
	} else {
		dutiable = dutiable.
			Add(decimal.NewFromFloat(in.FreightCost)).
			Add(decimal.NewFromFloat(in.InsuranceCost))
		if in.FreightCost > 0 || in.InsuranceCost > 0 {
			notes = append(notes, "freight/insurance added to dutiable value")
		}
	}
	additions := decimal.NewFromFloat(in.Assists).
		Add(decimal.NewFromFloat(in.Royalties)).
		Add(decimal.NewFromFloat(in.OtherDutiable))
	if additions.IsPositive() {
		dutiable = dutiable.Add(additions)
		notes = append(notes, "assists/royalties/other dutiable additions included")
	}

	importing := in.ImportingCountry
	if importing == "" {
		importing = s.defaultImporting
	}

	baseRate, surchargeRate, rateNote := s.ResolveRate(in.HTSCode, in.CountryOfOrigin, importing)
	if rateNote != "" {
		notes = append(notes, rateNote)
	}
	if in.FTAEligible {
		baseRate = 0.0
		notes = append(notes, "FTA eligible: base rate reduced to 0%")
	}
	effectiveRate := decimal.NewFromFloat(baseRate).Add(decimal.NewFromFloat(surchargeRate))

	hundred := decimal.NewFromInt(100)
	duty := dutiable.Mul(effectiveRate).Div(hundred)
	adcvd := dutiable.Mul(decimal.NewFromFloat(in.ADCVDRate)).Div(hundred)
	surcharge := dutiable.Mul(decimal.NewFromFloat(in.SpecialSurchargeRate)).Div(hundred)
	if in.ADCVDRate > 0 {
		notes = append(notes, fmt.Sprintf("AD/CVD at %.2f%%", in.ADCVDRate))
	}
	if in.SpecialSurchargeRate > 0 {
		notes = append(notes, fmt.Sprintf("special surcharge at %.2f%%", in.SpecialSurchargeRate))
	}

	mpf := decimal.Zero
	hmf := decimal.Zero
	if isUSA(importing) {
		mpf = dutiable.Mul(mpfRate).Div(hundred)
		if mpf.LessThan(mpfMin) {
			mpf = mpfMin
		} else if mpf.GreaterThan(mpfMax) {
			mpf = mpfMax
		}
		notes = append(notes, "MPF 0.3464% (min $31.67, max $614.35)")
		if strings.EqualFold(in.TransportMode, "sea") {
			hmf = dutiable.Mul(hmfRate).Div(hundred)
			notes = append(notes, "HMF 0.125% (sea freight)")
		}
	}

	total := duty.Add(adcvd).Add(surcharge).Add(mpf).Add(hmf)
	totalRate := decimal.Zero
	if dutiable.IsPositive() {
		totalRate = total.Div(dutiable).Mul(hundred)
	}

	effRate, _ := effectiveRate.Float64()
	totalRateF, _ := totalRate.Round(4).Float64()
	return DutyResult{
		DutiableValue:            round2(dutiable),
		BaseRate:                 baseRate,
		SurchargeRate:            surchargeRate,
		EffectiveRate:            effRate,
		DutyAmount:               round2(duty),
		ADCVDAmount:              round2(adcvd),
		SurchargeAmount:          round2(surcharge),
		MerchandiseProcessingFee: round2(mpf),
		HarborMaintenanceFee:     round2(hmf),
		TotalDutiesAndFees:       round2(total),
		TotalEffectiveRate:       totalRateF,
		Notes:                    notes,
	}
}

// DefaultOrigin 关税缺省原产地
func (s *TariffService) DefaultOrigin() string {
	return s.defaultOrigin
}

// DefaultHTSCode 关税缺省HTS编码
func (s *TariffService) DefaultHTSCode() string {
	return s.defaultHTS
}

// DefaultImporting 缺省进口国
func (s *TariffService) DefaultImporting() string {
	return s.defaultImporting
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
