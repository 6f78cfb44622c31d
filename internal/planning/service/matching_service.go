package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KNT-AJ/SupplyXplorer/internal/config"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"
)

// Matcher 模糊匹配能力接口。实现不可用时对账服务退化为精确匹配，
// 不报错（构造期选择，不做运行期探测）。
type Matcher interface {
	Score(text, candidate string) int
}

// TokenSetMatcher 基于token-set相似度的匹配器
type TokenSetMatcher struct{}

func NewTokenSetMatcher() *TokenSetMatcher {
	return &TokenSetMatcher{}
}

func (m *TokenSetMatcher) Score(text, candidate string) int {
	return fuzzy.TokenSetRatio(text, candidate)
}

// 匹配方式
const (
	MatchMethodAlias         = "alias"
	MatchMethodExact         = "exact"
	MatchMethodFuzzySupplier = "fuzzy_supplier"
	MatchMethodFuzzyGlobal   = "fuzzy_global"
	MatchMethodUnmapped      = "unmapped"
)

// MatchResult 单行对账结果
type MatchResult struct {
	PartID     string `json:"part_id"`
	Confidence int    `json:"confidence"` // 0-100
	Method     string `json:"method"`
}

// InventoryIndex 规范零件检索索引：精确ID集合、候选串→零件号、
// 供应商分桶候选串
type InventoryIndex struct {
	idSet      map[string]struct{}
	keyToPart  map[string]string
	bySupplier map[string][]string
	candidates []string
}

// NewInventoryIndex 从库存快照构建检索索引
func NewInventoryIndex(items []entity.Inventory) *InventoryIndex {
	idx := &InventoryIndex{
		idSet:      make(map[string]struct{}, len(items)),
		keyToPart:  make(map[string]string, len(items)*2),
		bySupplier: make(map[string][]string),
	}
	for i := range items {
		inv := &items[i]
		idx.idSet[inv.PartID] = struct{}{}
		idx.keyToPart[inv.PartID] = inv.PartID
		if inv.PartName != "" {
			if _, exists := idx.keyToPart[inv.PartName]; !exists {
				idx.keyToPart[inv.PartName] = inv.PartID
			}
		}
		sname := normText(derefStr(inv.SupplierName))
		idx.bySupplier[sname] = append(idx.bySupplier[sname], inv.PartID)
		if inv.PartName != "" {
			idx.bySupplier[sname] = append(idx.bySupplier[sname], inv.PartName)
		}
	}
	idx.candidates = make([]string, 0, len(idx.keyToPart))
	for key := range idx.keyToPart {
		idx.candidates = append(idx.candidates, key)
	}
	return idx
}

// MatchingService 身份对账服务：供应商侧零件标识 → 规范零件号
type MatchingService struct {
	repos   *repository.Repositories
	cfg     *config.PlanningConfig
	logger  *zap.Logger
	matcher Matcher // nil时仅执行别名与精确匹配
}

// NewMatchingService 创建对账服务；matcher传nil退化为精确匹配
func NewMatchingService(repos *repository.Repositories, cfg *config.PlanningConfig, logger *zap.Logger, matcher Matcher) *MatchingService {
	return &MatchingService{
		repos:   repos,
		cfg:     cfg,
		logger:  logger,
		matcher: matcher,
	}
}

// BuildIndex 加载库存快照并构建检索索引
func (s *MatchingService) BuildIndex(ctx context.Context) (*InventoryIndex, error) {
	items, err := s.repos.Inventory.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory for matching index: %w", err)
	}
	return NewInventoryIndex(items), nil
}

// Match 执行无副作用匹配。优先级：精确ID → 供应商内模糊 → 全局模糊。
// 别名查找涉及存储，见 MatchOrder。
func (s *MatchingService) Match(vendorPartID, supplierName, notes string, idx *InventoryIndex) MatchResult {
	// 精确ID匹配
	if vendorPartID != "" {
		if _, ok := idx.idSet[vendorPartID]; ok {
			return MatchResult{PartID: vendorPartID, Confidence: 100, Method: MatchMethodExact}
		}
	}

	if s.matcher == nil {
		return MatchResult{Method: MatchMethodUnmapped}
	}

	text := normText(vendorPartID)
	if text == "" {
		text = normText(notes)
	}
	if text == "" {
		return MatchResult{Method: MatchMethodUnmapped}
	}

	// 供应商内模糊匹配（高阈值）
	scoped := idx.bySupplier[normText(supplierName)]
	if cand, score := s.fuzzyBest(text, scoped); cand != "" && score >= s.cfg.SupplierMatchThreshold {
		return MatchResult{PartID: idx.keyToPart[cand], Confidence: score, Method: MatchMethodFuzzySupplier}
	}

	// 全局模糊匹配（低阈值）
	if cand, score := s.fuzzyBest(text, idx.candidates); cand != "" && score >= s.cfg.GlobalMatchThreshold {
		return MatchResult{PartID: idx.keyToPart[cand], Confidence: score, Method: MatchMethodFuzzyGlobal}
	}

	return MatchResult{Method: MatchMethodUnmapped}
}

func (s *MatchingService) fuzzyBest(text string, candidates []string) (string, int) {
	best := ""
	bestScore := 0
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		score := s.matcher.Score(text, normText(cand))
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best, bestScore
}

// MatchOrder 对单个订单行执行完整对账：别名 → 精确 → 模糊。
// 命中且置信度达到学习阈值时写入别名表（取历史最高置信度）。
func (s *MatchingService) MatchOrder(ctx context.Context, order *entity.PendingOrder, idx *InventoryIndex) (MatchResult, error) {
	supplierName := derefStr(order.SupplierName)

	// 别名查找
	if order.PartID != "" {
		alias, err := s.repos.Alias.Lookup(ctx, supplierName, order.PartID)
		if err == nil {
			return MatchResult{PartID: alias.CanonicalPartID, Confidence: 100, Method: MatchMethodAlias}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return MatchResult{}, fmt.Errorf("alias lookup failed: %w", err)
		}
	}

	result := s.Match(order.PartID, supplierName, derefStr(order.Notes), idx)
	if result.Confidence >= s.cfg.AliasLearnThreshold && order.PartID != "" {
		if err := s.repos.Alias.Upsert(ctx, &entity.PartAlias{
			SupplierName:    supplierName,
			VendorPartID:    order.PartID,
			CanonicalPartID: result.PartID,
			Confidence:      result.Confidence,
		}); err != nil {
			s.logger.Warn("alias upsert failed",
				zap.String("vendor_part_id", order.PartID),
				zap.Error(err))
		}
	}
	return result, nil
}

// ResolvePartID 取订单的规范零件号：已有持久化映射则直接用，
// 否则执行一次无副作用匹配。库存投影等只读场景使用。
func (s *MatchingService) ResolvePartID(order *entity.PendingOrder, idx *InventoryIndex) (string, int) {
	if order.MappedPartID != nil && *order.MappedPartID != "" {
		conf := 0
		if order.MatchConfidence != nil {
			conf = *order.MatchConfidence
		}
		return *order.MappedPartID, conf
	}
	result := s.Match(order.PartID, derefStr(order.SupplierName), derefStr(order.Notes), idx)
	return result.PartID, result.Confidence
}

// ReconcileSummary 批量对账汇总
type ReconcileSummary struct {
	Total    int `json:"total"`
	Mapped   int `json:"mapped"`
	Unmapped int `json:"unmapped"`
}

// ReconcileOrders 批量对账全部在途订单并持久化映射结果。
// 幂等：重复执行不会降低已记录的置信度。
func (s *MatchingService) ReconcileOrders(ctx context.Context) (*ReconcileSummary, error) {
	idx, err := s.BuildIndex(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repos.Order.FindIncoming(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load incoming orders: %w", err)
	}

	summary := &ReconcileSummary{Total: len(orders)}
	for i := range orders {
		order := &orders[i]
		result, err := s.MatchOrder(ctx, order, idx)
		if err != nil {
			return nil, err
		}
		if result.Confidence > 0 && result.PartID != "" {
			if err := s.repos.Order.UpdateMapping(ctx, order.ID, result.PartID, result.Confidence); err != nil {
				return nil, fmt.Errorf("failed to persist order mapping: %w", err)
			}
			summary.Mapped++
		} else {
			summary.Unmapped++
		}
	}

	s.logger.Info("order reconciliation completed",
		zap.Int("total", summary.Total),
		zap.Int("mapped", summary.Mapped),
		zap.Int("unmapped", summary.Unmapped))
	return summary, nil
}

// normText 文本归一化：去首尾空白、小写、折叠内部空白
func normText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
