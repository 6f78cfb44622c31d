package service

import (
	"github.com/KNT-AJ/SupplyXplorer/internal/config"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 规划域服务集合
type Services struct {
	Tariff    *TariffService
	Matching  *MatchingService
	Planner   *PlannerService
	Inventory *InventoryService
	Import    *ImportService
}

// NewServices 创建规划域服务集合并完成内部装配
func NewServices(repos *repository.Repositories, cfg *config.Config, logger *zap.Logger, redisClient *redis.Client) *Services {
	tariff := NewTariffService(&cfg.Tariff, logger)
	matching := NewMatchingService(repos, &cfg.Planning, logger, NewTokenSetMatcher())
	planner := NewPlannerService(repos, cfg, tariff, matching, logger)
	planner.SetCache(redisClient)
	inventory := NewInventoryService(repos, &cfg.Planning, matching, logger)
	importSvc := NewImportService(repos, logger)

	return &Services{
		Tariff:    tariff,
		Matching:  matching,
		Planner:   planner,
		Inventory: inventory,
		Import:    importSvc,
	}
}
