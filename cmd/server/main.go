package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/KNT-AJ/SupplyXplorer/internal/config"
	"github.com/KNT-AJ/SupplyXplorer/internal/middleware"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/entity"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/handler"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/repository"
	"github.com/KNT-AJ/SupplyXplorer/internal/planning/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting supplyxplorer service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// AutoMigrate 规划域表
	if err := db.AutoMigrate(
		&entity.Part{},
		&entity.Supplier{},
		&entity.BOMLine{},
		&entity.Forecast{},
		&entity.Inventory{},
		&entity.PendingOrder{},
		&entity.PartAlias{},
		&entity.ShippingQuote{},
	); err != nil {
		zapLogger.Warn("AutoMigrate planning tables warning", zap.Error(err))
	}

	// 别名表唯一索引兜底（AutoMigrate对复合唯一索引可能跳过）
	migrationSQL := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_alias_key ON part_aliases(supplier_name, vendor_part_id)",
		"CREATE INDEX IF NOT EXISTS idx_orders_mapped_part_id ON orders(mapped_part_id)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_part_id ON inventory(part_id)",
	}
	for _, sql := range migrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			zapLogger.Warn("Migration SQL warning (may already exist)", zap.String("sql", sql), zap.Error(err))
		}
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, cfg, zapLogger, rdb)

	// 初始化对象存储（上传文件归档，可选）
	if cfg.MinIO.Endpoint != "" {
		minioClient, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			zapLogger.Warn("Failed to init MinIO client, upload archiving disabled", zap.Error(err))
		} else {
			services.Import.SetArchive(minioClient, cfg.MinIO.Bucket)
			zapLogger.Info("MinIO upload archiving enabled", zap.String("bucket", cfg.MinIO.Bucket))
		}
	}

	handlers := handler.NewHandlers(services, repos)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 规划引擎
		plan := v1.Group("/plan")
		{
			plan.POST("/run", h.Planner.RunPlan)
			plan.GET("/latest", h.Planner.GetLatestPlan)
			plan.GET("/schedule/export", h.Planner.ExportSchedule)
			plan.GET("/cashflow/export", h.Planner.ExportCashFlow)
		}

		// 关税试算
		tariff := v1.Group("/tariff")
		{
			tariff.POST("/calculate", h.Planner.CalculateDuty)
			tariff.GET("/rate", h.Planner.GetTariffRate)
		}

		// 库存
		inventory := v1.Group("/inventory")
		{
			inventory.GET("", h.Inventory.List)
			inventory.GET("/projected", h.Inventory.GetProjected)
			inventory.GET("/projections", h.Inventory.GetProjections)
			inventory.GET("/alerts", h.Inventory.GetAlerts)
			inventory.GET("/:part_id", h.Inventory.Get)
			inventory.PUT("/:part_id", h.Inventory.Upsert)
			inventory.DELETE("/:part_id", h.Inventory.Delete)
		}

		// 在途订单与对账
		orders := v1.Group("/orders")
		{
			orders.GET("", h.Order.List)
			orders.POST("", h.Order.Create)
			orders.POST("/reconcile", h.Order.Reconcile)
			orders.PUT("/:id", h.Order.Update)
			orders.PUT("/:id/mapping", h.Order.SetMapping)
			orders.DELETE("/:id", h.Order.Delete)
		}

		// 别名
		aliases := v1.Group("/aliases")
		{
			aliases.GET("", h.Order.ListAliases)
			aliases.DELETE("/:id", h.Order.DeleteAlias)
		}

		// 电子表格导入
		upload := v1.Group("/upload")
		{
			upload.POST("/bom", h.Data.UploadBOM)
			upload.POST("/forecasts", h.Data.UploadForecasts)
			upload.POST("/inventory", h.Data.UploadInventory)
			upload.POST("/orders", h.Data.UploadOrders)
		}

		// 基础数据
		bom := v1.Group("/bom")
		{
			bom.GET("", h.Data.ListBOM)
			bom.POST("", h.Data.CreateBOM)
			bom.PUT("/:id", h.Data.UpdateBOM)
			bom.DELETE("/:id", h.Data.DeleteBOM)
		}
		forecasts := v1.Group("/forecasts")
		{
			forecasts.GET("", h.Data.ListForecasts)
			forecasts.POST("", h.Data.CreateForecast)
			forecasts.DELETE("/:id", h.Data.DeleteForecast)
		}
		parts := v1.Group("/parts")
		{
			parts.GET("", h.Data.ListParts)
			parts.PUT("/:part_id", h.Data.UpsertPart)
		}
		suppliers := v1.Group("/suppliers")
		{
			suppliers.GET("", h.Data.ListSuppliers)
			suppliers.PUT("/:supplier_id", h.Data.UpsertSupplier)
		}
		quotes := v1.Group("/quotes")
		{
			quotes.GET("", h.Data.ListQuotes)
			quotes.POST("", h.Data.CreateQuote)
			quotes.PUT("/:id", h.Data.UpdateQuote)
			quotes.DELETE("/:id", h.Data.DeleteQuote)
		}
	}
}
