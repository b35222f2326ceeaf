package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 精简镜像缺少 zoneinfo 时仍可解析 duty.timezone

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sellamuthu2007/project-demo-backend/config"
	"github.com/Sellamuthu2007/project-demo-backend/internal/api/handler"
	"github.com/Sellamuthu2007/project-demo-backend/internal/api/middleware"
	"github.com/Sellamuthu2007/project-demo-backend/internal/api/router"
	"github.com/Sellamuthu2007/project-demo-backend/internal/repository"
	"github.com/Sellamuthu2007/project-demo-backend/internal/service"
	"github.com/Sellamuthu2007/project-demo-backend/pkg/database"
	applogger "github.com/Sellamuthu2007/project-demo-backend/pkg/logger"
	"github.com/Sellamuthu2007/project-demo-backend/pkg/metrics"
	"github.com/Sellamuthu2007/project-demo-backend/pkg/redis"
)

func main() {
	// 1. 加载配置（HALLDUTY_CONFIG 可指定配置文件路径）
	cfg, err := config.Load(os.Getenv("HALLDUTY_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("duty_date_policy", cfg.Duty.DatePolicy),
		zap.String("duty_date", cfg.Duty.Date),
		zap.String("duty_timezone", cfg.Duty.Timezone),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：关闭或连接失败时限流降级放行，不中断启动）
	var (
		rdb     *redis.Client
		limiter middleware.RateLimiter
	)
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，限流功能将不可用", zap.Error(err))
			rdb = nil
		} else {
			limiter = rdb
		}
	} else if cfg.RateLimit.Enabled {
		logger.Warn("Redis 未启用，限流功能将不可用")
	}

	// 5. 值班日期与指标
	calendar, err := service.NewDutyCalendar(&cfg.Duty)
	if err != nil {
		logger.Fatal("值班日期配置无效", zap.Error(err))
	}
	m := metrics.New()

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(&cfg.Duty, repo, calendar, m, logger)
	h := handler.NewHandler(svc, calendar)

	// 7. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	engine, err := router.Setup(cfg, router.Deps{
		Handler: h,
		DB:      sqlDB,
		Limiter: limiter,
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("初始化路由失败", zap.Error(err))
	}

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	sqlDB.Close()

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
