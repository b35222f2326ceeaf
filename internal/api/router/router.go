package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Sellamuthu2007/project-demo-backend/config"
	"github.com/Sellamuthu2007/project-demo-backend/internal/api/handler"
	"github.com/Sellamuthu2007/project-demo-backend/internal/api/middleware"
	"github.com/Sellamuthu2007/project-demo-backend/pkg/metrics"
)

// Pinger 健康检查依赖，*sql.DB 满足该接口
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps 路由依赖；Limiter / Metrics 为 nil 时对应功能关闭
type Deps struct {
	Handler *handler.Handler
	DB      Pinger
	Limiter middleware.RateLimiter
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, d Deps) (*gin.Engine, error) {
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.PingContext(ctx); err != nil {
			d.Logger.Warn("健康检查失败", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg.Metrics.Enabled && d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// 状态迁移接口限流；查询接口不限
	var limiter middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = d.Limiter
	}
	limit := middleware.RateLimit(limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window, d.Logger)

	h := d.Handler

	// 值班模块
	duty := r.Group("/duty")
	{
		duty.GET("/today", h.Duty.Today)
		duty.GET("/all", h.Duty.All)
		duty.GET("/summary", h.Duty.Summary)
		duty.GET("/export", h.Duty.Export)
		duty.GET("/check-mobile/:mobile_number", h.Duty.CheckMobile)
		duty.POST("/report", limit, h.Duty.Report)
		duty.POST("/submit", limit, h.Duty.Submit)
		duty.POST("/proxy", limit, h.Duty.Proxy)
	}

	// 人员核验
	staff := r.Group("/staff")
	{
		staff.GET("/by-mobile/:mobile_number", h.Staff.ByMobile)
		staff.GET("/search/:name", h.Staff.Search)
	}

	return r, nil
}
