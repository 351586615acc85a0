// FoodWaste 餐厨垃圾分析引擎服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lightblue/foodwaste/internal/config"
	"github.com/lightblue/foodwaste/internal/database"
	"github.com/lightblue/foodwaste/internal/handler"
	"github.com/lightblue/foodwaste/internal/metrics"
	"github.com/lightblue/foodwaste/internal/middleware"
	"github.com/lightblue/foodwaste/internal/repository"
	"github.com/lightblue/foodwaste/internal/security"
	"github.com/lightblue/foodwaste/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	// 打印版本信息
	fmt.Printf("FoodWaste 餐厨垃圾分析引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 连接数据库
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Error().Err(err).Msg("数据库初始化失败")
		os.Exit(1)
	}
	defer db.Close()

	repos := repository.NewProvider(db)
	reportHandler := handler.NewReportHandler(repos, cfg)

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"degraded","service":"foodwaste","database":"down"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"foodwaste"}`))
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "FoodWaste 餐厨垃圾分析引擎 API v1",
			"endpoints": {
				"reports": {
					"catalog": "GET /api/v1/reports",
					"consistency": "GET /api/v1/reports/consistency",
					"savings": "GET /api/v1/reports/savings",
					"gcover": "GET /api/v1/reports/gcover"
				},
				"kitchens": {
					"list": "GET /api/v1/kitchens"
				},
				"masterdata": {
					"validate": "GET /api/v1/validate"
				}
			}
		}`))
	})

	// 报表目录 API
	mux.HandleFunc("/api/v1/reports", reportHandler.HandleCatalog)

	// 记录一致性报表 API
	mux.HandleFunc("/api/v1/reports/consistency", reportHandler.HandleConsistency)

	// 节约量报表 API
	mux.HandleFunc("/api/v1/reports/savings", reportHandler.HandleSavings)

	// 克/客流比报表 API
	mux.HandleFunc("/api/v1/reports/gcover", reportHandler.HandleGCover)

	// 厨房列表 API
	mux.HandleFunc("/api/v1/kitchens", reportHandler.HandleKitchens)

	// 主数据校验 API
	mux.HandleFunc("/api/v1/validate", reportHandler.HandleValidate)

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	keyManager := security.NewAPIKeyManager()
	rateLimiter := security.NewRateLimiter(cfg.API.RateLimit, time.Minute)

	authConfig := &middleware.AuthConfig{
		APIKeyManager:   keyManager,
		RateLimiter:     rateLimiter,
		SkipPaths:       []string{"/health", "/version", cfg.Metrics.Path},
		EnableRateLimit: true,
	}

	// 开发环境预置一个全权限密钥，方便本地调试
	if cfg.IsDevelopment() {
		if key, err := keyManager.GenerateKey("*", "dev", []string{"*"}, nil); err == nil {
			logger.Info().Str("api_key", key.Key).Msg("开发环境API密钥")
		}
	}

	// 中间件执行顺序：requestID -> recovery -> 安全头 -> cors -> auth -> logging -> handler
	var root http.Handler = mux
	root = middleware.LoggingMiddleware(root)
	root = middleware.AuthMiddleware(authConfig)(root)
	root = corsMiddleware(cfg, root)
	root = middleware.SecurityHeadersMiddleware(root)
	root = middleware.RecoveryMiddleware(root)
	root = middleware.RequestIDMiddleware(root)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// corsMiddleware CORS中间件
func corsMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cfg.API.CORS.Enabled {
			origin := "*"
			if len(cfg.API.CORS.Origins) > 0 {
				origin = cfg.API.CORS.Origins[0]
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
