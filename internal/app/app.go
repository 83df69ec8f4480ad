// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/api"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/auth"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/config"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/di"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storage"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storage/postgres"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

const (
	shutdownTimeout  = 30 * time.Second
	storeOpenTimeout = 30 * time.Second
	metricsInterval  = 5 * time.Minute
)

// server 抽象 http.Server，便于测试替换
type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 应用程序结构
type App struct {
	config   *config.Config
	router   *gin.Engine
	server   server
	store    storage.CharacterStore
	ws       *api.WebSocketManager
	limiter  *api.RateLimiter
	metrics  *utils.APIMetrics
	stopChan chan os.Signal
}

// 全局应用实例
var instance *App

// GetApp 获取应用实例（单例）
func GetApp() *App {
	if instance == nil {
		instance = &App{
			stopChan: make(chan os.Signal, 1),
		}
	}
	return instance
}

// Initialize 初始化日志、服务、路由和HTTP服务器
func Initialize(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("配置不能为空")
	}

	app := GetApp()
	app.config = cfg

	if err := initLogger(cfg.LogDir); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	utils.GetLogger().SetLogLevel(utils.ParseLogLevel(cfg.LogLevel))

	if err := InitServices(); err != nil {
		return fmt.Errorf("初始化服务失败: %w", err)
	}

	router, err := api.SetupRouter()
	if err != nil {
		return fmt.Errorf("设置路由失败: %w", err)
	}
	app.router = router
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	utils.GetLogger().Info("✅ 应用初始化完成", map[string]interface{}{
		"port":  cfg.Port,
		"store": cfg.Store.Backend,
		"debug": cfg.DebugMode,
	})
	return nil
}

// initLogger 在日志目录下创建按日期命名的日志文件
func initLogger(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}
	name := fmt.Sprintf("narrative-%s.log", time.Now().Format("2006-01-02"))
	return utils.InitLogger(filepath.Join(logDir, name))
}

// InitServices 按依赖顺序创建服务并注册到容器
func InitServices() error {
	app := GetApp()
	if app.config == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		app.config = cfg
	}
	cfg := app.config
	container := di.GetContainer()

	ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
	defer cancel()

	// 1. 存储
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("打开角色存储失败: %w", err)
	}
	app.store = store

	// 2. 指标
	app.metrics = utils.NewAPIMetrics(utils.GetMetricsCollector())

	// 3. 业务服务
	characters := services.NewCharacterService(store, app.metrics)
	storyboard := services.NewStoryboardService(characters, cfg.Composer.GenerationDelay)

	// 4. 实时推送
	app.ws = api.NewWebSocketManager()
	characters.AddNotifier(app.ws)

	// 5. 会话与限流
	secret, err := auth.ResolveSecret(cfg.Auth.SecretKey, cfg.DebugMode)
	if err != nil {
		return fmt.Errorf("生成会话密钥失败: %w", err)
	}
	sessions := api.NewSessionManager(secret, cfg.Auth.Expiration, cfg.Auth.CookieName)
	app.limiter = api.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)

	container.Register(di.ServiceConfig, cfg)
	container.Register(di.ServiceStore, store)
	container.Register(di.ServiceMetrics, app.metrics)
	container.Register(di.ServiceCharacters, characters)
	container.Register(di.ServiceStoryboard, storyboard)
	container.Register(di.ServiceSessions, sessions)
	container.Register(di.ServiceWebSocket, app.ws)
	container.Register(di.ServiceRateLimiter, app.limiter)

	utils.GetLogger().Info("✅ 服务注册完成", map[string]interface{}{
		"services": container.GetNames(),
	})
	return nil
}

// OpenStore 根据配置选择存储后端，postgres 可自动执行迁移
func OpenStore(ctx context.Context, cfg *config.Config) (storage.CharacterStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		if cfg.Store.AutoMigrate {
			if err := postgres.RunMigrations(ctx, cfg.Store.DatabaseURL); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(pool), nil
	default:
		fs, err := storage.NewFileStorage(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
}

// Run 启动HTTP服务器和后台任务，直到 ctx 结束或收到停止信号
func Run(ctx context.Context) error {
	app := GetApp()
	if app.server == nil {
		return errors.New("应用尚未初始化")
	}
	logger := utils.GetLogger()

	signal.Notify(app.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(app.stopChan)
	defer app.cleanup()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP服务器异常退出: %w", err)
		}
		return nil
	})
	if app.ws != nil {
		g.Go(func() error { return app.ws.Run(gctx) })
	}
	if app.limiter.Enabled() {
		g.Go(func() error { return app.limiter.Run(gctx) })
	}
	if app.metrics != nil {
		g.Go(func() error { return app.metrics.RunReporter(gctx, metricsInterval) })
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case sig := <-app.stopChan:
			logger.Info("🛑 收到停止信号", map[string]interface{}{"signal": sig.String()})
		}
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("关闭HTTP服务器失败: %w", err)
		}
		logger.Info("✅ 服务器已关闭", nil)
		return nil
	})

	return g.Wait()
}

// cleanup 释放存储连接并刷新日志
func (app *App) cleanup() {
	if app.store != nil {
		app.store.Close()
	}
	utils.GetLogger().Sync()
}

// GetConfig 获取应用配置
func GetConfig() *config.Config {
	return GetApp().config
}

// GetDIContainer 获取依赖注入容器
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode 检查是否为调试模式
func IsDebugMode() bool {
	cfg := GetConfig()
	return cfg != nil && cfg.DebugMode
}
