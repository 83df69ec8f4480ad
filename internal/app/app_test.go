package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/config"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/di"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

// 测试前的设置工作
func setupTest(t *testing.T) *config.Config {
	t.Helper()
	instance = nil
	di.GetContainer().Clear()

	tempDir := t.TempDir()
	cfg := config.Defaults()
	cfg.Port = "0"
	cfg.DataDir = filepath.Join(tempDir, "data")
	cfg.LogDir = filepath.Join(tempDir, "logs")
	cfg.Rate.RequestsPerSecond = 0

	t.Cleanup(func() {
		if instance != nil {
			instance.cleanup()
		}
		utils.GetLogger().Sync()
		instance = nil
		di.GetContainer().Clear()
	})
	return &cfg
}

// 模拟服务器
type mockServer struct {
	shutdownCalled chan struct{}
}

func newMockServer() *mockServer {
	return &mockServer{shutdownCalled: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	<-m.shutdownCalled
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	close(m.shutdownCalled)
	return nil
}

func (m *mockServer) wasShutdown() bool {
	select {
	case <-m.shutdownCalled:
		return true
	default:
		return false
	}
}

func TestGetApp(t *testing.T) {
	setupTest(t)

	app1 := GetApp()
	require.NotNil(t, app1)
	assert.Same(t, app1, GetApp())
	assert.NotNil(t, app1.stopChan)
}

func TestInitialize(t *testing.T) {
	cfg := setupTest(t)

	require.NoError(t, Initialize(cfg))

	app := GetApp()
	assert.Same(t, cfg, app.config)
	assert.NotNil(t, app.router)
	assert.NotNil(t, app.server)

	container := GetDIContainer()
	for _, name := range []string{
		di.ServiceConfig, di.ServiceStore, di.ServiceMetrics, di.ServiceCharacters,
		di.ServiceStoryboard, di.ServiceSessions, di.ServiceWebSocket, di.ServiceRateLimiter,
	} {
		assert.True(t, container.Has(name), name)
	}

	_, err := os.Stat(filepath.Join(cfg.DataDir, "characters"))
	assert.NoError(t, err)

	// 路由可直接处理请求
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInitialize_NilConfig(t *testing.T) {
	setupTest(t)
	assert.Error(t, Initialize(nil))
}

func TestInitServices_FileBackend(t *testing.T) {
	cfg := setupTest(t)
	GetApp().config = cfg

	require.NoError(t, InitServices())

	chars, err := di.Resolve[*services.CharacterService](GetDIContainer(), di.ServiceCharacters)
	require.NoError(t, err)
	list, err := chars.ListForLibrary(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInitLogger(t *testing.T) {
	setupTest(t)
	logDir := filepath.Join(t.TempDir(), "custom_logs")

	require.NoError(t, initLogger(logDir))

	files, err := os.ReadDir(logDir)
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}

func TestRun_StopSignal(t *testing.T) {
	cfg := setupTest(t)

	srv := newMockServer()
	testApp := &App{config: cfg, server: srv, stopChan: make(chan os.Signal, 1)}
	instance = testApp

	go func() {
		time.Sleep(50 * time.Millisecond)
		testApp.stopChan <- syscall.SIGTERM
	}()

	require.NoError(t, Run(context.Background()))
	assert.True(t, srv.wasShutdown())
}

func TestRun_ContextCancel(t *testing.T) {
	cfg := setupTest(t)
	require.NoError(t, Initialize(cfg))

	srv := newMockServer()
	GetApp().server = srv

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, Run(ctx))
	assert.True(t, srv.wasShutdown())
}

func TestRun_NotInitialized(t *testing.T) {
	setupTest(t)
	assert.Error(t, Run(context.Background()))
}

func TestGetConfigAndDebugMode(t *testing.T) {
	cfg := setupTest(t)

	assert.Nil(t, GetConfig())
	assert.False(t, IsDebugMode())

	cfg.DebugMode = true
	GetApp().config = cfg
	assert.Same(t, cfg, GetConfig())
	assert.True(t, IsDebugMode())
}
