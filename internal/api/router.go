// internal/api/router.go
package api

import (
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/config"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/di"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/web"
)

// Deps 路由需要的全部依赖
type Deps struct {
	Config      *config.Config
	Characters  *services.CharacterService
	Storyboard  *services.StoryboardService
	Sessions    *SessionManager
	WebSocket   *WebSocketManager
	RateLimiter *RateLimiter
	Metrics     *utils.APIMetrics
	Templates   *template.Template
}

// SetupRouter 从依赖注入容器获取服务并配置路由
func SetupRouter() (*gin.Engine, error) {
	container := di.GetContainer()

	cfg, err := di.Resolve[*config.Config](container, di.ServiceConfig)
	if err != nil {
		return nil, err
	}
	characters, err := di.Resolve[*services.CharacterService](container, di.ServiceCharacters)
	if err != nil {
		return nil, err
	}
	storyboard, err := di.Resolve[*services.StoryboardService](container, di.ServiceStoryboard)
	if err != nil {
		return nil, err
	}
	sessions, err := di.Resolve[*SessionManager](container, di.ServiceSessions)
	if err != nil {
		return nil, err
	}
	ws, err := di.Resolve[*WebSocketManager](container, di.ServiceWebSocket)
	if err != nil {
		return nil, err
	}
	limiter, err := di.Resolve[*RateLimiter](container, di.ServiceRateLimiter)
	if err != nil {
		return nil, err
	}
	metrics, err := di.Resolve[*utils.APIMetrics](container, di.ServiceMetrics)
	if err != nil {
		return nil, err
	}

	return NewRouter(Deps{
		Config:      cfg,
		Characters:  characters,
		Storyboard:  storyboard,
		Sessions:    sessions,
		WebSocket:   ws,
		RateLimiter: limiter,
		Metrics:     metrics,
	})
}

// NewRouter 配置HTTP路由
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Characters == nil || d.Storyboard == nil || d.Sessions == nil || d.WebSocket == nil {
		return nil, fmt.Errorf("路由依赖不完整")
	}
	if d.Metrics == nil {
		d.Metrics = utils.NewAPIMetrics(nil)
	}
	if d.Templates == nil {
		tmpl, err := web.Templates()
		if err != nil {
			return nil, fmt.Errorf("加载页面模板失败: %w", err)
		}
		d.Templates = tmpl
	}

	handler := NewHandler(d)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(utils.GetLogger()))
	r.Use(MetricsMiddleware(d.Metrics))
	r.Use(corsMiddleware())
	r.Use(d.Sessions.AuthMiddleware())

	r.SetHTMLTemplate(d.Templates)

	// ===============================
	// 页面路由
	// ===============================
	r.GET("/", handler.RedirectToStoryboard)
	r.GET("/storyboard", handler.StoryboardPage)
	r.POST("/storyboard", handler.StoryboardSubmit)

	characters := r.Group("/characters")
	{
		characters.GET("", handler.CharactersPage)
		characters.POST("", handler.CharactersSave)
		characters.POST("/cancel", handler.CharactersCancel)
		characters.POST("/:id/edit", handler.CharactersEdit)
		characters.POST("/:id/delete", handler.CharactersDelete)
	}

	// WebSocket 角色变更推送
	r.GET("/ws/characters", handler.CharacterFeed)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	api.Use(RateLimitByIP(d.RateLimiter))
	{
		charactersAPI := api.Group("/characters")
		{
			charactersAPI.GET("", handler.ListCharacters)
			charactersAPI.POST("", handler.CreateCharacter)
			charactersAPI.GET("/:id", handler.GetCharacter)
			charactersAPI.PUT("/:id", handler.UpdateCharacter)
			charactersAPI.DELETE("/:id", handler.DeleteCharacter)
		}

		storyboardAPI := api.Group("/storyboard")
		{
			storyboardAPI.GET("/options", handler.GetStoryboardOptions)
			storyboardAPI.POST("/generate", handler.GenerateStoryboard)
		}

		sessionAPI := api.Group("/session")
		{
			sessionAPI.GET("", handler.GetSession)
			sessionAPI.POST("/signout", handler.SignOut)
		}

		api.GET("/health", handler.HealthCheck)
		api.GET("/metrics", handler.GetMetrics)
		api.GET("/ws/status", handler.GetWebSocketStatus)
	}

	r.NoRoute(handler.NoRoute)

	return r, nil
}
