// internal/api/handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

// Handler 处理API和页面请求
type Handler struct {
	characters *services.CharacterService
	storyboard *services.StoryboardService
	sessions   *SessionManager
	ws         *WebSocketManager
	metrics    *utils.APIMetrics
	rh         *ResponseHelper
	logger     *utils.Logger
}

// NewHandler 创建处理器
func NewHandler(d Deps) *Handler {
	return &Handler{
		characters: d.Characters,
		storyboard: d.Storyboard,
		sessions:   d.Sessions,
		ws:         d.WebSocket,
		metrics:    d.Metrics,
		rh:         NewResponseHelper(),
		logger:     utils.GetLogger(),
	}
}

// 角色列表的排序方式
const (
	orderCreated = "created"
	orderName    = "name"
)

// ListCharacters 返回全部角色，order=created（默认）或 order=name
func (h *Handler) ListCharacters(c *gin.Context) {
	var (
		list []models.Character
		err  error
	)
	switch order := c.DefaultQuery("order", orderCreated); order {
	case orderCreated:
		list, err = h.characters.ListForLibrary(c.Request.Context())
	case orderName:
		list, err = h.characters.ListForComposer(c.Request.Context())
	default:
		h.rh.BadRequest(c, "Unknown order: "+order, "expected created or name")
		return
	}
	if err != nil {
		h.rh.AppError(c, err)
		return
	}
	h.rh.Success(c, list)
}

// GetCharacter 按ID返回角色
func (h *Handler) GetCharacter(c *gin.Context) {
	character, err := h.characters.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.rh.AppError(c, err)
		return
	}
	h.rh.Success(c, character)
}

// CreateCharacter 新建角色
func (h *Handler) CreateCharacter(c *gin.Context) {
	var in models.CharacterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.rh.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	character, err := h.characters.Create(c.Request.Context(), in)
	if err != nil {
		h.rh.AppError(c, err)
		return
	}
	h.rh.Created(c, character, services.MsgCharacterSaved)
}

// UpdateCharacter 更新角色名称和简介
func (h *Handler) UpdateCharacter(c *gin.Context) {
	var in models.CharacterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.rh.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	character, err := h.characters.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.rh.AppError(c, err)
		return
	}
	h.rh.Success(c, character, services.MsgCharacterUpdated)
}

// DeleteCharacter 删除角色
func (h *Handler) DeleteCharacter(c *gin.Context) {
	id := c.Param("id")
	if err := h.characters.Delete(c.Request.Context(), id); err != nil {
		h.rh.AppError(c, err)
		return
	}
	h.rh.Success(c, gin.H{"id": id}, services.MsgCharacterDeleted)
}

// GetStoryboardOptions 返回镜头和灯光选项
func (h *Handler) GetStoryboardOptions(c *gin.Context) {
	h.rh.Success(c, h.storyboard.Options())
}

// GenerateStoryboard 生成四条分镜提示词
func (h *Handler) GenerateStoryboard(c *gin.Context) {
	var draft models.SceneDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		h.rh.BadRequest(c, "Invalid request body", err.Error())
		return
	}

	prompts, err := h.storyboard.Generate(c.Request.Context(), draft)
	if err != nil {
		h.rh.AppError(c, err)
		return
	}
	h.rh.Success(c, gin.H{"prompts": prompts}, services.MsgPromptsGenerated)
}

// GetSession 返回当前用户，未登录时为访客
func (h *Handler) GetSession(c *gin.Context) {
	h.rh.Success(c, h.sessions.CurrentSession(c))
}

// SignOut 注销当前会话
func (h *Handler) SignOut(c *gin.Context) {
	h.sessions.SignOut(c)
	h.rh.Success(c, h.sessions.CurrentSession(c), "Signed out")
}

// HealthCheck 检查存储是否可用
func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.characters.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("健康检查失败", map[string]interface{}{"error": err})
		h.rh.Error(c, http.StatusServiceUnavailable, ErrorStoreUnavailable, "Character store unavailable")
		return
	}
	h.rh.Success(c, gin.H{
		"status":            "ok",
		"store":             "ok",
		"websocket_clients": h.ws.ClientCount(),
	})
}

// GetMetrics 返回进程内指标快照
func (h *Handler) GetMetrics(c *gin.Context) {
	h.rh.Success(c, h.metrics.Collector().GetMetrics())
}
