// internal/api/pages.go
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/errors"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/views"
)

// 页面名称，同时用于导航高亮
const (
	pageStoryboard = "storyboard"
	pageCharacters = "characters"
)

// statusFor 页面仍然渲染，状态码反映操作结果
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) renderPage(c *gin.Context, status int, page string, view interface{}) {
	c.HTML(status, page+".html", gin.H{
		"Page":    page,
		"View":    view,
		"Session": h.sessions.CurrentSession(c),
	})
}

// RedirectToStoryboard 根路径和未知页面都跳转到分镜页
func (h *Handler) RedirectToStoryboard(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, "/"+pageStoryboard)
}

// NoRoute API路径返回JSON 404，其他路径跳转
func (h *Handler) NoRoute(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		h.rh.NotFound(c, "")
		return
	}
	h.RedirectToStoryboard(c)
}

// ---------------- 分镜页 ----------------

// draftFromForm 解析分镜表单，无法解析的时长按未填写处理
func draftFromForm(c *gin.Context) models.SceneDraft {
	duration, _ := strconv.Atoi(strings.TrimSpace(c.PostForm("duration")))
	return models.SceneDraft{
		Description:    c.PostForm("scene_description"),
		Duration:       duration,
		CharacterIDs:   c.PostFormArray("selected"),
		CameraMovement: c.PostForm("camera_movement"),
		LightingStyle:  c.PostForm("lighting_style"),
	}
}

// StoryboardPage 显示空白草稿
func (h *Handler) StoryboardPage(c *gin.Context) {
	v := views.NewComposerView(h.characters, h.storyboard, models.SceneDraft{})
	err := v.Load(c.Request.Context())
	h.renderPage(c, statusFor(err), pageStoryboard, v)
}

// StoryboardSubmit 处理切换角色和生成两种提交
func (h *Handler) StoryboardSubmit(c *gin.Context) {
	v := views.NewComposerView(h.characters, h.storyboard, draftFromForm(c))
	if err := v.Load(c.Request.Context()); err != nil {
		h.renderPage(c, statusFor(err), pageStoryboard, v)
		return
	}

	if id := c.PostForm("toggle"); id != "" {
		v.Toggle(id)
		// 切换选择不重新生成，保留上一次的结果
		for i, text := range c.PostFormArray("prompt") {
			v.Prompts = append(v.Prompts, models.StoryboardPrompt{Sequence: i + 1, Text: text})
		}
		h.renderPage(c, http.StatusOK, pageStoryboard, v)
		return
	}

	err := v.Generate(c.Request.Context())
	h.renderPage(c, statusFor(err), pageStoryboard, v)
}

// ---------------- 角色库页 ----------------

func (h *Handler) libraryViewFromForm(c *gin.Context) *views.LibraryView {
	form := models.CharacterInput{
		Name:    c.PostForm("character_name"),
		Profile: c.PostForm("profile_text"),
	}
	return views.NewLibraryView(h.characters, form, c.PostForm("editing_id"))
}

func (h *Handler) renderLibrary(c *gin.Context, v *views.LibraryView, err error) {
	v.EnsureLoaded(c.Request.Context())
	h.renderPage(c, statusFor(err), pageCharacters, v)
}

// CharactersPage 显示角色库
func (h *Handler) CharactersPage(c *gin.Context) {
	v := views.NewLibraryView(h.characters, models.CharacterInput{}, "")
	err := v.Load(c.Request.Context())
	h.renderPage(c, statusFor(err), pageCharacters, v)
}

// CharactersSave 新建或更新角色
func (h *Handler) CharactersSave(c *gin.Context) {
	v := h.libraryViewFromForm(c)
	err := v.Save(c.Request.Context())
	h.renderLibrary(c, v, err)
}

// CharactersEdit 进入编辑模式
func (h *Handler) CharactersEdit(c *gin.Context) {
	v := views.NewLibraryView(h.characters, models.CharacterInput{}, "")
	err := v.Edit(c.Request.Context(), c.Param("id"))
	h.renderLibrary(c, v, err)
}

// CharactersCancel 退出编辑模式
func (h *Handler) CharactersCancel(c *gin.Context) {
	v := h.libraryViewFromForm(c)
	v.Cancel()
	h.renderLibrary(c, v, nil)
}

// CharactersDelete 删除角色，表单中的编辑状态随请求带回
func (h *Handler) CharactersDelete(c *gin.Context) {
	v := h.libraryViewFromForm(c)
	err := v.Delete(c.Request.Context(), c.Param("id"))
	h.renderLibrary(c, v, err)
}
