// internal/api/auth_middleware.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/auth"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

const (
	ctxKeyUserID        = "user_id"
	ctxKeyAuthenticated = "user_authenticated"
	ctxKeyToken         = "session_token"
)

// SessionManager 校验会话令牌并提供当前用户
type SessionManager struct {
	tokens     *auth.TokenConfig
	revoked    *auth.Revocations
	cookieName string
	logger     *utils.Logger
}

// NewSessionManager 创建会话管理器
func NewSessionManager(secret []byte, ttl time.Duration, cookieName string) *SessionManager {
	if cookieName == "" {
		cookieName = "nnb_session"
	}
	return &SessionManager{
		tokens:     &auth.TokenConfig{Secret: secret, Expiration: ttl},
		revoked:    auth.NewRevocations(),
		cookieName: cookieName,
		logger:     utils.GetLogger(),
	}
}

// IssueToken 为用户签发令牌
func (sm *SessionManager) IssueToken(userID string) (string, error) {
	return auth.GenerateToken(userID, sm.tokens)
}

// tokenFromRequest 优先读取 Authorization 头，其次读取 cookie
func (sm *SessionManager) tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(sm.cookieName); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware 缺少或无效的令牌都降级为访客，不拒绝请求
func (sm *SessionManager) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxKeyUserID, auth.GuestUserID)
		c.Set(ctxKeyAuthenticated, false)

		raw := sm.tokenFromRequest(c)
		if raw == "" {
			c.Next()
			return
		}

		token, err := auth.ParseToken(raw, sm.tokens)
		if err != nil {
			sm.logger.Debug("无效令牌，按访客处理", map[string]interface{}{"error": err})
			c.Next()
			return
		}
		if sm.revoked.IsRevoked(token.ID) {
			c.Next()
			return
		}

		c.Set(ctxKeyUserID, token.UserID)
		c.Set(ctxKeyAuthenticated, true)
		c.Set(ctxKeyToken, token)
		c.Next()
	}
}

// GetUserFromContext retrieves the current user from the context
func GetUserFromContext(c *gin.Context) (string, bool) {
	userID := c.GetString(ctxKeyUserID)
	if userID == "" {
		return auth.GuestUserID, false
	}
	return userID, c.GetBool(ctxKeyAuthenticated)
}

// SessionInfo 当前用户信息
type SessionInfo struct {
	UserID        string     `json:"user_id"`
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// CurrentSession 返回当前用户
func (sm *SessionManager) CurrentSession(c *gin.Context) SessionInfo {
	userID, authenticated := GetUserFromContext(c)
	info := SessionInfo{UserID: userID, Authenticated: authenticated}
	if v, ok := c.Get(ctxKeyToken); ok {
		if token, ok := v.(*auth.Token); ok && !token.ExpiresAt.IsZero() {
			exp := token.ExpiresAt
			info.ExpiresAt = &exp
		}
	}
	return info
}

// SignOut 注销当前令牌并清除 cookie
func (sm *SessionManager) SignOut(c *gin.Context) {
	if v, ok := c.Get(ctxKeyToken); ok {
		if token, ok := v.(*auth.Token); ok {
			sm.revoked.Revoke(token.ID, token.ExpiresAt)
		}
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(ctxKeyUserID, auth.GuestUserID)
	c.Set(ctxKeyAuthenticated, false)
	c.Set(ctxKeyToken, nil)
}
