package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storage"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

type testEnv struct {
	router   *gin.Engine
	chars    *services.CharacterService
	sessions *SessionManager
	ws       *WebSocketManager
	metrics  *utils.APIMetrics
}

func newTestEnv(t *testing.T, limiter *RateLimiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	metrics := utils.NewAPIMetrics(utils.NewMetricsCollector())
	chars := services.NewCharacterService(store, metrics)
	ws := NewWebSocketManager()
	chars.AddNotifier(ws)
	sessions := NewSessionManager([]byte("0123456789abcdef0123456789abcdef"), time.Hour, "nnb_session")

	router, err := NewRouter(Deps{
		Characters:  chars,
		Storyboard:  services.NewStoryboardService(chars, 0),
		Sessions:    sessions,
		WebSocket:   ws,
		RateLimiter: limiter,
		Metrics:     metrics,
	})
	require.NoError(t, err)

	return &testEnv{router: router, chars: chars, sessions: sessions, ws: ws, metrics: metrics}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, header ...string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp APIResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (e *testEnv) form(t *testing.T, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, resp APIResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestCharacterAPI_CRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	w, resp := env.do(t, http.MethodPost, "/api/characters", map[string]string{
		"character_name": "Aria", "profile_text": "Scout",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, services.MsgCharacterSaved, resp.Message)
	assert.NotEmpty(t, resp.RequestID)

	var created models.Character
	decodeData(t, resp, &created)
	assert.Equal(t, "Aria", created.Name)

	w, resp = env.do(t, http.MethodPut, "/api/characters/"+created.ID, map[string]string{
		"character_name": "Aria", "profile_text": "Captain",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.MsgCharacterUpdated, resp.Message)

	w, resp = env.do(t, http.MethodGet, "/api/characters/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Character
	decodeData(t, resp, &got)
	assert.Equal(t, "Captain", got.Profile)

	w, _ = env.do(t, http.MethodDelete, "/api/characters/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/characters/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorCharacterNotFound, resp.Error.Code)
}

func TestCharacterAPI_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	w, resp := env.do(t, http.MethodPost, "/api/characters", map[string]string{
		"character_name": "  ", "profile_text": "Scout",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrorValidation, resp.Error.Code)
	assert.Equal(t, services.MsgFieldsRequired, resp.Error.Message)

	w, resp = env.do(t, http.MethodGet, "/api/characters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Character
	decodeData(t, resp, &list)
	assert.Empty(t, list)

	w, _ = env.do(t, http.MethodDelete, "/api/characters/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCharacterAPI_Orderings(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	for _, name := range []string{"Zed", "aria", "Borin"} {
		_, err := env.chars.Create(ctx, models.CharacterInput{Name: name, Profile: "p"})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	names := func(order string) []string {
		w, resp := env.do(t, http.MethodGet, "/api/characters?order="+order, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []models.Character
		decodeData(t, resp, &list)
		out := make([]string, len(list))
		for i, c := range list {
			out[i] = c.Name
		}
		return out
	}

	assert.Equal(t, []string{"Zed", "aria", "Borin"}, names("created"))
	assert.Equal(t, []string{"aria", "Borin", "Zed"}, names("name"))

	w, _ := env.do(t, http.MethodGet, "/api/characters?order=random", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoryboardAPI(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	aria, err := env.chars.Create(ctx, models.CharacterInput{Name: "Aria", Profile: "Scout"})
	require.NoError(t, err)
	borin, err := env.chars.Create(ctx, models.CharacterInput{Name: "Borin", Profile: "Smith"})
	require.NoError(t, err)

	w, resp := env.do(t, http.MethodPost, "/api/storyboard/generate", map[string]interface{}{
		"scene_description": "Duel at dawn",
		"duration":          10,
		"character_ids":     []string{borin.ID, aria.ID},
		"camera_movement":   "Close-up",
		"lighting_style":    "Golden Hour",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Prompts []models.StoryboardPrompt `json:"prompts"`
	}
	decodeData(t, resp, &data)
	require.Len(t, data.Prompts, 4)
	assert.True(t, strings.HasPrefix(data.Prompts[0].Text,
		"Featuring characters: Aria, Borin. Scene: Duel at dawn. Camera: Close-up. Lighting: Golden Hour. Duration: 10 seconds."))

	w, resp = env.do(t, http.MethodPost, "/api/storyboard/generate", map[string]interface{}{
		"scene_description": "   ",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please provide a scene description", resp.Error.Message)

	w, _ = env.do(t, http.MethodPost, "/api/storyboard/generate", map[string]interface{}{
		"scene_description": "x", "camera_movement": "Dutch Angle",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/storyboard/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var opts models.StoryboardOptions
	decodeData(t, resp, &opts)
	assert.Contains(t, opts.CameraMovements, "Travelling Shot / Dolly")
	assert.Contains(t, opts.LightingStyles, "Cinematic Shadow")
}

func TestSessionAPI(t *testing.T) {
	env := newTestEnv(t, nil)

	_, resp := env.do(t, http.MethodGet, "/api/session", nil)
	var info SessionInfo
	decodeData(t, resp, &info)
	assert.Equal(t, "guest", info.UserID)
	assert.False(t, info.Authenticated)

	token, err := env.sessions.IssueToken("writer-1")
	require.NoError(t, err)
	bearer := "Bearer " + token

	_, resp = env.do(t, http.MethodGet, "/api/session", nil, "Authorization", bearer)
	decodeData(t, resp, &info)
	assert.Equal(t, "writer-1", info.UserID)
	assert.True(t, info.Authenticated)

	w, _ := env.do(t, http.MethodPost, "/api/session/signout", nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, w.Code)

	// 注销后同一令牌降级为访客
	_, resp = env.do(t, http.MethodGet, "/api/session", nil, "Authorization", bearer)
	decodeData(t, resp, &info)
	assert.Equal(t, "guest", info.UserID)
	assert.False(t, info.Authenticated)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	w, resp := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	w, _ = env.do(t, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, env.metrics.Collector().GetCounterValue("api_requests_total"), int64(2))
}

func TestRedirects(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/", "/somewhere/else"} {
		w, _ := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		assert.Equal(t, "/storyboard", w.Header().Get("Location"))
	}

	w, resp := env.do(t, http.MethodGet, "/api/nothing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, NewRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		w, _ := env.do(t, http.MethodGet, "/api/storyboard/options", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w, resp := env.do(t, http.MethodGet, "/api/storyboard/options", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, ErrorRateLimited, resp.Error.Code)

	// 页面不受API限流影响
	w, _ = env.do(t, http.MethodGet, "/storyboard", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.Equal(t, 0, rl.Cleanup(time.Now()))
	assert.Equal(t, 1, rl.Cleanup(time.Now().Add(2*time.Hour)))
	assert.True(t, rl.Allow("a"))

	var disabled *RateLimiter
	assert.True(t, disabled.Allow("x"))
}
