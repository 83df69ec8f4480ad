// internal/services/character_service.go
package services

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/errors"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storage"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

// 面向用户的提示文本
const (
	MsgFieldsRequired     = "Please fill in both character name and profile"
	MsgFetchFailed        = "Failed to fetch characters"
	MsgSaveFailed         = "Failed to save character"
	MsgDeleteFailed       = "Failed to delete character"
	MsgCharacterNotFound  = "Character not found"
	MsgCharacterSaved     = "Character saved successfully"
	MsgCharacterUpdated   = "Character updated successfully"
	MsgCharacterDeleted   = "Character deleted successfully"
	MsgEmptyLibrary       = "No characters yet. Add your first character above!"
	MsgEmptyComposerList  = "No characters available. Create characters in the Character Library first."
	MsgPromptsGenerated   = "Storyboard prompts generated successfully!"
	MsgGenerationCanceled = "Generation cancelled"
)

// 角色变更动作
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent 角色成功变更后发布的事件
type ChangeEvent struct {
	Action    string           `json:"action"`
	Character models.Character `json:"character"`
	At        time.Time        `json:"at"`
}

// ChangeNotifier 接收角色变更事件，实现方不得阻塞
type ChangeNotifier interface {
	NotifyCharacterChange(event ChangeEvent)
}

// CharacterService 处理角色库的增删改查。
// 存储是唯一的数据来源，服务本身不缓存角色。
type CharacterService struct {
	store   storage.CharacterStore
	metrics *utils.APIMetrics
	logger  *utils.Logger

	mu        sync.RWMutex
	notifiers []ChangeNotifier
}

// NewCharacterService 创建角色服务
func NewCharacterService(store storage.CharacterStore, metrics *utils.APIMetrics) *CharacterService {
	if metrics == nil {
		metrics = utils.NewAPIMetrics(nil)
	}
	return &CharacterService{
		store:   store,
		metrics: metrics,
		logger:  utils.GetLogger(),
	}
}

// AddNotifier 注册变更通知接收方
func (s *CharacterService) AddNotifier(n ChangeNotifier) {
	if n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

func (s *CharacterService) publish(action string, c models.Character) {
	s.metrics.RecordCharacterMutation(action)

	s.mu.RLock()
	notifiers := s.notifiers
	s.mu.RUnlock()

	event := ChangeEvent{Action: action, Character: c, At: time.Now().UTC()}
	for _, n := range notifiers {
		n.NotifyCharacterChange(event)
	}
}

// storeError 将存储层错误转换为应用错误，未找到单独处理
func (s *CharacterService) storeError(op, id, message string, err error) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.NewNotFoundError(MsgCharacterNotFound, err)
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewAppError(errors.ErrorTypeTimeout, message, err)
	}

	s.metrics.RecordError(string(errors.ErrorTypeError), "character_store")
	s.logger.Error("角色存储操作失败", map[string]interface{}{
		"op":    op,
		"id":    id,
		"error": err,
	})
	return errors.NewProcessingError(message, err)
}

// Create 校验后新建角色，名称和简介原样保存
func (s *CharacterService) Create(ctx context.Context, in models.CharacterInput) (*models.Character, error) {
	if !in.IsComplete() {
		return nil, errors.NewValidationError(MsgFieldsRequired, nil)
	}

	c := &models.Character{Name: in.Name, Profile: in.Profile}
	if err := s.store.CreateCharacter(ctx, c); err != nil {
		return nil, s.storeError("create", "", MsgSaveFailed, err)
	}

	s.logger.Info("角色已创建", map[string]interface{}{"id": c.ID, "name": c.Name})
	s.publish(ActionCreated, *c)
	return c, nil
}

// Update 校验后更新指定角色的名称和简介
func (s *CharacterService) Update(ctx context.Context, id string, in models.CharacterInput) (*models.Character, error) {
	if !in.IsComplete() {
		return nil, errors.NewValidationError(MsgFieldsRequired, nil)
	}

	c := &models.Character{ID: id, Name: in.Name, Profile: in.Profile}
	if err := s.store.UpdateCharacter(ctx, c); err != nil {
		return nil, s.storeError("update", id, MsgSaveFailed, err)
	}

	s.logger.Info("角色已更新", map[string]interface{}{"id": c.ID})
	s.publish(ActionUpdated, *c)
	return c, nil
}

// Delete 按ID删除角色，不需要确认
func (s *CharacterService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCharacter(ctx, id); err != nil {
		return s.storeError("delete", id, MsgDeleteFailed, err)
	}

	s.logger.Info("角色已删除", map[string]interface{}{"id": id})
	s.publish(ActionDeleted, models.Character{ID: id})
	return nil
}

// Get 按ID读取角色
func (s *CharacterService) Get(ctx context.Context, id string) (*models.Character, error) {
	c, err := s.store.GetCharacter(ctx, id)
	if err != nil {
		return nil, s.storeError("get", id, MsgFetchFailed, err)
	}
	return c, nil
}

// list 唯一的规范查询，结果按创建时间升序
func (s *CharacterService) list(ctx context.Context) ([]models.Character, error) {
	characters, err := s.store.ListCharacters(ctx)
	if err != nil {
		return nil, s.storeError("list", "", MsgFetchFailed, err)
	}
	return characters, nil
}

// ListForLibrary 角色库视图：按创建时间升序
func (s *CharacterService) ListForLibrary(ctx context.Context) ([]models.Character, error) {
	return s.list(ctx)
}

// ListForComposer 分镜视图：按名称字母顺序
func (s *CharacterService) ListForComposer(ctx context.Context) ([]models.Character, error) {
	characters, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	SortByName(characters)
	return characters, nil
}

// SortByName 忽略大小写比较名称，相同时按原名和ID保证稳定
func SortByName(characters []models.Character) {
	sort.SliceStable(characters, func(i, j int) bool {
		a, b := characters[i], characters[j]
		la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if la != lb {
			return la < lb
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

// Ping 检查存储是否可用
func (s *CharacterService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
