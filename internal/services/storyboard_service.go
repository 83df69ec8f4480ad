// internal/services/storyboard_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/errors"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storyboard"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/utils"
)

// StoryboardService 读取角色列表并生成分镜提示词
type StoryboardService struct {
	characters *CharacterService
	metrics    *utils.APIMetrics
	logger     *utils.Logger

	// delay 生成前的模拟等待，随请求上下文取消
	delay time.Duration
}

// NewStoryboardService 创建分镜服务
func NewStoryboardService(characters *CharacterService, delay time.Duration) *StoryboardService {
	return &StoryboardService{
		characters: characters,
		metrics:    characters.metrics,
		logger:     utils.GetLogger(),
		delay:      delay,
	}
}

// Options 返回镜头和灯光的固定选项
func (s *StoryboardService) Options() models.StoryboardOptions {
	return models.DefaultStoryboardOptions()
}

// ValidateDraft 检查描述和枚举标签，不访问存储
func ValidateDraft(draft models.SceneDraft) error {
	if strings.TrimSpace(draft.Description) == "" {
		return errors.NewValidationError(storyboard.MsgDescriptionRequired, nil)
	}
	if !models.IsCameraMovement(draft.CameraMovement) {
		return errors.NewValidationError(fmt.Sprintf("Unknown camera movement: %s", draft.CameraMovement), nil)
	}
	if !models.IsLightingStyle(draft.LightingStyle) {
		return errors.NewValidationError(fmt.Sprintf("Unknown lighting style: %s", draft.LightingStyle), nil)
	}
	return nil
}

// Generate 按名称顺序加载角色后生成四条提示词。
// 时长为 0 时使用默认值，超出范围的值被限制在 [1, 60]。
func (s *StoryboardService) Generate(ctx context.Context, draft models.SceneDraft) ([]models.StoryboardPrompt, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}

	roster, err := s.characters.ListForComposer(ctx)
	if err != nil {
		return nil, err
	}
	return s.GenerateWithRoster(ctx, draft, roster)
}

// GenerateWithRoster 使用调用方已加载的角色列表生成
func (s *StoryboardService) GenerateWithRoster(ctx context.Context, draft models.SceneDraft, roster []models.Character) ([]models.StoryboardPrompt, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}
	start := time.Now()

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, errors.NewAppError(errors.ErrorTypeTimeout, MsgGenerationCanceled, ctx.Err())
		case <-timer.C:
		}
	}

	draft.Duration = storyboard.ClampDuration(draft.Duration)
	prompts, err := storyboard.Compose(draft, roster)
	if err != nil {
		return nil, err
	}

	resolved := storyboard.NewSelection(draft.CharacterIDs...).Resolve(roster)
	s.metrics.RecordGeneration(len(resolved), time.Since(start))
	s.logger.Debug("分镜提示词已生成", map[string]interface{}{
		"characters": len(resolved),
		"duration":   draft.Duration,
	})
	return prompts, nil
}
