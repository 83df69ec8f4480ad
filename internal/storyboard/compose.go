// internal/storyboard/compose.go
package storyboard

import (
	"strconv"
	"strings"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/errors"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
)

// MsgDescriptionRequired 场景描述为空时的提示
const MsgDescriptionRequired = "Please provide a scene description"

// PromptCount 每次生成的提示词数量
const PromptCount = 4

// shotSuffixes 按顺序附加到基础提示词之后：建立镜头、主要动作、反应镜头、收尾镜头
var shotSuffixes = [PromptCount]string{
	"Opening establishing shot to set the mood and context.",
	"Main action sequence with character interactions and dialogue.",
	"Reaction shots and emotional beats to enhance storytelling.",
	"Closing shot that transitions to the next scene or provides resolution.",
}

// Compose 根据场景草稿和角色列表生成四条分镜提示词。
// roster 是当前加载的角色列表，角色名按 roster 的顺序出现；
// 无法解析的角色ID直接忽略。描述去除空白后为空时返回验证错误。
func Compose(draft models.SceneDraft, roster []models.Character) ([]models.StoryboardPrompt, error) {
	if strings.TrimSpace(draft.Description) == "" {
		return nil, errors.NewValidationError(MsgDescriptionRequired, nil)
	}

	sel := NewSelection(draft.CharacterIDs...)
	base := BaseText(draft, sel.Names(roster))

	prompts := make([]models.StoryboardPrompt, 0, PromptCount)
	for i, suffix := range shotSuffixes {
		prompts = append(prompts, models.StoryboardPrompt{
			Sequence: i + 1,
			Text:     base + " " + suffix,
		})
	}
	return prompts, nil
}

// BaseText 拼接四条提示词共用的基础文本
func BaseText(draft models.SceneDraft, names []string) string {
	var sb strings.Builder

	if len(names) > 0 {
		sb.WriteString("Featuring characters: ")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString(". ")
	}

	sb.WriteString("Scene: ")
	sb.WriteString(draft.Description)
	sb.WriteString(". ")

	if draft.CameraMovement != "" {
		sb.WriteString("Camera: ")
		sb.WriteString(draft.CameraMovement)
		sb.WriteString(". ")
	}
	if draft.LightingStyle != "" {
		sb.WriteString("Lighting: ")
		sb.WriteString(draft.LightingStyle)
		sb.WriteString(". ")
	}

	sb.WriteString("Duration: ")
	sb.WriteString(strconv.Itoa(draft.Duration))
	sb.WriteString(" seconds.")
	return sb.String()
}

// ClampDuration 0 表示未填写，返回默认时长；其他值限制在 [1, 60]
func ClampDuration(d int) int {
	switch {
	case d == 0:
		return models.DefaultSceneDuration
	case d < models.MinSceneDuration:
		return models.MinSceneDuration
	case d > models.MaxSceneDuration:
		return models.MaxSceneDuration
	default:
		return d
	}
}
