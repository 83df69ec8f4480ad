// internal/views/composer.go
package views

import (
	"context"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storyboard"
)

// ComposerView 分镜页面的状态，每次进入都从存储重新读取角色
type ComposerView struct {
	chars *services.CharacterService
	board *services.StoryboardService

	Draft     models.SceneDraft
	Selection *storyboard.Selection
	Roster    []models.Character
	Prompts   []models.StoryboardPrompt
	Notice    *Notice
	Options   models.StoryboardOptions
}

// NewComposerView 用提交的草稿创建视图，时长为 0 时显示默认值
func NewComposerView(chars *services.CharacterService, board *services.StoryboardService, draft models.SceneDraft) *ComposerView {
	if draft.Duration == 0 {
		draft.Duration = models.DefaultSceneDuration
	}
	return &ComposerView{
		chars:     chars,
		board:     board,
		Draft:     draft,
		Selection: storyboard.NewSelection(draft.CharacterIDs...),
		Options:   board.Options(),
	}
}

// EmptyText 没有可选角色时的提示
func (v *ComposerView) EmptyText() string {
	return services.MsgEmptyComposerList
}

// Load 按名称顺序读取全部角色
func (v *ComposerView) Load(ctx context.Context) error {
	roster, err := v.chars.ListForComposer(ctx)
	if err != nil {
		v.Notice = errorNotice(err)
		return err
	}
	v.Roster = roster
	return nil
}

// Toggle 切换角色选中状态
func (v *ComposerView) Toggle(id string) {
	v.Selection.Toggle(id)
}

// Selected 已选角色，按列表顺序
func (v *ComposerView) Selected() []models.Character {
	return v.Selection.Resolve(v.Roster)
}

// IsSelected 供模板判断复选框状态
func (v *ComposerView) IsSelected(id string) bool {
	return v.Selection.Contains(id)
}

// Generate 用已加载的角色列表生成提示词，成功时整体替换上一次的结果
func (v *ComposerView) Generate(ctx context.Context) error {
	draft := v.Draft
	draft.CharacterIDs = v.Selection.IDs()

	prompts, err := v.board.GenerateWithRoster(ctx, draft, v.Roster)
	if err != nil {
		v.Notice = errorNotice(err)
		return err
	}
	v.Prompts = prompts
	v.Notice = successNotice(services.MsgPromptsGenerated)
	return nil
}
