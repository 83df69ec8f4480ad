// internal/views/library.go
package views

import (
	"context"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/services"
)

// LibraryView 角色库页面的状态，每个请求从表单重建，渲染后丢弃。
// 成功的变更会重新读取列表；失败时保留表单和编辑状态，不刷新列表。
type LibraryView struct {
	svc *services.CharacterService

	Form       models.CharacterInput
	EditingID  string
	Characters []models.Character
	Notice     *Notice

	loaded bool
}

// NewLibraryView 用提交的表单和编辑状态创建视图
func NewLibraryView(svc *services.CharacterService, form models.CharacterInput, editingID string) *LibraryView {
	return &LibraryView{svc: svc, Form: form, EditingID: editingID}
}

// Editing 是否处于编辑模式
func (v *LibraryView) Editing() bool {
	return v.EditingID != ""
}

// Heading 表单标题
func (v *LibraryView) Heading() string {
	if v.Editing() {
		return "Edit Character"
	}
	return "Add New Character"
}

// EmptyText 列表为空时的提示
func (v *LibraryView) EmptyText() string {
	return services.MsgEmptyLibrary
}

// Loaded 列表是否已读取成功
func (v *LibraryView) Loaded() bool {
	return v.loaded
}

// Load 按创建时间读取全部角色
func (v *LibraryView) Load(ctx context.Context) error {
	characters, err := v.svc.ListForLibrary(ctx)
	if err != nil {
		if v.Notice == nil || !v.Notice.Error {
			v.Notice = errorNotice(err)
		}
		return err
	}
	v.Characters = characters
	v.loaded = true
	return nil
}

// EnsureLoaded 渲染前调用，已经刷新过则不再读取
func (v *LibraryView) EnsureLoaded(ctx context.Context) {
	if !v.loaded {
		_ = v.Load(ctx)
	}
}

// Save 编辑模式下更新，否则新建
func (v *LibraryView) Save(ctx context.Context) error {
	var (
		err     error
		message string
	)
	if v.Editing() {
		_, err = v.svc.Update(ctx, v.EditingID, v.Form)
		message = services.MsgCharacterUpdated
	} else {
		_, err = v.svc.Create(ctx, v.Form)
		message = services.MsgCharacterSaved
	}
	if err != nil {
		v.Notice = errorNotice(err)
		return err
	}

	v.Notice = successNotice(message)
	v.clearForm()
	_ = v.Load(ctx)
	return nil
}

// Edit 进入编辑模式并用角色当前内容填充表单
func (v *LibraryView) Edit(ctx context.Context, id string) error {
	c, err := v.svc.Get(ctx, id)
	if err != nil {
		v.Notice = errorNotice(err)
		return err
	}
	v.EditingID = c.ID
	v.Form = models.CharacterInput{Name: c.Name, Profile: c.Profile}
	return nil
}

// Cancel 退出编辑模式并清空表单
func (v *LibraryView) Cancel() {
	v.clearForm()
}

// Delete 直接删除。被删除的正是编辑中的角色时同时退出编辑模式。
func (v *LibraryView) Delete(ctx context.Context, id string) error {
	if err := v.svc.Delete(ctx, id); err != nil {
		v.Notice = errorNotice(err)
		return err
	}

	if id == v.EditingID {
		v.clearForm()
	}
	v.Notice = successNotice(services.MsgCharacterDeleted)
	_ = v.Load(ctx)
	return nil
}

func (v *LibraryView) clearForm() {
	v.Form = models.CharacterInput{}
	v.EditingID = ""
}
