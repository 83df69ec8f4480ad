// internal/models/character.go
package models

import (
	"strings"
	"time"
)

// Character 表示角色库中的一个可复用角色
type Character struct {
	ID        string    `json:"id"`
	Name      string    `json:"character_name"`
	Profile   string    `json:"profile_text"`
	CreatedAt time.Time `json:"created_at"`
}

// CharacterInput 创建或更新角色时提交的字段
type CharacterInput struct {
	Name    string `json:"character_name" form:"character_name"`
	Profile string `json:"profile_text" form:"profile_text"`
}

// IsComplete 名称和简介在去除空白后都不为空
func (in CharacterInput) IsComplete() bool {
	return strings.TrimSpace(in.Name) != "" && strings.TrimSpace(in.Profile) != ""
}
