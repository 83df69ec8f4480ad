// internal/storyboard/selection.go
package storyboard

import (
	"sort"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
)

// Selection 场景中已选角色ID的集合
type Selection struct {
	ids map[string]struct{}
}

// NewSelection 用给定ID初始化集合，重复ID只保留一个
func NewSelection(ids ...string) *Selection {
	s := &Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

// Toggle 已选则移除，未选则加入
func (s *Selection) Toggle(id string) {
	if id == "" {
		return
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs 返回排序后的ID，便于表单回传和比较
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve 按 roster 顺序返回已选角色，不在 roster 中的ID被忽略
func (s *Selection) Resolve(roster []models.Character) []models.Character {
	out := make([]models.Character, 0, len(s.ids))
	for _, c := range roster {
		if s.Contains(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// Names 与 Resolve 相同，但只返回角色名
func (s *Selection) Names(roster []models.Character) []string {
	resolved := s.Resolve(roster)
	names := make([]string, len(resolved))
	for i, c := range resolved {
		names[i] = c.Name
	}
	return names
}

// Prune 移除 roster 中已不存在的ID
func (s *Selection) Prune(roster []models.Character) {
	present := make(map[string]struct{}, len(roster))
	for _, c := range roster {
		present[c.ID] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := present[id]; !ok {
			delete(s.ids, id)
		}
	}
}
