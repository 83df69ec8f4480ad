// internal/models/storyboard.go
package models

import "slices"

// 场景时长的输入范围（秒）
const (
	DefaultSceneDuration = 6
	MinSceneDuration     = 1
	MaxSceneDuration     = 60
)

// 镜头运动选项
var CameraMovements = []string{
	"Static Shot",
	"Close-up",
	"Medium Shot",
	"Wide Shot",
	"Low-angle Shot",
	"Travelling Shot / Dolly",
}

// 灯光风格选项
var LightingStyles = []string{
	"Natural Light",
	"Soft Light",
	"Golden Hour",
	"Volumetric Lighting",
	"Cinematic Shadow",
}

// SceneDraft 生成分镜提示词时的场景草稿，不做持久化
type SceneDraft struct {
	Description    string   `json:"scene_description"`
	Duration       int      `json:"duration"`
	CharacterIDs   []string `json:"character_ids"`
	CameraMovement string   `json:"camera_movement,omitempty"`
	LightingStyle  string   `json:"lighting_style,omitempty"`
}

// StoryboardPrompt 一次生成中的单条提示词
type StoryboardPrompt struct {
	Sequence int    `json:"sequence"`
	Text     string `json:"text"`
}

// StoryboardOptions 前端下拉框使用的固定选项
type StoryboardOptions struct {
	CameraMovements []string `json:"camera_movements"`
	LightingStyles  []string `json:"lighting_styles"`
	DefaultDuration int      `json:"default_duration"`
	MinDuration     int      `json:"min_duration"`
	MaxDuration     int      `json:"max_duration"`
}

// DefaultStoryboardOptions 返回固定选项集合
func DefaultStoryboardOptions() StoryboardOptions {
	return StoryboardOptions{
		CameraMovements: slices.Clone(CameraMovements),
		LightingStyles:  slices.Clone(LightingStyles),
		DefaultDuration: DefaultSceneDuration,
		MinDuration:     MinSceneDuration,
		MaxDuration:     MaxSceneDuration,
	}
}

// IsCameraMovement 空字符串表示未选择，视为合法
func IsCameraMovement(label string) bool {
	return label == "" || slices.Contains(CameraMovements, label)
}

// IsLightingStyle 空字符串表示未选择，视为合法
func IsLightingStyle(label string) bool {
	return label == "" || slices.Contains(LightingStyles, label)
}
