// internal/storage/store.go
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
)

// ErrNotFound 按ID操作时记录不存在
var ErrNotFound = errors.New("character not found")

// CharacterStore 角色记录的持久化契约。
// ListCharacters 总是返回全部记录，按创建时间升序；其他排序由调用方在读取时完成。
type CharacterStore interface {
	ListCharacters(ctx context.Context) ([]models.Character, error)
	GetCharacter(ctx context.Context, id string) (*models.Character, error)
	// CreateCharacter 写入后回填 ID 和 CreatedAt
	CreateCharacter(ctx context.Context, c *models.Character) error
	UpdateCharacter(ctx context.Context, c *models.Character) error
	DeleteCharacter(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close()
}

// ValidID 存储分配的ID都是UUID，其他格式一律视为不存在
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
