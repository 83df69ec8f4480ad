// internal/storage/file_storage.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/models"
)

const charactersDir = "characters"

// FileStorage 以每条记录一个JSON文件的方式保存角色，用于本地开发
type FileStorage struct {
	BaseDir string

	// 并发控制
	fileLocks sync.Map // 文件级别锁 path -> *sync.RWMutex

	now func() time.Time
}

// NewFileStorage 创建文件存储服务
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, charactersDir), 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	return &FileStorage{
		BaseDir: baseDir,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// 获取文件锁
func (fs *FileStorage) getFileLock(fullPath string) *sync.RWMutex {
	value, _ := fs.fileLocks.LoadOrStore(fullPath, &sync.RWMutex{})
	return value.(*sync.RWMutex)
}

func (fs *FileStorage) recordPath(id string) string {
	return filepath.Join(fs.BaseDir, charactersDir, id+".json")
}

// writeRecord 原子性文件写入：先写临时文件再重命名
func (fs *FileStorage) writeRecord(fullPath string, c *models.Character) error {
	content, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return fmt.Errorf("保存临时文件失败: %w", err)
	}

	if err := os.Rename(tempPath, fullPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("保存文件失败: %w", err)
	}
	return nil
}

func readRecord(fullPath string) (*models.Character, error) {
	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}

	var c models.Character
	if err := json.Unmarshal(content, &c); err != nil {
		return nil, fmt.Errorf("解析JSON失败 %s: %w", filepath.Base(fullPath), err)
	}
	return &c, nil
}

// ListCharacters 读取全部角色，按创建时间升序
func (fs *FileStorage) ListCharacters(ctx context.Context) ([]models.Character, error) {
	dir := filepath.Join(fs.BaseDir, charactersDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	characters := make([]models.Character, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		fullPath := filepath.Join(dir, entry.Name())
		lock := fs.getFileLock(fullPath)
		lock.RLock()
		c, err := readRecord(fullPath)
		lock.RUnlock()
		if err != nil {
			// 读取期间被删除的记录直接跳过
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		characters = append(characters, *c)
	}

	sort.SliceStable(characters, func(i, j int) bool {
		if characters[i].CreatedAt.Equal(characters[j].CreatedAt) {
			return characters[i].ID < characters[j].ID
		}
		return characters[i].CreatedAt.Before(characters[j].CreatedAt)
	})
	return characters, nil
}

// GetCharacter 按ID读取角色
func (fs *FileStorage) GetCharacter(ctx context.Context, id string) (*models.Character, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("get character %s: %w", id, ErrNotFound)
	}

	fullPath := fs.recordPath(id)
	lock := fs.getFileLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	c, err := readRecord(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("get character %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get character %s: %w", id, err)
	}
	return c, nil
}

// CreateCharacter 分配ID和创建时间后写入
func (fs *FileStorage) CreateCharacter(ctx context.Context, c *models.Character) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.ID = uuid.NewString()
	c.CreatedAt = fs.now()

	fullPath := fs.recordPath(c.ID)
	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := fs.writeRecord(fullPath, c); err != nil {
		return fmt.Errorf("create character: %w", err)
	}
	return nil
}

// UpdateCharacter 只更新名称和简介，ID与创建时间保持不变
func (fs *FileStorage) UpdateCharacter(ctx context.Context, c *models.Character) error {
	if !ValidID(c.ID) {
		return fmt.Errorf("update character %s: %w", c.ID, ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := fs.recordPath(c.ID)
	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	existing, err := readRecord(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("update character %s: %w", c.ID, ErrNotFound)
		}
		return fmt.Errorf("update character %s: %w", c.ID, err)
	}

	existing.Name = c.Name
	existing.Profile = c.Profile
	if err := fs.writeRecord(fullPath, existing); err != nil {
		return fmt.Errorf("update character %s: %w", c.ID, err)
	}

	*c = *existing
	return nil
}

// DeleteCharacter 删除文件
func (fs *FileStorage) DeleteCharacter(ctx context.Context, id string) error {
	if !ValidID(id) {
		return fmt.Errorf("delete character %s: %w", id, ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := fs.recordPath(id)
	lock := fs.getFileLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete character %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete character %s: %w", id, err)
	}
	fs.fileLocks.Delete(fullPath)
	return nil
}

// Ping 检查存储目录可用
func (fs *FileStorage) Ping(ctx context.Context) error {
	info, err := os.Stat(filepath.Join(fs.BaseDir, charactersDir))
	if err != nil {
		return fmt.Errorf("存储目录不可用: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("存储路径不是目录: %s", info.Name())
	}
	return nil
}

// Close 文件存储无需释放资源
func (fs *FileStorage) Close() {}

var _ CharacterStore = (*FileStorage)(nil)
