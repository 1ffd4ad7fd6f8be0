package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wyfcoding/quantengine/internal/risk/domain"
)

// StateRepository 基于本地 JSON 文件的回撤状态仓储。
// 写入采用临时文件加原子重命名，避免进程中断留下半截文档。
type StateRepository struct {
	path string
}

// NewStateRepository 创建文件仓储，path 为状态文件路径
func NewStateRepository(path string) *StateRepository {
	return &StateRepository{path: path}
}

// Load 加载持久化状态。文件不存在时返回 (nil, nil)。
func (r *StateRepository) Load() (*domain.ControllerState, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state domain.ControllerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	return &state, nil
}

// Save 原子写入状态文件，必要时创建父目录
func (r *StateRepository) Save(state domain.ControllerState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
