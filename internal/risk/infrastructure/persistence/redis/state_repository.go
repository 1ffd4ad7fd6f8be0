package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/quantengine/internal/risk/domain"
)

const opTimeout = 3 * time.Second

// StateRepository 基于 Redis 的回撤状态仓储。
// 单键存储完整 JSON 文档，多实例部署时共享同一份状态。
type StateRepository struct {
	client *redis.Client
	key    string
}

// NewStateRepository 创建 Redis 仓储，key 为状态存储键
func NewStateRepository(client *redis.Client, key string) *StateRepository {
	if key == "" {
		key = "risk:drawdown:state"
	}
	return &StateRepository{client: client, key: key}
}

// Load 加载持久化状态。键不存在时返回 (nil, nil)。
func (r *StateRepository) Load() (*domain.ControllerState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get state from redis: %w", err)
	}

	var state domain.ControllerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state document: %w", err)
	}
	return &state, nil
}

// Save 写入状态文档，不设置过期时间
func (r *StateRepository) Save(state domain.ControllerState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("set state in redis: %w", err)
	}
	return nil
}
