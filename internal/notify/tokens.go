package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

func tokenKey(token string) string {
	return fmt.Sprintf("action_token_%s", token)
}

// Tokens 把一次性链接对应的操作保存在 redis 中
type Tokens struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTokens(rdb *redis.Client, ttl time.Duration) *Tokens {
	return &Tokens{rdb: rdb, ttl: ttl}
}

func (t *Tokens) Issue(ctx context.Context, grant domain.ActionGrant) (string, error) {
	data, err := json.Marshal(grant)
	if err != nil {
		return "", err
	}

	token := uuid.NewString()
	if err := t.rdb.Set(ctx, tokenKey(token), data, t.ttl).Err(); err != nil {
		return "", fmt.Errorf("保存操作令牌失败: %w", err)
	}
	return token, nil
}

// Resolve 令牌不存在或已过期时返回 ErrNotFound
func (t *Tokens) Resolve(ctx context.Context, token string) (*domain.ActionGrant, error) {
	if err := uuid.Validate(token); err != nil {
		return nil, domain.ErrNotFound
	}

	data, err := t.rdb.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	grant := &domain.ActionGrant{}
	if err := json.Unmarshal(data, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// Revoke 删除已经使用过的令牌
func (t *Tokens) Revoke(ctx context.Context, token string) error {
	return t.rdb.Del(ctx, tokenKey(token)).Err()
}
