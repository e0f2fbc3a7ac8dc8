package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SentLog 记录已经发出的提示性消息，进程重启后也不会重复发送
type SentLog struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSentLog(rdb *redis.Client, ttl time.Duration) *SentLog {
	return &SentLog{rdb: rdb, ttl: ttl}
}

func (l *SentLog) MarkSent(ctx context.Context, key string) (bool, error) {
	return l.rdb.SetNX(ctx, "sent_"+key, 1, l.ttl).Result()
}

func (l *SentLog) Forget(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, "sent_"+key).Err()
}
