package rostertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

var ErrDeliveryFailed = errors.New("delivery failed")

type Sent struct {
	WorkerID     int64
	Notification domain.Notification
}

// Notifier 记录所有发出的通知，Fail 中的工人投递失败
type Notifier struct {
	mu    sync.Mutex
	Sent  []Sent
	Admin []domain.Notification
	Fail  map[int64]bool
}

func NewNotifier() *Notifier {
	return &Notifier{Fail: make(map[int64]bool)}
}

func (n *Notifier) Notify(ctx context.Context, workerID int64, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.Fail[workerID] {
		return ErrDeliveryFailed
	}
	n.Sent = append(n.Sent, Sent{WorkerID: workerID, Notification: msg})
	return nil
}

func (n *Notifier) NotifyAdmin(ctx context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Admin = append(n.Admin, msg)
	return nil
}

// To 返回某个工人收到的通知类型
func (n *Notifier) To(workerID int64) []domain.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()

	var types []domain.NotificationType
	for _, s := range n.Sent {
		if s.WorkerID == workerID {
			types = append(types, s.Notification.Type)
		}
	}
	return types
}

func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Sent = nil
	n.Admin = nil
}

type SentLog struct {
	mu   sync.Mutex
	keys map[string]bool
}

func NewSentLog() *SentLog {
	return &SentLog{keys: make(map[string]bool)}
}

func (l *SentLog) MarkSent(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.keys[key] {
		return false, nil
	}
	l.keys[key] = true
	return true, nil
}

func (l *SentLog) Forget(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.keys, key)
	return nil
}

// Clock 是可以手动拨动的时钟
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// AddWorker 创建一个资料完整、处于启用状态的工人
func (s *Store) AddWorker(city, fullName string) int64 {
	ctx := context.Background()
	s.mu.Lock()
	handle := fmt.Sprintf("worker%d", len(s.workers)+1)
	s.mu.Unlock()

	w := &domain.Worker{Handle: handle, Email: handle + "@example.com", IsActive: true}
	_ = s.CreateWorker(ctx, w)
	_ = s.UpsertProfile(ctx, &domain.WorkerProfile{
		WorkerID: w.ID,
		City:     city,
		FullName: fullName,
		Phone:    "+79000000000",
		Age:      25,
	})
	return w.ID
}

// SetFailures 直接设置连续失败次数
func (s *Store) SetFailures(workerID int64, n int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.profiles[workerID]; ok {
		p.ConsecutiveFailures = n
	}
}
