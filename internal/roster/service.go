package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type Options struct {
	EveningTimeout   time.Duration
	MorningTimeout   time.Duration
	FailureThreshold int
}

func DefaultOptions() Options {
	return Options{
		EveningTimeout:   30 * time.Minute,
		MorningTimeout:   10 * time.Minute,
		FailureThreshold: 4,
	}
}

// Service 是所有名单状态变更的唯一入口。
// HTTP 处理器和提醒调度器共用同一个互斥锁，状态变更串行执行。
type Service struct {
	mu       sync.Mutex
	store    Store
	notifier Notifier
	clock    Clock
	logger   *slog.Logger
	opts     Options
	sentLog  SentLog
}

func NewService(store Store, notifier Notifier, clock Clock, logger *slog.Logger, opts Options) *Service {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = DefaultOptions().FailureThreshold
	}
	if opts.EveningTimeout <= 0 {
		opts.EveningTimeout = DefaultOptions().EveningTimeout
	}
	if opts.MorningTimeout <= 0 {
		opts.MorningTimeout = DefaultOptions().MorningTimeout
	}
	return &Service{
		store:    store,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		opts:     opts,
	}
}

func (s *Service) Options() Options {
	return s.opts
}

func (s *Service) Store() Store {
	return s.store
}

func (s *Service) timeoutFor(phase domain.Phase) time.Duration {
	if phase == domain.PhaseMorning {
		return s.opts.MorningTimeout
	}
	return s.opts.EveningTimeout
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}

// notify 在状态已经提交之后调用，投递失败只记录日志
func (s *Service) notify(ctx context.Context, workerID int64, n domain.Notification) bool {
	if err := s.notifier.Notify(ctx, workerID, n); err != nil {
		s.logger.Warn("通知工人失败", slog.Int64("worker_id", workerID), slog.String("type", string(n.Type)), "error", err)
		return false
	}
	return true
}

func (s *Service) notifyAdmin(ctx context.Context, n domain.Notification) {
	if err := s.notifier.NotifyAdmin(ctx, n); err != nil {
		s.logger.Warn("通知管理员失败", slog.String("subject", n.Subject), "error", err)
	}
}

// workerName 用于管理员通知，资料不存在时退化为 ID
func (s *Service) workerName(ctx context.Context, workerID int64) string {
	p, err := s.store.GetProfile(ctx, workerID)
	if err != nil || p.FullName == "" {
		return fmt.Sprintf("ID %d", workerID)
	}
	return p.FullName
}

// membership 读取班次和成员记录
func (s *Service) membership(ctx context.Context, shiftID, workerID int64) (*domain.Shift, *domain.Membership, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, nil, fmt.Errorf("获取班次失败: %w", err)
	}
	m, err := s.store.GetMembership(ctx, shiftID, workerID)
	if err != nil {
		return nil, nil, fmt.Errorf("获取成员记录失败: %w", err)
	}
	return shift, m, nil
}

// apply 先用转移表校验，再做条件更新。
// 存储层返回 ErrStaleStatus 说明状态已被其他路径改变，按转移表重新解释为 ErrInvalidTransition。
func (s *Service) apply(ctx context.Context, m *domain.Membership, event Event) (*domain.Membership, error) {
	to, err := Next(event, m.Status)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.TransitionMembership(ctx, m.ShiftID, m.WorkerID, Sources(event), to)
	if err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidTransition, event)
		}
		return nil, err
	}
	return updated, nil
}
