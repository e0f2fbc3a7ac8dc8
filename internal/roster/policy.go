package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

const minAppealLength = 10

// recordFailure 累加连续失败次数，达到阈值时停用工人。
// 只有这一次调用真正完成停用时才返回 true。
func (s *Service) recordFailure(ctx context.Context, workerID int64) (bool, error) {
	failures, err := s.store.IncrementFailures(ctx, workerID)
	if err != nil {
		return false, fmt.Errorf("更新连续失败次数失败: %w", err)
	}
	if failures < s.opts.FailureThreshold {
		return false, nil
	}

	blocked, err := s.store.BlockWorker(ctx, workerID)
	if err != nil {
		return false, fmt.Errorf("停用工人失败: %w", err)
	}
	if blocked {
		s.logger.Info("工人连续失败次数达到阈值，已停用",
			slog.Int64("worker_id", workerID), slog.Int("failures", failures))
	}
	return blocked, nil
}

func (s *Service) recordSuccess(ctx context.Context, workerID int64) error {
	if err := s.store.ResetFailures(ctx, workerID); err != nil {
		return fmt.Errorf("清零连续失败次数失败: %w", err)
	}
	return nil
}

// Unblock 由管理员直接恢复工人
func (s *Service) Unblock(ctx context.Context, workerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.UnblockWorker(ctx, workerID); err != nil {
		return err
	}
	s.notify(ctx, workerID, unblockResolvedMessage(true))
	return nil
}

type AppealResult struct {
	Request *domain.UnblockRequest `json:"request,omitempty"`
	// Duplicate 为 true 时已有待处理的申请，本次没有创建新申请
	Duplicate bool `json:"duplicate"`
}

// FileUnblockRequest 提交解封申请，已有待处理申请时返回 Duplicate
func (s *Service) FileUnblockRequest(ctx context.Context, workerID int64, message string) (*AppealResult, error) {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) < minAppealLength {
		return nil, fmt.Errorf("%w: 申请内容至少需要 %d 个字符", domain.ErrInvalidInput, minAppealLength)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.store.GetProfile(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("获取工人资料失败: %w", err)
	}
	if profile.IsActive {
		return nil, domain.ErrWorkerNotBlocked
	}

	req := &domain.UnblockRequest{
		WorkerID:  workerID,
		City:      profile.City,
		Message:   message,
		Status:    domain.UnblockPending,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateUnblockRequest(ctx, req); err != nil {
		if errors.Is(err, domain.ErrDuplicateAppeal) {
			return &AppealResult{Duplicate: true}, nil
		}
		return nil, err
	}

	phone := profile.Phone
	if phone == "" {
		phone = "—"
	}
	s.notifyAdmin(ctx, adminMessage("Новая заявка на разблокировку",
		"🔓 Новая заявка на разблокировку\n\n👤 %s\n📱 %s\n🏙 Город: %s\n❌ Отказов: %d | ⏳ Игнорировал: %d\n\n💬 Сообщение:\n%s",
		profile.FullName, phone, profile.City, profile.RefusedShifts, profile.IgnoredShifts, message))

	return &AppealResult{Request: req}, nil
}

// ApproveUnblockRequest 先把申请改为 approved 再恢复工人，重复处理会得到 ErrInvalidTransition
func (s *Service) ApproveUnblockRequest(ctx context.Context, id int64) (*domain.UnblockRequest, error) {
	return s.resolveUnblockRequest(ctx, id, domain.UnblockApproved)
}

func (s *Service) DenyUnblockRequest(ctx context.Context, id int64) (*domain.UnblockRequest, error) {
	return s.resolveUnblockRequest(ctx, id, domain.UnblockDenied)
}

func (s *Service) resolveUnblockRequest(ctx context.Context, id int64, status domain.UnblockStatus) (*domain.UnblockRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.store.ResolveUnblockRequest(ctx, id, status)
	if err != nil {
		return nil, err
	}

	approved := status == domain.UnblockApproved
	if approved {
		if err := s.store.UnblockWorker(ctx, req.WorkerID); err != nil {
			return nil, fmt.Errorf("恢复工人失败: %w", err)
		}
	}
	s.notify(ctx, req.WorkerID, unblockResolvedMessage(approved))

	return req, nil
}

func (s *Service) PendingUnblockRequests(ctx context.Context) ([]*domain.UnblockRequestView, error) {
	reqs, err := s.store.ListPendingUnblockRequests(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return reqs, nil
}
