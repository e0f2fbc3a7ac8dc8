package roster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

// SentLog 记录不写时间戳的提示信息是否已经发送过，MarkSent 第一次调用返回 true。
// Forget 撤销记录，发送失败后下次调度会重新发送。
type SentLog interface {
	MarkSent(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type DispatchReport struct {
	Prompted int
	Informed int
	Failed   int
}

// WithSentLog 设置提示信息的去重记录，未设置时每次调度都会发送
func (s *Service) WithSentLog(l SentLog) *Service {
	s.sentLog = l
	return s
}

// sendInfo 发送提示信息，每个成员每天每个阶段只发一次。
// 去重记录不可用时仍然发送；发送失败时撤销记录。
func (s *Service) sendInfo(ctx context.Context, phase domain.Phase, shiftID, workerID int64, day string, msg domain.Notification, report *DispatchReport) {
	key := fmt.Sprintf("%s:%d:%d:%s", phase, shiftID, workerID, day)
	if s.sentLog != nil {
		first, err := s.sentLog.MarkSent(ctx, key)
		if err != nil {
			s.logger.Warn("读取发送记录失败", slog.String("key", key), "error", err)
		} else if !first {
			return
		}
	}

	if s.notify(ctx, workerID, msg) {
		report.Informed++
		return
	}
	report.Failed++
	if s.sentLog != nil {
		if err := s.sentLog.Forget(ctx, key); err != nil {
			s.logger.Warn("撤销发送记录失败", slog.String("key", key), "error", err)
		}
	}
}

// DispatchEveningReminders 给主名单发送确认提示并写入晚间时间戳，替补只收到提示信息。
// 只有发送成功的主名单成员才会被写入时间戳，超时扫描只针对这些成员。
func (s *Service) DispatchEveningReminders(ctx context.Context, shiftID int64, day string) (*DispatchReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, members, err := s.dispatchTargets(ctx, shiftID)
	if err != nil || shift == nil {
		return &DispatchReport{}, err
	}

	report := &DispatchReport{}
	prompt := eveningPromptMessage(shift, minutes(s.opts.EveningTimeout))
	info := eveningInfoMessage(shift)

	for _, m := range members {
		if m.Status != domain.StatusRegistered && m.Status != domain.StatusConfirmed {
			continue
		}
		if m.EveningReminderSentAt != nil {
			continue
		}

		if m.Role == domain.RoleMain {
			if !s.notify(ctx, m.WorkerID, prompt) {
				report.Failed++
				continue
			}
			if err := s.store.MarkReminderSent(ctx, shiftID, m.WorkerID, domain.PhaseEvening, s.clock.Now()); err != nil {
				s.logger.Error("写入晚间提醒时间失败", slog.Int64("shift_id", shiftID), slog.Int64("worker_id", m.WorkerID), "error", err)
				continue
			}
			report.Prompted++
			continue
		}

		s.sendInfo(ctx, domain.PhaseEvening, shiftID, m.WorkerID, day, info, report)
	}

	return report, nil
}

// DispatchMorningReminders 给已确认的主名单成员发送出勤确认并写入早间时间戳。
// 主名单已满时，已确认的替补会收到一条提示信息。
func (s *Service) DispatchMorningReminders(ctx context.Context, shiftID int64, day string) (*DispatchReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, members, err := s.dispatchTargets(ctx, shiftID)
	if err != nil || shift == nil {
		return &DispatchReport{}, err
	}

	mainCount := 0
	for _, m := range members {
		if m.Role == domain.RoleMain && !m.Status.Vacating() {
			mainCount++
		}
	}
	mainFull := mainCount >= int(shift.MainSlots)

	report := &DispatchReport{}
	prompt := morningPromptMessage(shift, minutes(s.opts.MorningTimeout))
	info := morningInfoMessage(shift)

	for _, m := range members {
		if m.MorningReminderSentAt != nil || m.Status != domain.StatusConfirmed {
			continue
		}

		if m.Role == domain.RoleMain {
			if !s.notify(ctx, m.WorkerID, prompt) {
				report.Failed++
				continue
			}
			if err := s.store.MarkReminderSent(ctx, shiftID, m.WorkerID, domain.PhaseMorning, s.clock.Now()); err != nil {
				s.logger.Error("写入早间提醒时间失败", slog.Int64("shift_id", shiftID), slog.Int64("worker_id", m.WorkerID), "error", err)
				continue
			}
			report.Prompted++
			continue
		}

		if mainFull {
			s.sendInfo(ctx, domain.PhaseMorning, shiftID, m.WorkerID, day, info, report)
		}
	}

	return report, nil
}

// dispatchTargets 在班次已结束时返回 nil 班次
func (s *Service) dispatchTargets(ctx context.Context, shiftID int64) (*domain.Shift, []*domain.RosterEntry, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, nil, fmt.Errorf("获取班次失败: %w", err)
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, nil, nil
	}
	members, err := s.store.ListMembers(ctx, shiftID)
	if err != nil {
		return nil, nil, fmt.Errorf("获取名单失败: %w", err)
	}
	return shift, members, nil
}

// ExpiredMembers 返回某阶段超过回应时限的主名单成员
func (s *Service) ExpiredMembers(ctx context.Context, shiftID int64, phase domain.Phase) ([]*domain.Membership, error) {
	cutoff := s.clock.Now().Add(-s.timeoutFor(phase))
	return s.store.GetMembersPastDeadline(ctx, shiftID, domain.RoleMain, phase, cutoff)
}
