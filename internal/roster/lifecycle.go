package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

type ConfirmResult struct {
	Membership *domain.Membership `json:"membership"`
	// AlreadyConfirmed 为 true 时没有发生任何状态变化
	AlreadyConfirmed bool `json:"alreadyConfirmed"`
}

type DeclineResult struct {
	Membership *domain.Membership `json:"membership"`
	Blocked    bool               `json:"blocked"`
	Promoted   *domain.Membership `json:"promoted,omitempty"`
}

type TimeoutResult struct {
	// Applied 为 false 表示成员已不是 registered 状态，本次超时被忽略
	Applied  bool               `json:"applied"`
	Blocked  bool               `json:"blocked"`
	Promoted *domain.Membership `json:"promoted,omitempty"`
}

func (s *Service) activeMembership(ctx context.Context, shiftID, workerID int64) (*domain.Shift, *domain.Membership, error) {
	shift, m, err := s.membership(ctx, shiftID, workerID)
	if err != nil {
		return nil, nil, err
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, nil, domain.ErrShiftNotActive
	}
	return shift, m, nil
}

// Confirm 处理晚间确认
func (s *Service) Confirm(ctx context.Context, shiftID, workerID int64) (*ConfirmResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, m, err := s.activeMembership(ctx, shiftID, workerID)
	if err != nil {
		return nil, err
	}
	if m.Status == domain.StatusConfirmed {
		return &ConfirmResult{Membership: m, AlreadyConfirmed: true}, nil
	}

	updated, err := s.apply(ctx, m, EventConfirm)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementStat(ctx, workerID, domain.StatConfirmedShifts); err != nil {
		return nil, fmt.Errorf("更新确认次数失败: %w", err)
	}
	if err := s.recordSuccess(ctx, workerID); err != nil {
		return nil, err
	}

	s.notify(ctx, workerID, confirmedMessage(shift, m.Role))
	s.notifyAdmin(ctx, adminMessage("Подтверждение",
		"✅ Подтверждение\n👤 %s | %s\n📅 %s | %s",
		s.workerName(ctx, workerID), roleLabel(m.Role), shift.Date, shift.City))

	return &ConfirmResult{Membership: updated}, nil
}

// MorningConfirm 处理早间确认。已确认的成员再次确认视为回执，同样清零连续失败次数。
func (s *Service) MorningConfirm(ctx context.Context, shiftID, workerID int64) (*ConfirmResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, m, err := s.activeMembership(ctx, shiftID, workerID)
	if err != nil {
		return nil, err
	}

	already := m.Status == domain.StatusConfirmed
	updated := m
	if !already {
		if updated, err = s.apply(ctx, m, EventMorningConfirm); err != nil {
			return nil, err
		}
	}
	if err := s.recordSuccess(ctx, workerID); err != nil {
		return nil, err
	}

	s.notify(ctx, workerID, morningConfirmedMessage(shift))
	s.notifyAdmin(ctx, adminMessage("Утреннее подтверждение",
		"🌅 Утреннее подтверждение\n👤 %s подтвердил готовность\n📅 %s | %s",
		s.workerName(ctx, workerID), shift.Date, shift.City))

	return &ConfirmResult{Membership: updated, AlreadyConfirmed: already}, nil
}

// Decline 处理工人主动拒绝，主名单成员拒绝后按晚间方式补位
func (s *Service) Decline(ctx context.Context, shiftID, workerID int64) (*DeclineResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, m, err := s.activeMembership(ctx, shiftID, workerID)
	if err != nil {
		return nil, err
	}

	updated, err := s.apply(ctx, m, EventDecline)
	if err != nil {
		return nil, err
	}
	if err := s.store.IncrementStat(ctx, workerID, domain.StatRefusedShifts); err != nil {
		return nil, fmt.Errorf("更新拒绝次数失败: %w", err)
	}
	blocked, err := s.recordFailure(ctx, workerID)
	if err != nil {
		return nil, err
	}

	if blocked {
		s.notify(ctx, workerID, suspendedMessage(s.opts.FailureThreshold))
	} else {
		s.notify(ctx, workerID, declinedMessage(s.opts.FailureThreshold))
	}

	res := &DeclineResult{Membership: updated, Blocked: blocked}
	if m.Role == domain.RoleMain {
		res.Promoted = s.promoteNextReserve(ctx, shift, false)
	}

	name := s.workerName(ctx, workerID)
	if blocked {
		s.notifyAdmin(ctx, adminMessage("Сотрудник заблокирован",
			"🚫 Сотрудник заблокирован\n👤 %s | %d отказа/игнора подряд\n📅 %s | %s",
			name, s.opts.FailureThreshold, shift.Date, shift.City))
	}
	s.notifyAdmin(ctx, adminMessage("Отказ от смены",
		"❌ Отказ от смены\n👤 %s | %s\n📅 %s | %s",
		name, roleLabel(m.Role), shift.Date, shift.City))

	return res, nil
}

// Timeout 把仍未回应的成员移出名单。调用方的扫描结果可能已经过期，
// 成员不再是 registered 时静默忽略。
func (s *Service) Timeout(ctx context.Context, shiftID, workerID int64, phase domain.Phase) (*TimeoutResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, m, err := s.membership(ctx, shiftID, workerID)
	if err != nil {
		return nil, err
	}
	if m.Status != domain.StatusRegistered {
		return &TimeoutResult{}, nil
	}

	_, err = s.store.TransitionMembership(ctx, shiftID, workerID, Sources(EventTimeout), Target(EventTimeout))
	if err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			return &TimeoutResult{}, nil
		}
		return nil, fmt.Errorf("移除超时成员失败: %w", err)
	}
	if err := s.store.IncrementStat(ctx, workerID, domain.StatIgnoredShifts); err != nil {
		return nil, fmt.Errorf("更新忽略次数失败: %w", err)
	}
	blocked, err := s.recordFailure(ctx, workerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("成员超时未回应，已移出名单",
		slog.Int64("shift_id", shiftID), slog.Int64("worker_id", workerID),
		slog.String("phase", string(phase)), slog.Bool("blocked", blocked))

	if blocked {
		s.notify(ctx, workerID, suspendedMessage(s.opts.FailureThreshold))
	} else {
		s.notify(ctx, workerID, timedOutMessage(shift, phase, minutes(s.timeoutFor(phase)), s.opts.FailureThreshold))
	}

	res := &TimeoutResult{Applied: true, Blocked: blocked}
	morning := phase == domain.PhaseMorning
	if morning || m.Role == domain.RoleMain {
		res.Promoted = s.promoteNextReserve(ctx, shift, morning)
	}

	title := "⏰ Автоснятие за игнор (вечер)"
	switch {
	case blocked && morning:
		title = "🚫 Сотрудник заблокирован после утреннего игнора"
	case blocked:
		title = "🚫 Сотрудник заблокирован после игнора"
	case morning:
		title = "⏰ Автоснятие за игнор (утро)"
	}
	s.notifyAdmin(ctx, adminMessage("Автоснятие за игнор", "%s\n👤 %s\n📅 %s | %s",
		title, s.workerName(ctx, workerID), shift.Date, shift.City))

	return res, nil
}

// Register 报名班次。名额检查和插入在存储层原子完成。
func (s *Service) Register(ctx context.Context, shiftID, workerID int64, role domain.MemberRole) (*domain.Membership, error) {
	if role != domain.RoleMain && role != domain.RoleReserve {
		return nil, fmt.Errorf("%w: 未知的角色 %q", domain.ErrInvalidInput, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("获取班次失败: %w", err)
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, domain.ErrShiftNotActive
	}

	worker, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("获取工人失败: %w", err)
	}
	profile, err := s.store.GetProfile(ctx, workerID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, domain.ErrProfileIncomplete
	case err != nil:
		return nil, fmt.Errorf("获取工人资料失败: %w", err)
	}
	if !worker.IsActive || !profile.IsActive {
		return nil, domain.ErrWorkerSuspended
	}
	if !profile.Complete() {
		return nil, domain.ErrProfileIncomplete
	}

	m := &domain.Membership{
		ShiftID:  shiftID,
		WorkerID: workerID,
		Role:     role,
		Status:   domain.StatusRegistered,
		JoinedAt: s.clock.Now(),
	}
	if err := s.store.AddMembership(ctx, m); err != nil {
		return nil, err
	}

	s.notify(ctx, workerID, registeredMessage(shift, m))

	capacity := shift.Capacity(role)
	count, err := s.store.CountMembers(ctx, shiftID, role)
	if err != nil {
		s.logger.Warn("统计名单人数失败", slog.Int64("shift_id", shiftID), "error", err)
	}
	body := fmt.Sprintf("🔔 Новая запись на смену\n👤 %s\n📅 %s | %s\nТип: %s (%d/%d)",
		profile.FullName, shift.Date, shift.City, roleLabel(role), count, capacity)
	if count >= capacity {
		if role == domain.RoleMain {
			body += "\n\n🎉 Основной состав заполнен!"
		} else {
			body += "\n\n🎉 Резерв заполнен!"
		}
	}
	s.notifyAdmin(ctx, adminMessage("Новая запись на смену", "%s", body))

	return m, nil
}

// AvailableSlots 返回两个角色剩余的名额
func (s *Service) AvailableSlots(ctx context.Context, shiftID int64) (*domain.SlotAvailability, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("获取班次失败: %w", err)
	}

	free := func(role domain.MemberRole) (int, error) {
		n, err := s.store.CountMembers(ctx, shiftID, role)
		if err != nil {
			return 0, fmt.Errorf("统计名单人数失败: %w", err)
		}
		return max(shift.Capacity(role)-n, 0), nil
	}

	mainFree, err := free(domain.RoleMain)
	if err != nil {
		return nil, err
	}
	reserveFree, err := free(domain.RoleReserve)
	if err != nil {
		return nil, err
	}
	return &domain.SlotAvailability{MainFree: mainFree, ReserveFree: reserveFree}, nil
}
