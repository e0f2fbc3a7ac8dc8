package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/utils"
)

const minReasonLength = 3

type BroadcastReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// ShiftRoster 是管理员看到的班次状态
type ShiftRoster struct {
	Shift   *domain.Shift         `json:"shift"`
	Main    []*domain.RosterEntry `json:"main"`
	Reserve []*domain.RosterEntry `json:"reserve"`
}

// CreateShift 校验并保存班次，提醒时间统一为两位小时
func (s *Service) CreateShift(ctx context.Context, shift *domain.Shift) error {
	if err := utils.ValidateShift(shift); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	shift.Status = domain.ShiftStatusActive
	shift.CreatedAt = s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.CreateShift(ctx, shift); err != nil {
		return fmt.Errorf("创建班次失败: %w", err)
	}
	s.logger.Info("班次已创建", slog.Int64("shift_id", shift.ID), slog.String("city", shift.City))
	return nil
}

// PublishShift 向该城市所有启用的工人广播报名通知
func (s *Service) PublishShift(ctx context.Context, shiftID int64) (*BroadcastReport, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("获取班次失败: %w", err)
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, domain.ErrShiftNotActive
	}

	profiles, err := s.store.ListActiveProfilesByCity(ctx, shift.City)
	if err != nil {
		return nil, fmt.Errorf("获取工人列表失败: %w", err)
	}

	report := &BroadcastReport{}
	msg := announcementMessage(shift)
	for _, p := range profiles {
		if s.notify(ctx, p.WorkerID, msg) {
			report.Sent++
		} else {
			report.Failed++
		}
	}

	s.logger.Info("班次已发布",
		slog.Int64("shift_id", shiftID), slog.Int("sent", report.Sent), slog.Int("failed", report.Failed))
	return report, nil
}

func (s *Service) ShiftRoster(ctx context.Context, shiftID int64) (*ShiftRoster, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return s.roster(ctx, shift)
}

// ShiftStatus 返回某城市最近创建的进行中班次
func (s *Service) ShiftStatus(ctx context.Context, city string) (*ShiftRoster, error) {
	shift, err := s.store.GetActiveShiftByCity(ctx, city)
	if err != nil {
		return nil, err
	}
	return s.roster(ctx, shift)
}

func (s *Service) roster(ctx context.Context, shift *domain.Shift) (*ShiftRoster, error) {
	members, err := s.store.ListMembers(ctx, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("获取名单失败: %w", err)
	}

	r := &ShiftRoster{
		Shift:   shift,
		Main:    []*domain.RosterEntry{},
		Reserve: []*domain.RosterEntry{},
	}
	for _, m := range members {
		if m.Role == domain.RoleMain {
			r.Main = append(r.Main, m)
		} else {
			r.Reserve = append(r.Reserve, m)
		}
	}
	return r, nil
}

// SendManualReminder 提醒所有尚未确认的成员，不写入时间戳
func (s *Service) SendManualReminder(ctx context.Context, shiftID int64) (*BroadcastReport, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("获取班次失败: %w", err)
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, domain.ErrShiftNotActive
	}
	members, err := s.store.ListMembers(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("获取名单失败: %w", err)
	}

	report := &BroadcastReport{}
	msg := manualReminderMessage(shift)
	for _, m := range members {
		if m.Status != domain.StatusRegistered {
			continue
		}
		if s.notify(ctx, m.WorkerID, msg) {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

// FinalizeShift 结束班次，并请所有仍在名单上的成员汇报是否出勤
func (s *Service) FinalizeShift(ctx context.Context, shiftID int64) (*BroadcastReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.CompleteShift(ctx, shiftID); err != nil {
		return nil, err
	}
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("获取班次失败: %w", err)
	}
	members, err := s.store.ListMembers(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("获取名单失败: %w", err)
	}

	report := &BroadcastReport{}
	msg := reportRequestMessage(shift)
	for _, m := range members {
		if m.Status.Terminal() {
			continue
		}
		if s.notify(ctx, m.WorkerID, msg) {
			report.Sent++
		} else {
			report.Failed++
		}
	}

	s.logger.Info("班次已结束", slog.Int64("shift_id", shiftID), slog.Int("solicited", report.Sent))
	return report, nil
}

// SubmitResult 记录工人对已结束班次的出勤汇报。
// 已有汇报时覆盖旧结果，名单状态和出勤次数随之更正。
func (s *Service) SubmitResult(ctx context.Context, shiftID, workerID int64, worked bool, reason string) (*domain.ShiftResult, error) {
	reason = strings.TrimSpace(reason)
	if worked {
		reason = ""
	} else if utf8.RuneCountInString(reason) < minReasonLength {
		return nil, fmt.Errorf("%w: 请填写未出勤的原因", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shift, m, err := s.membership(ctx, shiftID, workerID)
	if err != nil {
		return nil, err
	}
	if shift.Status != domain.ShiftStatusCompleted {
		return nil, domain.ErrShiftNotCompleted
	}

	prev, err := s.store.GetShiftResult(ctx, shiftID, workerID)
	hasResult := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("获取出勤结果失败: %w", err)
	}
	if m.Status.Terminal() && !hasResult {
		return nil, fmt.Errorf("%w: 成员已不在名单上", domain.ErrInvalidTransition)
	}

	result := &domain.ShiftResult{
		ShiftID:       shiftID,
		WorkerID:      workerID,
		Worked:        worked,
		DeclineReason: reason,
		UpdatedAt:     s.clock.Now(),
	}
	if err := s.store.SaveShiftResult(ctx, result); err != nil {
		return nil, fmt.Errorf("保存出勤结果失败: %w", err)
	}

	switch {
	case !m.Status.Terminal():
		event := EventReportNoShow
		if worked {
			event = EventReportWorked
		}
		if err := s.applyResult(ctx, shiftID, workerID, event); err != nil {
			return nil, err
		}
	case prev.Worked != worked:
		event := EventCorrectNoShow
		if worked {
			event = EventCorrectWorked
		}
		if err := s.applyResult(ctx, shiftID, workerID, event); err != nil {
			return nil, err
		}
	}
	if worked {
		if err := s.recordSuccess(ctx, workerID); err != nil {
			return nil, err
		}
	}

	s.notify(ctx, workerID, reportReceivedMessage(worked))

	summary, err := s.summary(ctx, shift)
	if err != nil {
		s.logger.Warn("生成班次汇总失败", slog.Int64("shift_id", shiftID), "error", err)
	} else {
		s.notifyAdmin(ctx, adminMessage("Итог смены", "%s", summaryBody(summary)))
	}

	return result, nil
}

// applyResult 按汇报结果转移成员状态，转入 worked 时出勤次数加一，
// 从 worked 更正为未出勤时减一
func (s *Service) applyResult(ctx context.Context, shiftID, workerID int64, event Event) error {
	_, err := s.store.TransitionMembership(ctx, shiftID, workerID, Sources(event), Target(event))
	switch {
	case errors.Is(err, domain.ErrStaleStatus):
		return nil
	case err != nil:
		return fmt.Errorf("更新成员状态失败: %w", err)
	}

	switch {
	case Target(event) == domain.StatusWorked:
		err = s.store.IncrementStat(ctx, workerID, domain.StatTotalShifts)
	case event == EventCorrectNoShow:
		err = s.store.DecrementStat(ctx, workerID, domain.StatTotalShifts)
	}
	if err != nil {
		return fmt.Errorf("更新出勤次数失败: %w", err)
	}
	return nil
}

func (s *Service) Summary(ctx context.Context, shiftID int64) (*domain.ShiftSummary, error) {
	shift, err := s.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, shift)
}

// summary 把成员分为已出勤、未出勤和未回应三类。
// 在结束前已经退出的成员既没有汇报也不计入未回应。
func (s *Service) summary(ctx context.Context, shift *domain.Shift) (*domain.ShiftSummary, error) {
	members, err := s.store.ListMembers(ctx, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("获取名单失败: %w", err)
	}
	results, err := s.store.ListShiftResults(ctx, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("获取出勤结果失败: %w", err)
	}

	byWorker := make(map[int64]*domain.ShiftResult, len(results))
	for _, r := range results {
		byWorker[r.WorkerID] = r
	}

	summary := &domain.ShiftSummary{
		Shift:      shift,
		Worked:     []domain.SummaryEntry{},
		NotWorked:  []domain.SummaryEntry{},
		NoResponse: []domain.SummaryEntry{},
	}
	for _, m := range members {
		entry := domain.SummaryEntry{
			WorkerID: m.WorkerID,
			FullName: m.FullName,
			Phone:    m.Phone,
			Role:     m.Role,
		}
		r, ok := byWorker[m.WorkerID]
		switch {
		case ok && r.Worked:
			summary.Worked = append(summary.Worked, entry)
		case ok:
			entry.DeclineReason = r.DeclineReason
			summary.NotWorked = append(summary.NotWorked, entry)
		case !m.Status.Vacating():
			summary.NoResponse = append(summary.NoResponse, entry)
		}
	}
	return summary, nil
}
