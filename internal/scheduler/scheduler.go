package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/citytime"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/roster"
)

// Scheduler 每个周期扫描所有进行中的班次：发送晚间提醒、处理晚间超时、
// 发送早间提醒、处理早间超时。四个扫描彼此独立，都可以重复执行。
type Scheduler struct {
	svc      *roster.Service
	resolver *citytime.Resolver
	interval time.Duration
	logger   *slog.Logger
}

// Report 汇总一次扫描的结果
type Report struct {
	Shifts          int
	EveningPrompted int
	EveningInformed int
	MorningPrompted int
	MorningInformed int
	TimedOut        int
	Errors          int
}

func New(svc *roster.Service, resolver *citytime.Resolver, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		svc:      svc,
		resolver: resolver,
		interval: interval,
		logger:   logger,
	}
}

// Run 阻塞直到 ctx 被取消
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("提醒调度器已启动", slog.Duration("interval", s.interval))
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("提醒调度器已停止")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

func (s *Scheduler) Tick(ctx context.Context) *Report {
	report := &Report{}

	shifts, err := s.svc.Store().ListActiveShifts(ctx)
	if err != nil {
		s.logger.Error("获取进行中的班次失败", "error", err)
		report.Errors++
		return report
	}
	report.Shifts = len(shifts)

	scans := []struct {
		name string
		run  func(context.Context, *domain.Shift, *Report) error
	}{
		{"evening_dispatch", s.eveningDispatch},
		{"evening_timeouts", s.timeouts(domain.PhaseEvening)},
		{"morning_dispatch", s.morningDispatch},
		{"morning_timeouts", s.timeouts(domain.PhaseMorning)},
	}

	// 单个班次或单个扫描出错不影响其他扫描
	for _, scan := range scans {
		for _, shift := range shifts {
			if err := scan.run(ctx, shift, report); err != nil {
				report.Errors++
				s.logger.Error("提醒扫描失败",
					slog.String("scan", scan.name), slog.Int64("shift_id", shift.ID), "error", err)
			}
		}
	}

	return report
}

func (s *Scheduler) eveningDispatch(ctx context.Context, shift *domain.Shift, report *Report) error {
	if shift.EveningReminderTime == "" || shift.EveningReminderTime != s.resolver.LocalTime(shift.City) {
		return nil
	}

	res, err := s.svc.DispatchEveningReminders(ctx, shift.ID, s.resolver.LocalDate(shift.City))
	if err != nil {
		return err
	}
	report.EveningPrompted += res.Prompted
	report.EveningInformed += res.Informed
	s.logger.Info("晚间提醒已发送", slog.Int64("shift_id", shift.ID),
		slog.Int("prompted", res.Prompted), slog.Int("informed", res.Informed), slog.Int("failed", res.Failed))
	return nil
}

// morningDispatch 只在班次当天触发，班次日期是自由格式的字符串，按包含本地日期判断
func (s *Scheduler) morningDispatch(ctx context.Context, shift *domain.Shift, report *Report) error {
	if shift.MorningReminderTime == "" || shift.MorningReminderTime != s.resolver.LocalTime(shift.City) {
		return nil
	}
	today := s.resolver.LocalDate(shift.City)
	if !strings.Contains(shift.Date, today) {
		return nil
	}

	res, err := s.svc.DispatchMorningReminders(ctx, shift.ID, today)
	if err != nil {
		return err
	}
	report.MorningPrompted += res.Prompted
	report.MorningInformed += res.Informed
	s.logger.Info("早间提醒已发送", slog.Int64("shift_id", shift.ID),
		slog.Int("prompted", res.Prompted), slog.Int("informed", res.Informed), slog.Int("failed", res.Failed))
	return nil
}

func (s *Scheduler) timeouts(phase domain.Phase) func(context.Context, *domain.Shift, *Report) error {
	return func(ctx context.Context, shift *domain.Shift, report *Report) error {
		expired, err := s.svc.ExpiredMembers(ctx, shift.ID, phase)
		if err != nil {
			return fmt.Errorf("获取超时成员失败: %w", err)
		}

		var firstErr error
		for _, m := range expired {
			res, err := s.svc.Timeout(ctx, shift.ID, m.WorkerID, phase)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if res.Applied {
				report.TimedOut++
			}
		}
		return firstErr
	}
}
