package roster

import (
	"context"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

// promoteNextReserve 把位置最靠前的替补移入主名单。调用方必须持有 s.mu。
// 早间补位会同时写入早间提醒时间，被提拔的工人需要在早间时限内确认。
// 补位失败不影响已经提交的状态变化，只记录日志。
func (s *Service) promoteNextReserve(ctx context.Context, shift *domain.Shift, morning bool) *domain.Membership {
	var stamp *time.Time
	if morning {
		now := s.clock.Now()
		stamp = &now
	}

	promoted, err := s.store.PromoteNextReserve(ctx, shift.ID, stamp)
	if err != nil {
		s.logger.Error("替补晋升失败", slog.Int64("shift_id", shift.ID), "error", err)
		return nil
	}
	if promoted == nil {
		s.logger.Info("没有可晋升的替补或主名单已满", slog.Int64("shift_id", shift.ID))
		return nil
	}

	s.logger.Info("替补已晋升到主名单",
		slog.Int64("shift_id", shift.ID),
		slog.Int64("worker_id", promoted.WorkerID),
		slog.Int("position", int(promoted.Position)),
		slog.Bool("morning", morning))

	s.notify(ctx, promoted.WorkerID, promotedMessage(shift, morning, minutes(s.opts.MorningTimeout)))

	suffix := ""
	if morning {
		suffix = " (утренняя замена)"
	}
	s.notifyAdmin(ctx, adminMessage("Резерв переведён в основу",
		"🔄 Резерв переведён в основу\n👤 %s\n📅 %s | %s%s",
		s.workerName(ctx, promoted.WorkerID), shift.Date, shift.City, suffix))

	return promoted
}
