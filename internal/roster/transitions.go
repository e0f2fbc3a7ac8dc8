package roster

import (
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

type Event string

const (
	EventConfirm        Event = "confirm"
	EventMorningConfirm Event = "morning_confirm"
	EventDecline        Event = "decline"
	EventTimeout        Event = "timeout"
	EventPromote        Event = "promote"
	EventReportWorked   Event = "report_worked"
	EventReportNoShow   Event = "report_no_show"
	// 已汇报的出勤结果被更正时使用
	EventCorrectWorked Event = "correct_worked"
	EventCorrectNoShow Event = "correct_no_show"
)

type transition struct {
	from []domain.MemberStatus
	to   domain.MemberStatus
}

// 不在表中的 (事件, 状态) 组合一律拒绝
var transitionTable = map[Event]transition{
	EventConfirm: {
		from: []domain.MemberStatus{domain.StatusRegistered},
		to:   domain.StatusConfirmed,
	},
	EventMorningConfirm: {
		from: []domain.MemberStatus{domain.StatusRegistered, domain.StatusConfirmed},
		to:   domain.StatusConfirmed,
	},
	EventDecline: {
		from: []domain.MemberStatus{domain.StatusRegistered, domain.StatusConfirmed},
		to:   domain.StatusRefused,
	},
	EventTimeout: {
		from: []domain.MemberStatus{domain.StatusRegistered},
		to:   domain.StatusRemoved,
	},
	EventPromote: {
		from: []domain.MemberStatus{domain.StatusRegistered, domain.StatusConfirmed},
		to:   domain.StatusRegistered,
	},
	EventReportWorked: {
		from: []domain.MemberStatus{domain.StatusRegistered, domain.StatusConfirmed},
		to:   domain.StatusWorked,
	},
	EventReportNoShow: {
		from: []domain.MemberStatus{domain.StatusRegistered, domain.StatusConfirmed},
		to:   domain.StatusRemoved,
	},
	EventCorrectWorked: {
		from: []domain.MemberStatus{domain.StatusRemoved},
		to:   domain.StatusWorked,
	},
	EventCorrectNoShow: {
		from: []domain.MemberStatus{domain.StatusWorked},
		to:   domain.StatusRemoved,
	},
}

// Next 返回事件作用于 from 状态后的新状态
func Next(event Event, from domain.MemberStatus) (domain.MemberStatus, error) {
	t, ok := transitionTable[event]
	if !ok || !slices.Contains(t.from, from) {
		return "", fmt.Errorf("%w: %s from %s", domain.ErrInvalidTransition, event, from)
	}
	return t.to, nil
}

// Sources 返回事件允许的源状态，存储层用它做条件更新
func Sources(event Event) []domain.MemberStatus {
	return slices.Clone(transitionTable[event].from)
}

func Target(event Event) domain.MemberStatus {
	return transitionTable[event].to
}
