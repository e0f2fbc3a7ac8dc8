package domain

import "time"

type MemberRole string

const (
	RoleMain    MemberRole = "main"
	RoleReserve MemberRole = "reserve"
)

type MemberStatus string

const (
	StatusRegistered MemberStatus = "registered"
	StatusConfirmed  MemberStatus = "confirmed"
	StatusRefused    MemberStatus = "refused"
	StatusRemoved    MemberStatus = "removed"
	StatusWorked     MemberStatus = "worked"
)

// Terminal 表示该状态之后只接受出勤结果的更正
func (s MemberStatus) Terminal() bool {
	switch s {
	case StatusRefused, StatusRemoved, StatusWorked:
		return true
	}
	return false
}

// Vacating 表示该成员不再占用名额
func (s MemberStatus) Vacating() bool {
	return s == StatusRefused || s == StatusRemoved
}

// Phase 区分晚间提醒和早间提醒
type Phase string

const (
	PhaseEvening Phase = "evening"
	PhaseMorning Phase = "morning"
)

type Membership struct {
	ID                    int64        `json:"id"`
	ShiftID               int64        `json:"shiftID"`
	WorkerID              int64        `json:"workerID"`
	Role                  MemberRole   `json:"role"`
	Position              int32        `json:"position"`
	Status                MemberStatus `json:"status"`
	EveningReminderSentAt *time.Time   `json:"eveningReminderSentAt"`
	MorningReminderSentAt *time.Time   `json:"morningReminderSentAt"`
	JoinedAt              time.Time    `json:"joinedAt"`
}

// ReminderSentAt 返回对应阶段的提醒时间戳
func (m *Membership) ReminderSentAt(phase Phase) *time.Time {
	if phase == PhaseMorning {
		return m.MorningReminderSentAt
	}
	return m.EveningReminderSentAt
}

// RosterEntry 用于管理员查看班次状态，附带工人的姓名和电话
type RosterEntry struct {
	Membership
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}
