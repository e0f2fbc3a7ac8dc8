package roster

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

type ShiftStore interface {
	CreateShift(ctx context.Context, shift *domain.Shift) error
	GetShift(ctx context.Context, id int64) (*domain.Shift, error)
	GetActiveShiftByCity(ctx context.Context, city string) (*domain.Shift, error)
	ListActiveShifts(ctx context.Context) ([]*domain.Shift, error)
	// CompleteShift 只把 active 的班次改为 completed，否则返回 ErrShiftNotActive
	CompleteShift(ctx context.Context, id int64) error
}

// MembershipStore 中所有占用名额的计数都不包含 refused 和 removed 的成员
type MembershipStore interface {
	GetMembership(ctx context.Context, shiftID, workerID int64) (*domain.Membership, error)
	ListMembers(ctx context.Context, shiftID int64) ([]*domain.RosterEntry, error)
	CountMembers(ctx context.Context, shiftID int64, role domain.MemberRole) (int, error)
	// AddMembership 在同一事务中检查名额并插入，同时分配位置。
	// 名额已满返回 ErrCapacityExceeded，重复报名返回 ErrAlreadyRegistered。
	AddMembership(ctx context.Context, m *domain.Membership) error
	// TransitionMembership 只在当前状态属于 from 时更新，否则返回 ErrStaleStatus
	TransitionMembership(ctx context.Context, shiftID, workerID int64, from []domain.MemberStatus, to domain.MemberStatus) (*domain.Membership, error)
	MarkReminderSent(ctx context.Context, shiftID, workerID int64, phase domain.Phase, at time.Time) error
	// GetMembersPastDeadline 返回 registered 状态、对应阶段时间戳不晚于 cutoff 的成员
	GetMembersPastDeadline(ctx context.Context, shiftID int64, role domain.MemberRole, phase domain.Phase, cutoff time.Time) ([]*domain.Membership, error)
	// PromoteNextReserve 锁住班次后把位置最靠前的替补移入主名单。
	// 主名单已满或没有替补时返回 (nil, nil)。morningStamp 不为空时写入早间提醒时间。
	PromoteNextReserve(ctx context.Context, shiftID int64, morningStamp *time.Time) (*domain.Membership, error)
}

type WorkerStore interface {
	CreateWorker(ctx context.Context, worker *domain.Worker) error
	GetWorker(ctx context.Context, id int64) (*domain.Worker, error)
	GetProfile(ctx context.Context, workerID int64) (*domain.WorkerProfile, error)
	// UpsertProfile 只写入表单字段，统计字段保持不变
	UpsertProfile(ctx context.Context, profile *domain.WorkerProfile) error
	ListActiveProfilesByCity(ctx context.Context, city string) ([]*domain.WorkerProfile, error)
	IncrementStat(ctx context.Context, workerID int64, stat domain.WorkerStat) error
	// DecrementStat 用于更正出勤结果，统计值不会小于 0
	DecrementStat(ctx context.Context, workerID int64, stat domain.WorkerStat) error
	IncrementFailures(ctx context.Context, workerID int64) (int, error)
	ResetFailures(ctx context.Context, workerID int64) error
	// BlockWorker 同时停用账号和资料，仅当资料仍处于启用状态时返回 true
	BlockWorker(ctx context.Context, workerID int64) (bool, error)
	// UnblockWorker 同时启用账号和资料并清零连续失败次数
	UnblockWorker(ctx context.Context, workerID int64) error
}

type ResultStore interface {
	SaveShiftResult(ctx context.Context, result *domain.ShiftResult) error
	GetShiftResult(ctx context.Context, shiftID, workerID int64) (*domain.ShiftResult, error)
	ListShiftResults(ctx context.Context, shiftID int64) ([]*domain.ShiftResult, error)
}

type AppealStore interface {
	// CreateUnblockRequest 在已有待处理申请时返回 ErrDuplicateAppeal
	CreateUnblockRequest(ctx context.Context, req *domain.UnblockRequest) error
	GetUnblockRequest(ctx context.Context, id int64) (*domain.UnblockRequest, error)
	ListPendingUnblockRequests(ctx context.Context) ([]*domain.UnblockRequestView, error)
	// ResolveUnblockRequest 只处理 pending 的申请，否则返回 ErrInvalidTransition
	ResolveUnblockRequest(ctx context.Context, id int64, status domain.UnblockStatus) (*domain.UnblockRequest, error)
}

type Store interface {
	ShiftStore
	MembershipStore
	WorkerStore
	ResultStore
	AppealStore
}

// Notifier 负责把消息送达工人或管理员，失败只记录日志
type Notifier interface {
	Notify(ctx context.Context, workerID int64, n domain.Notification) error
	NotifyAdmin(ctx context.Context, n domain.Notification) error
}
