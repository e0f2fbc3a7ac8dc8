package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrAlreadyRegistered = errors.New("already registered")
	ErrDuplicateAppeal   = errors.New("pending unblock request already exists")
	ErrWorkerExists      = errors.New("worker already exists")
	ErrWorkerSuspended   = errors.New("worker suspended")
	ErrWorkerNotBlocked  = errors.New("worker is not suspended")
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrShiftNotActive    = errors.New("shift not active")
	ErrShiftNotCompleted = errors.New("shift not completed")
	// ErrStaleStatus 由存储层返回：条件更新时当前状态已不满足前置条件
	ErrStaleStatus = errors.New("stale membership status")
)
