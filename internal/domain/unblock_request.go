package domain

import "time"

type UnblockStatus string

const (
	UnblockPending  UnblockStatus = "pending"
	UnblockApproved UnblockStatus = "approved"
	UnblockDenied   UnblockStatus = "denied"
)

type UnblockRequest struct {
	ID         int64         `json:"id"`
	WorkerID   int64         `json:"workerID"`
	City       string        `json:"city"`
	Message    string        `json:"message"`
	Status     UnblockStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	ResolvedAt *time.Time    `json:"resolvedAt"`
}

// UnblockRequestView 附带工人资料，供管理员审核
type UnblockRequestView struct {
	UnblockRequest
	FullName            string `json:"fullName"`
	Phone               string `json:"phone"`
	RefusedShifts       int32  `json:"refusedShifts"`
	IgnoredShifts       int32  `json:"ignoredShifts"`
	ConsecutiveFailures int32  `json:"consecutiveFailures"`
}
