package domain

import "time"

// Worker 是工人的账号记录
type Worker struct {
	ID           int64     `json:"id"`
	Handle       string    `json:"handle"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"isActive"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// WorkerProfile 是独立于单个班次的工人聚合信息
type WorkerProfile struct {
	WorkerID            int64   `json:"workerID"`
	City                string  `json:"city"`
	FullName            string  `json:"fullName"`
	Phone               string  `json:"phone"`
	Age                 int32   `json:"age"`
	Rating              float64 `json:"rating"`
	TotalShifts         int32   `json:"totalShifts"`
	ConfirmedShifts     int32   `json:"confirmedShifts"`
	RefusedShifts       int32   `json:"refusedShifts"`
	IgnoredShifts       int32   `json:"ignoredShifts"`
	ConsecutiveFailures int32   `json:"consecutiveFailures"`
	IsActive            bool    `json:"isActive"`
}

// Complete 表示报名所需的资料已经填写完整
func (p *WorkerProfile) Complete() bool {
	return p.FullName != "" && p.Phone != ""
}

// WorkerStat 是可以自增的统计字段
type WorkerStat string

const (
	StatTotalShifts     WorkerStat = "total_shifts"
	StatConfirmedShifts WorkerStat = "confirmed_shifts"
	StatRefusedShifts   WorkerStat = "refused_shifts"
	StatIgnoredShifts   WorkerStat = "ignored_shifts"
)
