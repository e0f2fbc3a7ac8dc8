package domain

import "time"

type ShiftResult struct {
	ShiftID       int64     `json:"shiftID"`
	WorkerID      int64     `json:"workerID"`
	Worked        bool      `json:"worked"`
	DeclineReason string    `json:"declineReason"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type SummaryEntry struct {
	WorkerID      int64      `json:"workerID"`
	FullName      string     `json:"fullName"`
	Phone         string     `json:"phone"`
	Role          MemberRole `json:"role"`
	DeclineReason string     `json:"declineReason,omitempty"`
}

// ShiftSummary 是班次结束后给管理员看的汇总
type ShiftSummary struct {
	Shift      *Shift         `json:"shift"`
	Worked     []SummaryEntry `json:"worked"`
	NotWorked  []SummaryEntry `json:"notWorked"`
	NoResponse []SummaryEntry `json:"noResponse"`
}
