package domain

import "time"

type ShiftStatus string

const (
	ShiftStatusActive    ShiftStatus = "active"
	ShiftStatusCompleted ShiftStatus = "completed"
)

type Shift struct {
	ID                  int64       `json:"id"`
	City                string      `json:"city"`
	Date                string      `json:"date"` // 自由格式的展示字符串，例如 "25.10.2026, 09:00"
	Address             string      `json:"address"`
	Payment             string      `json:"payment"`
	Conditions          string      `json:"conditions"`
	MainSlots           int32       `json:"mainSlots"`
	ReserveSlots        int32       `json:"reserveSlots"`
	EveningReminderTime string      `json:"eveningReminderTime"` // 城市本地时间 HH:MM，为空表示不发送
	MorningReminderTime string      `json:"morningReminderTime"`
	Status              ShiftStatus `json:"status"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// Capacity 返回某个角色的名额
func (s *Shift) Capacity(role MemberRole) int {
	if role == RoleMain {
		return int(s.MainSlots)
	}
	return int(s.ReserveSlots)
}

type SlotAvailability struct {
	MainFree    int `json:"mainFree"`
	ReserveFree int `json:"reserveFree"`
}
