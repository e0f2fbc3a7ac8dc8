package domain

type NotificationType string

const (
	NotificationAnnouncement    NotificationType = "announcement"
	NotificationRegistered      NotificationType = "registered"
	NotificationEveningPrompt   NotificationType = "evening_prompt"
	NotificationEveningInfo     NotificationType = "evening_info"
	NotificationMorningPrompt   NotificationType = "morning_prompt"
	NotificationMorningInfo     NotificationType = "morning_info"
	NotificationConfirmed       NotificationType = "confirmed"
	NotificationDeclined        NotificationType = "declined"
	NotificationTimedOut        NotificationType = "timed_out"
	NotificationSuspended       NotificationType = "suspended"
	NotificationPromoted        NotificationType = "promoted"
	NotificationReportRequest   NotificationType = "report_request"
	NotificationReportReceived  NotificationType = "report_received"
	NotificationUnblockResolved NotificationType = "unblock_resolved"
	NotificationUnblockFiled    NotificationType = "unblock_filed"
	NotificationAdmin           NotificationType = "admin"
)

type ActionKind string

const (
	ActionRegister       ActionKind = "register"
	ActionConfirm        ActionKind = "confirm"
	ActionDecline        ActionKind = "decline"
	ActionMorningConfirm ActionKind = "morning_confirm"
	ActionReportWorked   ActionKind = "report_worked"
	ActionReportNoShow   ActionKind = "report_no_show"
)

type NotificationAction struct {
	Kind    ActionKind `json:"kind"`
	ShiftID int64      `json:"shiftID"`
	Label   string     `json:"label"`
	// 仅对报名操作有效
	Role MemberRole `json:"role,omitempty"`
}

// Notification 是核心逻辑交给通知协作者的内容
type Notification struct {
	Type    NotificationType     `json:"type"`
	Subject string               `json:"subject"`
	Body    string               `json:"body"`
	Actions []NotificationAction `json:"actions"`
}

// ActionGrant 是保存在 redis 中的一次性链接所对应的操作
type ActionGrant struct {
	Kind     ActionKind `json:"kind"`
	ShiftID  int64      `json:"shiftID"`
	WorkerID int64      `json:"workerID"`
	Role     MemberRole `json:"role,omitempty"`
}

// NotificationMessage 是投递到消息队列中的消息
type NotificationMessage struct {
	ID      string           `json:"id"`
	Type    NotificationType `json:"type"`
	To      string           `json:"to"`
	Subject string           `json:"subject"`
	Data    NotificationData `json:"data"`
}

type NotificationData struct {
	FullName string       `json:"fullName"`
	Body     string       `json:"body"`
	Links    []ActionLink `json:"links"`
}

type ActionLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}
