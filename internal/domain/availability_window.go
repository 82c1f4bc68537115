package domain

import "time"

type WindowKind string

const (
	WindowRecurring   WindowKind = "recurring"
	WindowOneTime     WindowKind = "one_time"
	WindowUnavailable WindowKind = "unavailable"
)

// AvailabilityWindow 是助理声明的可用（或不可用）时间段，具体类型只能是下面三种之一
type AvailabilityWindow interface {
	Kind() WindowKind
}

// RecurringWindow 每周固定某天的可用时间
type RecurringWindow struct {
	DayOfWeek int32  `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (RecurringWindow) Kind() WindowKind { return WindowRecurring }

// OneTimeWindow 某个具体日期的可用时间
type OneTimeWindow struct {
	Date      time.Time `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

func (OneTimeWindow) Kind() WindowKind { return WindowOneTime }

// UnavailableWindow 请假，闭区间 [StartDate, EndDate] 内整天不可用
type UnavailableWindow struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason"`
}

func (UnavailableWindow) Kind() WindowKind { return WindowUnavailable }

// Assignment 是助理已经被安排的某一天的班次
type Assignment struct {
	ShiftTemplateID int64     `json:"shiftTemplateID"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"startTime"`
	EndTime         string    `json:"endTime"`
}

// WorkerAvailability 汇总了判断一个助理能否上某个班次所需要的全部信息
type WorkerAvailability struct {
	Worker         *User                `json:"worker"`
	StationID      int64                `json:"stationID"`
	RoleID         int64                `json:"roleID"`
	MaxWeeklyHours float64              `json:"maxWeeklyHours"` // 为 0 时表示不限制
	Windows        []AvailabilityWindow `json:"windows"`
	Assignments    []Assignment         `json:"assignments"`
}
