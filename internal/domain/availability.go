package domain

import "time"

type ConflictReason string

const (
	ConflictTimeOff       ConflictReason = "time_off"
	ConflictDoubleBooking ConflictReason = "double_booking"
	ConflictMaxHours      ConflictReason = "max_hours"
	ConflictUnavailable   ConflictReason = "unavailable"
)

type WorkerConflict struct {
	WorkerID   int64          `json:"workerID"`
	WorkerName string         `json:"workerName"`
	Reason     ConflictReason `json:"reason"`
}

type AvailabilityCheck struct {
	ShiftID   string           `json:"shiftID"`
	Available int              `json:"available"`
	Required  int              `json:"required"`
	Conflicts []WorkerConflict `json:"conflicts"`
}

// DateRange 为闭区间 [StartDate, EndDate]，只关心日期部分
type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}
