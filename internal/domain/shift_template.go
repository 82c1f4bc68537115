package domain

import (
	"time"
)

// ShiftTemplate 表示某个岗位（station）在一周中某一天的一个班次定义
// StartTime 和 EndTime 均为 "HH:MM" 格式的墙上时间，且不跨越午夜
type ShiftTemplate struct {
	ID            int64     `json:"id"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	DayOfWeek     int32     `json:"dayOfWeek"` // 0 表示周日，与 time.Weekday 一致
	RoleID        int64     `json:"roleID"`
	StationID     int64     `json:"stationID"`
	WorkersNeeded int32     `json:"workersNeeded"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	Version       int32     `json:"-"`
}
