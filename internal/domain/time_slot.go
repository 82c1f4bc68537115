package domain

// TimeSlot 是按固定间隔在时间轴上生成的一个可展示时间点，不会被持久化
type TimeSlot struct {
	Hour      int    `json:"hour"`
	Minute    int    `json:"minute"`
	Timestamp string `json:"timestamp"` // 24 小时制 "HH:MM"
	Label     string `json:"label"`     // 12 小时制，例如 "9 AM"、"9:30 AM"
}
