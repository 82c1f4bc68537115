package coverage

import (
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

type SlotSet struct {
	Slots []domain.TimeSlot `json:"slots"`
	Range Range             `json:"range"`
}

// Slots 从 start 开始每隔 interval 分钟生成一个时间点，直到不小于 end 为止
func Slots(start, end, interval int) []domain.TimeSlot {
	if interval <= 0 || end <= start {
		return []domain.TimeSlot{}
	}

	slots := make([]domain.TimeSlot, 0, (end-start+interval-1)/interval)
	for m := start; m < end; m += interval {
		ts := ToTimeString(m)
		slots = append(slots, domain.TimeSlot{
			Hour:      m / 60,
			Minute:    m % 60,
			Timestamp: ts,
			Label:     ToDisplayLabel(ts),
		})
	}

	return slots
}

// GenerateSlots 先计算时间轴窗口，再在窗口内生成时间点
// 每次调用都会重新计算，不保存任何状态
func GenerateSlots(templates []domain.ShiftTemplate, cfg Config) SlotSet {
	cfg = cfg.normalize()
	r := ComputeRange(templates, cfg)

	return SlotSet{
		Slots: Slots(r.Start, r.End, cfg.IntervalMinutes),
		Range: r,
	}
}
