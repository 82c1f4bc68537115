package utils

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/conflict"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/coverage"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// ErrOvernightShift 表示班次的结束时间不晚于开始时间，跨越午夜的班次需要拆成两个班次
var ErrOvernightShift = errors.New("班次的结束时间必须晚于开始时间")

// ErrShiftConflict 表示新班次与同岗位同一天已有的班次时间重叠
var ErrShiftConflict = errors.New("班次时间与已有班次冲突")

func ValidateShiftTemplate(t *domain.ShiftTemplate) error {
	start, err := coverage.ToMinutes(t.StartTime)
	if err != nil {
		return fmt.Errorf("班次的开始时间格式错误: %w", err)
	}
	end, err := coverage.ToMinutes(t.EndTime)
	if err != nil {
		return fmt.Errorf("班次的结束时间格式错误: %w", err)
	}
	if end <= start {
		return ErrOvernightShift
	}

	if t.DayOfWeek < 0 || t.DayOfWeek > 6 {
		return fmt.Errorf("星期必须在 0 到 6 之间，当前为 %d", t.DayOfWeek)
	}

	if t.WorkersNeeded < 1 {
		return errors.New("班次至少需要一名助理")
	}

	return nil
}

// ValidateStationSchedule 检查候选班次是否与岗位已有的班次冲突
// existing 中与候选班次 ID 相同的项（即正在被修改的那个班次）会被忽略，未启用的班次不参与检查
func ValidateStationSchedule(existing []domain.ShiftTemplate, candidate domain.ShiftTemplate) error {
	if !candidate.IsActive {
		return nil
	}

	shifts := make([]domain.ShiftTemplate, 0, len(existing)+1)
	for _, t := range existing {
		if !t.IsActive || (candidate.ID != 0 && t.ID == candidate.ID) {
			continue
		}
		shifts = append(shifts, t)
	}
	shifts = append(shifts, candidate)

	result := conflict.Detect(shifts)
	last := len(shifts) - 1
	if !result.Flagged(last) {
		return nil
	}

	other := shifts[result[last][0]]
	return fmt.Errorf("%w: %s-%s", ErrShiftConflict, other.StartTime, other.EndTime)
}
