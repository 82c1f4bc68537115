package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/conflict"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/coverage"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// WorkerSource 提供某个岗位、某个角色下助理的可用时间、已有排班和工时上限
type WorkerSource interface {
	ListWorkerAvailability(ctx context.Context, stationID, roleID int64, from, to time.Time) ([]*domain.WorkerAvailability, error)
}

// LocalQuerier 在没有远程可用性服务时，直接根据数据库中的数据判断助理是否可用
type LocalQuerier struct {
	source WorkerSource
}

func NewLocalQuerier(source WorkerSource) *LocalQuerier {
	return &LocalQuerier{source: source}
}

// shiftOccurrence 是班次在某个具体日期上的一次出现
type shiftOccurrence struct {
	date  time.Time
	start int
	end   int
}

func (q *LocalQuerier) Query(ctx context.Context, req Request) (*Result, error) {
	start, err := coverage.ToMinutes(req.Shift.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := coverage.ToMinutes(req.Shift.EndTime)
	if err != nil {
		return nil, err
	}

	res := &Result{Conflicts: []domain.WorkerConflict{}}

	var occurrences []shiftOccurrence
	for _, date := range datesOnWeekday(req.StartDate, req.EndDate, req.Shift.DayOfWeek) {
		occurrences = append(occurrences, shiftOccurrence{date: date, start: start, end: end})
	}
	if len(occurrences) == 0 {
		// 日期范围内这个班次不会出现
		return res, nil
	}

	workers, err := q.source.ListWorkerAvailability(ctx, req.Shift.StationID, req.Shift.RoleID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("无法获取助理的可用时间: %w", err)
	}

	for _, w := range workers {
		if w == nil || w.Worker == nil {
			continue
		}
		reason, ok := evaluate(w, occurrences)
		if ok {
			res.AvailableWorkers++
			continue
		}
		res.Conflicts = append(res.Conflicts, domain.WorkerConflict{
			WorkerID:   w.Worker.ID,
			WorkerName: w.Worker.FullName,
			Reason:     reason,
		})
	}

	return res, nil
}

// evaluate 依次检查每一次出现，返回第一个不可用的原因
// 同一天内的优先级为：请假 > 重复排班 > 超出工时 > 不在可用时间内
func evaluate(w *domain.WorkerAvailability, occurrences []shiftOccurrence) (domain.ConflictReason, bool) {
	for _, occ := range occurrences {
		switch {
		case onTimeOff(w.Windows, occ.date):
			return domain.ConflictTimeOff, false
		case doubleBooked(w.Assignments, occ):
			return domain.ConflictDoubleBooking, false
		case exceedsMaxHours(w, occ):
			return domain.ConflictMaxHours, false
		case !withinWindow(w.Windows, occ):
			return domain.ConflictUnavailable, false
		}
	}
	return "", true
}

func onTimeOff(windows []domain.AvailabilityWindow, date time.Time) bool {
	for _, window := range windows {
		w, ok := window.(domain.UnavailableWindow)
		if !ok {
			continue
		}
		if !date.Before(dateOf(w.StartDate)) && !date.After(dateOf(w.EndDate)) {
			return true
		}
	}
	return false
}

func doubleBooked(assignments []domain.Assignment, occ shiftOccurrence) bool {
	for _, a := range assignments {
		if !dateOf(a.Date).Equal(occ.date) {
			continue
		}
		start, end, ok := parseSpan(a.StartTime, a.EndTime)
		if !ok {
			continue
		}
		if conflict.Overlaps(start, end, occ.start, occ.end) {
			return true
		}
	}
	return false
}

// exceedsMaxHours 统计同一周（周一开始）内已排班的工时，加上这个班次后是否超出上限
func exceedsMaxHours(w *domain.WorkerAvailability, occ shiftOccurrence) bool {
	if w.MaxWeeklyHours <= 0 {
		return false
	}

	week := weekStart(occ.date)
	minutes := occ.end - occ.start
	for _, a := range w.Assignments {
		if !weekStart(dateOf(a.Date)).Equal(week) {
			continue
		}
		start, end, ok := parseSpan(a.StartTime, a.EndTime)
		if !ok {
			continue
		}
		minutes += end - start
	}

	return float64(minutes)/60 > w.MaxWeeklyHours
}

func withinWindow(windows []domain.AvailabilityWindow, occ shiftOccurrence) bool {
	for _, window := range windows {
		var startTime, endTime string
		switch w := window.(type) {
		case domain.RecurringWindow:
			if time.Weekday(w.DayOfWeek) != occ.date.Weekday() {
				continue
			}
			startTime, endTime = w.StartTime, w.EndTime
		case domain.OneTimeWindow:
			if !dateOf(w.Date).Equal(occ.date) {
				continue
			}
			startTime, endTime = w.StartTime, w.EndTime
		default:
			continue
		}

		start, end, ok := parseSpan(startTime, endTime)
		if ok && start <= occ.start && occ.end <= end {
			return true
		}
	}
	return false
}

func parseSpan(startTime, endTime string) (int, int, bool) {
	start, err := coverage.ToMinutes(startTime)
	if err != nil {
		return 0, 0, false
	}
	end, err := coverage.ToMinutes(endTime)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func weekStart(date time.Time) time.Time {
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}

// datesOnWeekday 返回闭区间 [from, to] 内所有星期几等于 day 的日期
func datesOnWeekday(from, to time.Time, day int32) []time.Time {
	var dates []time.Time
	last := dateOf(to)
	for d := dateOf(from); !d.After(last); d = d.AddDate(0, 0, 1) {
		if int32(d.Weekday()) == day {
			dates = append(dates, d)
		}
	}
	return dates
}
