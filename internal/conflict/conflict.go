// Package conflict 检测同一天、同一岗位中时间上互相重叠的班次
package conflict

import (
	"sort"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/coverage"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// Result 的 key 为班次在输入中的下标，value 为与之冲突的班次下标（升序）
// 冲突是双向记录的：如果 i 与 j 冲突，那么 Result[i] 包含 j，Result[j] 也包含 i
// 没有冲突的班次不会出现在 Result 中
type Result map[int][]int

// Overlaps 判断两个半开区间 [aStart, aEnd) 与 [bStart, bEnd) 是否相交
// 首尾相接（一个班次结束时另一个班次刚好开始）不算冲突
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

type interval struct {
	start int
	end   int
	ok    bool
}

// Detect 两两比较同一天、同一岗位的班次，时间无法解析的班次不参与比较
// 复杂度为 O(n²)，单个岗位单天的班次数量很少，可以接受
func Detect(shifts []domain.ShiftTemplate) Result {
	intervals := make([]interval, len(shifts))
	for i, shift := range shifts {
		start, err := coverage.ToMinutes(shift.StartTime)
		if err != nil {
			continue
		}
		end, err := coverage.ToMinutes(shift.EndTime)
		if err != nil {
			continue
		}
		intervals[i] = interval{start: start, end: end, ok: true}
	}

	result := make(Result)
	for i := range shifts {
		if !intervals[i].ok {
			continue
		}
		for j := range shifts {
			if i == j || !intervals[j].ok {
				continue
			}
			if shifts[i].DayOfWeek != shifts[j].DayOfWeek || shifts[i].StationID != shifts[j].StationID {
				continue
			}
			if Overlaps(intervals[i].start, intervals[i].end, intervals[j].start, intervals[j].end) {
				result[i] = append(result[i], j)
			}
		}
	}

	return result
}

func (r Result) HasConflicts() bool {
	return len(r) > 0
}

// Flagged 判断第 i 个班次是否与其他班次冲突
func (r Result) Flagged(i int) bool {
	return len(r[i]) > 0
}

// Pairs 返回去重后的无向冲突对 (i, j)，保证 i < j，并按 (i, j) 升序排列
func (r Result) Pairs() [][2]int {
	pairs := make([][2]int, 0)
	for i, others := range r {
		for _, j := range others {
			if i < j {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})

	return pairs
}

// ByID 将下标形式的结果转换为班次 ID 形式
func (r Result) ByID(shifts []domain.ShiftTemplate) map[int64][]int64 {
	byID := make(map[int64][]int64, len(r))
	for i, others := range r {
		if i < 0 || i >= len(shifts) {
			continue
		}
		for _, j := range others {
			if j < 0 || j >= len(shifts) {
				continue
			}
			byID[shifts[i].ID] = append(byID[shifts[i].ID], shifts[j].ID)
		}
	}
	return byID
}
