package coverage

import (
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

type Source string

const (
	SourceFallback  Source = "fallback"
	SourceTemplates Source = "templates"
)

type RangeMeta struct {
	TemplateCount int    `json:"templateCount"`
	EarliestStart string `json:"earliestStart,omitempty"` // 未加缓冲的最早开始时间
	LatestEnd     string `json:"latestEnd,omitempty"`     // 未加缓冲的最晚结束时间
}

// Range 是时间轴窗口 [Start, End)，单位为从午夜开始的分钟数
type Range struct {
	Start  int       `json:"start"`
	End    int       `json:"end"`
	Source Source    `json:"source"`
	Meta   RangeMeta `json:"meta"`
}

// ComputeRange 根据启用的模板计算时间轴窗口
//  1. 没有启用的模板，或者任一启用模板的时间无法解析时，直接使用 FallbackStart ~ FallbackEnd
//  2. 否则取所有启用模板的最早开始时间与最晚结束时间，并加上前后缓冲，截断到 [0, 1440]
//  3. 如果窗口跨度超过 MaxRangeHours，则以 (最早开始 + 最晚结束) / 2 为中心重新截取
func ComputeRange(templates []domain.ShiftTemplate, cfg Config) Range {
	cfg = cfg.normalize()

	earliestStart, latestEnd := MinutesPerDay, 0
	count := 0

	for _, t := range templates {
		if !t.IsActive {
			continue
		}

		start, err := ToMinutes(t.StartTime)
		if err != nil {
			return fallbackRange(cfg)
		}
		end, err := ToMinutes(t.EndTime)
		if err != nil {
			return fallbackRange(cfg)
		}

		earliestStart = min(earliestStart, start)
		latestEnd = max(latestEnd, end)
		count++
	}

	if count == 0 {
		return fallbackRange(cfg)
	}

	start := max(0, earliestStart-cfg.PreBuffer)
	end := min(MinutesPerDay, latestEnd+cfg.PostBuffer)

	maxSpan := cfg.MaxRangeHours * 60
	if end-start > maxSpan {
		center := (earliestStart + latestEnd) / 2
		start = max(0, center-maxSpan/2)
		end = min(MinutesPerDay, center+maxSpan/2)
	}

	return Range{
		Start:  start,
		End:    end,
		Source: SourceTemplates,
		Meta: RangeMeta{
			TemplateCount: count,
			EarliestStart: ToTimeString(earliestStart),
			LatestEnd:     ToTimeString(latestEnd),
		},
	}
}

func fallbackRange(cfg Config) Range {
	// normalize 已经保证了这两个时间可以被解析
	start, _ := ToMinutes(cfg.FallbackStart)
	end, _ := ToMinutes(cfg.FallbackEnd)

	return Range{
		Start:  start,
		End:    end,
		Source: SourceFallback,
	}
}
