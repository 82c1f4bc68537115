package coverage

import (
	"sort"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// Block 是一个启用模板实际覆盖的时间段
type Block struct {
	TemplateID int64  `json:"templateID"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// Gap 是两个模板之间没有任何模板覆盖的时间段 [Start, End)
type Gap struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Duration  int    `json:"duration"`
}

type Analysis struct {
	HasGaps  bool    `json:"hasGaps"`
	Gaps     []Gap   `json:"gaps"`
	Coverage []Block `json:"coverage"`
}

// AnalyzeCoverage 按开始时间排序启用的模板，找出覆盖段以及它们之间的空档
// 时间无法解析的模板会被跳过
func AnalyzeCoverage(templates []domain.ShiftTemplate) Analysis {
	blocks := make([]Block, 0, len(templates))
	for _, t := range templates {
		if !t.IsActive {
			continue
		}
		start, err := ToMinutes(t.StartTime)
		if err != nil {
			continue
		}
		end, err := ToMinutes(t.EndTime)
		if err != nil {
			continue
		}
		blocks = append(blocks, Block{
			TemplateID: t.ID,
			Start:      start,
			End:        end,
			StartTime:  ToTimeString(start),
			EndTime:    ToTimeString(end),
		})
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Start < blocks[j].Start
	})

	// reach 是目前为止已覆盖到的最晚时间，被前面较长模板包住的短模板不会产生空档
	gaps := make([]Gap, 0)
	reach := 0
	for i, b := range blocks {
		if i > 0 && reach < b.Start {
			gaps = append(gaps, Gap{
				Start:     reach,
				End:       b.Start,
				StartTime: ToTimeString(reach),
				EndTime:   ToTimeString(b.Start),
				Duration:  b.Start - reach,
			})
		}
		reach = max(reach, b.End)
	}

	return Analysis{
		HasGaps:  len(gaps) > 0,
		Gaps:     gaps,
		Coverage: blocks,
	}
}
