package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const MailTypeCoverageGaps = "coverage_gaps"

type CoverageGapItem struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Duration  int    `json:"duration"`
}

type CoverageGapsMailData struct {
	FullName  string            `json:"fullName"`
	StationID int64             `json:"stationID"`
	DayOfWeek int32             `json:"dayOfWeek"`
	Gaps      []CoverageGapItem `json:"gaps"`
}
