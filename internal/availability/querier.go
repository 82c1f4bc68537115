package availability

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// Request 是针对单个班次的可用性查询，日期范围为闭区间
type Request struct {
	StartDate time.Time
	EndDate   time.Time
	Shift     domain.ShiftTemplate
}

type Result struct {
	AvailableWorkers int                     `json:"availableWorkers"`
	Conflicts        []domain.WorkerConflict `json:"conflicts"`
}

// Querier 查询某个班次在日期范围内有多少助理可用，以及其他助理不可用的原因
type Querier interface {
	Query(ctx context.Context, req Request) (*Result, error)
}
