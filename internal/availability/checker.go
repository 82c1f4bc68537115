package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

type Checker struct {
	querier        Querier
	queryTimeout   time.Duration
	maxConcurrency int
	logger         *slog.Logger
}

type Option func(*Checker)

// WithQueryTimeout 设置单次查询的超时时间，超时与查询失败同样处理
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Checker) {
		c.queryTimeout = d
	}
}

// WithMaxConcurrency 限制同时进行的查询数量，n <= 0 表示不限制
func WithMaxConcurrency(n int) Option {
	return func(c *Checker) {
		c.maxConcurrency = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

func NewChecker(querier Querier, opts ...Option) *Checker {
	c := &Checker{
		querier:      querier,
		queryTimeout: 10 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check 为每个班次并发发起一次查询，并按输入顺序返回结果
// 单个班次查询失败或超时时，该班次的结果降级为 available = 0、conflicts 为空，不影响其他班次
func (c *Checker) Check(ctx context.Context, dateRange domain.DateRange, shifts []domain.ShiftTemplate) []domain.AvailabilityCheck {
	results := make([]domain.AvailabilityCheck, len(shifts))

	// 每个任务都不会返回错误，因此一个任务失败不会取消其他任务
	var g errgroup.Group
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}

	for i, shift := range shifts {
		g.Go(func() error {
			results[i] = c.checkOne(ctx, i, dateRange, shift)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *Checker) checkOne(ctx context.Context, index int, dateRange domain.DateRange, shift domain.ShiftTemplate) domain.AvailabilityCheck {
	check := domain.AvailabilityCheck{
		ShiftID:   fmt.Sprintf("shift-%d", index),
		Available: 0,
		Required:  int(shift.WorkersNeeded),
		Conflicts: []domain.WorkerConflict{},
	}

	res, err := c.query(ctx, Request{
		StartDate: dateRange.StartDate,
		EndDate:   dateRange.EndDate,
		Shift:     shift,
	})
	if err != nil {
		c.logger.Warn("查询班次可用性失败", "shift", check.ShiftID, "stationID", shift.StationID, "error", err)
		return check
	}

	check.Available = res.AvailableWorkers
	if res.Conflicts != nil {
		check.Conflicts = res.Conflicts
	}

	return check
}

type outcome struct {
	res *Result
	err error
}

// query 在独立的 goroutine 中执行查询，即使 querier 不理会 ctx，超时后也会立即返回
func (c *Checker) query(ctx context.Context, req Request) (*Result, error) {
	if c.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := c.querier.Query(ctx, req)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		if o.err == nil && o.res == nil {
			return nil, errors.New("空的查询结果")
		}
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
