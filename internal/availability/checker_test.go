package availability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

type querierFunc func(ctx context.Context, req Request) (*Result, error)

func (f querierFunc) Query(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testShifts() []domain.ShiftTemplate {
	return []domain.ShiftTemplate{
		{ID: 1, StartTime: "08:00", EndTime: "12:00", DayOfWeek: 1, StationID: 1, WorkersNeeded: 2, IsActive: true},
		{ID: 2, StartTime: "12:00", EndTime: "16:00", DayOfWeek: 1, StationID: 1, WorkersNeeded: 3, IsActive: true},
		{ID: 3, StartTime: "16:00", EndTime: "20:00", DayOfWeek: 1, StationID: 1, WorkersNeeded: 1, IsActive: true},
	}
}

func testRange() domain.DateRange {
	return domain.DateRange{
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	}
}

func TestChecker_FailureIsIsolated(t *testing.T) {
	q := querierFunc(func(_ context.Context, req Request) (*Result, error) {
		if req.Shift.ID == 2 {
			return nil, errors.New("boom")
		}
		return &Result{
			AvailableWorkers: int(req.Shift.ID) * 10,
			Conflicts: []domain.WorkerConflict{
				{WorkerID: req.Shift.ID, WorkerName: "w", Reason: domain.ConflictTimeOff},
			},
		}, nil
	})

	checks := NewChecker(q, WithLogger(discardLogger())).Check(context.Background(), testRange(), testShifts())
	require.Len(t, checks, 3)

	assert.Equal(t, "shift-0", checks[0].ShiftID)
	assert.Equal(t, 10, checks[0].Available)
	assert.Equal(t, 2, checks[0].Required)
	assert.Len(t, checks[0].Conflicts, 1)

	assert.Equal(t, domain.AvailabilityCheck{
		ShiftID:   "shift-1",
		Available: 0,
		Required:  3,
		Conflicts: []domain.WorkerConflict{},
	}, checks[1])

	assert.Equal(t, "shift-2", checks[2].ShiftID)
	assert.Equal(t, 30, checks[2].Available)
	assert.Equal(t, 1, checks[2].Required)
}

func TestChecker_PreservesOrder(t *testing.T) {
	// 越靠前的班次返回得越慢，结果仍然要按输入顺序排列
	q := querierFunc(func(_ context.Context, req Request) (*Result, error) {
		time.Sleep(time.Duration(4-req.Shift.ID) * 10 * time.Millisecond)
		return &Result{AvailableWorkers: int(req.Shift.ID)}, nil
	})

	checks := NewChecker(q, WithLogger(discardLogger())).Check(context.Background(), testRange(), testShifts())
	require.Len(t, checks, 3)
	for i, check := range checks {
		assert.Equal(t, i+1, check.Available)
		assert.NotNil(t, check.Conflicts)
	}
}

func TestChecker_RunsConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	q := querierFunc(func(_ context.Context, _ Request) (*Result, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		inFlight.Add(-1)
		return &Result{}, nil
	})

	NewChecker(q, WithLogger(discardLogger())).Check(context.Background(), testRange(), testShifts())
	assert.Equal(t, int32(3), peak.Load())

	peak.Store(0)
	NewChecker(q, WithLogger(discardLogger()), WithMaxConcurrency(1)).Check(context.Background(), testRange(), testShifts())
	assert.Equal(t, int32(1), peak.Load())
}

func TestChecker_TimeoutDegrades(t *testing.T) {
	// 这个 querier 完全不理会 ctx
	q := querierFunc(func(_ context.Context, req Request) (*Result, error) {
		if req.Shift.ID == 1 {
			time.Sleep(time.Second)
		}
		return &Result{AvailableWorkers: 5}, nil
	})

	start := time.Now()
	checks := NewChecker(q, WithLogger(discardLogger()), WithQueryTimeout(50*time.Millisecond)).
		Check(context.Background(), testRange(), testShifts())
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.Len(t, checks, 3)
	assert.Equal(t, 0, checks[0].Available)
	assert.Empty(t, checks[0].Conflicts)
	assert.Equal(t, 5, checks[1].Available)
	assert.Equal(t, 5, checks[2].Available)
}

func TestChecker_PanicAndNilResultDegrade(t *testing.T) {
	q := querierFunc(func(_ context.Context, req Request) (*Result, error) {
		switch req.Shift.ID {
		case 1:
			panic("unexpected")
		case 2:
			return nil, nil
		}
		return &Result{AvailableWorkers: 1}, nil
	})

	checks := NewChecker(q, WithLogger(discardLogger())).Check(context.Background(), testRange(), testShifts())
	assert.Equal(t, 0, checks[0].Available)
	assert.Equal(t, 0, checks[1].Available)
	assert.Equal(t, 1, checks[2].Available)
}

func TestChecker_EmptyInput(t *testing.T) {
	checks := NewChecker(querierFunc(func(context.Context, Request) (*Result, error) {
		t.Fatal("should not be called")
		return nil, nil
	})).Check(context.Background(), testRange(), nil)
	assert.Empty(t, checks)
}
