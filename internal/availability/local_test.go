package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

type fakeSource struct {
	workers []*domain.WorkerAvailability
	err     error
	calls   int
}

func (f *fakeSource) ListWorkerAvailability(_ context.Context, _, _ int64, _, _ time.Time) ([]*domain.WorkerAvailability, error) {
	f.calls++
	return f.workers, f.err
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func worker(id int64, name string, windows ...domain.AvailabilityWindow) *domain.WorkerAvailability {
	return &domain.WorkerAvailability{
		Worker:  &domain.User{ID: id, FullName: name},
		Windows: windows,
	}
}

// 2026-03-02 是周一
var mondayMorning = domain.RecurringWindow{DayOfWeek: 1, StartTime: "07:00", EndTime: "13:00"}

func TestLocalQuerier_Reasons(t *testing.T) {
	available := worker(1, "可用")

	timeOff := worker(2, "请假", mondayMorning, domain.UnavailableWindow{StartDate: day(1), EndDate: day(3), Reason: "病假"})

	doubleBooked := worker(3, "重复排班", mondayMorning)
	doubleBooked.Assignments = []domain.Assignment{{ShiftTemplateID: 9, Date: day(2), StartTime: "11:00", EndTime: "14:00"}}

	overHours := worker(4, "超时", mondayMorning)
	overHours.MaxWeeklyHours = 10
	overHours.Assignments = []domain.Assignment{
		{ShiftTemplateID: 9, Date: day(4), StartTime: "08:00", EndTime: "12:00"},
		{ShiftTemplateID: 9, Date: day(5), StartTime: "08:00", EndTime: "12:00"},
	}

	outsideWindow := worker(5, "时间不合", domain.RecurringWindow{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"})

	available.Windows = []domain.AvailabilityWindow{mondayMorning}

	src := &fakeSource{workers: []*domain.WorkerAvailability{available, timeOff, doubleBooked, overHours, outsideWindow}}
	dr := testRange()
	res, err := NewLocalQuerier(src).Query(context.Background(), Request{
		StartDate: dr.StartDate,
		EndDate:   dr.EndDate,
		Shift:     testShifts()[0],
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.AvailableWorkers)
	assert.Equal(t, []domain.WorkerConflict{
		{WorkerID: 2, WorkerName: "请假", Reason: domain.ConflictTimeOff},
		{WorkerID: 3, WorkerName: "重复排班", Reason: domain.ConflictDoubleBooking},
		{WorkerID: 4, WorkerName: "超时", Reason: domain.ConflictMaxHours},
		{WorkerID: 5, WorkerName: "时间不合", Reason: domain.ConflictUnavailable},
	}, res.Conflicts)
}

func TestLocalQuerier_OneTimeWindowAndTouchingAssignment(t *testing.T) {
	w := worker(1, "临时", domain.OneTimeWindow{Date: day(2), StartTime: "08:00", EndTime: "12:00"})
	w.Assignments = []domain.Assignment{{ShiftTemplateID: 9, Date: day(2), StartTime: "12:00", EndTime: "14:00"}}
	w.MaxWeeklyHours = 6

	src := &fakeSource{workers: []*domain.WorkerAvailability{w}}
	dr := testRange()
	res, err := NewLocalQuerier(src).Query(context.Background(), Request{StartDate: dr.StartDate, EndDate: dr.EndDate, Shift: testShifts()[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AvailableWorkers)
	assert.Empty(t, res.Conflicts)
}

func TestLocalQuerier_AssignmentInOtherWeekIgnored(t *testing.T) {
	w := worker(1, "下周", mondayMorning)
	w.MaxWeeklyHours = 5
	w.Assignments = []domain.Assignment{{ShiftTemplateID: 9, Date: day(9), StartTime: "08:00", EndTime: "12:00"}}

	src := &fakeSource{workers: []*domain.WorkerAvailability{w}}
	dr := testRange()
	res, err := NewLocalQuerier(src).Query(context.Background(), Request{StartDate: dr.StartDate, EndDate: dr.EndDate, Shift: testShifts()[0]})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AvailableWorkers)
}

func TestLocalQuerier_NoOccurrence(t *testing.T) {
	src := &fakeSource{}
	shift := testShifts()[0]
	shift.DayOfWeek = 3

	res, err := NewLocalQuerier(src).Query(context.Background(), Request{StartDate: day(2), EndDate: day(3), Shift: shift})
	require.NoError(t, err)
	assert.Equal(t, 0, res.AvailableWorkers)
	assert.NotNil(t, res.Conflicts)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 0, src.calls)
}

func TestLocalQuerier_Errors(t *testing.T) {
	shift := testShifts()[0]
	shift.StartTime = "8点"
	_, err := NewLocalQuerier(&fakeSource{}).Query(context.Background(), Request{StartDate: day(2), EndDate: day(8), Shift: shift})
	assert.Error(t, err)

	src := &fakeSource{err: errors.New("db down")}
	_, err = NewLocalQuerier(src).Query(context.Background(), Request{StartDate: day(2), EndDate: day(8), Shift: testShifts()[0]})
	assert.Error(t, err)
}

func TestDatesOnWeekday(t *testing.T) {
	dates := datesOnWeekday(day(1), day(31), int32(time.Monday))
	require.Len(t, dates, 5)
	assert.Equal(t, day(2), dates[0])
	assert.Equal(t, day(30), dates[4])

	assert.Equal(t, day(2), weekStart(day(8)))
	assert.Equal(t, day(9), weekStart(day(9)))
}
