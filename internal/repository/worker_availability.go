package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// ListWorkerAvailability 返回某岗位某角色下所有在职助理的可用时间、请假和已有排班
// 请假和单次可用时间只取与 [from, to] 有交集的部分；已有排班覆盖 from 所在周的周一到 to 所在周的周日，
// 这样才能正确统计每周工时
func (r *Repository) ListWorkerAvailability(ctx context.Context, stationID, roleID int64, from, to time.Time) ([]*domain.WorkerAvailability, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT u.id, u.username, u.full_name, u.email, u.role, u.is_active, u.created_at, u.version, wp.max_weekly_hours
		FROM worker_profiles wp
		JOIN users u ON u.id = wp.user_id
		WHERE wp.station_id = $1 AND wp.role_id = $2 AND u.is_active
		ORDER BY u.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, stationID, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := make([]*domain.WorkerAvailability, 0)
	workersMap := make(map[int64]*domain.WorkerAvailability) // userID -> worker
	userIDs := make([]int64, 0)

	for rows.Next() {
		user := &domain.User{}
		wa := &domain.WorkerAvailability{
			Worker:      user,
			StationID:   stationID,
			RoleID:      roleID,
			Windows:     make([]domain.AvailabilityWindow, 0),
			Assignments: make([]domain.Assignment, 0),
		}

		dst := []any{&user.ID, &user.Username, &user.FullName, &user.Email, &user.Role, &user.IsActive, &user.CreatedAt, &user.Version, &wa.MaxWeeklyHours}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		workers = append(workers, wa)
		workersMap[user.ID] = wa
		userIDs = append(userIDs, user.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(userIDs) == 0 {
		return workers, nil
	}

	if err := r.loadAvailabilityWindows(ctx, workersMap, userIDs, from, to); err != nil {
		return nil, err
	}

	if err := r.loadAssignments(ctx, workersMap, userIDs, from, to); err != nil {
		return nil, err
	}

	return workers, nil
}

func (r *Repository) loadAvailabilityWindows(ctx context.Context, workersMap map[int64]*domain.WorkerAvailability, userIDs []int64, from, to time.Time) error {
	query := `
		SELECT
			user_id,
			kind,
			day_of_week,
			date,
			to_char(start_time, 'HH24:MI'),
			to_char(end_time, 'HH24:MI'),
			start_date,
			end_date,
			reason
		FROM availability_windows
		WHERE user_id = ANY($1)
			AND (
				kind = 'recurring'
				OR (kind = 'one_time' AND date BETWEEN $2 AND $3)
				OR (kind = 'unavailable' AND start_date <= $3 AND end_date >= $2)
			)
		ORDER BY user_id, id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, userIDs, from, to)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row struct {
			UserID    int64
			Kind      domain.WindowKind
			DayOfWeek sql.NullInt32
			Date      sql.NullTime
			StartTime sql.NullString
			EndTime   sql.NullString
			StartDate sql.NullTime
			EndDate   sql.NullTime
			Reason    sql.NullString
		}

		dst := []any{
			&row.UserID,
			&row.Kind,
			&row.DayOfWeek,
			&row.Date,
			&row.StartTime,
			&row.EndTime,
			&row.StartDate,
			&row.EndDate,
			&row.Reason,
		}
		if err := rows.Scan(dst...); err != nil {
			return err
		}

		var window domain.AvailabilityWindow
		switch row.Kind {
		case domain.WindowRecurring:
			window = domain.RecurringWindow{
				DayOfWeek: row.DayOfWeek.Int32,
				StartTime: row.StartTime.String,
				EndTime:   row.EndTime.String,
			}
		case domain.WindowOneTime:
			window = domain.OneTimeWindow{
				Date:      row.Date.Time,
				StartTime: row.StartTime.String,
				EndTime:   row.EndTime.String,
			}
		case domain.WindowUnavailable:
			window = domain.UnavailableWindow{
				StartDate: row.StartDate.Time,
				EndDate:   row.EndDate.Time,
				Reason:    row.Reason.String,
			}
		default:
			return fmt.Errorf("未知的可用时间类型: %s", row.Kind)
		}

		if wa, ok := workersMap[row.UserID]; ok {
			wa.Windows = append(wa.Windows, window)
		}
	}

	return rows.Err()
}

func (r *Repository) loadAssignments(ctx context.Context, workersMap map[int64]*domain.WorkerAvailability, userIDs []int64, from, to time.Time) error {
	query := `
		SELECT
			sa.user_id,
			sa.shift_template_id,
			sa.date,
			to_char(st.start_time, 'HH24:MI'),
			to_char(st.end_time, 'HH24:MI')
		FROM shift_assignments sa
		JOIN shift_templates st ON st.id = sa.shift_template_id
		WHERE sa.user_id = ANY($1) AND sa.date BETWEEN $2 AND $3
		ORDER BY sa.user_id, sa.date
	`

	weekFrom, weekTo := weekBounds(from, to)
	rows, err := r.dbpool.QueryContext(ctx, query, userIDs, weekFrom, weekTo)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var a domain.Assignment
		if err := rows.Scan(&userID, &a.ShiftTemplateID, &a.Date, &a.StartTime, &a.EndTime); err != nil {
			return err
		}

		if wa, ok := workersMap[userID]; ok {
			wa.Assignments = append(wa.Assignments, a)
		}
	}

	return rows.Err()
}

// weekBounds 把 [from, to] 扩展为完整的周（周一到周日）
func weekBounds(from, to time.Time) (time.Time, time.Time) {
	fromOffset := (int(from.Weekday()) + 6) % 7
	toOffset := 6 - (int(to.Weekday())+6)%7
	return from.AddDate(0, 0, -fromOffset), to.AddDate(0, 0, toOffset)
}

func (r *Repository) CreateWorkerProfile(ctx context.Context, wa *domain.WorkerAvailability) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO worker_profiles (user_id, station_id, role_id, max_weekly_hours)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.dbpool.ExecContext(ctx, query, wa.Worker.ID, wa.StationID, wa.RoleID, wa.MaxWeeklyHours)
	return err
}

func (r *Repository) CreateAvailabilityWindow(ctx context.Context, userID int64, window domain.AvailabilityWindow) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO availability_windows (user_id, kind, day_of_week, date, start_time, end_time, start_date, end_date, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	args := []any{userID, string(window.Kind()), nil, nil, nil, nil, nil, nil, nil}
	switch w := window.(type) {
	case domain.RecurringWindow:
		args[2], args[4], args[5] = w.DayOfWeek, w.StartTime, w.EndTime
	case domain.OneTimeWindow:
		args[3], args[4], args[5] = w.Date, w.StartTime, w.EndTime
	case domain.UnavailableWindow:
		args[6], args[7], args[8] = w.StartDate, w.EndDate, w.Reason
	default:
		return fmt.Errorf("未知的可用时间类型: %s", window.Kind())
	}

	_, err := r.dbpool.ExecContext(ctx, query, args...)
	return err
}
