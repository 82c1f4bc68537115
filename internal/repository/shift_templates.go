package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// 数据库中 start_time 和 end_time 为 TIME 类型，统一以 HH:MM 的格式读出
const shiftTemplateColumns = `
	id,
	station_id,
	role_id,
	day_of_week,
	to_char(start_time, 'HH24:MI'),
	to_char(end_time, 'HH24:MI'),
	workers_needed,
	is_active,
	created_at,
	version
`

func shiftTemplateDst(t *domain.ShiftTemplate) []any {
	return []any{
		&t.ID,
		&t.StationID,
		&t.RoleID,
		&t.DayOfWeek,
		&t.StartTime,
		&t.EndTime,
		&t.WorkersNeeded,
		&t.IsActive,
		&t.CreatedAt,
		&t.Version,
	}
}

// ListShiftTemplates 返回某个岗位下的全部班次（包括未启用的），按星期和开始时间排序
func (r *Repository) ListShiftTemplates(ctx context.Context, stationID int64) ([]domain.ShiftTemplate, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `SELECT ` + shiftTemplateColumns + `
		FROM shift_templates
		WHERE station_id = $1
		ORDER BY day_of_week, start_time, id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]domain.ShiftTemplate, 0)
	for rows.Next() {
		var t domain.ShiftTemplate
		if err := rows.Scan(shiftTemplateDst(&t)...); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

func (r *Repository) GetShiftTemplate(ctx context.Context, id int64) (*domain.ShiftTemplate, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `SELECT ` + shiftTemplateColumns + ` FROM shift_templates WHERE id = $1`

	t := &domain.ShiftTemplate{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(shiftTemplateDst(t)...); err != nil {
		return nil, err
	}

	return t, nil
}

func (r *Repository) CreateShiftTemplate(ctx context.Context, t *domain.ShiftTemplate) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO shift_templates (station_id, role_id, day_of_week, start_time, end_time, workers_needed, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	args := []any{t.StationID, t.RoleID, t.DayOfWeek, t.StartTime, t.EndTime, t.WorkersNeeded, t.IsActive}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.CreatedAt, &t.Version); err != nil {
		return err
	}

	return nil
}

// UpdateShiftTemplate 使用 version 做乐观锁，版本不匹配时返回 sql.ErrNoRows
func (r *Repository) UpdateShiftTemplate(ctx context.Context, t *domain.ShiftTemplate) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		UPDATE shift_templates
		SET
			role_id = $1,
			day_of_week = $2,
			start_time = $3,
			end_time = $4,
			workers_needed = $5,
			is_active = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`

	args := []any{t.RoleID, t.DayOfWeek, t.StartTime, t.EndTime, t.WorkersNeeded, t.IsActive, t.ID, t.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&t.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteShiftTemplate(ctx context.Context, id int64) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		DELETE FROM shift_templates WHERE id = $1
	`

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
