package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/utils"
)

func (h *Handler) ListShiftTemplates(w http.ResponseWriter, r *http.Request) {
	stationID, err := strconv.ParseInt(r.URL.Query().Get("stationId"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, "岗位ID无效")
		return
	}

	templates, err := h.repository.ListShiftTemplates(r.Context(), stationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取岗位班次成功", templates)
}

func (h *Handler) CreateShiftTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StationID     int64  `json:"stationID" validate:"required,gte=1"`
		RoleID        int64  `json:"roleID" validate:"required,gte=1"`
		DayOfWeek     *int32 `json:"dayOfWeek" validate:"required,gte=0,lte=6"`
		StartTime     string `json:"startTime" validate:"required"`
		EndTime       string `json:"endTime" validate:"required"`
		WorkersNeeded int32  `json:"workersNeeded" validate:"required,gte=1"`
		IsActive      *bool  `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	t := &domain.ShiftTemplate{
		StationID:     req.StationID,
		RoleID:        req.RoleID,
		DayOfWeek:     *req.DayOfWeek,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		WorkersNeeded: req.WorkersNeeded,
		IsActive:      true,
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if !h.checkShiftTemplate(w, r, t) {
		return
	}

	if err := h.repository.CreateShiftTemplate(r.Context(), t); err != nil {
		h.shiftTemplateWriteError(w, r, err)
		return
	}

	h.invalidateStation(r.Context(), t.StationID)
	h.notifyCoverageGaps(r.Context(), t.StationID, t.DayOfWeek)

	h.successResponse(w, r, "创建班次成功", t)
}

func (h *Handler) GetShiftTemplate(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(ShiftTemplateCtx).(*domain.ShiftTemplate)

	h.successResponse(w, r, "获取班次成功", t)
}

func (h *Handler) UpdateShiftTemplate(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(ShiftTemplateCtx).(*domain.ShiftTemplate)
	oldDay := t.DayOfWeek

	var req struct {
		RoleID        *int64  `json:"roleID" validate:"omitempty,gte=1"`
		DayOfWeek     *int32  `json:"dayOfWeek" validate:"omitempty,gte=0,lte=6"`
		StartTime     *string `json:"startTime"`
		EndTime       *string `json:"endTime"`
		WorkersNeeded *int32  `json:"workersNeeded" validate:"omitempty,gte=1"`
		IsActive      *bool   `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.RoleID != nil {
		t.RoleID = *req.RoleID
	}
	if req.DayOfWeek != nil {
		t.DayOfWeek = *req.DayOfWeek
	}
	if req.StartTime != nil {
		t.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		t.EndTime = *req.EndTime
	}
	if req.WorkersNeeded != nil {
		t.WorkersNeeded = *req.WorkersNeeded
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	if !h.checkShiftTemplate(w, r, t) {
		return
	}

	if err := h.repository.UpdateShiftTemplate(r.Context(), t); err != nil {
		h.shiftTemplateWriteError(w, r, err)
		return
	}

	h.invalidateStation(r.Context(), t.StationID)
	h.notifyCoverageGaps(r.Context(), t.StationID, t.DayOfWeek)
	if oldDay != t.DayOfWeek {
		h.notifyCoverageGaps(r.Context(), t.StationID, oldDay)
	}

	h.successResponse(w, r, "更新班次成功", t)
}

func (h *Handler) DeleteShiftTemplate(w http.ResponseWriter, r *http.Request) {
	t := r.Context().Value(ShiftTemplateCtx).(*domain.ShiftTemplate)

	if err := h.repository.DeleteShiftTemplate(r.Context(), t.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "shift_assignments_shift_template_id_fkey":
				h.errorResponse(w, r, "该班次已有排班，无法删除")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.invalidateStation(r.Context(), t.StationID)
	h.notifyCoverageGaps(r.Context(), t.StationID, t.DayOfWeek)

	h.successResponse(w, r, "删除班次成功", nil)
}

// checkShiftTemplate 校验班次本身，以及它与同岗位其他班次是否冲突，校验失败时已经写好了响应
func (h *Handler) checkShiftTemplate(w http.ResponseWriter, r *http.Request, t *domain.ShiftTemplate) bool {
	if err := utils.ValidateShiftTemplate(t); err != nil {
		h.badRequest(w, r, err)
		return false
	}

	existing, err := h.repository.ListShiftTemplates(r.Context(), t.StationID)
	if err != nil {
		h.internalServerError(w, r, err)
		return false
	}

	if err := utils.ValidateStationSchedule(existing, *t); err != nil {
		h.errorResponse(w, r, err.Error())
		return false
	}

	return true
}

func (h *Handler) shiftTemplateWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		switch pgErr.ConstraintName {
		case "shift_templates_time_check":
			h.errorResponse(w, r, utils.ErrOvernightShift.Error())
		case "shift_templates_day_of_week_check":
			h.errorResponse(w, r, "星期必须在 0 到 6 之间")
		default:
			h.internalServerError(w, r, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "请重试")
	default:
		h.internalServerError(w, r, err)
	}
}
