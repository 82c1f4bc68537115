package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/conflict"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/coverage"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

var errTemplateNotInStation = errors.New("该岗位下不存在这个班次")

func parseStationID(r *http.Request) (int64, error) {
	stationID, err := strconv.ParseInt(r.URL.Query().Get("stationId"), 10, 64)
	if err != nil || stationID <= 0 {
		return 0, errors.New("岗位ID无效")
	}
	return stationID, nil
}

// timelineInput 决定时间轴使用哪些班次和哪套配置
// 指定 templateId 时只看这一个班次；否则看整个岗位，并使用覆盖全天的配置
func (h *Handler) timelineInput(ctx context.Context, stationID int64, templateIDParam string) ([]domain.ShiftTemplate, coverage.Config, error) {
	templates, err := h.repository.ListShiftTemplates(ctx, stationID)
	if err != nil {
		return nil, coverage.Config{}, err
	}

	if templateIDParam == "" {
		return templates, coverage.WholeDayConfig(h.coverage), nil
	}

	templateID, err := strconv.ParseInt(templateIDParam, 10, 64)
	if err != nil {
		return nil, coverage.Config{}, errTemplateNotInStation
	}
	for _, t := range templates {
		if t.ID == templateID {
			return []domain.ShiftTemplate{t}, h.coverage, nil
		}
	}
	return nil, coverage.Config{}, errTemplateNotInStation
}

func cacheField(kind, templateIDParam string) string {
	if templateIDParam == "" {
		return kind + ":all"
	}
	return kind + ":" + templateIDParam
}

func (h *Handler) GetCoverageRange(w http.ResponseWriter, r *http.Request) {
	stationID, err := parseStationID(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	templateIDParam := r.URL.Query().Get("templateId")

	rng, err := cached(r.Context(), h, stationID, cacheField("range", templateIDParam), func() (coverage.Range, error) {
		templates, cfg, err := h.timelineInput(r.Context(), stationID, templateIDParam)
		if err != nil {
			return coverage.Range{}, err
		}
		return coverage.ComputeRange(templates, cfg), nil
	})
	if err != nil {
		h.coverageError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取时间轴范围成功", rng)
}

func (h *Handler) GetCoverageSlots(w http.ResponseWriter, r *http.Request) {
	stationID, err := parseStationID(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}
	templateIDParam := r.URL.Query().Get("templateId")

	slots, err := cached(r.Context(), h, stationID, cacheField("slots", templateIDParam), func() (coverage.SlotSet, error) {
		templates, cfg, err := h.timelineInput(r.Context(), stationID, templateIDParam)
		if err != nil {
			return coverage.SlotSet{}, err
		}
		return coverage.GenerateSlots(templates, cfg), nil
	})
	if err != nil {
		h.coverageError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取时间槽成功", slots)
}

func (h *Handler) GetCoverageGaps(w http.ResponseWriter, r *http.Request) {
	stationID, err := parseStationID(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	dayParam := r.URL.Query().Get("dayOfWeek")
	var day int64 = -1
	if dayParam != "" {
		day, err = strconv.ParseInt(dayParam, 10, 32)
		if err != nil || day < 0 || day > 6 {
			h.errorResponse(w, r, "星期必须在 0 到 6 之间")
			return
		}
	}

	analysis, err := cached(r.Context(), h, stationID, cacheField("gaps", dayParam), func() (coverage.Analysis, error) {
		templates, err := h.repository.ListShiftTemplates(r.Context(), stationID)
		if err != nil {
			return coverage.Analysis{}, err
		}
		if day >= 0 {
			templates = filterByDay(templates, int32(day))
		}
		return coverage.AnalyzeCoverage(templates), nil
	})
	if err != nil {
		h.coverageError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取覆盖空档成功", analysis)
}

// 一次可用性查询最多覆盖的天数（含首尾）
const maxAvailabilityDays = 366

type shiftInput struct {
	ID            int64  `json:"id"`
	StartTime     string `json:"startTime" validate:"required"`
	EndTime       string `json:"endTime" validate:"required"`
	DayOfWeek     *int32 `json:"dayOfWeek" validate:"required,gte=0,lte=6"`
	RoleID        int64  `json:"roleID"`
	StationID     int64  `json:"stationID" validate:"required"`
	WorkersNeeded int32  `json:"workersNeeded" validate:"gte=0"`
}

func (s shiftInput) toDomain() domain.ShiftTemplate {
	return domain.ShiftTemplate{
		ID:            s.ID,
		StartTime:     s.StartTime,
		EndTime:       s.EndTime,
		DayOfWeek:     *s.DayOfWeek,
		RoleID:        s.RoleID,
		StationID:     s.StationID,
		WorkersNeeded: s.WorkersNeeded,
		IsActive:      true,
	}
}

func toDomainShifts(inputs []shiftInput) []domain.ShiftTemplate {
	shifts := make([]domain.ShiftTemplate, 0, len(inputs))
	for _, in := range inputs {
		shifts = append(shifts, in.toDomain())
	}
	return shifts
}

func (h *Handler) DetectConflicts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Shifts []shiftInput `json:"shifts" validate:"required,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shifts := toDomainShifts(req.Shifts)
	result := conflict.Detect(shifts)

	// byID 以请求中的班次 ID 为 key，没有传 ID 的班次请使用 conflicts 中的下标
	h.successResponse(w, r, "检测班次冲突成功", struct {
		HasConflicts bool              `json:"hasConflicts"`
		Conflicts    map[int][]int     `json:"conflicts"`
		ByID         map[int64][]int64 `json:"byID"`
		Pairs        [][2]int          `json:"pairs"`
	}{
		HasConflicts: result.HasConflicts(),
		Conflicts:    result,
		ByID:         result.ByID(shifts),
		Pairs:        result.Pairs(),
	})
}

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string       `json:"startDate" validate:"required,datetime=2006-01-02"`
		EndDate   string       `json:"endDate" validate:"required,datetime=2006-01-02"`
		Shifts    []shiftInput `json:"shifts" validate:"required,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 上面已经校验过格式，这里不会出错
	startDate, _ := time.Parse(time.DateOnly, req.StartDate)
	endDate, _ := time.Parse(time.DateOnly, req.EndDate)
	if endDate.Before(startDate) {
		h.errorResponse(w, r, "结束日期不能早于开始日期")
		return
	}
	if endDate.Sub(startDate) >= maxAvailabilityDays*24*time.Hour {
		h.errorResponse(w, r, fmt.Sprintf("查询的日期范围不能超过 %d 天", maxAvailabilityDays))
		return
	}

	checks := h.checker.Check(r.Context(), domain.DateRange{StartDate: startDate, EndDate: endDate}, toDomainShifts(req.Shifts))

	h.successResponse(w, r, "检查班次可用性成功", checks)
}

func (h *Handler) coverageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errTemplateNotInStation):
		h.errorResponse(w, r, err.Error())
	default:
		h.internalServerError(w, r, fmt.Errorf("无法计算覆盖情况: %w", err))
	}
}
