package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/utils"
)

// 导出的表格中班次列的表头形如 "09：00-10：00"，单元格为该助理有空的星期，例如 "1, 2, 7"（7 表示周日）
// 其余列为助理信息：NetID、姓名、邮箱、每周工时上限
const (
	columnNetID    = "NetID"
	columnName     = "姓名"
	columnEmail    = "邮箱"
	columnMaxHours = "每周工时上限"
)

// ShiftColumn 是表格中的一个班次列
type ShiftColumn struct {
	Header    string
	StartTime string
	EndTime   string
}

// Sheet 是解析后的助理空闲时间表
type Sheet struct {
	Shifts  []ShiftColumn
	Records []map[string]string
}

// ParseShiftHeader 把 "09：00-10：00" 解析为开始和结束时间，全角和半角冒号都可以
func ParseShiftHeader(header string) (ShiftColumn, bool) {
	normalized := strings.ReplaceAll(header, "：", ":")
	startTime, endTime, ok := strings.Cut(normalized, "-")
	if !ok {
		return ShiftColumn{}, false
	}

	t := domain.ShiftTemplate{
		StartTime:     strings.TrimSpace(startTime),
		EndTime:       strings.TrimSpace(endTime),
		WorkersNeeded: 1,
	}
	if err := utils.ValidateShiftTemplate(&t); err != nil {
		return ShiftColumn{}, false
	}

	return ShiftColumn{Header: header, StartTime: t.StartTime, EndTime: t.EndTime}, true
}

func ReadSheet(r io.Reader) (*Sheet, error) {
	reader := csv.NewReader(r)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	sheet := &Sheet{}
	for _, header := range headers {
		if shift, ok := ParseShiftHeader(header); ok {
			sheet.Shifts = append(sheet.Shifts, shift)
		}
	}
	if len(sheet.Shifts) == 0 || !slices.Contains(headers, columnNetID) {
		return nil, errors.New("没有找到班次列或信息列")
	}

	// 读取数据
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("读取文件失败: %w", err)
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = value
		}
		sheet.Records = append(sheet.Records, record)
	}

	return sheet, nil
}

// parseDays 把 "1, 2, 7" 转换为 time.Weekday 的编号，7 转换为 0（周日）
func parseDays(cell string) []int32 {
	days := make([]int32, 0)
	for _, day := range strings.Split(cell, ",") {
		day = strings.TrimSpace(day)
		if day == "" {
			continue
		}

		dayInt, err := strconv.Atoi(day)
		if err != nil || dayInt < 0 || dayInt > 7 {
			slog.Warn("转换天数失败", "day", day)
			continue
		}

		days = append(days, int32(dayInt%7))
	}
	return days
}

// Windows 把一行记录转换为每周固定的可用时间
func (s *Sheet) Windows(record map[string]string) []domain.AvailabilityWindow {
	windows := make([]domain.AvailabilityWindow, 0)
	for _, shift := range s.Shifts {
		for _, day := range parseDays(record[shift.Header]) {
			windows = append(windows, domain.RecurringWindow{
				DayOfWeek: day,
				StartTime: shift.StartTime,
				EndTime:   shift.EndTime,
			})
		}
	}
	return windows
}

// Templates 为每个班次列生成班次，只在至少有一名助理有空的日子开设
func (s *Sheet) Templates(stationID, roleID int64, workersNeeded int32) []*domain.ShiftTemplate {
	templates := make([]*domain.ShiftTemplate, 0)
	for _, shift := range s.Shifts {
		var days []int32
		for _, record := range s.Records {
			for _, day := range parseDays(record[shift.Header]) {
				if !slices.Contains(days, day) {
					days = append(days, day)
				}
			}
		}
		slices.Sort(days)

		for _, day := range days {
			templates = append(templates, &domain.ShiftTemplate{
				StationID:     stationID,
				RoleID:        roleID,
				DayOfWeek:     day,
				StartTime:     shift.StartTime,
				EndTime:       shift.EndTime,
				WorkersNeeded: workersNeeded,
				IsActive:      true,
			})
		}
	}
	return templates
}

// SeedFromCSV 从导出的空闲时间表中导入一个岗位的班次、助理以及助理的可用时间
func SeedFromCSV(ctx context.Context, r *repository.Repository, path string, stationID, roleID int64, passwordHash string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	sheet, err := ReadSheet(file)
	if err != nil {
		return err
	}

	// 插入班次，与已有班次冲突的跳过
	existing, err := r.ListShiftTemplates(ctx, stationID)
	if err != nil {
		return err
	}
	for _, t := range sheet.Templates(stationID, roleID, 1) {
		if err := utils.ValidateStationSchedule(existing, *t); err != nil {
			slog.Warn("跳过冲突的班次", "day", t.DayOfWeek, "start", t.StartTime, "end", t.EndTime, "error", err)
			continue
		}
		if err := r.CreateShiftTemplate(ctx, t); err != nil {
			slog.Error("插入班次失败", "error", err)
			continue
		}
		existing = append(existing, *t)
	}

	// 插入助理及其可用时间
	for _, record := range sheet.Records {
		netID := record[columnNetID]
		if netID == "" {
			slog.Error("没有找到NetID", "record", record)
			continue
		}

		user, err := r.GetUserByUsername(ctx, netID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				// 表示该助理不在数据库中，需要新建并插入
				user = &domain.User{
					Username:     netID,
					PasswordHash: passwordHash,
					FullName:     record[columnName],
					Email:        record[columnEmail],
					Role:         domain.RoleWorker,
				}

				if err := r.CreateUser(ctx, user); err != nil {
					slog.Error("插入助理失败", "error", err)
					continue
				}
			default:
				slog.Error("获取助理失败", "error", err)
				continue
			}
		}

		maxHours, _ := strconv.ParseFloat(record[columnMaxHours], 64)
		profile := &domain.WorkerAvailability{
			Worker:         user,
			StationID:      stationID,
			RoleID:         roleID,
			MaxWeeklyHours: maxHours,
		}
		if err := r.CreateWorkerProfile(ctx, profile); err != nil {
			slog.Error("插入助理岗位信息失败", "username", netID, "error", err)
			continue
		}

		for _, window := range sheet.Windows(record) {
			if err := r.CreateAvailabilityWindow(ctx, user.ID, window); err != nil {
				slog.Error("插入可用时间失败", "username", netID, "error", err)
			}
		}
	}

	slog.Info("插入数据完成", "templates", len(existing), "workers", len(sheet.Records))
	return nil
}
