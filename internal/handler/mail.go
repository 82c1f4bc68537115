package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/coverage"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

func (h *Handler) publishMail(ctx context.Context, mailMessage domain.MailMessage) error {
	// 序列化邮件
	mailData, err := json.Marshal(mailMessage)
	if err != nil {
		return err
	}

	// 发送邮件到消息队列中
	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	)
}

// notifyCoverageGaps 在班次变动后检查岗位某一天的覆盖情况，存在空档时给所有管理员发送提醒
// 提醒只是附带的，出错时记录日志，不影响班次本身的修改
func (h *Handler) notifyCoverageGaps(ctx context.Context, stationID int64, dayOfWeek int32) {
	if h.mailChannel == nil {
		return
	}

	templates, err := h.repository.ListShiftTemplates(ctx, stationID)
	if err != nil {
		slog.Warn("无法获取岗位的班次", "station_id", stationID, "error", err)
		return
	}

	analysis := coverage.AnalyzeCoverage(filterByDay(templates, dayOfWeek))
	if !analysis.HasGaps {
		return
	}

	managers, err := h.repository.GetActiveUsersByRole(ctx, domain.RoleManager)
	if err != nil {
		slog.Warn("无法获取管理员列表", "error", err)
		return
	}

	gaps := make([]domain.CoverageGapItem, 0, len(analysis.Gaps))
	for _, gap := range analysis.Gaps {
		gaps = append(gaps, domain.CoverageGapItem{
			StartTime: gap.StartTime,
			EndTime:   gap.EndTime,
			Duration:  gap.Duration,
		})
	}

	for _, manager := range managers {
		mailMessage := domain.MailMessage{
			Type: domain.MailTypeCoverageGaps,
			To:   manager.Email,
			Data: domain.CoverageGapsMailData{
				FullName:  manager.FullName,
				StationID: stationID,
				DayOfWeek: dayOfWeek,
				Gaps:      gaps,
			},
		}
		if err := h.publishMail(ctx, mailMessage); err != nil {
			slog.Warn("无法发送覆盖空档提醒", "to", manager.Email, "error", err)
		}
	}
}

func filterByDay(templates []domain.ShiftTemplate, dayOfWeek int32) []domain.ShiftTemplate {
	filtered := make([]domain.ShiftTemplate, 0, len(templates))
	for _, t := range templates {
		if t.DayOfWeek == dayOfWeek {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
