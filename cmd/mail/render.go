package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// incomingMessage 与 domain.MailMessage 对应，Data 延迟到确定类型后再解析
type incomingMessage struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

var weekdayNames = []string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

var funcs = template.FuncMap{
	"weekday": func(day int32) string {
		if day < 0 || int(day) >= len(weekdayNames) {
			return fmt.Sprintf("星期 %d", day)
		}
		return weekdayNames[day]
	},
}

// render 根据邮件类型选择模板，返回邮件标题和 HTML 正文
func render(dir string, msg incomingMessage) (string, string, error) {
	var (
		file    string
		subject string
		data    any
	)

	switch msg.Type {
	case domain.MailTypeCoverageGaps:
		var d domain.CoverageGapsMailData
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return "", "", err
		}
		file = "coverage_gaps_email.html"
		subject = "班次覆盖提醒 - 存在无人值守的时段"
		data = d
	default:
		return "", "", fmt.Errorf("不支持的邮件类型: %s", msg.Type)
	}

	tmpl, err := template.New(file).Funcs(funcs).ParseFiles(filepath.Join(dir, file))
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}

	return subject, buf.String(), nil
}
