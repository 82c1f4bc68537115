package coverage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay 是一天的分钟数，也是时间轴的上界（不包含）
const MinutesPerDay = 24 * 60

var ErrInvalidTime = errors.New("无效的时间格式")

// ToMinutes 将 "HH:MM" 转换为从午夜开始的分钟数
// 同时兼容 "H:MM" 以及数据库 TIME 类型返回的 "HH:MM:SS"（秒会被忽略）
func ToMinutes(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	hour, ok := parseDigits(parts[0], 1, 2)
	if !ok || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minute, ok := parseDigits(parts[1], 2, 2)
	if !ok || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if len(parts) == 3 {
		if second, ok := parseDigits(parts[2], 2, 2); !ok || second > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}

	return hour*60 + minute, nil
}

// parseDigits 只接受长度在 [minLen, maxLen] 之间的纯数字串，避免 Atoi 接受 "+9" 这类输入
func parseDigits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ToTimeString 将分钟数格式化为 "HH:MM"，超出 [0, 1439] 的输入会被截断到边界
func ToTimeString(minutes int) string {
	minutes = min(max(minutes, 0), MinutesPerDay-1)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ToDisplayLabel 将 "HH:MM" 格式化为 12 小时制，整点时省略分钟，例如 "9 AM"、"9:30 PM"
// 无法解析的输入原样返回
func ToDisplayLabel(s string) string {
	minutes, err := ToMinutes(s)
	if err != nil {
		return s
	}

	hour, minute := minutes/60, minutes%60
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	if minute == 0 {
		return fmt.Sprintf("%d %s", hour12, period)
	}
	return fmt.Sprintf("%d:%02d %s", hour12, minute, period)
}
