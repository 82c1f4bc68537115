package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekBounds(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC) }

	// 2026-03-04 周三，2026-03-10 周二
	from, to := weekBounds(d(4), d(10))
	assert.Equal(t, d(2), from)
	assert.Equal(t, d(15), to)

	// 周一到周日本身就是完整的一周
	from, to = weekBounds(d(2), d(8))
	assert.Equal(t, d(2), from)
	assert.Equal(t, d(8), to)
}
