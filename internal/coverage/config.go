package coverage

// Config 控制时间轴的计算方式，所有字段都可以由调用方按需覆盖
type Config struct {
	IntervalMinutes int    // 时间点之间的间隔，默认 60
	PreBuffer       int    // 最早开始时间之前额外留出的分钟数，默认 60
	PostBuffer      int    // 最晚结束时间之后额外留出的分钟数，默认 60
	FallbackStart   string // 没有可用模板时使用的开始时间，默认 "06:00"
	FallbackEnd     string // 没有可用模板时使用的结束时间，默认 "22:00"
	MaxRangeHours   int    // 时间轴的最大跨度（小时），默认 20
}

const (
	DefaultIntervalMinutes = 60
	DefaultPreBuffer       = 60
	DefaultPostBuffer      = 60
	DefaultFallbackStart   = "06:00"
	DefaultFallbackEnd     = "22:00"
	DefaultMaxRangeHours   = 20
)

func DefaultConfig() Config {
	return Config{
		IntervalMinutes: DefaultIntervalMinutes,
		PreBuffer:       DefaultPreBuffer,
		PostBuffer:      DefaultPostBuffer,
		FallbackStart:   DefaultFallbackStart,
		FallbackEnd:     DefaultFallbackEnd,
		MaxRangeHours:   DefaultMaxRangeHours,
	}
}

// WholeDayConfig 用于没有选中具体模板的"全天"视图
// 后置缓冲为 60 分钟，使得在上界不包含的情况下仍然能生成 23:00 这个时间点
func WholeDayConfig(base Config) Config {
	base.FallbackStart = "00:00"
	base.FallbackEnd = "23:59"
	base.PreBuffer = 0
	base.PostBuffer = 60
	return base
}

// normalize 将非法字段替换为默认值
func (c Config) normalize() Config {
	if c.IntervalMinutes <= 0 {
		c.IntervalMinutes = DefaultIntervalMinutes
	}
	if c.PreBuffer < 0 {
		c.PreBuffer = 0
	}
	if c.PostBuffer < 0 {
		c.PostBuffer = 0
	}
	if c.MaxRangeHours <= 0 {
		c.MaxRangeHours = DefaultMaxRangeHours
	}
	c.MaxRangeHours = min(c.MaxRangeHours, 24)

	start, startErr := ToMinutes(c.FallbackStart)
	end, endErr := ToMinutes(c.FallbackEnd)
	if startErr != nil || endErr != nil || start >= end {
		c.FallbackStart = DefaultFallbackStart
		c.FallbackEnd = DefaultFallbackEnd
	}

	return c
}
