package clock

import "time"

// Clock 服务端时钟
// 所有“今天”相关的判断（提交日期锁定、职责有效期、日历锁定）都经由 Clock，
// 测试中注入 Fixed 以固定“今天”
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System 返回读取系统时间的时钟
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

// Fixed 固定时间时钟
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// DateOnly 截断为 UTC 零点
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Today 当前 UTC 日期
func Today(c Clock) time.Time {
	return DateOnly(c.Now())
}

// SameDay 判断两个时间是否落在同一 UTC 日
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// DateLayout 日期参数格式
const DateLayout = "2006-01-02"

// CycleLayout 周期（月）格式
const CycleLayout = "2006-01"

// ParseDate 解析 YYYY-MM-DD 并截断为 UTC 零点
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}

// FormatDate 格式化为 YYYY-MM-DD（UTC）
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
