// Package model 时间区间定义
package model

import (
	"fmt"
	"time"
)

// TimePeriod 提交过滤时间区间
type TimePeriod string

const (
	PeriodHour     TimePeriod = "hour"
	PeriodDay      TimePeriod = "day"
	PeriodWeek     TimePeriod = "week"
	PeriodMonth    TimePeriod = "month"
	PeriodHalfYear TimePeriod = "half_year"
	PeriodYear     TimePeriod = "year"
	PeriodAllTime  TimePeriod = "all_time"
)

// ParsePeriod 解析时间区间，空串返回 all_time
func ParsePeriod(s string) (TimePeriod, error) {
	switch TimePeriod(s) {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth,
		PeriodHalfYear, PeriodYear, PeriodAllTime:
		return TimePeriod(s), nil
	case "":
		return PeriodAllTime, nil
	default:
		return "", fmt.Errorf("unknown time period: %q", s)
	}
}

// StartDate 计算区间相对 now 的起始时间
//
// all_time 返回零值 time.Time，表示不过滤。
// 月份回退时钳制日期到目标月的最后一天（如 3 月 31 日回退一个月 → 2 月 28/29 日）。
func (p TimePeriod) StartDate(now time.Time) time.Time {
	switch p {
	case PeriodHour:
		return now.Add(-time.Hour)
	case PeriodDay:
		return now.AddDate(0, 0, -1)
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return addMonthsClamped(now, -1)
	case PeriodHalfYear:
		return addMonthsClamped(now, -6)
	case PeriodYear:
		return addMonthsClamped(now, -12)
	default:
		return time.Time{}
	}
}

// addMonthsClamped 按月回退，日期超出目标月时钳制到月末
//
// time.AddDate 会归一化溢出（1 月 31 日回退一个月会落到 3 月初而非 2 月末），
// 这里保持"同一天或目标月最后一天"的语义。
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	y := year
	for m <= 0 {
		m += 12
		y--
	}
	for m > 12 {
		m -= 12
		y++
	}
	if dim := daysInMonth(y, time.Month(m)); day > dim {
		day = dim
	}
	return time.Date(y, time.Month(m), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth 返回指定年月的天数
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
