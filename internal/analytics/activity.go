// Package analytics 提交活跃度统计（自适应粒度）
package analytics

import (
	"time"

	"betterforces/internal/shared/model"
)

// ActivityBucket 单个时间桶的活跃度
type ActivityBucket struct {
	Date         string `json:"date"`
	SolvedCount  int    `json:"solved_count"`
	AttemptCount int    `json:"attempt_count"`
}

// ActivityAnalysis 活跃度统计汇总
type ActivityAnalysis struct {
	Handle        string           `json:"handle"`
	Buckets       []ActivityBucket `json:"days"`
	TotalSolved   int              `json:"total_solved"`
	TotalAttempts int              `json:"total_attempts"`
	ActiveBuckets int              `json:"active_days"`
}

// granularity 时间桶粒度
type granularity int

const (
	granMinute granularity = iota
	granHour
	granDay
	granMonth
	granYear
)

// granularityFor 按区间选择桶粒度
//
//	hour            -> 分钟桶
//	day             -> 小时桶
//	week / month    -> 天桶
//	half_year / year -> 月桶
//	all_time        -> 年桶
func granularityFor(period model.TimePeriod) granularity {
	switch period {
	case model.PeriodHour:
		return granMinute
	case model.PeriodDay:
		return granHour
	case model.PeriodWeek, model.PeriodMonth:
		return granDay
	case model.PeriodHalfYear, model.PeriodYear:
		return granMonth
	default:
		return granYear
	}
}

// layout 桶标签的时间格式
func (g granularity) layout() string {
	switch g {
	case granMinute:
		return "2006-01-02 15:04"
	case granHour:
		return "2006-01-02 15:00"
	case granDay:
		return "2006-01-02"
	case granMonth:
		return "2006-01"
	default:
		return "2006"
	}
}

// truncate 将时间截断到桶起点
func (g granularity) truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case granMinute:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	case granHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case granDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case granMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

// advance 推进到下一个桶
func (g granularity) advance(t time.Time) time.Time {
	switch g {
	case granMinute:
		return t.Add(time.Minute)
	case granHour:
		return t.Add(time.Hour)
	case granDay:
		return t.AddDate(0, 0, 1)
	case granMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(1, 0, 0)
	}
}

// AnalyzeActivity 统计用户提交活跃度
//
// 先按 period 起点到 now 过滤提交，再从起点（all_time 为最早提交）
// 连续铺桶到 now，空桶也输出；每桶内通过的题目按去重后的数量计，
// 未通过的提交按次数计。
func AnalyzeActivity(handle string, subs []model.Submission, period model.TimePeriod, now time.Time) ActivityAnalysis {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	gran := granularityFor(period)
	layout := gran.layout()

	start := period.StartDate(now)
	subs = model.FilterByDateRange(subs, start, now)
	if len(subs) == 0 {
		return ActivityAnalysis{Handle: handle, Buckets: []ActivityBucket{}}
	}

	solvedByBucket := make(map[string]map[string]struct{})
	attemptsByBucket := make(map[string]int)
	var earliest time.Time

	for _, s := range subs {
		ts := time.Unix(s.CreationTimeSeconds, 0).UTC()
		if earliest.IsZero() || ts.Before(earliest) {
			earliest = ts
		}
		label := ts.Format(layout)
		if s.Solved() {
			set, ok := solvedByBucket[label]
			if !ok {
				set = make(map[string]struct{})
				solvedByBucket[label] = set
			}
			set[s.Problem.Key()] = struct{}{}
		} else {
			attemptsByBucket[label]++
		}
	}

	if start.IsZero() {
		start = earliest
	}
	current := gran.truncate(start)
	end := gran.truncate(now)

	analysis := ActivityAnalysis{Handle: handle, Buckets: []ActivityBucket{}}
	for !current.After(end) {
		label := current.Format(layout)
		solved := len(solvedByBucket[label])
		attempts := attemptsByBucket[label]
		analysis.Buckets = append(analysis.Buckets, ActivityBucket{
			Date:         label,
			SolvedCount:  solved,
			AttemptCount: attempts,
		})
		analysis.TotalSolved += solved
		analysis.TotalAttempts += attempts
		if solved > 0 || attempts > 0 {
			analysis.ActiveBuckets++
		}
		current = gran.advance(current)
	}

	return analysis
}
