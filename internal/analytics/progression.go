// Package analytics 难度成长曲线统计
package analytics

import (
	"fmt"
	"sort"
	"time"

	"betterforces/internal/shared/model"
)

// DifficultyPoint 一个统计周期的平均难度
type DifficultyPoint struct {
	Period        string  `json:"period"` // "2023-05" 或 "2023-Q2"
	AverageRating float64 `json:"average_rating"`
	ProblemCount  int     `json:"problem_count"`
}

// GrowthRate 相邻周期的平均难度变化
type GrowthRate struct {
	PeriodType string  `json:"period_type"` // "month" 或 "quarter"
	From       string  `json:"from"`
	To         string  `json:"to"`
	Delta      float64 `json:"delta"`
}

// DifficultyProgression 难度成长统计汇总
type DifficultyProgression struct {
	Handle               string            `json:"handle"`
	MonthlyProgression   []DifficultyPoint `json:"monthly_progression"`
	QuarterlyProgression []DifficultyPoint `json:"quarterly_progression"`
	GrowthRates          []GrowthRate      `json:"growth_rates"`
	TotalSolved          int               `json:"total_solved"`
	PeriodsAnalyzed      int               `json:"periods_analyzed"`
	FirstSolveDate       time.Time         `json:"first_solve_date"`
	LatestSolveDate      time.Time         `json:"latest_solve_date"`
}

// AnalyzeDifficultyProgression 按月和季度统计已解题目的平均评级及增长率
func AnalyzeDifficultyProgression(handle string, subs []model.Submission, now time.Time) DifficultyProgression {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	solved := model.FilterSolved(subs)
	if len(solved) == 0 {
		return DifficultyProgression{
			Handle:               handle,
			MonthlyProgression:   []DifficultyPoint{},
			QuarterlyProgression: []DifficultyPoint{},
			GrowthRates:          []GrowthRate{},
			FirstSolveDate:       now,
			LatestSolveDate:      now,
		}
	}

	// 先按时间排序再去重，保证拿到的是每题首次通过
	unique := model.DeduplicateProblems(model.SortByCreationTime(solved))

	monthly := groupRatingsByPeriod(unique, monthKey)
	quarterly := groupRatingsByPeriod(unique, quarterKey)

	monthlyPoints := toDifficultyPoints(monthly)
	quarterlyPoints := toDifficultyPoints(quarterly)

	growth := append(
		growthRates(monthlyPoints, "month"),
		growthRates(quarterlyPoints, "quarter")...,
	)

	first := unique[0].CreationTimeSeconds
	latest := unique[len(unique)-1].CreationTimeSeconds

	return DifficultyProgression{
		Handle:               handle,
		MonthlyProgression:   monthlyPoints,
		QuarterlyProgression: quarterlyPoints,
		GrowthRates:          growth,
		TotalSolved:          len(unique),
		PeriodsAnalyzed:      len(monthlyPoints) + len(quarterlyPoints),
		FirstSolveDate:       time.Unix(first, 0).UTC(),
		LatestSolveDate:      time.Unix(latest, 0).UTC(),
	}
}

// monthKey 年月分组键
func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// quarterKey 年季度分组键
func quarterKey(t time.Time) string {
	quarter := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%04d-Q%d", t.Year(), quarter)
}

// groupRatingsByPeriod 按周期分组收集评级（未评级题目跳过）
func groupRatingsByPeriod(subs []model.Submission, key func(time.Time) string) map[string][]int {
	groups := make(map[string][]int)
	for _, s := range subs {
		if s.Problem.Rating == 0 {
			continue
		}
		k := key(time.Unix(s.CreationTimeSeconds, 0).UTC())
		groups[k] = append(groups[k], s.Problem.Rating)
	}
	return groups
}

// toDifficultyPoints 分组转为按周期排序的难度点
func toDifficultyPoints(groups map[string][]int) []DifficultyPoint {
	points := make([]DifficultyPoint, 0, len(groups))
	for period, ratings := range groups {
		points = append(points, DifficultyPoint{
			Period:        period,
			AverageRating: round1(mean(ratings)),
			ProblemCount:  len(ratings),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period < points[j].Period
	})
	return points
}

// growthRates 相邻周期的平均难度变化
func growthRates(points []DifficultyPoint, periodType string) []GrowthRate {
	rates := make([]GrowthRate, 0)
	for i := 1; i < len(points); i++ {
		rates = append(rates, GrowthRate{
			PeriodType: periodType,
			From:       points[i-1].Period,
			To:         points[i].Period,
			Delta:      round1(points[i].AverageRating - points[i-1].AverageRating),
		})
	}
	return rates
}
