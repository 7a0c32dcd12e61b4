// Package analytics 难度分布统计
package analytics

import (
	"sort"

	"betterforces/internal/shared/model"
)

// RatingRange 单个评级区间的题目数
type RatingRange struct {
	Rating       int `json:"rating"`
	ProblemCount int `json:"problem_count"`
}

// DifficultyDistribution 难度分布汇总
type DifficultyDistribution struct {
	Handle      string        `json:"handle"`
	Ranges      []RatingRange `json:"ranges"`
	TotalSolved int           `json:"total_solved"`
}

// AnalyzeDifficultyDistribution 按百分位评级桶统计已解题目分布
//
// 未评级题目不计入分桶，但计入 TotalSolved。
func AnalyzeDifficultyDistribution(handle string, subs []model.Submission) DifficultyDistribution {
	solved := model.FilterSolved(subs)
	if len(solved) == 0 {
		return DifficultyDistribution{Handle: handle, Ranges: []RatingRange{}}
	}

	unique := model.DeduplicateProblems(solved)

	counts := make(map[int]int)
	for _, s := range unique {
		if s.Problem.Rating == 0 {
			continue
		}
		counts[ratingBin(s.Problem.Rating)]++
	}

	ranges := make([]RatingRange, 0, len(counts))
	for bin, count := range counts {
		ranges = append(ranges, RatingRange{Rating: bin, ProblemCount: count})
	}
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Rating < ranges[j].Rating
	})

	return DifficultyDistribution{
		Handle:      handle,
		Ranges:      ranges,
		TotalSolved: len(unique),
	}
}
