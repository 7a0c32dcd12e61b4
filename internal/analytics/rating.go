// Package analytics 评级时间线统计
package analytics

import (
	"betterforces/internal/shared/model"
)

// RatingPoint 一次通过的评级采样点
type RatingPoint struct {
	Timestamp   int64  `json:"timestamp"`
	Rating      int    `json:"rating"`
	ProblemName string `json:"problem_name"`
}

// RatingDistribution 评级时间线汇总
type RatingDistribution struct {
	Handle            string        `json:"handle"`
	RatingPoints      []RatingPoint `json:"rating_points"`
	MaxRatingAchieved int           `json:"max_rating_achieved"`
	TotalSolved       int           `json:"total_solved"`
}

// AnalyzeRatingDistribution 生成按时间排序的已解题目评级序列
func AnalyzeRatingDistribution(handle string, subs []model.Submission) RatingDistribution {
	solved := model.FilterSolved(subs)
	if len(solved) == 0 {
		return RatingDistribution{Handle: handle, RatingPoints: []RatingPoint{}}
	}

	unique := model.DeduplicateProblems(model.SortByCreationTime(solved))

	points := make([]RatingPoint, 0, len(unique))
	maxRating := 0
	for _, s := range unique {
		if s.Problem.Rating == 0 {
			continue
		}
		points = append(points, RatingPoint{
			Timestamp:   s.CreationTimeSeconds,
			Rating:      s.Problem.Rating,
			ProblemName: s.Problem.Name,
		})
		if s.Problem.Rating > maxRating {
			maxRating = s.Problem.Rating
		}
	}

	return RatingDistribution{
		Handle:            handle,
		RatingPoints:      points,
		MaxRatingAchieved: maxRating,
		TotalSolved:       len(points),
	}
}
