// Package analytics 弃坑题目统计（尝试过但从未通过）
package analytics

import (
	"sort"

	"betterforces/internal/shared/model"
)

// AbandonedProblem 一道尝试过但未通过的题目
type AbandonedProblem struct {
	ContestID      int      `json:"contest_id"`
	Index          string   `json:"index"`
	Name           string   `json:"name"`
	Rating         int      `json:"rating"`
	Tags           []string `json:"tags"`
	FailedAttempts int      `json:"failed_attempts"`
}

// TagAbandonedStats 按标签聚合的弃坑统计
type TagAbandonedStats struct {
	Tag                 string `json:"tag"`
	ProblemCount        int    `json:"problem_count"`
	TotalFailedAttempts int    `json:"total_failed_attempts"`
}

// RatingAbandonedStats 按评级桶聚合的弃坑统计
type RatingAbandonedStats struct {
	Rating              int `json:"rating"`
	ProblemCount        int `json:"problem_count"`
	TotalFailedAttempts int `json:"total_failed_attempts"`
}

// AbandonedAnalysis 弃坑题目统计汇总
type AbandonedAnalysis struct {
	Handle            string                 `json:"handle"`
	AbandonedProblems []AbandonedProblem     `json:"abandoned_problems"`
	TotalAbandoned    int                    `json:"total_abandoned"`
	TagsStats         []TagAbandonedStats    `json:"tags_stats"`
	RatingsStats      []RatingAbandonedStats `json:"ratings_stats"`
}

// AnalyzeAbandonedProblems 找出尝试过但从未通过的题目并按标签/评级聚合
func AnalyzeAbandonedProblems(handle string, subs []model.Submission) AbandonedAnalysis {
	analysis := AbandonedAnalysis{
		Handle:            handle,
		AbandonedProblems: []AbandonedProblem{},
		TagsStats:         []TagAbandonedStats{},
		RatingsStats:      []RatingAbandonedStats{},
	}
	if len(subs) == 0 {
		return analysis
	}

	// 按题目分组找出从未通过的
	grouped := make(map[string][]model.Submission)
	order := make([]string, 0)
	for _, s := range subs {
		key := s.Problem.Key()
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], s)
	}

	for _, key := range order {
		attempts := grouped[key]
		solved := false
		for _, s := range attempts {
			if s.Solved() {
				solved = true
				break
			}
		}
		if solved {
			continue
		}
		p := attempts[0].Problem
		analysis.AbandonedProblems = append(analysis.AbandonedProblems, AbandonedProblem{
			ContestID:      p.ContestID,
			Index:          p.Index,
			Name:           p.Name,
			Rating:         p.Rating,
			Tags:           p.Tags,
			FailedAttempts: len(attempts),
		})
	}
	analysis.TotalAbandoned = len(analysis.AbandonedProblems)

	analysis.TagsStats = aggregateAbandonedByTags(analysis.AbandonedProblems)
	analysis.RatingsStats = aggregateAbandonedByRatings(analysis.AbandonedProblems)

	return analysis
}

// aggregateAbandonedByTags 按标签聚合，题目数降序
func aggregateAbandonedByTags(problems []AbandonedProblem) []TagAbandonedStats {
	type bucket struct {
		problems map[string]struct{}
		attempts int
	}
	buckets := make(map[string]*bucket)

	for _, p := range problems {
		for _, tag := range p.Tags {
			b, ok := buckets[tag]
			if !ok {
				b = &bucket{problems: make(map[string]struct{})}
				buckets[tag] = b
			}
			b.problems[p.Name] = struct{}{}
			b.attempts += p.FailedAttempts
		}
	}

	stats := make([]TagAbandonedStats, 0, len(buckets))
	for tag, b := range buckets {
		stats = append(stats, TagAbandonedStats{
			Tag:                 tag,
			ProblemCount:        len(b.problems),
			TotalFailedAttempts: b.attempts,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].ProblemCount != stats[j].ProblemCount {
			return stats[i].ProblemCount > stats[j].ProblemCount
		}
		return stats[i].Tag < stats[j].Tag
	})
	return stats
}

// aggregateAbandonedByRatings 按评级桶聚合，未评级题目跳过，题目数降序
func aggregateAbandonedByRatings(problems []AbandonedProblem) []RatingAbandonedStats {
	type bucket struct {
		problems int
		attempts int
	}
	buckets := make(map[int]*bucket)

	for _, p := range problems {
		if p.Rating <= 0 {
			continue
		}
		bin := ratingBin(p.Rating)
		b, ok := buckets[bin]
		if !ok {
			b = &bucket{}
			buckets[bin] = b
		}
		b.problems++
		b.attempts += p.FailedAttempts
	}

	stats := make([]RatingAbandonedStats, 0, len(buckets))
	for rating, b := range buckets {
		stats = append(stats, RatingAbandonedStats{
			Rating:              rating,
			ProblemCount:        b.problems,
			TotalFailedAttempts: b.attempts,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].ProblemCount != stats[j].ProblemCount {
			return stats[i].ProblemCount > stats[j].ProblemCount
		}
		return stats[i].Rating < stats[j].Rating
	})
	return stats
}
