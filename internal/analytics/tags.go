// Package analytics 标签维度的评级统计
package analytics

import (
	"sort"

	"betterforces/internal/shared/model"
)

// TagInfo 单个标签的统计信息
type TagInfo struct {
	Tag           string   `json:"tag"`
	AverageRating float64  `json:"average_rating"`
	MedianRating  float64  `json:"median_rating"`
	ProblemCount  int      `json:"problem_count"`
	Problems      []string `json:"problems"`
}

// TagsAnalysis 标签统计汇总
type TagsAnalysis struct {
	Handle               string    `json:"handle"`
	Tags                 []TagInfo `json:"tags"`
	OverallAverageRating float64   `json:"overall_average_rating"`
	OverallMedianRating  float64   `json:"overall_median_rating"`
	TotalSolved          int       `json:"total_solved"`
}

// WeakTags 过滤出中位评级显著低于整体中位数的标签
//
// threshold 为与整体中位数的最小差值。
func (a TagsAnalysis) WeakTags(threshold int) []TagInfo {
	weak := make([]TagInfo, 0)
	for _, tag := range a.Tags {
		if a.OverallMedianRating-tag.MedianRating >= float64(threshold) {
			weak = append(weak, tag)
		}
	}
	return weak
}

// AnalyzeTags 按标签统计已解决题目的平均/中位评级
//
// 只统计有评级的题目；标签按题目数降序，每个标签内题目名升序。
func AnalyzeTags(handle string, subs []model.Submission) TagsAnalysis {
	solved := model.FilterSolved(subs)
	if len(solved) == 0 {
		return TagsAnalysis{Handle: handle, Tags: []TagInfo{}}
	}

	unique := model.DeduplicateProblems(solved)

	type tagBucket struct {
		ratings  []int
		problems []string
	}
	buckets := make(map[string]*tagBucket)
	overall := make([]int, 0, len(unique))

	for _, s := range unique {
		p := s.Problem
		if p.Rating == 0 {
			continue
		}
		overall = append(overall, p.Rating)
		for _, tag := range p.Tags {
			b, ok := buckets[tag]
			if !ok {
				b = &tagBucket{}
				buckets[tag] = b
			}
			b.ratings = append(b.ratings, p.Rating)
			b.problems = append(b.problems, p.Name)
		}
	}

	tags := make([]TagInfo, 0, len(buckets))
	for tag, b := range buckets {
		problems := make([]string, len(b.problems))
		copy(problems, b.problems)
		sort.Strings(problems)
		tags = append(tags, TagInfo{
			Tag:           tag,
			AverageRating: round1(mean(b.ratings)),
			MedianRating:  round1(median(b.ratings)),
			ProblemCount:  len(b.ratings),
			Problems:      problems,
		})
	}

	// 题目数降序，相同时按标签名稳定排序
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].ProblemCount != tags[j].ProblemCount {
			return tags[i].ProblemCount > tags[j].ProblemCount
		}
		return tags[i].Tag < tags[j].Tag
	})

	return TagsAnalysis{
		Handle:               handle,
		Tags:                 tags,
		OverallAverageRating: round1(mean(overall)),
		OverallMedianRating:  round1(median(overall)),
		TotalSolved:          len(unique),
	}
}
