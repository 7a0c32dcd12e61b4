// Package model 提交集合的通用过滤操作
package model

import (
	"sort"
	"time"
)

// FilterSolved 过滤出通过的提交
func FilterSolved(subs []Submission) []Submission {
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		if s.Solved() {
			out = append(out, s)
		}
	}
	return out
}

// DeduplicateProblems 题目去重，保留每道题的首条提交
//
// 按输入顺序处理；需要"首次通过"语义时调用方先按时间排序。
func DeduplicateProblems(subs []Submission) []Submission {
	seen := make(map[string]struct{}, len(subs))
	out := make([]Submission, 0, len(subs))
	for _, s := range subs {
		key := s.Problem.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SortByCreationTime 按提交时间升序排序（返回副本）
func SortByCreationTime(subs []Submission) []Submission {
	out := make([]Submission, len(subs))
	copy(out, subs)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreationTimeSeconds < out[j].CreationTimeSeconds
	})
	return out
}

// FilterByDateRange 按时间范围过滤提交（边界闭区间）
//
// start 或 end 为零值时对应边界不过滤。
func FilterByDateRange(subs []Submission, start, end time.Time) []Submission {
	out := subs
	if !start.IsZero() {
		ts := start.Unix()
		filtered := make([]Submission, 0, len(out))
		for _, s := range out {
			if s.CreationTimeSeconds >= ts {
				filtered = append(filtered, s)
			}
		}
		out = filtered
	}
	if !end.IsZero() {
		ts := end.Unix()
		filtered := make([]Submission, 0, len(out))
		for _, s := range out {
			if s.CreationTimeSeconds <= ts {
				filtered = append(filtered, s)
			}
		}
		out = filtered
	}
	return out
}
