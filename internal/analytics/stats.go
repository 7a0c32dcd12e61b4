// Package analytics 对已抓取的提交记录做纯函数聚合
//
// 本包不接触存储和网络，所有函数对输入切片只读。
package analytics

import (
	"math"
	"sort"
)

// mean 算术平均值，空切片返回 0
func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// median 中位数，偶数个取中间两数均值，空切片返回 0
func median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// round1 保留一位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ratingBin 评级分桶（向下取整到百位）
func ratingBin(rating int) int {
	return (rating / 100) * 100
}
