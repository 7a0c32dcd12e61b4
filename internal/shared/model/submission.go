// Package model 定义 Codeforces 领域数据模型
package model

import "fmt"

// Verdict 提交判定结果
type Verdict string

const (
	VerdictOK                    Verdict = "OK"
	VerdictWrongAnswer           Verdict = "WRONG_ANSWER"
	VerdictTimeLimitExceeded     Verdict = "TIME_LIMIT_EXCEEDED"
	VerdictMemoryLimitExceeded   Verdict = "MEMORY_LIMIT_EXCEEDED"
	VerdictRuntimeError          Verdict = "RUNTIME_ERROR"
	VerdictCompilationError      Verdict = "COMPILATION_ERROR"
	VerdictIdlenessLimitExceeded Verdict = "IDLENESS_LIMIT_EXCEEDED"
)

// ParseVerdict 解析判定结果字符串，未知值按未通过处理
func ParseVerdict(s string) Verdict {
	switch Verdict(s) {
	case VerdictOK, VerdictWrongAnswer, VerdictTimeLimitExceeded,
		VerdictMemoryLimitExceeded, VerdictRuntimeError,
		VerdictCompilationError, VerdictIdlenessLimitExceeded:
		return Verdict(s)
	default:
		return VerdictWrongAnswer
	}
}

// Problem Codeforces 题目
type Problem struct {
	ContestID int      `json:"contest_id"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating,omitempty"` // 0 表示未评级
	Tags      []string `json:"tags,omitempty"`
}

// Key 题目唯一标识（contest_id + index）
func (p Problem) Key() string {
	return fmt.Sprintf("%d%s", p.ContestID, p.Index)
}

// Submission 用户提交记录
type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int     `json:"contest_id"`
	CreationTimeSeconds int64   `json:"creation_time_seconds"`
	Problem             Problem `json:"problem"`
	Verdict             Verdict `json:"verdict"`
	ProgrammingLanguage string  `json:"programming_language"`
}

// Solved 提交是否通过
func (s Submission) Solved() bool {
	return s.Verdict == VerdictOK
}
