// Package taskqueue 任务记录的终态读写
package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result 任务完成摘要
type Result struct {
	Handle          string `json:"handle"`
	SubmissionCount int    `json:"submission_count"`
	// CompletedBy 非空表示该任务由另一次抓取间接完成（二级去重）
	CompletedBy string `json:"completed_by,omitempty"`
}

// StatusReport 面向轮询接口的任务状态视图
type StatusReport struct {
	Status Status
	// Result 仅在 completed 时非 nil
	Result *Result
	// Error 仅在 failed 时非空
	Error string
}

// Complete 将任务标记为 completed 并写入结果摘要
func (c *Coordinator) Complete(ctx context.Context, taskID string, result Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal task result: %w", err)
	}
	if err := c.store.SetEx(ctx, fmt.Sprintf(keyTaskStatus, taskID), string(StatusCompleted), c.taskTTL); err != nil {
		return fmt.Errorf("mark task completed: %w", err)
	}
	if err := c.store.SetEx(ctx, fmt.Sprintf(keyTaskResult, taskID), string(data), c.taskTTL); err != nil {
		return fmt.Errorf("store task result: %w", err)
	}
	return nil
}

// Fail 将任务标记为 failed 并写入错误信息
func (c *Coordinator) Fail(ctx context.Context, taskID, message string) error {
	if err := c.store.SetEx(ctx, fmt.Sprintf(keyTaskStatus, taskID), string(StatusFailed), c.taskTTL); err != nil {
		return fmt.Errorf("mark task failed: %w", err)
	}
	if err := c.store.SetEx(ctx, fmt.Sprintf(keyTaskError, taskID), message, c.taskTTL); err != nil {
		return fmt.Errorf("store task error: %w", err)
	}
	return nil
}

// StatusReport 读取任务的完整状态视图（含结果或错误）
//
// 任务记录不存在时返回 (nil, nil)。
func (c *Coordinator) StatusReport(ctx context.Context, taskID string) (*StatusReport, error) {
	status, ok, err := c.store.Get(ctx, fmt.Sprintf(keyTaskStatus, taskID))
	if err != nil {
		return nil, fmt.Errorf("read task status: %w", err)
	}
	if !ok {
		return nil, nil
	}

	report := &StatusReport{Status: Status(status)}

	switch report.Status {
	case StatusCompleted:
		raw, ok, err := c.store.Get(ctx, fmt.Sprintf(keyTaskResult, taskID))
		if err != nil {
			return nil, fmt.Errorf("read task result: %w", err)
		}
		if ok {
			var result Result
			if err := json.Unmarshal([]byte(raw), &result); err == nil {
				report.Result = &result
			}
		}
	case StatusFailed:
		msg, ok, err := c.store.Get(ctx, fmt.Sprintf(keyTaskError, taskID))
		if err != nil {
			return nil, fmt.Errorf("read task error: %w", err)
		}
		if ok {
			report.Error = msg
		} else {
			report.Error = "unknown error"
		}
	}

	return report, nil
}
