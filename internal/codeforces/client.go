// Package codeforces 上游 Codeforces API 客户端
package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"betterforces/internal/shared/model"
)

// ErrUserNotFound 上游不存在该用户（终态错误，不重试）
var ErrUserNotFound = errors.New("codeforces: user not found")

// APIError 上游 API 或传输层错误（瞬态，可重新触发）
type APIError struct {
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("codeforces api error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return "codeforces api error: " + e.Message
}

// Fetcher 抓取用户提交记录的能力接口
//
// Worker 和降级直连路径通过该接口消费，测试可以替换为桩实现。
type Fetcher interface {
	UserSubmissions(ctx context.Context, handle string) ([]model.Submission, error)
}

// DefaultBaseURL Codeforces API 基地址
const DefaultBaseURL = "https://codeforces.com/api"

// Client Codeforces API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建客户端实例，baseURL 为空时使用官方地址
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTimeout 覆盖 HTTP 客户端超时
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// apiResponse user.status 接口响应信封
type apiResponse struct {
	Status  string            `json:"status"`
	Comment string            `json:"comment"`
	Result  []json.RawMessage `json:"result"`
}

// rawProblem 上游题目字段（camelCase）
type rawProblem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Tags      []string `json:"tags"`
}

// rawSubmission 上游提交字段（camelCase）
type rawSubmission struct {
	ID                  int64      `json:"id"`
	ContestID           int        `json:"contestId"`
	CreationTimeSeconds int64      `json:"creationTimeSeconds"`
	Problem             rawProblem `json:"problem"`
	Verdict             string     `json:"verdict"`
	ProgrammingLanguage string     `json:"programmingLanguage"`
}

// UserSubmissions 拉取用户全部提交记录
//
// 上游以 status != "OK" 加注释文本的方式报告用户不存在，
// 这里识别为 ErrUserNotFound；其他失败一律视为瞬态 APIError。
func (c *Client) UserSubmissions(ctx context.Context, handle string) ([]model.Submission, error) {
	u := fmt.Sprintf("%s/user.status?handle=%s", c.baseURL, url.QueryEscape(handle))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Message: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &APIError{Message: "decode response: " + err.Error(), StatusCode: resp.StatusCode}
	}

	if body.Status != "OK" {
		if isUserNotFoundComment(body.Comment) {
			return nil, fmt.Errorf("%w: %q", ErrUserNotFound, handle)
		}
		return nil, &APIError{
			Message:    fmt.Sprintf("status %s: %s", body.Status, body.Comment),
			StatusCode: resp.StatusCode,
		}
	}

	// 空结果表示用户存在但没有提交
	return parseSubmissions(body.Result), nil
}

// isUserNotFoundComment 判断上游注释是否为"用户不存在"
func isUserNotFoundComment(comment string) bool {
	if !strings.Contains(comment, "User with handle") {
		return false
	}
	return strings.Contains(comment, "not found") ||
		strings.Contains(comment, "does not exist") ||
		strings.Contains(comment, "does not have")
}

// parseSubmissions 解析上游提交列表，损坏的条目跳过
func parseSubmissions(raw []json.RawMessage) []model.Submission {
	subs := make([]model.Submission, 0, len(raw))
	for _, item := range raw {
		var rs rawSubmission
		if err := json.Unmarshal(item, &rs); err != nil {
			continue
		}
		subs = append(subs, model.Submission{
			ID:                  rs.ID,
			ContestID:           rs.ContestID,
			CreationTimeSeconds: rs.CreationTimeSeconds,
			Problem: model.Problem{
				ContestID: rs.Problem.ContestID,
				Index:     rs.Problem.Index,
				Name:      rs.Problem.Name,
				Rating:    rs.Problem.Rating,
				Tags:      rs.Problem.Tags,
			},
			Verdict:             model.ParseVerdict(rs.Verdict),
			ProgrammingLanguage: rs.ProgrammingLanguage,
		})
	}
	return subs
}

// 确保 Client 实现了 Fetcher 接口
var _ Fetcher = (*Client)(nil)
