package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sub(id int64, ts int64, contestID int, index string, verdict Verdict) Submission {
	return Submission{
		ID:                  id,
		ContestID:           contestID,
		CreationTimeSeconds: ts,
		Problem:             Problem{ContestID: contestID, Index: index},
		Verdict:             verdict,
	}
}

func TestFilterSolved(t *testing.T) {
	subs := []Submission{
		sub(1, 100, 1, "A", VerdictOK),
		sub(2, 200, 1, "B", VerdictWrongAnswer),
		sub(3, 300, 1, "C", VerdictOK),
		sub(4, 400, 1, "D", VerdictTimeLimitExceeded),
	}

	solved := FilterSolved(subs)
	assert.Len(t, solved, 2)
	assert.Equal(t, int64(1), solved[0].ID)
	assert.Equal(t, int64(3), solved[1].ID)
}

func TestFilterSolved_Empty(t *testing.T) {
	assert.Empty(t, FilterSolved(nil))
	assert.Empty(t, FilterSolved([]Submission{sub(1, 100, 1, "A", VerdictWrongAnswer)}))
}

func TestDeduplicateProblems(t *testing.T) {
	subs := []Submission{
		sub(1, 100, 1, "A", VerdictOK),
		sub(2, 200, 1, "A", VerdictOK), // 同一题的第二次提交
		sub(3, 300, 2, "A", VerdictOK), // 不同比赛的同题号
	}

	unique := DeduplicateProblems(subs)
	assert.Len(t, unique, 2)
	// 保留首条
	assert.Equal(t, int64(1), unique[0].ID)
	assert.Equal(t, int64(3), unique[1].ID)
}

func TestSortByCreationTime(t *testing.T) {
	subs := []Submission{
		sub(3, 300, 1, "C", VerdictOK),
		sub(1, 100, 1, "A", VerdictOK),
		sub(2, 200, 1, "B", VerdictOK),
	}

	sorted := SortByCreationTime(subs)
	assert.Equal(t, int64(1), sorted[0].ID)
	assert.Equal(t, int64(2), sorted[1].ID)
	assert.Equal(t, int64(3), sorted[2].ID)

	// 原切片不被修改
	assert.Equal(t, int64(3), subs[0].ID)
}

func TestFilterByDateRange(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	subs := []Submission{
		sub(1, base.Unix(), 1, "A", VerdictOK),
		sub(2, base.AddDate(0, 0, 5).Unix(), 1, "B", VerdictOK),
		sub(3, base.AddDate(0, 0, 10).Unix(), 1, "C", VerdictOK),
	}

	t.Run("闭区间边界", func(t *testing.T) {
		got := FilterByDateRange(subs, base, base.AddDate(0, 0, 5))
		assert.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].ID)
		assert.Equal(t, int64(2), got[1].ID)
	})

	t.Run("只有下界", func(t *testing.T) {
		got := FilterByDateRange(subs, base.AddDate(0, 0, 5), time.Time{})
		assert.Len(t, got, 2)
	})

	t.Run("只有上界", func(t *testing.T) {
		got := FilterByDateRange(subs, time.Time{}, base.AddDate(0, 0, 1))
		assert.Len(t, got, 1)
	})

	t.Run("均为零值不过滤", func(t *testing.T) {
		got := FilterByDateRange(subs, time.Time{}, time.Time{})
		assert.Len(t, got, 3)
	})

	t.Run("区间外为空", func(t *testing.T) {
		got := FilterByDateRange(subs, base.AddDate(1, 0, 0), time.Time{})
		assert.Empty(t, got)
	})
}
