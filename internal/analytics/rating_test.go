package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterforces/internal/shared/model"
)

func TestAnalyzeRatingDistribution_Empty(t *testing.T) {
	d := AnalyzeRatingDistribution("alice", nil)
	assert.Equal(t, "alice", d.Handle)
	assert.Empty(t, d.RatingPoints)
	assert.Zero(t, d.MaxRatingAchieved)
	assert.Zero(t, d.TotalSolved)
}

func TestAnalyzeRatingDistribution_ChronologicalPoints(t *testing.T) {
	subs := []model.Submission{
		solved(3, 300, 3, "A", "Third", 1600),
		solved(1, 100, 1, "A", "First", 800),
		solved(2, 200, 2, "A", "Second", 1200),
		failed(4, 400, 4, "A", "Failed", 2400),
	}

	d := AnalyzeRatingDistribution("alice", subs)

	require.Len(t, d.RatingPoints, 3)
	assert.Equal(t, RatingPoint{Timestamp: 100, Rating: 800, ProblemName: "First"}, d.RatingPoints[0])
	assert.Equal(t, RatingPoint{Timestamp: 200, Rating: 1200, ProblemName: "Second"}, d.RatingPoints[1])
	assert.Equal(t, RatingPoint{Timestamp: 300, Rating: 1600, ProblemName: "Third"}, d.RatingPoints[2])
	assert.Equal(t, 1600, d.MaxRatingAchieved)
	assert.Equal(t, 3, d.TotalSolved)
}

func TestAnalyzeRatingDistribution_DeduplicatesToFirstSolve(t *testing.T) {
	subs := []model.Submission{
		solved(2, 200, 1, "A", "P1", 800),
		solved(1, 100, 1, "A", "P1", 800),
	}

	d := AnalyzeRatingDistribution("alice", subs)
	require.Len(t, d.RatingPoints, 1)
	assert.Equal(t, int64(100), d.RatingPoints[0].Timestamp)
}

func TestAnalyzeRatingDistribution_UnratedSkipped(t *testing.T) {
	subs := []model.Submission{
		solved(1, 100, 1, "A", "Mystery", 0),
		solved(2, 200, 2, "A", "Rated", 900),
	}

	d := AnalyzeRatingDistribution("alice", subs)
	require.Len(t, d.RatingPoints, 1)
	assert.Equal(t, "Rated", d.RatingPoints[0].ProblemName)
	assert.Equal(t, 900, d.MaxRatingAchieved)
	assert.Equal(t, 1, d.TotalSolved)
}
