package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/brightboard-backend/internal/model"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func twoQuestionConfig() *model.GradingConfig {
	return &model.GradingConfig{
		AssessmentName: "Unit Test",
		ScoringMethod:  model.ScoringPerQuestion,
		GradingMode:    model.GradingModeAnswerKey,
		Sections: []model.GradingSection{
			{
				ID:    "s1",
				Title: "Section 1",
				Questions: []model.GradingQuestion{
					{ID: "q1", Text: "First", MaxScore: intPtr(50)},
					{ID: "q2", Text: "Second", MaxScore: intPtr(50)},
				},
			},
		},
	}
}

func gradedResult(studentID uuid.UUID, questionID string, grade float64) model.Result {
	return model.Result{
		QuestionID: questionID,
		Identity:   model.ResultIdentity{StudentID: &studentID},
		Grade:      floatPtr(grade),
		Status:     model.ResultStatusAIGraded,
	}
}

func TestLetterBands(t *testing.T) {
	assert.Equal(t, "F", letterFor(0))
	assert.Equal(t, "F", letterFor(59.9))
	assert.Equal(t, "D", letterFor(60))
	assert.Equal(t, "C", letterFor(70))
	assert.Equal(t, "B", letterFor(80))
	assert.Equal(t, "A", letterFor(90))
	assert.Equal(t, "A", letterFor(100))
}

func TestComputeStats(t *testing.T) {
	cfg := twoQuestionConfig()
	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	results := []model.Result{
		gradedResult(alice, "q1", 45), gradedResult(alice, "q2", 50), // 95 → A
		gradedResult(bob, "q1", 30), gradedResult(bob, "q2", 40), // 70 → C
		gradedResult(carol, "q1", 20), gradedResult(carol, "q2", 20), // 40 → F
	}

	stats := ComputeStats(cfg, results)
	assert.Equal(t, 3, stats.EntityCount)
	assert.InDelta(t, (95.0+70+40)/3, stats.Average, 1e-9)
	assert.InDelta(t, 70.0, stats.Median, 1e-9)
	assert.Equal(t, 1, stats.LetterDistribution["A"])
	assert.Equal(t, 1, stats.LetterDistribution["C"])
	assert.Equal(t, 1, stats.LetterDistribution["F"])
	assert.Equal(t, 0, stats.LetterDistribution["B"])

	require.Len(t, stats.QuestionAverages, 2)
	assert.Equal(t, "q1", stats.QuestionAverages[0].QuestionID)
	assert.InDelta(t, (45.0+30+20)/3, stats.QuestionAverages[0].Average, 1e-9)
}

func TestComputeStatsEvenMedian(t *testing.T) {
	cfg := twoQuestionConfig()
	a, b := uuid.New(), uuid.New()

	results := []model.Result{
		gradedResult(a, "q1", 40), gradedResult(a, "q2", 40), // 80
		gradedResult(b, "q1", 30), gradedResult(b, "q2", 30), // 60
	}

	stats := ComputeStats(cfg, results)
	assert.InDelta(t, 70.0, stats.Median, 1e-9)
}

func TestComputeStatsSkipsUngraded(t *testing.T) {
	cfg := twoQuestionConfig()
	alice := uuid.New()

	results := []model.Result{
		gradedResult(alice, "q1", 50),
		{
			QuestionID: "q2",
			Identity:   model.ResultIdentity{StudentID: &alice},
			Status:     model.ResultStatusPendingReview,
		},
	}

	stats := ComputeStats(cfg, results)
	assert.Equal(t, 1, stats.EntityCount)
	// Only q1 contributed: 50 of 100 total.
	assert.InDelta(t, 50.0, stats.Average, 1e-9)
	require.Len(t, stats.QuestionAverages, 1)
	assert.Equal(t, "q1", stats.QuestionAverages[0].QuestionID)
}

func TestComputeStatsDefaultMaxScore(t *testing.T) {
	// Questions without an explicit max score count 100 each.
	cfg := &model.GradingConfig{
		Sections: []model.GradingSection{
			{ID: "s1", Questions: []model.GradingQuestion{{ID: "q1", Text: "Only"}}},
		},
	}
	alice := uuid.New()

	stats := ComputeStats(cfg, []model.Result{gradedResult(alice, "q1", 85)})
	assert.InDelta(t, 85.0, stats.Average, 1e-9)
	assert.Equal(t, 1, stats.LetterDistribution["B"])
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(twoQuestionConfig(), nil)
	assert.Equal(t, 0, stats.EntityCount)
	assert.Equal(t, 0.0, stats.Average)
}
