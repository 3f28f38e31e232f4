package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/brightboard-backend/internal/model"
)

func TestSkeletonRows(t *testing.T) {
	assessmentID := uuid.New()
	studentID := uuid.New()
	identity := model.ResultIdentity{StudentID: &studentID}
	questions := []model.GradingQuestion{
		{ID: "q1", Text: "First"},
		{ID: "q2", Text: "Second"},
	}

	rows := skeletonRows(assessmentID, identity, "/uploads/sheet.jpg", "image/jpeg", questions)
	require.Len(t, rows, 2)

	tokens := make(map[string]bool)
	for i, row := range rows {
		assert.Equal(t, assessmentID, row.AssessmentID)
		assert.Equal(t, questions[i].ID, row.QuestionID)
		assert.Equal(t, model.ResultStatusPendingGrade, row.Status,
			"ungraded skeletons must start in PENDING_GRADE")
		require.NotNil(t, row.AnswerSheetPath)
		assert.Equal(t, "/uploads/sheet.jpg", *row.AnswerSheetPath)
		require.NotNil(t, row.ReportToken)
		tokens[*row.ReportToken] = true
	}
	assert.Len(t, tokens, 2, "every row gets its own report token")
}
