package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightboard/brightboard-backend/internal/model"
)

func strPtr(s string) *string { return &s }

func TestConsensusAllRunsAgree(t *testing.T) {
	runs := []RunGrade{
		{Grade: 8.0, Feedback: strPtr("good")},
		{Grade: 8.05, Feedback: strPtr("fine")},
		{Grade: 8.1, Feedback: strPtr("ok")},
	}

	out := Consensus(runs)
	assert.Equal(t, model.ResultStatusAIGraded, out.Status)
	require.NotNil(t, out.Grade)
	assert.InDelta(t, 8.05, *out.Grade, 1e-9)
	require.NotNil(t, out.Feedback)
	assert.Equal(t, "good", *out.Feedback)
}

func TestConsensusTwoOfThreeAgree(t *testing.T) {
	runs := []RunGrade{
		{Grade: 7.0, Feedback: strPtr("solid")},
		{Grade: 7.1, Feedback: strPtr("close")},
		{Grade: 3.0, Feedback: strPtr("outlier")},
	}

	out := Consensus(runs)
	assert.Equal(t, model.ResultStatusAIGraded, out.Status)
	require.NotNil(t, out.Grade)
	assert.InDelta(t, 7.05, *out.Grade, 1e-9)
	require.NotNil(t, out.Feedback)
	assert.Equal(t, "solid", *out.Feedback)
}

func TestConsensusNoAgreement(t *testing.T) {
	runs := []RunGrade{
		{Grade: 2.0},
		{Grade: 5.0},
		{Grade: 9.0},
	}

	out := Consensus(runs)
	assert.Equal(t, model.ResultStatusPendingReview, out.Status)
	assert.Nil(t, out.Grade)
}

func TestConsensusSingleRunDefersToReview(t *testing.T) {
	// One surviving run never auto-finalises, not even a zero.
	out := Consensus([]RunGrade{{Grade: 0}})
	assert.Equal(t, model.ResultStatusPendingReview, out.Status)
	assert.Nil(t, out.Grade)

	out = Consensus(nil)
	assert.Equal(t, model.ResultStatusPendingReview, out.Status)
}

func TestConsensusAgreedZeros(t *testing.T) {
	out := Consensus([]RunGrade{{Grade: 0}, {Grade: 0}})
	assert.Equal(t, model.ResultStatusAIGraded, out.Status)
	require.NotNil(t, out.Grade)
	assert.Equal(t, 0.0, *out.Grade)
}

func TestConsensusToleranceBoundary(t *testing.T) {
	// Exactly at the tolerance counts as agreement.
	out := Consensus([]RunGrade{{Grade: 5.0}, {Grade: 5.1}})
	assert.Equal(t, model.ResultStatusAIGraded, out.Status)

	// Just beyond it does not.
	out = Consensus([]RunGrade{{Grade: 5.0}, {Grade: 5.11}})
	assert.Equal(t, model.ResultStatusPendingReview, out.Status)
}
