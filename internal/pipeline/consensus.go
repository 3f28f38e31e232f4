package pipeline

import (
	"github.com/brightboard/brightboard-backend/internal/model"
)

// gradeTolerance is the maximum gap between two run grades that still counts
// as agreement.
const gradeTolerance = 0.1

// RunGrade is one model run's verdict for a single question.
type RunGrade struct {
	Grade    float64
	Feedback *string
}

// ConsensusOutcome is the resolved grade for one (entity, question) pair.
type ConsensusOutcome struct {
	Grade    *float64
	Feedback *string
	Status   model.ResultStatus
}

// Consensus resolves independent run grades into a final verdict. Runs whose
// grades sit within the tolerance of each other form a cluster; the largest
// cluster of size >= 2 wins and its mean becomes the grade, with the first
// member's feedback carried along. No agreement, or fewer than two runs,
// defers to human review. A unanimous zero still needs two runs to agree;
// a single zero-grade run alone is never auto-finalised.
func Consensus(runs []RunGrade) ConsensusOutcome {
	if len(runs) < 2 {
		return ConsensusOutcome{Status: model.ResultStatusPendingReview}
	}

	var best []int
	for i := range runs {
		cluster := []int{i}
		for j := range runs {
			if j == i {
				continue
			}
			if diff := runs[i].Grade - runs[j].Grade; diff <= gradeTolerance && diff >= -gradeTolerance {
				cluster = append(cluster, j)
			}
		}
		if len(cluster) > len(best) {
			best = cluster
		}
	}

	if len(best) < 2 {
		return ConsensusOutcome{Status: model.ResultStatusPendingReview}
	}

	sum := 0.0
	for _, idx := range best {
		sum += runs[idx].Grade
	}
	mean := sum / float64(len(best))

	return ConsensusOutcome{
		Grade:    &mean,
		Feedback: runs[best[0]].Feedback,
		Status:   model.ResultStatusAIGraded,
	}
}
