package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/brightboard/brightboard-backend/internal/model"
)

// QuestionAverage is the mean grade for one question across all entities.
type QuestionAverage struct {
	QuestionID string
	Average    float64
}

// SummaryStats aggregates an assessment's finalised grades for the summary
// narrative and for the teacher dashboard.
type SummaryStats struct {
	EntityCount        int
	Average            float64
	Median             float64
	QuestionAverages   []QuestionAverage
	LetterDistribution map[string]int
}

// letterFor buckets a 0-100 total into the standard letter bands.
func letterFor(total float64) string {
	switch {
	case total < 60:
		return "F"
	case total < 70:
		return "D"
	case total < 80:
		return "C"
	case total < 90:
		return "B"
	default:
		return "A"
	}
}

// ComputeStats rolls graded results up into per-entity totals and
// per-question averages. Results without a grade (pending review, failed) are
// skipped; entity totals are normalised to 0-100 against the sum of max
// scores so the letter bands stay meaningful under every scoring method.
func ComputeStats(cfg *model.GradingConfig, results []model.Result) *SummaryStats {
	maxTotal := 0.0
	for _, q := range cfg.AllQuestions() {
		if q.MaxScore != nil {
			maxTotal += float64(*q.MaxScore)
		} else {
			maxTotal += 100
		}
	}

	entityTotals := make(map[string]float64)
	questionSums := make(map[string]float64)
	questionCounts := make(map[string]int)

	for _, res := range results {
		if res.Grade == nil {
			continue
		}
		entityTotals[res.Identity.EntityKey()] += *res.Grade
		questionSums[res.QuestionID] += *res.Grade
		questionCounts[res.QuestionID]++
	}

	stats := &SummaryStats{
		EntityCount:        len(entityTotals),
		LetterDistribution: map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0},
	}
	if stats.EntityCount == 0 {
		return stats
	}

	totals := make([]float64, 0, len(entityTotals))
	for _, total := range entityTotals {
		normalised := total
		if maxTotal > 0 {
			normalised = total / maxTotal * 100
		}
		totals = append(totals, normalised)
		stats.LetterDistribution[letterFor(normalised)]++
	}
	sort.Float64s(totals)

	sum := 0.0
	for _, t := range totals {
		sum += t
	}
	stats.Average = sum / float64(len(totals))

	mid := len(totals) / 2
	if len(totals)%2 == 1 {
		stats.Median = totals[mid]
	} else {
		stats.Median = (totals[mid-1] + totals[mid]) / 2
	}

	for _, q := range cfg.AllQuestions() {
		if n := questionCounts[q.ID]; n > 0 {
			stats.QuestionAverages = append(stats.QuestionAverages, QuestionAverage{
				QuestionID: q.ID,
				Average:    questionSums[q.ID] / float64(n),
			})
		}
	}

	return stats
}

// summaryResponse is the JSON shape of the narrative completion.
type summaryResponse struct {
	Summary string `json:"summary"`
}

// generateSummary produces the class-level narrative over the computed
// statistics. A narrative failure degrades to a plain statistics line rather
// than failing the assessment.
func (p *Pipeline) generateSummary(ctx context.Context, cfg *model.GradingConfig, stats *SummaryStats) string {
	fallback := fmt.Sprintf("%d students graded. Average %.1f, median %.1f.",
		stats.EntityCount, stats.Average, stats.Median)

	raw, _, err := p.llm.CompleteJSON(ctx, buildSummaryPrompt(cfg, stats), 0.2)
	if err != nil {
		p.log.Warn().Err(err).Msg("Summary narrative failed, using statistics fallback")
		return fallback
	}
	var out summaryResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Summary == "" {
		p.log.Warn().Err(err).Msg("Summary narrative unusable, using statistics fallback")
		return fallback
	}
	return out.Summary
}

// updateGradeCaches refreshes each rostered student's cached overall grade
// with their normalised total from this assessment.
func (p *Pipeline) updateGradeCaches(ctx context.Context, assessment *model.Assessment, cfg *model.GradingConfig, results []model.Result) {
	maxTotal := 0.0
	for _, q := range cfg.AllQuestions() {
		if q.MaxScore != nil {
			maxTotal += float64(*q.MaxScore)
		} else {
			maxTotal += 100
		}
	}

	totals := make(map[string]float64)
	students := make(map[string]*model.Result)
	for i, res := range results {
		if res.Grade == nil || res.Identity.StudentID == nil {
			continue
		}
		key := res.Identity.EntityKey()
		totals[key] += *res.Grade
		students[key] = &results[i]
	}

	for key, total := range totals {
		res := students[key]
		grade := total
		if maxTotal > 0 {
			grade = total / maxTotal * 100
		}
		if err := p.studentRepo.UpdateGradeCache(ctx, assessment.TenantID, *res.Identity.StudentID, grade); err != nil {
			p.log.Warn().Err(err).
				Str("student_id", res.Identity.StudentID.String()).
				Msg("Failed to update grade cache")
		}
	}
}
