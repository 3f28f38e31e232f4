package pipeline

import (
	"fmt"
	"strings"

	"github.com/brightboard/brightboard-backend/internal/model"
)

// buildExtractionPrompt asks the vision model for the student name written on
// an answer sheet.
func buildExtractionPrompt() string {
	return strings.TrimSpace(`
You are reading a scanned student answer sheet.
Find the student's name as written on the sheet.

Respond with JSON only, exactly this shape:
{"student_name": "<name as written, or empty string if none is visible>"}
`)
}

// buildGradingPrompt renders the full grading instruction for one answer
// sheet against the assessment's question set.
func buildGradingPrompt(cfg *model.GradingConfig) string {
	var b strings.Builder

	b.WriteString("You are grading a scanned student answer sheet for the assessment ")
	fmt.Fprintf(&b, "%q.\n\n", cfg.AssessmentName)

	switch cfg.GradingMode {
	case model.GradingModeAnswerKey:
		b.WriteString("Grade strictly against the provided correct answers.\n")
	case model.GradingModeAutoGrade:
		b.WriteString("No answer key is provided. Judge correctness yourself using subject knowledge.\n")
	case model.GradingModeLibrary:
		b.WriteString("Grade against the reference material provided with each question.\n")
	}
	if cfg.IncludeImprovementTips {
		b.WriteString("For each answer, include one concrete improvement tip in the comment.\n")
	}
	b.WriteString("\nQuestions:\n")

	for _, section := range cfg.Sections {
		fmt.Fprintf(&b, "\nSection: %s\n", section.Title)
		for _, q := range section.Questions {
			fmt.Fprintf(&b, "- [%s] %s", q.ID, q.Text)
			if q.MaxScore != nil {
				fmt.Fprintf(&b, " (max score: %d)", *q.MaxScore)
			}
			b.WriteString("\n")
			if q.Rubric != nil && *q.Rubric != "" {
				fmt.Fprintf(&b, "  Rubric: %s\n", *q.Rubric)
			}
			if len(q.Answer) > 0 && cfg.GradingMode != model.GradingModeAutoGrade {
				fmt.Fprintf(&b, "  Correct answer: %s\n", string(q.Answer))
			}
		}
	}

	b.WriteString(strings.TrimSpace(`

Respond with JSON only, exactly this shape:
{
  "answers": [
    {
      "question_id": "<id from the list above>",
      "extracted_answer": "<the student's answer transcribed from the sheet, or empty string>",
      "grade": <number between 0 and the question's max score, default max 100>,
      "comment": "<short feedback for the student>"
    }
  ]
}
Include one entry per question, in order. Use a grade of 0 with an empty
extracted_answer when the question was left blank.
`))

	return b.String()
}

// buildSummaryPrompt asks for a class-level narrative over the computed
// statistics.
func buildSummaryPrompt(cfg *model.GradingConfig, stats *SummaryStats) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are writing a short teaching summary for the assessment %q.\n\n", cfg.AssessmentName)
	fmt.Fprintf(&b, "Students graded: %d\n", stats.EntityCount)
	fmt.Fprintf(&b, "Average total score: %.1f\n", stats.Average)
	fmt.Fprintf(&b, "Median total score: %.1f\n", stats.Median)
	b.WriteString("Grade distribution: ")
	for _, letter := range []string{"A", "B", "C", "D", "F"} {
		fmt.Fprintf(&b, "%s=%d ", letter, stats.LetterDistribution[letter])
	}
	b.WriteString("\nPer-question averages:\n")
	for _, qa := range stats.QuestionAverages {
		fmt.Fprintf(&b, "- %s: %.1f\n", qa.QuestionID, qa.Average)
	}

	b.WriteString(strings.TrimSpace(`

Write 3-5 sentences for the teacher: overall performance, the weakest
question areas, and one suggestion for the next lesson. Respond with JSON
only: {"summary": "<the narrative>"}
`))

	return b.String()
}
