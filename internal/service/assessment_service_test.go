package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brightboard/brightboard-backend/internal/domain"
	"github.com/brightboard/brightboard-backend/internal/model"
)

func gradingConfig() *model.GradingConfig {
	ten := 10
	return &model.GradingConfig{
		AssessmentName: "Midterm",
		ScoringMethod:  model.ScoringPerQuestion,
		GradingMode:    model.GradingModeAnswerKey,
		Sections: []model.GradingSection{
			{
				ID:    "s1",
				Title: "Section A",
				Questions: []model.GradingQuestion{
					{ID: "q1", Text: "Explain photosynthesis", MaxScore: &ten},
					{ID: "q2", Text: "Name the capital"},
				},
			},
		},
	}
}

func TestValidateGradeInRange(t *testing.T) {
	cfg := gradingConfig()

	assert.NoError(t, validateGradeInRange(cfg, "q1", 0))
	assert.NoError(t, validateGradeInRange(cfg, "q1", 10))

	err := validateGradeInRange(cfg, "q1", 10.5)
	assert.True(t, domain.IsValidation(err), "grade above the question max must be rejected")

	err = validateGradeInRange(cfg, "q1", -1)
	assert.True(t, domain.IsValidation(err))

	// No max score on the question falls back to 100.
	assert.NoError(t, validateGradeInRange(cfg, "q2", 100))
	err = validateGradeInRange(cfg, "q2", 101)
	assert.True(t, domain.IsValidation(err))

	err = validateGradeInRange(cfg, "missing", 5)
	assert.True(t, domain.IsValidation(err), "unknown question ids must be rejected")
}

func TestValidateManualBindings(t *testing.T) {
	cfg := gradingConfig()
	cfg.IsManualUpload = true
	cfg.ManualEntities = []model.ManualEntity{
		{SheetPath: "/uploads/a.jpg", Name: "Siti Nurhaliza"},
	}

	assert.NoError(t, validateManualBindings(cfg, []string{"/uploads/a.jpg"}))

	err := validateManualBindings(cfg, []string{"/uploads/a.jpg", "/uploads/b.jpg"})
	assert.True(t, domain.IsValidation(err), "an unbound sheet must be rejected")

	cfg.ManualEntities = append(cfg.ManualEntities, model.ManualEntity{SheetPath: "/uploads/b.jpg", Name: "  "})
	err = validateManualBindings(cfg, []string{"/uploads/b.jpg"})
	assert.True(t, domain.IsValidation(err), "a blank name is not a binding")
}

func TestValidateGradingConfigRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.GradingConfig)
	}{
		{"missing name", func(c *model.GradingConfig) { c.AssessmentName = "" }},
		{"no sections", func(c *model.GradingConfig) { c.Sections = nil }},
		{"unknown scoring method", func(c *model.GradingConfig) { c.ScoringMethod = "vibes" }},
		{"unknown grading mode", func(c *model.GradingConfig) { c.GradingMode = "guess" }},
		{"empty section", func(c *model.GradingConfig) { c.Sections[0].Questions = nil }},
		{"question without id", func(c *model.GradingConfig) { c.Sections[0].Questions[0].ID = "" }},
		{"duplicate question id", func(c *model.GradingConfig) { c.Sections[0].Questions[1].ID = "q1" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := gradingConfig()
			tt.mutate(cfg)
			assert.True(t, domain.IsValidation(validateGradingConfig(cfg)))
		})
	}

	assert.NoError(t, validateGradingConfig(gradingConfig()))
}
