package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brightboard/brightboard-backend/internal/llm"
	"github.com/brightboard/brightboard-backend/internal/model"
)

// extractedName is the vision response for the name-extraction call.
type extractedName struct {
	StudentName string `json:"student_name"`
}

// extractStudentName reads the handwritten name off one answer sheet.
func (p *Pipeline) extractStudentName(ctx context.Context, sheet llm.Attachment, tag string) (string, error) {
	raw, _, err := p.llm.CompleteVisionJSON(ctx, buildExtractionPrompt(), []llm.Attachment{sheet}, llm.VisionOptions{
		LogTag: tag + "-extract",
		Validate: func(raw json.RawMessage) error {
			var out extractedName
			if err := json.Unmarshal(raw, &out); err != nil {
				return err
			}
			return nil
		},
	})
	if err != nil {
		return "", err
	}
	var out extractedName
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode extracted name: %w", err)
	}
	return strings.TrimSpace(out.StudentName), nil
}

// manualNameFor returns the teacher-supplied name bound to a manually
// uploaded sheet. Manual jobs never run name extraction over the sheets.
func manualNameFor(cfg *model.GradingConfig, path string) string {
	for _, e := range cfg.ManualEntities {
		if e.SheetPath == path {
			return strings.TrimSpace(e.Name)
		}
	}
	return ""
}

// matchRoster finds the rostered student whose name matches the extracted
// one. Matching is case-insensitive and bidirectional on substring, so
// "Siti N." on the sheet matches "Siti Nurhaliza" on the roster and the other
// way round. Ambiguous matches (more than one hit) count as no match.
func matchRoster(roster []model.Student, extracted string) (*model.Student, bool) {
	needle := strings.ToLower(strings.TrimSpace(extracted))
	if needle == "" {
		return nil, false
	}

	var hit *model.Student
	hits := 0
	for i := range roster {
		rostered := strings.ToLower(strings.TrimSpace(roster[i].Name))
		if rostered == "" {
			continue
		}
		if strings.Contains(rostered, needle) || strings.Contains(needle, rostered) {
			hit = &roster[i]
			hits++
		}
	}
	if hits != 1 {
		return nil, false
	}
	return hit, true
}

// resolveEntity maps an extracted name to a ResultIdentity: a rostered
// student when exactly one roster entry matches, otherwise an
// assessment-scoped outsider. Outsiders with the same name merge into one
// entity so re-uploads of the same unknown student do not multiply.
func (p *Pipeline) resolveEntity(ctx context.Context, assessment *model.Assessment, roster []model.Student, extracted string) (model.ResultIdentity, string, error) {
	if student, ok := matchRoster(roster, extracted); ok {
		return model.ResultIdentity{StudentID: &student.ID}, student.Name, nil
	}

	name := strings.TrimSpace(extracted)
	if name == "" {
		name = "Unknown Student"
	}

	if existing, err := p.assessmentRepo.FindOutsiderByName(ctx, assessment.ID, name); err == nil {
		return model.ResultIdentity{OutsiderID: &existing.ID}, existing.Name, nil
	}

	outsider := &model.OutsiderStudent{Name: name, AssessmentID: assessment.ID}
	if err := p.assessmentRepo.CreateOutsider(ctx, outsider); err != nil {
		return model.ResultIdentity{}, "", err
	}
	return model.ResultIdentity{OutsiderID: &outsider.ID}, outsider.Name, nil
}
