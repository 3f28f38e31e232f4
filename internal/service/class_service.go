package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/brightboard/brightboard-backend/internal/repository"
)

// ClassService handles class and roster business logic.
type ClassService struct {
	classRepo   *repository.ClassRepository
	studentRepo *repository.StudentRepository
}

// NewClassService creates a new ClassService.
func NewClassService(classRepo *repository.ClassRepository, studentRepo *repository.StudentRepository) *ClassService {
	return &ClassService{classRepo: classRepo, studentRepo: studentRepo}
}

// Create creates a new class.
func (s *ClassService) Create(ctx context.Context, tenantID uuid.UUID, req *model.CreateClassRequest) (*model.Class, error) {
	class := &model.Class{Name: req.Name, Description: req.Description}
	if err := s.classRepo.Create(ctx, tenantID, class); err != nil {
		return nil, err
	}
	return class, nil
}

// GetByID retrieves a class.
func (s *ClassService) GetByID(ctx context.Context, tenantID, classID uuid.UUID) (*model.Class, error) {
	return s.classRepo.GetByID(ctx, tenantID, classID)
}

// List retrieves the tenant's classes.
func (s *ClassService) List(ctx context.Context, tenantID uuid.UUID) ([]model.Class, error) {
	return s.classRepo.List(ctx, tenantID)
}

// Delete removes a class; memberships cascade, students survive.
func (s *ClassService) Delete(ctx context.Context, tenantID, classID uuid.UUID) error {
	return s.classRepo.Delete(ctx, tenantID, classID)
}

// Roster returns the students enrolled in a class.
func (s *ClassService) Roster(ctx context.Context, tenantID, classID uuid.UUID) ([]model.Student, error) {
	// Make missing classes 404 instead of returning an empty roster.
	if _, err := s.classRepo.GetByID(ctx, tenantID, classID); err != nil {
		return nil, err
	}
	return s.classRepo.Roster(ctx, tenantID, classID)
}

// UpsertStudent creates a student or renames the one already holding the
// external id.
func (s *ClassService) UpsertStudent(ctx context.Context, tenantID uuid.UUID, req *model.UpsertStudentRequest) (*model.Student, error) {
	student := &model.Student{Name: req.Name, ExternalID: req.ExternalID}
	if err := s.studentRepo.Upsert(ctx, tenantID, student); err != nil {
		return nil, err
	}
	return student, nil
}

// Enroll adds a student to a class. The student is looked up first so a
// foreign or unknown id reads as NotFound rather than a constraint error.
func (s *ClassService) Enroll(ctx context.Context, tenantID, classID, studentID uuid.UUID) (*model.StudentClassMembership, error) {
	if _, err := s.studentRepo.GetByID(ctx, tenantID, studentID); err != nil {
		return nil, err
	}
	return s.studentRepo.AddMembership(ctx, tenantID, studentID, classID)
}

// Withdraw removes a student from a class.
func (s *ClassService) Withdraw(ctx context.Context, tenantID, classID, studentID uuid.UUID) error {
	return s.studentRepo.RemoveMembership(ctx, tenantID, studentID, classID)
}
