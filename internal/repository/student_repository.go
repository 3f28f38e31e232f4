package repository

import (
	"context"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository handles student and membership data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Upsert creates a student or updates the name when the tenant-scoped
// external id already exists.
func (r *StudentRepository) Upsert(ctx context.Context, tenantID uuid.UUID, s *model.Student) error {
	s.TenantID = &tenantID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (tenant_id, name, external_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (tenant_id, external_id)
		 DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, overall_grade_cache`,
		tenantID, s.Name, s.ExternalID,
	).Scan(&s.ID, &s.OverallGradeCache)
	return mapError(err, "student")
}

// GetByID retrieves a student within the tenant scope.
func (r *StudentRepository) GetByID(ctx context.Context, tenantID, studentID uuid.UUID) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, external_id, overall_grade_cache
		 FROM students
		 WHERE id = $1 AND tenant_id = $2`, studentID, tenantID,
	).Scan(&s.ID, &s.TenantID, &s.Name, &s.ExternalID, &s.OverallGradeCache)
	if err != nil {
		return nil, mapError(err, "student")
	}
	return s, nil
}

// GetByExternalID retrieves a student by the teacher-assigned external id.
func (r *StudentRepository) GetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, external_id, overall_grade_cache
		 FROM students
		 WHERE tenant_id = $1 AND external_id = $2`, tenantID, externalID,
	).Scan(&s.ID, &s.TenantID, &s.Name, &s.ExternalID, &s.OverallGradeCache)
	if err != nil {
		return nil, mapError(err, "student")
	}
	return s, nil
}

// AddMembership enrolls a student into a class. Both rows must belong to the
// tenant; a cross-tenant reference masks as NotFound.
func (r *StudentRepository) AddMembership(ctx context.Context, tenantID, studentID, classID uuid.UUID) (*model.StudentClassMembership, error) {
	m := &model.StudentClassMembership{StudentID: studentID, ClassID: classID}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO student_class_memberships (student_id, class_id)
		 SELECT s.id, c.id
		 FROM students s, classes c
		 WHERE s.id = $1 AND s.tenant_id = $3
		   AND c.id = $2 AND c.tenant_id = $3
		 RETURNING id`,
		studentID, classID, tenantID,
	).Scan(&m.ID)
	if err != nil {
		return nil, mapError(err, "student or class")
	}
	return m, nil
}

// RemoveMembership withdraws a student from a class.
func (r *StudentRepository) RemoveMembership(ctx context.Context, tenantID, studentID, classID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM student_class_memberships m
		 USING classes c
		 WHERE m.class_id = c.id
		   AND m.student_id = $1 AND m.class_id = $2 AND c.tenant_id = $3`,
		studentID, classID, tenantID)
	if err != nil {
		return mapError(err, "membership")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows(), "membership")
	}
	return nil
}

// UpdateGradeCache refreshes the cached overall grade after an assessment
// completes.
func (r *StudentRepository) UpdateGradeCache(ctx context.Context, tenantID, studentID uuid.UUID, grade float64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE students SET overall_grade_cache = $1
		 WHERE id = $2 AND tenant_id = $3`,
		grade, studentID, tenantID)
	return mapError(err, "student")
}
