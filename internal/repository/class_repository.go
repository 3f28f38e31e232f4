package repository

import (
	"context"

	"github.com/brightboard/brightboard-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClassRepository handles class and roster data access. Every query is
// tenant-scoped; misses outside the caller's tenant surface as NotFound.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// Create inserts a new class for the tenant.
func (r *ClassRepository) Create(ctx context.Context, tenantID uuid.UUID, c *model.Class) error {
	c.TenantID = tenantID
	err := r.pool.QueryRow(ctx,
		`INSERT INTO classes (tenant_id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		tenantID, c.Name, c.Description,
	).Scan(&c.ID, &c.CreatedAt)
	return mapError(err, "class")
}

// GetByID retrieves a class within the tenant scope.
func (r *ClassRepository) GetByID(ctx context.Context, tenantID, classID uuid.UUID) (*model.Class, error) {
	c := &model.Class{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, description, created_at
		 FROM classes
		 WHERE id = $1 AND tenant_id = $2`, classID, tenantID,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err, "class")
	}
	return c, nil
}

// List retrieves all classes owned by the tenant.
func (r *ClassRepository) List(ctx context.Context, tenantID uuid.UUID) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, name, description, created_at
		 FROM classes
		 WHERE tenant_id = $1
		 ORDER BY name ASC`, tenantID,
	)
	if err != nil {
		return nil, mapError(err, "class")
	}
	defer rows.Close()

	var classes []model.Class
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, mapError(err, "class")
		}
		classes = append(classes, c)
	}
	return classes, mapError(rows.Err(), "class")
}

// Delete removes a class; memberships cascade at the schema level, student
// rows are untouched.
func (r *ClassRepository) Delete(ctx context.Context, tenantID, classID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM classes WHERE id = $1 AND tenant_id = $2`, classID, tenantID)
	if err != nil {
		return mapError(err, "class")
	}
	if tag.RowsAffected() == 0 {
		return mapError(errNoRows(), "class")
	}
	return nil
}

// Roster retrieves the students enrolled in a class, tenant-scoped through
// the class row.
func (r *ClassRepository) Roster(ctx context.Context, tenantID, classID uuid.UUID) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.tenant_id, s.name, s.external_id, s.overall_grade_cache
		 FROM students s
		 JOIN student_class_memberships m ON m.student_id = s.id
		 JOIN classes c ON c.id = m.class_id
		 WHERE m.class_id = $1 AND c.tenant_id = $2
		 ORDER BY s.name ASC`, classID, tenantID,
	)
	if err != nil {
		return nil, mapError(err, "roster")
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.ExternalID, &s.OverallGradeCache); err != nil {
			return nil, mapError(err, "roster")
		}
		students = append(students, s)
	}
	return students, mapError(rows.Err(), "roster")
}
