package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siwes-logbook-api/internal/models"
)

// EnrollmentRepository reads program enrollment rows. The enrollment's
// start date anchors week bucketing for the student's logs.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByStudentAndPlacement returns a student's enrollment at a placement.
func (r *EnrollmentRepository) FindByStudentAndPlacement(ctx context.Context, studentID, placementID string) (*models.Enrollment, error) {
	query := `SELECT id, student_id, placement_id, start_date, created_at
FROM enrollments WHERE student_id = $1 AND placement_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, placementID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}
