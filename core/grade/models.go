package grade

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
)

const (
	MinValue = 1.0
	MaxValue = 6.0
)

var valueRangeText = fmt.Sprintf("grade value must be between %g and %g", MinValue, MaxValue)

// Grade is the mark a teacher gave a student for a performance.
// Weight is a copy of the performance weight at creation time.
type Grade struct {
	ID            int       `json:"id" db:"id"`
	Value         float64   `json:"value" db:"value"`
	PerformanceID int       `json:"performance_id" db:"performance_id"`
	TeacherID     int       `json:"teacher_id" db:"teacher_id"`
	StudentID     int       `json:"student_id" db:"student_id"`
	Weight        float64   `json:"weight" db:"weight"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// NewGrade contains information needed to create a new Grade.
// The teacher is the authenticated user.
type NewGrade struct {
	Value         float64 `json:"value" validate:"gte=1,lte=6"`
	PerformanceID int     `json:"performance_id" validate:"required,gt=0"`
	StudentID     int     `json:"student_id" validate:"required,gt=0"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ng)
}

type UpdateGrade struct {
	Value float64 `json:"value" validate:"gte=1,lte=6"`
}

func (ug *UpdateGrade) Validate(validate *validator.Validate) error {
	return validate.Struct(ug)
}

type QueryFilter struct {
	ProjectID     int `query:"project_id"`
	PerformanceID int `query:"performance_id"`
	StudentID     int `query:"student_id"`
	TeacherID     int `query:"teacher_id"`
}

// Overview

type OverviewPerformance struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
	Weight    float64 `json:"weight"` // percent
}

type OverviewSubject struct {
	ProjectSubjectID int                   `json:"project_subject_id"`
	SubjectID        int                   `json:"subject_id"`
	Name             string                `json:"name"`
	ShortName        string                `json:"short_name"`
	Performances     []OverviewPerformance `json:"performances"`
}

// OverviewCell is null-valued when the student has no grade for the performance.
type OverviewCell struct {
	GradeID       null.Int     `json:"grade_id"`
	PerformanceID int          `json:"performance_id"`
	Value         null.Float64 `json:"value"`
}

type OverviewRow struct {
	StudentID int            `json:"student_id"`
	Username  string         `json:"username"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	GroupName string         `json:"group_name"`
	Grades    []OverviewCell `json:"grades"`
}

// Overview is the student × performance grade matrix of a project.
type Overview struct {
	ProjectID int               `json:"project_id"`
	GroupID   null.Int          `json:"group_id"`
	Subjects  []OverviewSubject `json:"subjects"`
	Students  []OverviewRow     `json:"students"`
}

// GradeUpdate is one cell of an overview save. Null fields make it a no-op.
type GradeUpdate struct {
	PerformanceID null.Int     `json:"performance_id"`
	Value         null.Float64 `json:"value"`
}

type StudentGrades struct {
	StudentID null.Int      `json:"student_id"`
	Grades    []GradeUpdate `json:"grades"`
}

// ValidateOverviewUpdates checks the value range of every cell that will be written.
// Cells without a student, performance or value are no-ops and are not checked.
func ValidateOverviewUpdates(reqs []StudentGrades) error {
	var fields []core.FieldError
	for i, req := range reqs {
		for j, gu := range req.Grades {
			if !req.StudentID.Valid || !gu.PerformanceID.Valid || !gu.Value.Valid {
				continue
			}
			if v := gu.Value.Float64; v < MinValue || v > MaxValue {
				fields = append(fields, core.FieldError{
					Field: fmt.Sprintf("[%d].grades[%d].value", i, j),
					Error: valueRangeText,
				})
			}
		}
	}
	if len(fields) > 0 {
		return core.NewValidationError(errors.New(valueRangeText), fields...)
	}
	return nil
}
