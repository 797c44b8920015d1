package project

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

type Project struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	ProjectStart core.Date `json:"project_start" db:"project_start"`
	CourseID     int       `json:"course_id" db:"course_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewProject contains information needed to create a new Project.
// It is also used to overwrite an existing Project.
type NewProject struct {
	Name         string    `json:"name" validate:"required,notblank,max=128"`
	ProjectStart core.Date `json:"project_start"`
	CourseID     int       `json:"course_id" validate:"required,gt=0"`
}

func (np *NewProject) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	if err := validate.Struct(np); err != nil {
		return err
	}
	if np.ProjectStart.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "project_start", Error: "this field is required"})
	}
	return nil
}

type QueryFilter struct {
	CourseID int `query:"course_id"`
	// MemberID restricts to projects of the courses the user is a member of.
	MemberID int `query:"member_id"`
}
