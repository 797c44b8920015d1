package subject

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

type Subject struct {
	ID              int       `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	ShortName       string    `json:"short_name" db:"short_name"`
	Description     string    `json:"description" db:"description"`
	IsLearningField bool      `json:"is_learning_field" db:"is_learning_field"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectSubject attaches a Subject to a Project for a given duration (in hours).
type ProjectSubject struct {
	ID        int     `json:"id" db:"id"`
	ProjectID int     `json:"project_id" db:"project_id"`
	SubjectID int     `json:"subject_id" db:"subject_id"`
	Duration  int     `json:"duration" db:"duration"`
	Subject   Subject `json:"subject" db:"subject"`
}

// NewSubject contains information needed to create a new Subject.
// It is also used to overwrite an existing Subject.
type NewSubject struct {
	Name            string `json:"name" validate:"required,notblank,max=128"`
	ShortName       string `json:"short_name" validate:"required,notblank,max=16"`
	Description     string `json:"description" validate:"max=2048"`
	IsLearningField bool   `json:"is_learning_field"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.ShortName = core.CleanString(ns.ShortName)
	ns.Description = core.CleanString(ns.Description)
	return validate.Struct(ns)
}

// NewProjectSubject contains information needed to attach a Subject to a Project.
type NewProjectSubject struct {
	ProjectID int `json:"project_id" validate:"required,gt=0"`
	SubjectID int `json:"subject_id" validate:"required,gt=0"`
	Duration  int `json:"duration" validate:"gte=0"`
}

func (nps *NewProjectSubject) Validate(validate *validator.Validate) error {
	return validate.Struct(nps)
}

type UpdateProjectSubject struct {
	Duration int `json:"duration" validate:"gte=0"`
}

func (ups *UpdateProjectSubject) Validate(validate *validator.Validate) error {
	return validate.Struct(ups)
}

type QueryFilter struct {
	Search string `query:"search"`
	IDs    []int
}

type ProjectSubjectFilter struct {
	ProjectID int `query:"project_id"`
	SubjectID int `query:"subject_id"`
}
