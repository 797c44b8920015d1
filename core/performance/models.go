package performance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

// Performance is a gradable component (homework, test, ...) of a subject within a project.
type Performance struct {
	ID               int       `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	ShortName        string    `json:"short_name" db:"short_name"`
	Weight           float64   `json:"weight" db:"weight"`
	ProjectSubjectID int       `json:"project_subject_id" db:"project_subject_id"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// NewPerformance contains information needed to create a new Performance.
// It is also used to overwrite an existing Performance.
type NewPerformance struct {
	Name             string  `json:"name" validate:"required,notblank,max=128"`
	ShortName        string  `json:"short_name" validate:"required,notblank,max=16"`
	Weight           float64 `json:"weight" validate:"gt=0,lte=1"`
	ProjectSubjectID int     `json:"project_subject_id" validate:"required,gt=0"`
}

func (np *NewPerformance) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.ShortName = core.CleanString(np.ShortName)
	return validate.Struct(np)
}

type QueryFilter struct {
	ProjectSubjectID int `query:"project_subject_id"`
	ProjectID        int `query:"project_id"`
}
