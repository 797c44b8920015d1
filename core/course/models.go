package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

// Course is a school class ("Klasse") led by a class teacher.
type Course struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	ClassTeacherID int       `json:"class_teacher_id" db:"class_teacher_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	MemberIDs      []int     `json:"member_ids" db:"-"` // sorted
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name           string `json:"name" validate:"required,notblank,max=128"`
	ClassTeacherID int    `json:"class_teacher_id" validate:"required,gt=0"`
	MemberIDs      []int  `json:"member_ids" validate:"omitempty,dive,gt=0"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.MemberIDs = core.UniqueInts(nc.MemberIDs)
	return validate.Struct(nc)
}

// UpdateCourse overwrites all fields of an existing Course.
type UpdateCourse struct {
	Name           string `json:"name" validate:"required,notblank,max=128"`
	ClassTeacherID int    `json:"class_teacher_id" validate:"required,gt=0"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	return validate.Struct(uc)
}

type Members struct {
	UserIDs []int `json:"user_ids" validate:"required,min=1,dive,gt=0"`
}

func (m *Members) Validate(validate *validator.Validate) error {
	m.UserIDs = core.UniqueInts(m.UserIDs)
	return validate.Struct(m)
}

type QueryFilter struct {
	Search         string `query:"search"`
	ClassTeacherID int    `query:"class_teacher_id"`
	MemberID       int    `query:"member_id"`
	Names          []string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
