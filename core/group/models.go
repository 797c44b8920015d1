package group

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
)

// Group is a sub-team of students within a project.
type Group struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ProjectID int       `json:"project_id" db:"project_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	MemberIDs []int     `json:"member_ids" db:"-"` // sorted
}

func (g Group) HasMember(userID int) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name      string `json:"name" validate:"required,notblank,max=128"`
	ProjectID int    `json:"project_id" validate:"required,gt=0"`
	MemberIDs []int  `json:"member_ids" validate:"omitempty,dive,gt=0"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	ng.MemberIDs = core.UniqueInts(ng.MemberIDs)
	return validate.Struct(ng)
}

// UpdateGroup overwrites all fields of an existing Group but its members.
type UpdateGroup struct {
	Name      string `json:"name" validate:"required,notblank,max=128"`
	ProjectID int    `json:"project_id" validate:"required,gt=0"`
}

func (ug *UpdateGroup) Validate(validate *validator.Validate) error {
	ug.Name = core.CleanString(ug.Name)
	return validate.Struct(ug)
}

type Members struct {
	UserIDs []int `json:"user_ids" validate:"required,min=1,dive,gt=0"`
}

func (m *Members) Validate(validate *validator.Validate) error {
	m.UserIDs = core.UniqueInts(m.UserIDs)
	return validate.Struct(m)
}

type QueryFilter struct {
	ProjectID int `query:"project_id"`
	MemberID  int `query:"member_id"`
}
