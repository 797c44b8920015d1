package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/gradebook/core"
)

type Role string

// Roles
const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

var (
	AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

	// StaffRoles may manage courses, projects, subjects, groups, performances, questions & grades.
	StaffRoles = []Role{RoleAdmin, RoleTeacher}

	rolePriorities = map[Role]int{
		RoleAdmin:   30,
		RoleTeacher: 20,
		RoleStudent: 10,
	}

	Roles = []RoleInfo{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

// ParseRole does a case-insensitive match of `s` against AllRoles.
func ParseRole(s string) (Role, bool) {
	s = strings.ToUpper(core.CleanString(s))
	for _, r := range AllRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

func (r Role) IsValid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func (r Role) In(roles ...Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func RolePriority(role Role) int {
	return rolePriorities[role]
}

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Role         Role      `json:"role" db:"role"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    null.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }
func (u *User) IsStaff() bool   { return u.Role.In(StaffRoles...) }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Role            Role   `json:"role" validate:"required,role"`
	Username        string `json:"username" validate:"required,min=3,max=64,username"`
	FirstName       string `json:"first_name" validate:"required,notblank,max=128"`
	LastName        string `json:"last_name" validate:"required,notblank,max=128"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	if r, ok := ParseRole(string(nu.Role)); ok {
		nu.Role = r
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Blank fields keep their current value.
type UpdateUser struct {
	Role            Role   `json:"role" validate:"omitempty,role"`
	Username        string `json:"username" validate:"omitempty,min=3,max=64,username"`
	FirstName       string `json:"first_name" validate:"max=128"`
	LastName        string `json:"last_name" validate:"max=128"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc ServiceInterface) error {
	if fname := core.CleanString(uu.FirstName); fname != "" {
		uu.FirstName = fname
	} else {
		uu.FirstName = origUsr.FirstName
	}

	if lname := core.CleanString(uu.LastName); lname != "" {
		uu.LastName = lname
	} else {
		uu.LastName = origUsr.LastName
	}

	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	if r, ok := ParseRole(string(uu.Role)); ok {
		uu.Role = r
	} else if uu.Role == "" {
		uu.Role = origUsr.Role
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, origUsr.ID)
}

// ChangePassword is used by a User to change their own password.
type ChangePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	usr User // for the password similarity checks
}

func (cp *ChangePassword) Validate(usr User, validate *validator.Validate) error {
	cp.usr = usr
	if err := validate.Struct(cp); err != nil {
		return err
	}
	if err := usr.CheckPassword(cp.CurrentPassword); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "current_password", Error: "invalid password"})
	}
	return nil
}

// SetPassword is used by administrators to replace a User's password without knowing the current one.
type SetPassword struct {
	Password string `json:"password" validate:"required"`

	usr User
}

func (sp *SetPassword) Validate(usr User, validate *validator.Validate) error {
	sp.usr = usr
	return validate.Struct(sp)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Roles    []Role `query:"role"`
	CourseID int    `query:"course_id"`
	GroupID  int    `query:"group_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.CourseID == 0 && qf.GroupID == 0
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	roles := make([]Role, 0, len(qf.Roles))
	for _, r := range qf.Roles {
		if role, ok := ParseRole(string(r)); ok {
			roles = append(roles, role)
		} else {
			roles = append(roles, r) // keep unknown roles: they must match nothing
		}
	}
	if qf.Roles != nil {
		qf.Roles = roles
	}
}

// GetFilter selects a single User; ID takes precedence over Username.
type GetFilter struct {
	ID       int
	Username string
}

// OrderingFields are the fields users can be ordered by.
var OrderingFields = []string{"id", "username", "first_name", "last_name", "role", "created_at"}
