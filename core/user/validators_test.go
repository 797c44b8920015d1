package user

import (
	"testing"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func Test_validatePassword(t *testing.T) {
	validate := newValidator()
	commonPasswords = []string{"letme!n2020", "qwerty123!a"}
	t.Cleanup(func() { commonPasswords = commonPasswords[:0] })

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "aB3$", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "aB3$ efgh", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "aB3defghij", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "ab3$efghij", wantTag: pwdComplexityTag},
		{name: "similar to username", pwd: "Jonny.Walker1", wantTag: pwdAttrSimTag},
		{name: "common", pwd: "LetMe!n2020", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "Sup3r-S3cret!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Role:            RoleStudent,
				Username:        "johnny.walker",
				FirstName:       "Johnny",
				LastName:        "Walker",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
			}
			err := validate.Struct(nu)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			if vErrs, ok := err.(validator.ValidationErrors); assert.True(t, ok, "got %v", err) {
				if assert.Len(t, vErrs, 1) {
					assert.Equal(t, "password", vErrs[0].Field())
					assert.Equal(t, tt.wantTag, vErrs[0].Tag())
				}
			}
		})
	}
}

func Test_roleValidation(t *testing.T) {
	validate := newValidator()

	nu := NewUser{Role: "BANANA", Username: "john.doe", FirstName: "John", LastName: "Doe", Password: "Sup3r-S3cret!", PasswordConfirm: "Sup3r-S3cret!"}
	err := validate.Struct(nu)
	if vErrs, ok := err.(validator.ValidationErrors); assert.True(t, ok) && assert.Len(t, vErrs, 1) {
		assert.Equal(t, "role", vErrs[0].Field())
	}

	role, ok := ParseRole(" teacher ")
	assert.True(t, ok)
	assert.Equal(t, RoleTeacher, role)
	_, ok = ParseRole("banana")
	assert.False(t, ok)
}

func TestGeneratePassword(t *testing.T) {
	validate := newValidator()
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		pwd, err := GeneratePassword(GeneratedPasswordLength)
		if !assert.NoError(t, err) {
			return
		}
		assert.Len(t, pwd, GeneratedPasswordLength)
		assert.False(t, seen[pwd], "duplicate password %q", pwd)
		seen[pwd] = true

		var upper, lower, digit, symbol bool
		for _, c := range pwd {
			switch {
			case unicode.IsUpper(c):
				upper = true
			case unicode.IsLower(c):
				lower = true
			case unicode.IsDigit(c):
				digit = true
			default:
				symbol = true
			}
		}
		assert.True(t, upper && lower && digit && symbol, pwd)

		// generated passwords pass the password policy
		cp := ChangePassword{CurrentPassword: "x", Password: pwd, PasswordConfirm: pwd, usr: User{Username: "john.doe", FirstName: "John", LastName: "Doe"}}
		assert.NoError(t, validate.Struct(cp), pwd)
	}

	pwd, err := GeneratePassword(1)
	assert.NoError(t, err)
	assert.Len(t, pwd, 4)
}
