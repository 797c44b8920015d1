package csvimport

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

type Type string

const (
	TypeUsers   Type = "USERS"
	TypeClasses Type = "CLASSES"
)

var (
	ErrUnsupportedType = errors.New("import type CLASSES is not supported")
	ErrUnknownType     = errors.New("import type must be one of USERS, CLASSES")
)

// Metadata describes the content of an uploaded CSV file.
type Metadata struct {
	Type Type `json:"type"`
}

func (m *Metadata) Validate() error {
	m.Type = Type(strings.ToUpper(core.CleanString(string(m.Type))))
	switch m.Type {
	case TypeUsers:
		return nil
	case TypeClasses:
		return core.NewValidationError(ErrUnsupportedType)
	default:
		return core.NewValidationError(ErrUnknownType, core.FieldError{Field: "type", Error: ErrUnknownType.Error()})
	}
}

// Report summarizes an import. Success is false if any row failed.
type Report struct {
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
	Success   bool     `json:"success"`
	Document  string   `json:"document"` // credentials PDF file name
}
