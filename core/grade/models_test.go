package grade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
)

func TestValidateOverviewUpdates(t *testing.T) {
	cell := func(perfID null.Int, value null.Float64) GradeUpdate {
		return GradeUpdate{PerformanceID: perfID, Value: value}
	}
	tests := []struct {
		name       string
		reqs       []StudentGrades
		wantFields []core.FieldError
	}{
		{name: "empty"},
		{
			name: "in range",
			reqs: []StudentGrades{{StudentID: null.IntFrom(1), Grades: []GradeUpdate{
				cell(null.IntFrom(1), null.Float64From(1)),
				cell(null.IntFrom(2), null.Float64From(6)),
				cell(null.IntFrom(3), null.Float64From(3.5)),
			}}},
		},
		{
			name: "skipped cells",
			reqs: []StudentGrades{
				{StudentID: null.Int{}, Grades: []GradeUpdate{cell(null.IntFrom(1), null.Float64From(9))}},
				{StudentID: null.IntFrom(1), Grades: []GradeUpdate{
					cell(null.Int{}, null.Float64From(0)),
					cell(null.IntFrom(1), null.Float64{}),
				}},
			},
		},
		{
			name: "out of range",
			reqs: []StudentGrades{
				{StudentID: null.IntFrom(1), Grades: []GradeUpdate{cell(null.IntFrom(1), null.Float64From(2))}},
				{StudentID: null.IntFrom(2), Grades: []GradeUpdate{
					cell(null.IntFrom(1), null.Float64From(0.5)),
					cell(null.IntFrom(2), null.Float64From(6.5)),
				}},
			},
			wantFields: []core.FieldError{
				{Field: "[1].grades[0].value", Error: valueRangeText},
				{Field: "[1].grades[1].value", Error: valueRangeText},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOverviewUpdates(tt.reqs)
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			if verr, ok := err.(*core.ValidationError); assert.True(t, ok, "want a *core.ValidationError, got %v", err) {
				assert.Equal(t, tt.wantFields, verr.Fields)
			}
		})
	}
}
