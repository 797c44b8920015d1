package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) CreateGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t := &repo.db.tables
	_, perfOK := t.performances[g.PerformanceID]
	_, teacherOK := t.users[g.TeacherID]
	_, studentOK := t.users[g.StudentID]
	if !perfOK || !teacherOK || !studentOK {
		return grade.Grade{}, errReferenced
	}
	for _, other := range t.grades {
		if other.PerformanceID == g.PerformanceID && other.StudentID == g.StudentID {
			return grade.Grade{}, core.NewValidationError(errors.New("this resource already exists"))
		}
	}
	g.ID = repo.db.nextPK()
	t.grades[g.ID] = g
	return g, nil
}

func (repo *gradeRepository) QueryGrades(_ context.Context, filter *grade.QueryFilter) ([]grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	t := &repo.db.tables
	grades := make([]grade.Grade, 0)
	for _, g := range t.grades {
		if filter != nil {
			if filter.ProjectID > 0 {
				ps := t.projectSubjects[t.performances[g.PerformanceID].ProjectSubjectID]
				if ps.ProjectID != filter.ProjectID {
					continue
				}
			}
			if filter.PerformanceID > 0 && g.PerformanceID != filter.PerformanceID {
				continue
			}
			if filter.StudentID > 0 && g.StudentID != filter.StudentID {
				continue
			}
			if filter.TeacherID > 0 && g.TeacherID != filter.TeacherID {
				continue
			}
		}
		grades = append(grades, g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].ID < grades[j].ID })
	return grades, nil
}

func (repo *gradeRepository) GetGrade(_ context.Context, id int) (grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.tables.grades[id]; ok {
		return g, nil
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) GetStudentGrade(_ context.Context, performanceID, studentID int) (grade.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, g := range repo.db.tables.grades {
		if g.PerformanceID == performanceID && g.StudentID == studentID {
			return g, nil
		}
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *gradeRepository) UpdateGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.tables.grades[g.ID]
	if !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	orig.Value = g.Value
	orig.Weight = g.Weight
	orig.UpdatedAt = g.UpdatedAt
	repo.db.tables.grades[g.ID] = orig
	return orig, nil
}

func (repo *gradeRepository) DeleteGrade(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.grades[id]; !ok {
		return grade.ErrNotFound
	}
	delete(repo.db.tables.grades, id)
	return nil
}
