package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/gradebook/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CheckNameUniqueness(_ context.Context, name string, excludedIDs ...int) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.tables.courses {
		if strings.EqualFold(c.Name, name) && !intIn(c.ID, excludedIDs) {
			return course.ErrNameExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.users[c.ClassTeacherID]; !ok {
		return course.Course{}, errReferenced
	}
	c.ID = repo.db.nextPK()
	c.MemberIDs = withMembers(nil, c.MemberIDs, nil)
	repo.db.tables.courses[c.ID] = c
	return c, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.tables.courses))
	for _, c := range repo.db.tables.courses {
		if filter != nil {
			if filter.Search != "" && !matchesSearch(filter.Search, c.Name) {
				continue
			}
			if filter.ClassTeacherID > 0 && c.ClassTeacherID != filter.ClassTeacherID {
				continue
			}
			if filter.MemberID > 0 && !intIn(filter.MemberID, c.MemberIDs) {
				continue
			}
			if filter.Names != nil && !nameIn(c.Name, filter.Names) {
				continue
			}
		}
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Name != courses[j].Name {
			return courses[i].Name < courses[j].Name
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id int) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.tables.courses[id]; ok {
		return c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetCourseByName(_ context.Context, name string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.tables.courses {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.tables.courses[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	c.MemberIDs = orig.MemberIDs
	repo.db.tables.courses[c.ID] = c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.courses[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.tables.courses, id)
	for pID, p := range repo.db.tables.projects {
		if p.CourseID == id {
			repo.db.deleteProjectLocked(pID)
		}
	}
	return nil
}

func (repo *courseRepository) AddCourseMembers(_ context.Context, courseID int, userIDs ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.tables.courses[courseID]
	if !ok {
		return course.ErrNotFound
	}
	for _, id := range userIDs {
		if _, ok := repo.db.tables.users[id]; !ok {
			return errReferenced
		}
	}
	c.MemberIDs = withMembers(c.MemberIDs, userIDs, nil)
	repo.db.tables.courses[courseID] = c
	return nil
}

func (repo *courseRepository) RemoveCourseMembers(_ context.Context, courseID int, userIDs ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.tables.courses[courseID]
	if !ok {
		return course.ErrNotFound
	}
	c.MemberIDs = withMembers(c.MemberIDs, nil, userIDs)
	repo.db.tables.courses[courseID] = c
	return nil
}

func nameIn(name string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
