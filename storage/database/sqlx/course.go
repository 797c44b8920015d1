package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/course"
)

const courseColumns = `id, name, class_teacher_id, created_at, updated_at`

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo courseRepository) withMembers(ctx context.Context, exec executor, courses []course.Course) error {
	ids := make([]int, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	members, err := memberIDs(ctx, exec, "course_member", "course_id", ids)
	if err != nil {
		return errors.Wrap(err, "querying course members")
	}
	for i := range courses {
		courses[i].MemberIDs = members[courses[i].ID]
		if courses[i].MemberIDs == nil {
			courses[i].MemberIDs = []int{}
		}
	}
	return nil
}

func (repo courseRepository) CheckNameUniqueness(ctx context.Context, name string, excludedIDs ...int) error {
	q := query{}
	q.where("lower(name) = lower(?)", name)
	if len(excludedIDs) > 0 {
		q.where("NOT (id = ANY(?))", pq.Array(excludedIDs))
	}
	exec := getExec(ctx, repo.db)

	var exists bool
	if err := exec.GetContext(ctx, &exists, q.build(exec, `SELECT EXISTS (SELECT 1 FROM course`)+")", q.args...); err != nil {
		return errors.Wrap(err, "checking course name uniqueness")
	}
	if exists {
		return course.ErrNameExists
	}
	return nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	exec := getExec(ctx, repo.db)
	const q = `INSERT INTO course (name, class_teacher_id, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := exec.QueryRowxContext(ctx, q, c.Name, c.ClassTeacherID, c.CreatedAt, c.UpdatedAt).Scan(&c.ID); err != nil {
		return course.Course{}, trapErr(err, course.ErrNotFound, "inserting course")
	}
	if err := addMembers(ctx, exec, "course_member", "course_id", c.ID, c.MemberIDs); err != nil {
		return course.Course{}, trapErr(err, course.ErrNotFound, "inserting course members")
	}
	if c.MemberIDs == nil {
		c.MemberIDs = []int{}
	}
	return c, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter) ([]course.Course, error) {
	q := query{}
	if filter != nil {
		if filter.Search != "" {
			q.where("name ILIKE ?", "%"+filter.Search+"%")
		}
		if filter.ClassTeacherID > 0 {
			q.where("class_teacher_id = ?", filter.ClassTeacherID)
		}
		if filter.MemberID > 0 {
			q.where("id IN (SELECT course_id FROM course_member WHERE user_id = ?)", filter.MemberID)
		}
		if filter.Names != nil {
			q.where("lower(name) = ANY(?)", pq.Array(lowerAll(filter.Names)))
		}
	}
	exec := getExec(ctx, repo.db)

	courses := make([]course.Course, 0)
	if err := exec.SelectContext(ctx, &courses, q.build(exec, "SELECT "+courseColumns+" FROM course", "name ASC", "id ASC"), q.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	if err := repo.withMembers(ctx, exec, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (repo courseRepository) getCourse(ctx context.Context, cond string, arg interface{}) (course.Course, error) {
	exec := getExec(ctx, repo.db)
	var c course.Course
	if err := exec.GetContext(ctx, &c, "SELECT "+courseColumns+" FROM course WHERE "+cond, arg); err != nil {
		return course.Course{}, trapErr(err, course.ErrNotFound, "finding course")
	}
	courses := []course.Course{c}
	if err := repo.withMembers(ctx, exec, courses); err != nil {
		return course.Course{}, err
	}
	return courses[0], nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id int) (course.Course, error) {
	return repo.getCourse(ctx, "id = $1", id)
}

func (repo courseRepository) GetCourseByName(ctx context.Context, name string) (course.Course, error) {
	return repo.getCourse(ctx, "lower(name) = lower($1)", name)
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	const q = `UPDATE course SET name = $2, class_teacher_id = $3, updated_at = $4 WHERE id = $1`
	res, err := getExec(ctx, repo.db).ExecContext(ctx, q, c.ID, c.Name, c.ClassTeacherID, c.UpdatedAt)
	if err = checkAffected(res, err); err != nil {
		return course.Course{}, trapErr(err, course.ErrNotFound, "updating course")
	}
	return c, nil
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id int) error {
	res, err := getExec(ctx, repo.db).ExecContext(ctx, "DELETE FROM course WHERE id = $1", id)
	return trapErr(checkAffected(res, err), course.ErrNotFound, "deleting course")
}

func (repo courseRepository) AddCourseMembers(ctx context.Context, courseID int, userIDs ...int) error {
	err := addMembers(ctx, getExec(ctx, repo.db), "course_member", "course_id", courseID, userIDs)
	return trapErr(err, course.ErrNotFound, "adding course members")
}

func (repo courseRepository) RemoveCourseMembers(ctx context.Context, courseID int, userIDs ...int) error {
	err := removeMembers(ctx, getExec(ctx, repo.db), "course_member", "course_id", courseID, userIDs)
	return trapErr(err, course.ErrNotFound, "removing course members")
}
