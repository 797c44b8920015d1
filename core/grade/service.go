package grade

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/group"
	"github.com/trezcool/gradebook/core/performance"
	"github.com/trezcool/gradebook/core/project"
	"github.com/trezcool/gradebook/core/subject"
	"github.com/trezcool/gradebook/core/user"
)

var ErrNotFound = core.NewNotFoundError("grade not found")

type (
	Repository interface {
		CreateGrade(ctx context.Context, g Grade) (Grade, error)
		// QueryGrades returns grades ordered by ID.
		// QueryFilter.ProjectID matches the grades of every performance of the project.
		QueryGrades(ctx context.Context, filter *QueryFilter) ([]Grade, error)
		GetGrade(ctx context.Context, id int) (Grade, error)
		// GetStudentGrade returns ErrNotFound if the student has no grade for the performance.
		GetStudentGrade(ctx context.Context, performanceID, studentID int) (Grade, error)
		UpdateGrade(ctx context.Context, g Grade) (Grade, error)
		DeleteGrade(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, teacherID int, ng NewGrade) (Grade, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Grade, error)
		GetByID(ctx context.Context, id int) (Grade, error)
		Update(ctx context.Context, id int, ug UpdateGrade) (Grade, error)
		Delete(ctx context.Context, id int) error
		// Mine returns the grades of the student, restricted to a project if projectID > 0.
		Mine(ctx context.Context, studentID, projectID int) ([]Grade, error)
		// LoadOverview builds the grade matrix of the project, restricted to a group if groupID > 0.
		LoadOverview(ctx context.Context, projectID, groupID int) (Overview, error)
		// SaveOverview creates or overwrites the grades of the batch in a single transaction.
		SaveOverview(ctx context.Context, teacherID int, reqs []StudentGrades) error
	}

	Deps struct {
		Repo            Repository
		ProjectRepo     project.Repository
		SubjectRepo     subject.Repository
		PerformanceRepo performance.Repository
		GroupRepo       group.Repository
		UserRepo        user.Repository
		Tx              core.Transactor
	}

	service struct {
		repo     Repository
		projRepo project.Repository
		subjRepo subject.Repository
		perfRepo performance.Repository
		grpRepo  group.Repository
		usrRepo  user.Repository
		tx       core.Transactor
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(deps Deps) ServiceInterface {
	return &service{
		repo:     deps.Repo,
		projRepo: deps.ProjectRepo,
		subjRepo: deps.SubjectRepo,
		perfRepo: deps.PerformanceRepo,
		grpRepo:  deps.GroupRepo,
		usrRepo:  deps.UserRepo,
		tx:       deps.Tx,
	}
}

func (svc *service) Create(ctx context.Context, teacherID int, ng NewGrade) (Grade, error) {
	var g Grade
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		perf, err := svc.perfRepo.GetPerformance(ctx, ng.PerformanceID)
		if err != nil {
			if core.IsNotFound(err) {
				msg := fmt.Sprintf("performance %d does not exist", ng.PerformanceID)
				return core.NewValidationError(errors.New(msg), core.FieldError{Field: "performance_id", Error: msg})
			}
			return errors.Wrap(err, "finding performance")
		}
		if _, err = svc.usrRepo.GetUser(ctx, user.GetFilter{ID: ng.StudentID}); err != nil {
			if core.IsNotFound(err) {
				msg := fmt.Sprintf("user %d does not exist", ng.StudentID)
				return core.NewValidationError(errors.New(msg), core.FieldError{Field: "student_id", Error: msg})
			}
			return errors.Wrap(err, "finding student")
		}
		if _, err = svc.repo.GetStudentGrade(ctx, ng.PerformanceID, ng.StudentID); err == nil {
			return core.NewValidationError(errors.New("the student already has a grade for this performance"))
		} else if !core.IsNotFound(err) {
			return errors.Wrap(err, "finding grade")
		}

		now := time.Now().UTC()
		g, err = svc.repo.CreateGrade(ctx, Grade{
			Value:         ng.Value,
			PerformanceID: perf.ID,
			TeacherID:     teacherID,
			StudentID:     ng.StudentID,
			Weight:        perf.Weight,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		return err
	})
	if err != nil {
		return Grade{}, err
	}
	return g, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Grade, error) {
	return svc.repo.GetGrade(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, ug UpdateGrade) (Grade, error) {
	var g Grade
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if g, err = svc.repo.GetGrade(ctx, id); err != nil {
			return err
		}
		g.Value = ug.Value
		g.UpdatedAt = time.Now().UTC()
		g, err = svc.repo.UpdateGrade(ctx, g)
		return err
	})
	if err != nil {
		return Grade{}, err
	}
	return g, nil
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetGrade(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeleteGrade(ctx, id)
	})
}

func (svc *service) Mine(ctx context.Context, studentID, projectID int) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, &QueryFilter{StudentID: studentID, ProjectID: projectID})
}

type cellKey struct {
	performanceID, studentID int
}

func (svc *service) LoadOverview(ctx context.Context, projectID, groupID int) (Overview, error) {
	proj, err := svc.projRepo.GetProject(ctx, projectID)
	if err != nil {
		return Overview{}, err
	}

	// roster
	usrFilter := &user.QueryFilter{Roles: []user.Role{user.RoleStudent}, CourseID: proj.CourseID}
	if groupID > 0 {
		grp, err := svc.grpRepo.GetGroup(ctx, groupID)
		if err != nil {
			return Overview{}, err
		}
		if grp.ProjectID != proj.ID {
			msg := fmt.Sprintf("group %d does not belong to project %d", groupID, projectID)
			return Overview{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "group_id", Error: msg})
		}
		usrFilter = &user.QueryFilter{Roles: []user.Role{user.RoleStudent}, GroupID: groupID}
	}
	students, err := svc.usrRepo.QueryUsers(ctx, usrFilter, nil)
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying students")
	}

	// columns
	projSubjects, err := svc.subjRepo.QueryProjectSubjects(ctx, &subject.ProjectSubjectFilter{ProjectID: proj.ID})
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying project subjects")
	}
	perfs, err := svc.perfRepo.QueryPerformances(ctx, &performance.QueryFilter{ProjectID: proj.ID})
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying performances")
	}
	sort.SliceStable(perfs, func(i, j int) bool {
		if perfs[i].ProjectSubjectID != perfs[j].ProjectSubjectID {
			return perfs[i].ProjectSubjectID < perfs[j].ProjectSubjectID
		}
		return perfs[i].ID < perfs[j].ID
	})

	perfsBySubject := make(map[int][]OverviewPerformance, len(projSubjects))
	for _, p := range perfs {
		perfsBySubject[p.ProjectSubjectID] = append(perfsBySubject[p.ProjectSubjectID], OverviewPerformance{
			ID:        p.ID,
			Name:      p.Name,
			ShortName: p.ShortName,
			Weight:    displayWeight(p.Weight),
		})
	}
	subjects := make([]OverviewSubject, 0, len(projSubjects))
	for _, ps := range projSubjects {
		ovPerfs := perfsBySubject[ps.ID]
		if ovPerfs == nil {
			ovPerfs = []OverviewPerformance{}
		}
		subjects = append(subjects, OverviewSubject{
			ProjectSubjectID: ps.ID,
			SubjectID:        ps.SubjectID,
			Name:             ps.Subject.Name,
			ShortName:        ps.Subject.ShortName,
			Performances:     ovPerfs,
		})
	}

	// cells
	grades, err := svc.repo.QueryGrades(ctx, &QueryFilter{ProjectID: proj.ID})
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying grades")
	}
	gradesByCell := make(map[cellKey]Grade, len(grades))
	for _, g := range grades {
		gradesByCell[cellKey{g.PerformanceID, g.StudentID}] = g
	}

	groups, err := svc.grpRepo.QueryGroups(ctx, &group.QueryFilter{ProjectID: proj.ID})
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying groups")
	}

	rows := make([]OverviewRow, 0, len(students))
	for _, student := range students {
		row := OverviewRow{
			StudentID: student.ID,
			Username:  student.Username,
			FirstName: student.FirstName,
			LastName:  student.LastName,
			GroupName: groupName(groups, student.ID),
			Grades:    make([]OverviewCell, 0, len(perfs)),
		}
		for _, p := range perfs {
			cell := OverviewCell{PerformanceID: p.ID}
			if g, ok := gradesByCell[cellKey{p.ID, student.ID}]; ok {
				cell.GradeID = null.IntFrom(g.ID)
				cell.Value = null.Float64From(g.Value)
			}
			row.Grades = append(row.Grades, cell)
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		li, lj := strings.ToLower(rows[i].LastName), strings.ToLower(rows[j].LastName)
		if li != lj {
			return li < lj
		}
		fi, fj := strings.ToLower(rows[i].FirstName), strings.ToLower(rows[j].FirstName)
		if fi != fj {
			return fi < fj
		}
		return rows[i].StudentID < rows[j].StudentID
	})

	ov := Overview{ProjectID: proj.ID, Subjects: subjects, Students: rows}
	if groupID > 0 {
		ov.GroupID = null.IntFrom(groupID)
	}
	return ov, nil
}

func (svc *service) SaveOverview(ctx context.Context, teacherID int, reqs []StudentGrades) error {
	if err := ValidateOverviewUpdates(reqs); err != nil {
		return err
	}

	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		for _, req := range reqs {
			if !req.StudentID.Valid {
				continue
			}
			studentID := req.StudentID.Int
			for _, gu := range req.Grades {
				if !gu.PerformanceID.Valid || !gu.Value.Valid {
					continue
				}

				g, err := svc.repo.GetStudentGrade(ctx, gu.PerformanceID.Int, studentID)
				switch {
				case err == nil:
					g.Value = gu.Value.Float64
					g.UpdatedAt = now
					if _, err = svc.repo.UpdateGrade(ctx, g); err != nil {
						return errors.Wrapf(err, "updating grade %d", g.ID)
					}
				case core.IsNotFound(err):
					if err = svc.createCell(ctx, teacherID, studentID, gu, now); err != nil {
						return err
					}
				default:
					return errors.Wrap(err, "finding grade")
				}
			}
		}
		return nil
	})
}

func (svc *service) createCell(ctx context.Context, teacherID, studentID int, gu GradeUpdate, now time.Time) error {
	perf, err := svc.perfRepo.GetPerformance(ctx, gu.PerformanceID.Int)
	if err != nil {
		return err
	}
	student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: studentID})
	if err != nil {
		return err
	}
	_, err = svc.repo.CreateGrade(ctx, Grade{
		Value:         gu.Value.Float64,
		PerformanceID: perf.ID,
		TeacherID:     teacherID,
		StudentID:     student.ID,
		Weight:        perf.Weight,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return err
}

// groupName returns the name of the first group (by ID) containing the student.
func groupName(groups []group.Group, studentID int) string {
	for _, g := range groups {
		if g.HasMember(studentID) {
			return g.Name
		}
	}
	return ""
}

func displayWeight(w float64) float64 {
	return math.Round(w*100*100) / 100
}
