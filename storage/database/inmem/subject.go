package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/gradebook/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(_ context.Context, s subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = repo.db.nextPK()
	repo.db.tables.subjects[s.ID] = s
	return s, nil
}

func (repo *subjectRepository) QuerySubjects(_ context.Context, filter *subject.QueryFilter) ([]subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]subject.Subject, 0, len(repo.db.tables.subjects))
	for _, s := range repo.db.tables.subjects {
		if filter != nil {
			if filter.Search != "" && !matchesSearch(filter.Search, s.Name, s.ShortName) {
				continue
			}
			if filter.IDs != nil && !intIn(s.ID, filter.IDs) {
				continue
			}
		}
		subjects = append(subjects, s)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Name != subjects[j].Name {
			return subjects[i].Name < subjects[j].Name
		}
		return subjects[i].ID < subjects[j].ID
	})
	return subjects, nil
}

func (repo *subjectRepository) GetSubject(_ context.Context, id int) (subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.tables.subjects[id]; ok {
		return s, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, s subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.subjects[s.ID]; !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.db.tables.subjects[s.ID] = s
	return s, nil
}

func (repo *subjectRepository) DeleteSubject(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.subjects[id]; !ok {
		return subject.ErrNotFound
	}
	delete(repo.db.tables.subjects, id)
	for psID, ps := range repo.db.tables.projectSubjects {
		if ps.SubjectID == id {
			repo.db.deleteProjectSubjectLocked(psID)
		}
	}
	for qID, q := range repo.db.tables.questions {
		if intIn(id, q.SubjectIDs) {
			q.SubjectIDs = withMembers(q.SubjectIDs, nil, []int{id})
			repo.db.tables.questions[qID] = q
		}
	}
	return nil
}

// joined returns `ps` with its Subject; callers hold the lock.
func (repo *subjectRepository) joined(ps subject.ProjectSubject) subject.ProjectSubject {
	ps.Subject = repo.db.tables.subjects[ps.SubjectID]
	return ps
}

func (repo *subjectRepository) CreateProjectSubject(_ context.Context, ps subject.ProjectSubject) (subject.ProjectSubject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	_, projOK := repo.db.tables.projects[ps.ProjectID]
	_, subjOK := repo.db.tables.subjects[ps.SubjectID]
	if !projOK || !subjOK {
		return subject.ProjectSubject{}, errReferenced
	}
	ps.ID = repo.db.nextPK()
	ps.Subject = subject.Subject{}
	repo.db.tables.projectSubjects[ps.ID] = ps
	return repo.joined(ps), nil
}

func (repo *subjectRepository) QueryProjectSubjects(_ context.Context, filter *subject.ProjectSubjectFilter) ([]subject.ProjectSubject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projSubjects := make([]subject.ProjectSubject, 0)
	for _, ps := range repo.db.tables.projectSubjects {
		if filter != nil {
			if filter.ProjectID > 0 && ps.ProjectID != filter.ProjectID {
				continue
			}
			if filter.SubjectID > 0 && ps.SubjectID != filter.SubjectID {
				continue
			}
		}
		projSubjects = append(projSubjects, repo.joined(ps))
	}
	sort.Slice(projSubjects, func(i, j int) bool { return projSubjects[i].ID < projSubjects[j].ID })
	return projSubjects, nil
}

func (repo *subjectRepository) GetProjectSubject(_ context.Context, id int) (subject.ProjectSubject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ps, ok := repo.db.tables.projectSubjects[id]; ok {
		return repo.joined(ps), nil
	}
	return subject.ProjectSubject{}, subject.ErrProjectSubjectNotFound
}

func (repo *subjectRepository) UpdateProjectSubject(_ context.Context, ps subject.ProjectSubject) (subject.ProjectSubject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.tables.projectSubjects[ps.ID]
	if !ok {
		return subject.ProjectSubject{}, subject.ErrProjectSubjectNotFound
	}
	orig.Duration = ps.Duration
	repo.db.tables.projectSubjects[ps.ID] = orig
	return repo.joined(orig), nil
}

func (repo *subjectRepository) DeleteProjectSubject(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.projectSubjects[id]; !ok {
		return subject.ErrProjectSubjectNotFound
	}
	repo.db.deleteProjectSubjectLocked(id)
	return nil
}
