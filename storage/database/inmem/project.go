package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/gradebook/core/project"
)

type projectRepository struct {
	db *DB
}

var _ project.Repository = (*projectRepository)(nil)

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db}
}

func (repo *projectRepository) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.courses[p.CourseID]; !ok {
		return project.Project{}, errReferenced
	}
	p.ID = repo.db.nextPK()
	repo.db.tables.projects[p.ID] = p
	return p, nil
}

func (repo *projectRepository) QueryProjects(_ context.Context, filter *project.QueryFilter) ([]project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	projects := make([]project.Project, 0, len(repo.db.tables.projects))
	for _, p := range repo.db.tables.projects {
		if filter != nil {
			if filter.CourseID > 0 && p.CourseID != filter.CourseID {
				continue
			}
			if filter.MemberID > 0 && !intIn(filter.MemberID, repo.db.tables.courses[p.CourseID].MemberIDs) {
				continue
			}
		}
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		pi, pj := projects[i], projects[j]
		if !pi.ProjectStart.Equal(pj.ProjectStart.Time) {
			return pi.ProjectStart.After(pj.ProjectStart.Time)
		}
		if pi.Name != pj.Name {
			return pi.Name < pj.Name
		}
		return pi.ID < pj.ID
	})
	return projects, nil
}

func (repo *projectRepository) GetProject(_ context.Context, id int) (project.Project, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.tables.projects[id]; ok {
		return p, nil
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) UpdateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.projects[p.ID]; !ok {
		return project.Project{}, project.ErrNotFound
	}
	repo.db.tables.projects[p.ID] = p
	return p, nil
}

func (repo *projectRepository) DeleteProject(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.projects[id]; !ok {
		return project.ErrNotFound
	}
	repo.db.deleteProjectLocked(id)
	return nil
}
