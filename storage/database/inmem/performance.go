package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/gradebook/core/performance"
)

type performanceRepository struct {
	db *DB
}

var _ performance.Repository = (*performanceRepository)(nil)

func NewPerformanceRepository(db *DB) performance.Repository {
	return &performanceRepository{db: db}
}

func (repo *performanceRepository) CreatePerformance(_ context.Context, p performance.Performance) (performance.Performance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.projectSubjects[p.ProjectSubjectID]; !ok {
		return performance.Performance{}, errReferenced
	}
	p.ID = repo.db.nextPK()
	repo.db.tables.performances[p.ID] = p
	return p, nil
}

func (repo *performanceRepository) QueryPerformances(_ context.Context, filter *performance.QueryFilter) ([]performance.Performance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	perfs := make([]performance.Performance, 0)
	for _, p := range repo.db.tables.performances {
		if filter != nil {
			if filter.ProjectSubjectID > 0 && p.ProjectSubjectID != filter.ProjectSubjectID {
				continue
			}
			if filter.ProjectID > 0 && repo.db.tables.projectSubjects[p.ProjectSubjectID].ProjectID != filter.ProjectID {
				continue
			}
		}
		perfs = append(perfs, p)
	}
	sort.Slice(perfs, func(i, j int) bool {
		if perfs[i].ProjectSubjectID != perfs[j].ProjectSubjectID {
			return perfs[i].ProjectSubjectID < perfs[j].ProjectSubjectID
		}
		return perfs[i].ID < perfs[j].ID
	})
	return perfs, nil
}

func (repo *performanceRepository) GetPerformance(_ context.Context, id int) (performance.Performance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.tables.performances[id]; ok {
		return p, nil
	}
	return performance.Performance{}, performance.ErrNotFound
}

func (repo *performanceRepository) UpdatePerformance(_ context.Context, p performance.Performance) (performance.Performance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.performances[p.ID]; !ok {
		return performance.Performance{}, performance.ErrNotFound
	}
	repo.db.tables.performances[p.ID] = p
	return p, nil
}

func (repo *performanceRepository) DeletePerformance(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.performances[id]; !ok {
		return performance.ErrNotFound
	}
	repo.db.deletePerformanceLocked(id)
	return nil
}
