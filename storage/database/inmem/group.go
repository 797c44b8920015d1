package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/gradebook/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(_ context.Context, g group.Group) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.projects[g.ProjectID]; !ok {
		return group.Group{}, errReferenced
	}
	g.ID = repo.db.nextPK()
	g.MemberIDs = withMembers(nil, g.MemberIDs, nil)
	repo.db.tables.groups[g.ID] = g
	return g, nil
}

func (repo *groupRepository) QueryGroups(_ context.Context, filter *group.QueryFilter) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	groups := make([]group.Group, 0, len(repo.db.tables.groups))
	for _, g := range repo.db.tables.groups {
		if filter != nil {
			if filter.ProjectID > 0 && g.ProjectID != filter.ProjectID {
				continue
			}
			if filter.MemberID > 0 && !g.HasMember(filter.MemberID) {
				continue
			}
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (repo *groupRepository) GetGroup(_ context.Context, id int) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if g, ok := repo.db.tables.groups[id]; ok {
		return g, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) UpdateGroup(_ context.Context, g group.Group) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.tables.groups[g.ID]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}
	g.MemberIDs = orig.MemberIDs
	repo.db.tables.groups[g.ID] = g
	return g, nil
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.groups[id]; !ok {
		return group.ErrNotFound
	}
	delete(repo.db.tables.groups, id)
	return nil
}

func (repo *groupRepository) AddGroupMembers(_ context.Context, groupID int, userIDs ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	g, ok := repo.db.tables.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	for _, id := range userIDs {
		if _, ok := repo.db.tables.users[id]; !ok {
			return errReferenced
		}
	}
	g.MemberIDs = withMembers(g.MemberIDs, userIDs, nil)
	repo.db.tables.groups[groupID] = g
	return nil
}

func (repo *groupRepository) RemoveGroupMembers(_ context.Context, groupID int, userIDs ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	g, ok := repo.db.tables.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	g.MemberIDs = withMembers(g.MemberIDs, nil, userIDs)
	repo.db.tables.groups[groupID] = g
	return nil
}

func (repo *groupRepository) ClearGroupMembers(_ context.Context, groupID int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	g, ok := repo.db.tables.groups[groupID]
	if !ok {
		return group.ErrNotFound
	}
	g.MemberIDs = []int{}
	repo.db.tables.groups[groupID] = g
	return nil
}
