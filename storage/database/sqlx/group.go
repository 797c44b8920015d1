package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/group"
)

const groupColumns = `id, name, project_id, created_at, updated_at`

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *sqlx.DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo groupRepository) withMembers(ctx context.Context, exec executor, groups []group.Group) error {
	ids := make([]int, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	members, err := memberIDs(ctx, exec, "group_member", "group_id", ids)
	if err != nil {
		return errors.Wrap(err, "querying group members")
	}
	for i := range groups {
		groups[i].MemberIDs = members[groups[i].ID]
		if groups[i].MemberIDs == nil {
			groups[i].MemberIDs = []int{}
		}
	}
	return nil
}

func (repo groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	exec := getExec(ctx, repo.db)
	const q = `INSERT INTO project_group (name, project_id, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := exec.QueryRowxContext(ctx, q, g.Name, g.ProjectID, g.CreatedAt, g.UpdatedAt).Scan(&g.ID); err != nil {
		return group.Group{}, trapErr(err, group.ErrNotFound, "inserting group")
	}
	if err := addMembers(ctx, exec, "group_member", "group_id", g.ID, g.MemberIDs); err != nil {
		return group.Group{}, trapErr(err, group.ErrNotFound, "inserting group members")
	}
	if g.MemberIDs == nil {
		g.MemberIDs = []int{}
	}
	return g, nil
}

func (repo groupRepository) QueryGroups(ctx context.Context, filter *group.QueryFilter) ([]group.Group, error) {
	q := query{}
	if filter != nil {
		if filter.ProjectID > 0 {
			q.where("project_id = ?", filter.ProjectID)
		}
		if filter.MemberID > 0 {
			q.where("id IN (SELECT group_id FROM group_member WHERE user_id = ?)", filter.MemberID)
		}
	}
	exec := getExec(ctx, repo.db)

	groups := make([]group.Group, 0)
	if err := exec.SelectContext(ctx, &groups, q.build(exec, "SELECT "+groupColumns+" FROM project_group", "id ASC"), q.args...); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	if err := repo.withMembers(ctx, exec, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (repo groupRepository) GetGroup(ctx context.Context, id int) (group.Group, error) {
	exec := getExec(ctx, repo.db)
	var g group.Group
	if err := exec.GetContext(ctx, &g, "SELECT "+groupColumns+" FROM project_group WHERE id = $1", id); err != nil {
		return group.Group{}, trapErr(err, group.ErrNotFound, "finding group")
	}
	groups := []group.Group{g}
	if err := repo.withMembers(ctx, exec, groups); err != nil {
		return group.Group{}, err
	}
	return groups[0], nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	const q = `UPDATE project_group SET name = $2, project_id = $3, updated_at = $4 WHERE id = $1`
	res, err := getExec(ctx, repo.db).ExecContext(ctx, q, g.ID, g.Name, g.ProjectID, g.UpdatedAt)
	if err = checkAffected(res, err); err != nil {
		return group.Group{}, trapErr(err, group.ErrNotFound, "updating group")
	}
	return g, nil
}

func (repo groupRepository) DeleteGroup(ctx context.Context, id int) error {
	res, err := getExec(ctx, repo.db).ExecContext(ctx, "DELETE FROM project_group WHERE id = $1", id)
	return trapErr(checkAffected(res, err), group.ErrNotFound, "deleting group")
}

func (repo groupRepository) AddGroupMembers(ctx context.Context, groupID int, userIDs ...int) error {
	err := addMembers(ctx, getExec(ctx, repo.db), "group_member", "group_id", groupID, userIDs)
	return trapErr(err, group.ErrNotFound, "adding group members")
}

func (repo groupRepository) RemoveGroupMembers(ctx context.Context, groupID int, userIDs ...int) error {
	err := removeMembers(ctx, getExec(ctx, repo.db), "group_member", "group_id", groupID, userIDs)
	return trapErr(err, group.ErrNotFound, "removing group members")
}

func (repo groupRepository) ClearGroupMembers(ctx context.Context, groupID int) error {
	_, err := getExec(ctx, repo.db).ExecContext(ctx, "DELETE FROM group_member WHERE group_id = $1", groupID)
	return trapErr(err, group.ErrNotFound, "clearing group members")
}
