package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username string, excludedIDs ...int) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.db.tables.users {
		if usr.Username == username && !intIn(usr.ID, excludedIDs) {
			return user.ErrUsernameExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, u := range repo.db.tables.users {
		if u.Username == usr.Username {
			return user.User{}, user.ErrUsernameExists
		}
	}
	usr.ID = repo.db.nextPK()
	repo.db.tables.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var courseMembers, groupMembers []int
	if filter != nil && filter.CourseID > 0 {
		courseMembers = repo.db.tables.courses[filter.CourseID].MemberIDs
	}
	if filter != nil && filter.GroupID > 0 {
		groupMembers = repo.db.tables.groups[filter.GroupID].MemberIDs
	}

	users := make([]user.User, 0, len(repo.db.tables.users))
	for _, usr := range repo.db.tables.users {
		if filter != nil {
			if filter.Search != "" && !matchesSearch(filter.Search, usr.Username, usr.FirstName, usr.LastName) {
				continue
			}
			if filter.Roles != nil && !usr.Role.In(filter.Roles...) {
				continue
			}
			if filter.CourseID > 0 && !intIn(usr.ID, courseMembers) {
				continue
			}
			if filter.GroupID > 0 && !intIn(usr.ID, groupMembers) {
				continue
			}
		}
		users = append(users, usr)
	}
	sortUsers(users, ordering)
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != 0 {
		if usr, ok := repo.db.tables.users[filter.ID]; ok {
			return usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Username != "" {
		for _, usr := range repo.db.tables.users {
			if usr.Username == filter.Username {
				return usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.tables.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t := &repo.db.tables
	for _, c := range t.courses {
		if intIn(c.ClassTeacherID, ids) {
			return 0, errReferenced
		}
	}
	for _, g := range t.grades {
		if intIn(g.TeacherID, ids) {
			return 0, errReferenced
		}
	}

	var cnt int
	for _, id := range ids {
		if _, ok := t.users[id]; !ok {
			continue
		}
		delete(t.users, id)
		cnt++
	}
	for cID, c := range t.courses {
		c.MemberIDs = withMembers(c.MemberIDs, nil, ids)
		t.courses[cID] = c
	}
	for gID, g := range t.groups {
		g.MemberIDs = withMembers(g.MemberIDs, nil, ids)
		t.groups[gID] = g
	}
	for gID, g := range t.grades {
		if intIn(g.StudentID, ids) {
			delete(t.grades, gID)
		}
	}
	for aID, a := range t.answers {
		if intIn(a.AuthorID, ids) || intIn(a.RecipientID, ids) {
			delete(t.answers, aID)
		}
	}
	return cnt, nil
}

func matchesSearch(search string, vals ...string) bool {
	search = strings.ToLower(search)
	for _, v := range vals {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}

func sortUsers(users []user.User, ordering []core.DBOrdering) {
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			cmp := compareUsers(users[i], users[j], ord.Field)
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return users[i].ID < users[j].ID
	})
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "id":
		return compareInts(a.ID, b.ID)
	case "username":
		return strings.Compare(a.Username, b.Username)
	case "first_name":
		return strings.Compare(a.FirstName, b.FirstName)
	case "last_name":
		return strings.Compare(a.LastName, b.LastName)
	case "role":
		return strings.Compare(string(a.Role), string(b.Role))
	case "created_at":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
