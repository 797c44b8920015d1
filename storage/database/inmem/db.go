package inmemdb

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/course"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/group"
	"github.com/trezcool/gradebook/core/performance"
	"github.com/trezcool/gradebook/core/project"
	"github.com/trezcool/gradebook/core/question"
	"github.com/trezcool/gradebook/core/subject"
	"github.com/trezcool/gradebook/core/user"
)

var errReferenced = core.NewValidationError(errors.New("this resource is referenced by or references another resource"))

type (
	// DB is an in-memory store used by tests & local development.
	// Slices held by stored values are never mutated in place, so a shallow copy of the tables is a snapshot.
	DB struct {
		sync.RWMutex
		txMu   sync.Mutex
		tables tables
	}

	tables struct {
		pk               int
		users            map[int]user.User
		courses          map[int]course.Course
		projects         map[int]project.Project
		groups           map[int]group.Group
		subjects         map[int]subject.Subject
		projectSubjects  map[int]subject.ProjectSubject
		performances     map[int]performance.Performance
		grades           map[int]grade.Grade
		questions        map[int]question.Question
		projectQuestions map[int]question.ProjectQuestion
		answers          map[int]question.Answer
	}
)

func Open() *DB {
	return &DB{tables: tables{
		users:            make(map[int]user.User),
		courses:          make(map[int]course.Course),
		projects:         make(map[int]project.Project),
		groups:           make(map[int]group.Group),
		subjects:         make(map[int]subject.Subject),
		projectSubjects:  make(map[int]subject.ProjectSubject),
		performances:     make(map[int]performance.Performance),
		grades:           make(map[int]grade.Grade),
		questions:        make(map[int]question.Question),
		projectQuestions: make(map[int]question.ProjectQuestion),
		answers:          make(map[int]question.Answer),
	}}
}

func (db *DB) nextPK() int {
	db.tables.pk++
	return db.tables.pk
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func (db *DB) snapshot() tables {
	db.RLock()
	defer db.RUnlock()
	t := db.tables
	return tables{
		pk:               t.pk,
		users:            copyMap(t.users),
		courses:          copyMap(t.courses),
		projects:         copyMap(t.projects),
		groups:           copyMap(t.groups),
		subjects:         copyMap(t.subjects),
		projectSubjects:  copyMap(t.projectSubjects),
		performances:     copyMap(t.performances),
		grades:           copyMap(t.grades),
		questions:        copyMap(t.questions),
		projectQuestions: copyMap(t.projectQuestions),
		answers:          copyMap(t.answers),
	}
}

func (db *DB) restore(t tables) {
	db.Lock()
	defer db.Unlock()
	db.tables = t
}

type txKey struct{}

type transactor struct {
	db *DB
}

var _ core.Transactor = (*transactor)(nil)

func NewTransactor(db *DB) core.Transactor {
	return &transactor{db: db}
}

// WithinTx serializes transactions and restores the tables as they were if fn fails.
func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

// deletion cascades; callers hold the write lock

func (db *DB) deleteProjectLocked(id int) {
	delete(db.tables.projects, id)
	for gID, g := range db.tables.groups {
		if g.ProjectID == id {
			delete(db.tables.groups, gID)
		}
	}
	for psID, ps := range db.tables.projectSubjects {
		if ps.ProjectID == id {
			db.deleteProjectSubjectLocked(psID)
		}
	}
	for pqID, pq := range db.tables.projectQuestions {
		if pq.ProjectID == id {
			db.deleteProjectQuestionLocked(pqID)
		}
	}
}

func (db *DB) deleteProjectSubjectLocked(id int) {
	delete(db.tables.projectSubjects, id)
	for pID, p := range db.tables.performances {
		if p.ProjectSubjectID == id {
			db.deletePerformanceLocked(pID)
		}
	}
}

func (db *DB) deletePerformanceLocked(id int) {
	delete(db.tables.performances, id)
	for gID, g := range db.tables.grades {
		if g.PerformanceID == id {
			delete(db.tables.grades, gID)
		}
	}
}

func (db *DB) deleteProjectQuestionLocked(id int) {
	delete(db.tables.projectQuestions, id)
	for aID, a := range db.tables.answers {
		if a.ProjectQuestionID == id {
			delete(db.tables.answers, aID)
		}
	}
}

// withMembers returns a sorted copy of `ids` holding `add` & not `remove`.
func withMembers(ids []int, add []int, remove []int) []int {
	set := make([]int, 0, len(ids)+len(add))
	set = append(set, ids...)
	set = append(set, add...)
	set = core.UniqueInts(set)
	if len(remove) == 0 {
		return set
	}
	out := make([]int, 0, len(set))
	for _, id := range set {
		if !intIn(id, remove) {
			out = append(out, id)
		}
	}
	return out
}

func intIn(id int, ids []int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
