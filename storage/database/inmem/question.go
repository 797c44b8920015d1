package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/question"
)

type questionRepository struct {
	db *DB
}

var _ question.Repository = (*questionRepository)(nil)

func NewQuestionRepository(db *DB) question.Repository {
	return &questionRepository{db: db}
}

func (repo *questionRepository) checkSubjects(ids []int) error {
	for _, id := range ids {
		if _, ok := repo.db.tables.subjects[id]; !ok {
			return errReferenced
		}
	}
	return nil
}

func (repo *questionRepository) CreateQuestion(_ context.Context, q question.Question) (question.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkSubjects(q.SubjectIDs); err != nil {
		return question.Question{}, err
	}
	q.ID = repo.db.nextPK()
	q.SubjectIDs = withMembers(nil, q.SubjectIDs, nil)
	repo.db.tables.questions[q.ID] = q
	return q, nil
}

func (repo *questionRepository) QueryQuestions(_ context.Context, filter *question.QueryFilter) ([]question.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var projQuestionIDs []int
	if filter != nil && filter.ProjectID > 0 {
		for _, pq := range repo.db.tables.projectQuestions {
			if pq.ProjectID == filter.ProjectID {
				projQuestionIDs = append(projQuestionIDs, pq.QuestionID)
			}
		}
	}

	questions := make([]question.Question, 0)
	for _, q := range repo.db.tables.questions {
		if filter != nil {
			if filter.SubjectID > 0 && !intIn(filter.SubjectID, q.SubjectIDs) {
				continue
			}
			if filter.ProjectID > 0 && !intIn(q.ID, projQuestionIDs) {
				continue
			}
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (repo *questionRepository) GetQuestion(_ context.Context, id int) (question.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.tables.questions[id]; ok {
		return q, nil
	}
	return question.Question{}, question.ErrNotFound
}

func (repo *questionRepository) UpdateQuestion(_ context.Context, q question.Question) (question.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.questions[q.ID]; !ok {
		return question.Question{}, question.ErrNotFound
	}
	if err := repo.checkSubjects(q.SubjectIDs); err != nil {
		return question.Question{}, err
	}
	q.SubjectIDs = withMembers(nil, q.SubjectIDs, nil)
	repo.db.tables.questions[q.ID] = q
	return q, nil
}

func (repo *questionRepository) DeleteQuestion(_ context.Context, id int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.tables.questions[id]; !ok {
		return question.ErrNotFound
	}
	delete(repo.db.tables.questions, id)
	for pqID, pq := range repo.db.tables.projectQuestions {
		if pq.QuestionID == id {
			repo.db.deleteProjectQuestionLocked(pqID)
		}
	}
	return nil
}

func (repo *questionRepository) QueryProjectQuestions(_ context.Context, projectID int) ([]question.ProjectQuestion, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pqs := make([]question.ProjectQuestion, 0)
	for _, pq := range repo.db.tables.projectQuestions {
		if pq.ProjectID == projectID {
			pqs = append(pqs, pq)
		}
	}
	sort.Slice(pqs, func(i, j int) bool { return pqs[i].ID < pqs[j].ID })
	return pqs, nil
}

func (repo *questionRepository) SetProjectQuestions(_ context.Context, projectID int, questionIDs ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	t := &repo.db.tables
	if _, ok := t.projects[projectID]; !ok {
		return errReferenced
	}
	configured := make(map[int]bool)
	for pqID, pq := range t.projectQuestions {
		if pq.ProjectID != projectID {
			continue
		}
		if intIn(pq.QuestionID, questionIDs) {
			configured[pq.QuestionID] = true
		} else {
			repo.db.deleteProjectQuestionLocked(pqID)
		}
	}
	for _, qID := range core.UniqueInts(questionIDs) {
		if configured[qID] {
			continue
		}
		if _, ok := t.questions[qID]; !ok {
			return errReferenced
		}
		pq := question.ProjectQuestion{ID: repo.db.nextPK(), ProjectID: projectID, QuestionID: qID}
		t.projectQuestions[pq.ID] = pq
	}
	return nil
}

func (repo *questionRepository) CreateAnswers(_ context.Context, answers []question.Answer) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	t := &repo.db.tables
	for _, a := range answers {
		_, pqOK := t.projectQuestions[a.ProjectQuestionID]
		_, authorOK := t.users[a.AuthorID]
		_, recipientOK := t.users[a.RecipientID]
		if !pqOK || !authorOK || !recipientOK {
			return errReferenced
		}
	}
	for _, a := range answers {
		a.ID = repo.db.nextPK()
		t.answers[a.ID] = a
	}
	return nil
}

func (repo *questionRepository) QueryAnswers(_ context.Context, filter *question.AnswerFilter) ([]question.Answer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	t := &repo.db.tables
	answers := make([]question.Answer, 0)
	for _, a := range t.answers {
		if filter != nil {
			if filter.ProjectID > 0 && t.projectQuestions[a.ProjectQuestionID].ProjectID != filter.ProjectID {
				continue
			}
			if filter.AuthorID > 0 && a.AuthorID != filter.AuthorID {
				continue
			}
			if filter.RecipientID > 0 && a.RecipientID != filter.RecipientID {
				continue
			}
		}
		answers = append(answers, a)
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers, nil
}

func (repo *questionRepository) HasAnswered(_ context.Context, projectID, authorID int) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	t := &repo.db.tables
	for _, a := range t.answers {
		if a.AuthorID == authorID && t.projectQuestions[a.ProjectQuestionID].ProjectID == projectID {
			return true, nil
		}
	}
	return false, nil
}
