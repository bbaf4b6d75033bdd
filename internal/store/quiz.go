package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/google/uuid"

	"github.com/abhisek/quizdoc/internal/quizdoc"
)

// quizRepo implements QuizRepo with ent's dialect-aware SQL builder.
type quizRepo struct {
	db *sql.DB
	b  *entsql.DialectBuilder
}

// ErrQuizConflict is returned by Create when the content already has a quiz.
var ErrQuizConflict = errors.New("quiz already exists for content")

func (r *quizRepo) Exists(ctx context.Context, courseID, contentID string) (bool, error) {
	return r.exists(ctx, r.db, courseID, contentID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *quizRepo) exists(ctx context.Context, q queryer, courseID, contentID string) (bool, error) {
	query, args := r.b.Select(entsql.Count("*")).
		From(r.b.Table(tableQuizzes)).
		Where(entsql.And(
			entsql.EQ("course_id", courseID),
			entsql.EQ("content_id", contentID),
		)).
		Query()

	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check quiz exists: %w", err)
	}
	return n > 0, nil
}

func (r *quizRepo) Create(ctx context.Context, q *Quiz) (err error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exists, err := r.exists(ctx, tx, q.CourseID, q.ContentID)
	if err != nil {
		return err
	}
	if exists {
		return ErrQuizConflict
	}

	query, args := r.b.Insert(tableQuizzes).
		Columns("id", "course_id", "content_id", "title", "source", "strategy", "question_count", "created_at", "created_by").
		Values(q.ID, q.CourseID, q.ContentID, q.Title, q.Source, q.Strategy, len(q.Questions), q.CreatedAt.UnixMilli(), q.CreatedBy).
		Query()
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return r.insertError(ctx, q, err)
	}

	for i, question := range q.Questions {
		questionID := uuid.NewString()
		query, args = r.b.Insert(tableQuestions).
			Columns("id", "quiz_id", "position", "text", "question_type", "difficulty").
			Values(questionID, q.ID, i, question.Text, string(question.Type), string(question.Difficulty)).
			Query()
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert question %d: %w", i, err)
		}

		for j, a := range question.Answers {
			query, args = r.b.Insert(tableAnswers).
				Columns("id", "question_id", "position", "text", "is_correct", "explanation").
				Values(uuid.NewString(), questionID, j, a.Text, a.IsCorrect, a.Explanation).
				Query()
			if _, err = tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert answer %d of question %d: %w", j, i, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit quiz: %w", err)
	}
	return nil
}

// insertError maps a unique violation on the quiz insert to ErrQuizConflict
// when another writer stored a quiz for the same content after our
// in-transaction check. Postgres at READ COMMITTED lets both writers pass
// that check.
func (r *quizRepo) insertError(ctx context.Context, q *Quiz, err error) error {
	if sqlgraph.IsUniqueConstraintError(err) {
		if exists, xerr := r.exists(ctx, r.db, q.CourseID, q.ContentID); xerr == nil && exists {
			return ErrQuizConflict
		}
	}
	return fmt.Errorf("insert quiz: %w", err)
}

func (r *quizRepo) Get(ctx context.Context, id string) (*Quiz, error) {
	query, args := r.b.Select("id", "course_id", "content_id", "title", "source", "strategy", "created_at", "created_by").
		From(r.b.Table(tableQuizzes)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		q       Quiz
		created int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&q.ID, &q.CourseID, &q.ContentID, &q.Title, &q.Source, &q.Strategy, &created, &q.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	q.CreatedAt = time.UnixMilli(created).UTC()

	questions, err := r.questions(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.Questions = questions
	return &q, nil
}

// questions loads a quiz's questions and answers in stored order.
func (r *quizRepo) questions(ctx context.Context, quizID string) ([]quizdoc.Question, error) {
	query, args := r.b.Select("id", "text", "question_type", "difficulty").
		From(r.b.Table(tableQuestions)).
		Where(entsql.EQ("quiz_id", quizID)).
		OrderBy(entsql.Asc("position")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var (
		out   []quizdoc.Question
		ids   []any
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			id                string
			q                 quizdoc.Question
			qtype, difficulty string
		)
		if err := rows.Scan(&id, &q.Text, &qtype, &difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = quizdoc.QuestionType(qtype)
		q.Difficulty = quizdoc.Difficulty(difficulty)
		index[id] = len(out)
		ids = append(ids, id)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	query, args = r.b.Select("question_id", "text", "is_correct", "explanation").
		From(r.b.Table(tableAnswers)).
		Where(entsql.In("question_id", ids...)).
		OrderBy(entsql.Asc("question_id"), entsql.Asc("position")).
		Query()

	arows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var (
			questionID string
			a          quizdoc.Answer
		)
		if err := arows.Scan(&questionID, &a.Text, &a.IsCorrect, &a.Explanation); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		i := index[questionID]
		out[i].Answers = append(out[i].Answers, a)
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return out, nil
}

func (r *quizRepo) ListByCourse(ctx context.Context, courseID string) ([]QuizSummary, error) {
	query, args := r.b.Select("id", "course_id", "content_id", "title", "source", "question_count", "created_at", "created_by").
		From(r.b.Table(tableQuizzes)).
		Where(entsql.EQ("course_id", courseID)).
		OrderBy(entsql.Desc("created_at"), entsql.Asc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []QuizSummary
	for rows.Next() {
		var (
			s       QuizSummary
			created int64
		)
		if err := rows.Scan(&s.ID, &s.CourseID, &s.ContentID, &s.Title, &s.Source, &s.QuestionCount, &created, &s.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		s.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return out, nil
}

func (r *quizRepo) Delete(ctx context.Context, id string) error {
	query, args := r.b.Delete(tableQuizzes).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
