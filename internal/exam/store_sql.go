package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	syncx "github.com/mind-engage/memorizer/internal/sync"
)

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore works on both sqlite (modernc) and postgres (pgx); every query
// uses $n placeholders, which both drivers accept.
type SQLStore struct {
	*sqlRepo
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{sqlRepo: &sqlRepo{q: db}, db: db}
}

func (s *SQLStore) InTx(ctx context.Context, fn func(Repo) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(&sqlRepo{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type sqlRepo struct{ q queryer }

/* ---------------- courses & exams ---------------- */

func (r *sqlRepo) FindCourseByCode(ctx context.Context, code string) (Course, error) {
	var c Course
	err := r.q.QueryRowContext(ctx, `SELECT id, code, name FROM courses WHERE code=$1`, code).
		Scan(&c.ID, &c.Code, &c.Name)
	if err != nil {
		return Course{}, notFound(err, "course")
	}
	return c, nil
}

func (r *sqlRepo) CreateCourse(ctx context.Context, c *Course) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO courses (code, name) VALUES ($1, $2)
		 ON CONFLICT (code) DO NOTHING RETURNING id`, c.Code, c.Name).Scan(&c.ID)
	return conflict(err, "course "+c.Code)
}

func (r *sqlRepo) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, code, name FROM courses ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *sqlRepo) FindExamByNameAndCourse(ctx context.Context, name string, courseID int64) (Exam, error) {
	var e Exam
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, course_id, multiple_correct, hidden FROM exams WHERE name=$1 AND course_id=$2`,
		name, courseID).Scan(&e.ID, &e.Name, &e.CourseID, &e.MultipleCorrect, &e.Hidden)
	if err != nil {
		return Exam{}, notFound(err, "exam")
	}
	return e, nil
}

func (r *sqlRepo) CreateExam(ctx context.Context, e *Exam) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO exams (name, course_id, multiple_correct, hidden) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (course_id, name) DO NOTHING RETURNING id`,
		e.Name, e.CourseID, e.MultipleCorrect, e.Hidden).Scan(&e.ID)
	return conflict(err, "exam "+e.Name)
}

func (r *sqlRepo) ListExams(ctx context.Context, courseID int64) ([]Exam, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, name, course_id, multiple_correct, hidden FROM exams WHERE course_id=$1 ORDER BY name`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.Name, &e.CourseID, &e.MultipleCorrect, &e.Hidden); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *sqlRepo) SetExamHidden(ctx context.Context, examID int64, hidden bool) error {
	res, err := r.q.ExecContext(ctx, `UPDATE exams SET hidden=$1 WHERE id=$2`, hidden, examID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("exam %d: %w", examID, ErrNotFound)
	}
	return nil
}

/* ---------------- questions ---------------- */

func (r *sqlRepo) CreateQuestion(ctx context.Context, q *Question) error {
	var correct sql.NullBool
	if q.Correct != nil {
		correct = sql.NullBool{Bool: *q.Correct, Valid: true}
	}
	return r.q.QueryRowContext(ctx,
		`INSERT INTO questions (exam_id, type, text, image, reason, correct)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		q.ExamID, string(q.Type), q.Text, q.Image, q.Reason, correct).Scan(&q.ID)
}

func (r *sqlRepo) CreateAlternatives(ctx context.Context, alts []Alternative) error {
	for i := range alts {
		a := &alts[i]
		if err := r.q.QueryRowContext(ctx,
			`INSERT INTO alternatives (question_id, text, correct) VALUES ($1, $2, $3) RETURNING id`,
			a.QuestionID, a.Text, a.Correct).Scan(&a.ID); err != nil {
			return err
		}
	}
	return nil
}

const questionCols = `q.id, q.exam_id, q.type, q.text, q.image, q.reason, q.correct`

func scanQuestion(sc interface{ Scan(...any) error }) (Question, error) {
	var q Question
	var typ string
	var correct sql.NullBool
	if err := sc.Scan(&q.ID, &q.ExamID, &typ, &q.Text, &q.Image, &q.Reason, &correct); err != nil {
		return Question{}, err
	}
	q.Type = QuestionType(typ)
	if correct.Valid {
		v := correct.Bool
		q.Correct = &v
	}
	return q, nil
}

func (r *sqlRepo) GetQuestion(ctx context.Context, id int64) (Question, error) {
	q, err := scanQuestion(r.q.QueryRowContext(ctx,
		`SELECT `+questionCols+` FROM questions q WHERE q.id=$1`, id))
	if err != nil {
		return Question{}, notFound(err, "question")
	}
	qs := []Question{q}
	if err := r.loadAlternatives(ctx, qs); err != nil {
		return Question{}, err
	}
	return qs[0], nil
}

func questionWhere(opts QuestionListOpts) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if opts.ExamID != 0 {
		args = append(args, opts.ExamID)
		conds = append(conds, fmt.Sprintf("q.exam_id=$%d", len(args)))
	} else if opts.CourseID != 0 {
		args = append(args, opts.CourseID)
		conds = append(conds, fmt.Sprintf("e.course_id=$%d", len(args)))
	}
	if !opts.IncludeHidden {
		conds = append(conds, "e.hidden=FALSE")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	return where, args
}

func (r *sqlRepo) ListQuestions(ctx context.Context, opts QuestionListOpts) ([]Question, error) {
	where, args := questionWhere(opts)
	query := `SELECT ` + questionCols + ` FROM questions q JOIN exams e ON e.id=q.exam_id` + where + ` ORDER BY q.id`
	if opts.Limit > 0 || opts.Offset > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = math.MaxInt32 // sqlite wants a LIMIT before OFFSET
		}
		args = append(args, limit, opts.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if err := r.loadAlternatives(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sqlRepo) CountQuestions(ctx context.Context, opts QuestionListOpts) (int, error) {
	where, args := questionWhere(opts)
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions q JOIN exams e ON e.id=q.exam_id`+where, args...).Scan(&n)
	return n, err
}

// loadAlternatives fills Alternatives of the multiple-choice questions in qs.
func (r *sqlRepo) loadAlternatives(ctx context.Context, qs []Question) error {
	idx := map[int64]int{}
	var args []any
	for i, q := range qs {
		if q.Multiple() {
			idx[q.ID] = i
			args = append(args, q.ID)
		}
	}
	if len(args) == 0 {
		return nil
	}
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, question_id, text, correct FROM alternatives
		 WHERE question_id IN (`+placeholders(1, len(args))+`) ORDER BY id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a Alternative
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Correct); err != nil {
			return err
		}
		i := idx[a.QuestionID]
		qs[i].Alternatives = append(qs[i].Alternatives, a)
	}
	return rows.Err()
}

/* ---------------- stats ---------------- */

func (r *sqlRepo) CreateStats(ctx context.Context, s *Stats) error {
	return r.q.QueryRowContext(ctx,
		`INSERT INTO stats (user_id, question_id, correct, reset) VALUES ($1, $2, $3, $4) RETURNING id`,
		s.UserID, s.QuestionID, s.Correct, s.Reset).Scan(&s.ID)
}

func (r *sqlRepo) QueryStats(ctx context.Context, f StatsFilter) ([]Stats, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != "" {
		add("s.user_id=$%d", f.UserID)
	}
	if f.QuestionID != 0 {
		add("s.question_id=$%d", f.QuestionID)
	}
	if f.CourseCode != "" {
		add("c.code=$%d", f.CourseCode)
	}
	if f.ExamName != "" {
		add("e.name=$%d", f.ExamName)
	}
	if !f.IncludeReset {
		conds = append(conds, "s.reset=FALSE")
	}
	query := `SELECT s.id, s.user_id, s.question_id, s.correct, s.reset
		FROM stats s
		JOIN questions q ON q.id=s.question_id
		JOIN exams e ON e.id=q.exam_id
		JOIN courses c ON c.id=e.course_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY s.id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Stats{}
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.ID, &s.UserID, &s.QuestionID, &s.Correct, &s.Reset); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sqlRepo) ResetStats(ctx context.Context, userID, courseCode string) (int64, error) {
	query := `UPDATE stats SET reset=TRUE WHERE user_id=$1 AND reset=FALSE`
	args := []any{userID}
	if courseCode != "" {
		query += ` AND question_id IN (
			SELECT q.id FROM questions q
			JOIN exams e ON e.id=q.exam_id
			JOIN courses c ON c.id=e.course_id
			WHERE c.code=$2)`
		args = append(args, courseCode)
	}
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

/* ---------------- users ---------------- */

func (r *sqlRepo) CreateUser(ctx context.Context, u *User) error {
	var id string
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO users (id, username, name, password_hash, registered, admin)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (username) DO NOTHING RETURNING id`,
		u.ID, u.Username, u.Name, u.PasswordHash, u.Registered, u.Admin).Scan(&id)
	return conflict(err, "user "+u.Username)
}

const userCols = `id, username, name, password_hash, registered, admin`

func (r *sqlRepo) FindUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := r.q.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE username=$1`, username).
		Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.Registered, &u.Admin)
	if err != nil {
		return User{}, notFound(err, "user")
	}
	return u, nil
}

func (r *sqlRepo) FindUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := r.q.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Username, &u.Name, &u.PasswordHash, &u.Registered, &u.Admin)
	if err != nil {
		return User{}, notFound(err, "user")
	}
	return u, nil
}

func (r *sqlRepo) UpdatePassword(ctx context.Context, userID, hash string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

/* ---------------- events ---------------- */

func (r *sqlRepo) AppendEvent(ctx context.Context, e syncx.Event) error {
	return syncx.NewEventRepo(r.q).Append(ctx, e)
}

func (r *sqlRepo) ListEvents(ctx context.Context, after int64, limit int) ([]syncx.Event, error) {
	return syncx.NewEventRepo(r.q).Since(ctx, after, limit)
}

/* ---------------- helpers ---------------- */

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// conflict maps an empty ON CONFLICT DO NOTHING result (or a unique
// violation raised some other way) to ErrConflict.
func conflict(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") // sqlite
}

func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ",")
}
