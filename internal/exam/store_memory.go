package exam

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	syncx "github.com/mind-engage/memorizer/internal/sync"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// offline demo mode; InTx snapshots the state and swaps it in on success.
type MemoryStore struct {
	*memRepo
	mu sync.Mutex
}

func NewInMemoryStore() *MemoryStore {
	m := &MemoryStore{}
	m.memRepo = &memRepo{mu: &m.mu, st: &memState{}}
	return m
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(Repo) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.st.clone()
	if err := fn(&memRepo{st: work}); err != nil {
		return err
	}
	*m.st = *work
	return nil
}

// Events returns a copy of the appended event log.
func (m *MemoryStore) Events() []syncx.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.st.events)
}

type memState struct {
	seq          int64
	courses      []Course
	exams        []Exam
	questions    []Question // stored without Alternatives
	alternatives []Alternative
	stats        []Stats
	users        []User
	events       []syncx.Event
}

func (s *memState) clone() *memState {
	return &memState{
		seq:          s.seq,
		courses:      slices.Clone(s.courses),
		exams:        slices.Clone(s.exams),
		questions:    slices.Clone(s.questions),
		alternatives: slices.Clone(s.alternatives),
		stats:        slices.Clone(s.stats),
		users:        slices.Clone(s.users),
		events:       slices.Clone(s.events),
	}
}

func (s *memState) nextID() int64 {
	s.seq++
	return s.seq
}

// memRepo locks mu around every call; inside InTx mu is nil because the
// store lock is already held.
type memRepo struct {
	mu *sync.Mutex
	st *memState
}

func (r *memRepo) lock() func() {
	if r.mu == nil {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *memRepo) FindCourseByCode(ctx context.Context, code string) (Course, error) {
	defer r.lock()()
	for _, c := range r.st.courses {
		if c.Code == code {
			return c, nil
		}
	}
	return Course{}, fmt.Errorf("course: %w", ErrNotFound)
}

func (r *memRepo) CreateCourse(ctx context.Context, c *Course) error {
	defer r.lock()()
	for _, x := range r.st.courses {
		if x.Code == c.Code {
			return fmt.Errorf("course %s: %w", c.Code, ErrConflict)
		}
	}
	c.ID = r.st.nextID()
	r.st.courses = append(r.st.courses, *c)
	return nil
}

func (r *memRepo) ListCourses(ctx context.Context) ([]Course, error) {
	defer r.lock()()
	out := slices.Clone(r.st.courses)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	if out == nil {
		out = []Course{}
	}
	return out, nil
}

func (r *memRepo) FindExamByNameAndCourse(ctx context.Context, name string, courseID int64) (Exam, error) {
	defer r.lock()()
	for _, e := range r.st.exams {
		if e.Name == name && e.CourseID == courseID {
			return e, nil
		}
	}
	return Exam{}, fmt.Errorf("exam: %w", ErrNotFound)
}

func (r *memRepo) CreateExam(ctx context.Context, e *Exam) error {
	defer r.lock()()
	for _, x := range r.st.exams {
		if x.Name == e.Name && x.CourseID == e.CourseID {
			return fmt.Errorf("exam %s: %w", e.Name, ErrConflict)
		}
	}
	e.ID = r.st.nextID()
	r.st.exams = append(r.st.exams, *e)
	return nil
}

func (r *memRepo) ListExams(ctx context.Context, courseID int64) ([]Exam, error) {
	defer r.lock()()
	out := []Exam{}
	for _, e := range r.st.exams {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memRepo) CreateQuestion(ctx context.Context, q *Question) error {
	defer r.lock()()
	if r.exam(q.ExamID) == nil {
		return fmt.Errorf("exam %d: %w", q.ExamID, ErrNotFound)
	}
	q.ID = r.st.nextID()
	stored := *q
	stored.Alternatives = nil
	if q.Correct != nil {
		v := *q.Correct
		stored.Correct = &v
	}
	r.st.questions = append(r.st.questions, stored)
	return nil
}

func (r *memRepo) CreateAlternatives(ctx context.Context, alts []Alternative) error {
	defer r.lock()()
	for i := range alts {
		if r.question(alts[i].QuestionID) == nil {
			return fmt.Errorf("question %d: %w", alts[i].QuestionID, ErrNotFound)
		}
		alts[i].ID = r.st.nextID()
		r.st.alternatives = append(r.st.alternatives, alts[i])
	}
	return nil
}

func (r *memRepo) GetQuestion(ctx context.Context, id int64) (Question, error) {
	defer r.lock()()
	q := r.question(id)
	if q == nil {
		return Question{}, fmt.Errorf("question: %w", ErrNotFound)
	}
	return r.withAlternatives(*q), nil
}

func (r *memRepo) matching(opts QuestionListOpts) []Question {
	var out []Question
	for _, q := range r.st.questions {
		e := r.exam(q.ExamID)
		if e == nil {
			continue
		}
		if opts.ExamID != 0 && q.ExamID != opts.ExamID {
			continue
		}
		if opts.ExamID == 0 && opts.CourseID != 0 && e.CourseID != opts.CourseID {
			continue
		}
		if !opts.IncludeHidden && e.Hidden {
			continue
		}
		out = append(out, q)
	}
	return out
}

func (r *memRepo) ListQuestions(ctx context.Context, opts QuestionListOpts) ([]Question, error) {
	defer r.lock()()
	all := r.matching(opts)
	if opts.Offset > 0 {
		if opts.Offset >= len(all) {
			all = nil
		} else {
			all = all[opts.Offset:]
		}
	}
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	out := make([]Question, 0, len(all))
	for _, q := range all {
		out = append(out, r.withAlternatives(q))
	}
	return out, nil
}

func (r *memRepo) CountQuestions(ctx context.Context, opts QuestionListOpts) (int, error) {
	defer r.lock()()
	return len(r.matching(opts)), nil
}

func (r *memRepo) CreateStats(ctx context.Context, s *Stats) error {
	defer r.lock()()
	if r.question(s.QuestionID) == nil {
		return fmt.Errorf("question %d: %w", s.QuestionID, ErrNotFound)
	}
	s.ID = r.st.nextID()
	r.st.stats = append(r.st.stats, *s)
	return nil
}

func (r *memRepo) QueryStats(ctx context.Context, f StatsFilter) ([]Stats, error) {
	defer r.lock()()
	out := []Stats{}
	for _, s := range r.st.stats {
		if !r.statsMatch(s, f) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memRepo) statsMatch(s Stats, f StatsFilter) bool {
	if s.Reset && !f.IncludeReset {
		return false
	}
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if f.QuestionID != 0 && s.QuestionID != f.QuestionID {
		return false
	}
	if f.CourseCode == "" && f.ExamName == "" {
		return true
	}
	q := r.question(s.QuestionID)
	if q == nil {
		return false
	}
	e := r.exam(q.ExamID)
	if e == nil {
		return false
	}
	if f.ExamName != "" && e.Name != f.ExamName {
		return false
	}
	if f.CourseCode != "" {
		c := r.course(e.CourseID)
		if c == nil || c.Code != f.CourseCode {
			return false
		}
	}
	return true
}

func (r *memRepo) ResetStats(ctx context.Context, userID, courseCode string) (int64, error) {
	defer r.lock()()
	f := StatsFilter{UserID: userID, CourseCode: courseCode}
	var n int64
	for i, s := range r.st.stats {
		if r.statsMatch(s, f) {
			r.st.stats[i].Reset = true
			n++
		}
	}
	return n, nil
}

func (r *memRepo) CreateUser(ctx context.Context, u *User) error {
	defer r.lock()()
	for _, x := range r.st.users {
		if x.Username == u.Username || x.ID == u.ID {
			return fmt.Errorf("user %s: %w", u.Username, ErrConflict)
		}
	}
	r.st.users = append(r.st.users, *u)
	return nil
}

func (r *memRepo) FindUserByUsername(ctx context.Context, username string) (User, error) {
	defer r.lock()()
	for _, u := range r.st.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user: %w", ErrNotFound)
}

func (r *memRepo) FindUserByID(ctx context.Context, id string) (User, error) {
	defer r.lock()()
	for _, u := range r.st.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user: %w", ErrNotFound)
}

func (r *memRepo) UpdatePassword(ctx context.Context, userID, hash string) error {
	defer r.lock()()
	for i, u := range r.st.users {
		if u.ID == userID {
			r.st.users[i].PasswordHash = hash
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", userID, ErrNotFound)
}

func (r *memRepo) AppendEvent(ctx context.Context, e syncx.Event) error {
	defer r.lock()()
	e.Seq = int64(len(r.st.events) + 1)
	r.st.events = append(r.st.events, e)
	return nil
}

func (r *memRepo) ListEvents(ctx context.Context, after int64, limit int) ([]syncx.Event, error) {
	defer r.lock()()
	if limit <= 0 {
		limit = 100
	}
	var out []syncx.Event
	for _, e := range r.st.events {
		if e.Seq > after && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) SetExamHidden(ctx context.Context, examID int64, hidden bool) error {
	defer r.lock()()
	e := r.exam(examID)
	if e == nil {
		return fmt.Errorf("exam %d: %w", examID, ErrNotFound)
	}
	e.Hidden = hidden
	return nil
}

/* lookups below assume the caller holds the lock */

func (r *memRepo) course(id int64) *Course {
	for i := range r.st.courses {
		if r.st.courses[i].ID == id {
			return &r.st.courses[i]
		}
	}
	return nil
}

func (r *memRepo) exam(id int64) *Exam {
	for i := range r.st.exams {
		if r.st.exams[i].ID == id {
			return &r.st.exams[i]
		}
	}
	return nil
}

func (r *memRepo) question(id int64) *Question {
	for i := range r.st.questions {
		if r.st.questions[i].ID == id {
			return &r.st.questions[i]
		}
	}
	return nil
}

func (r *memRepo) withAlternatives(q Question) Question {
	if !q.Multiple() {
		return q
	}
	for _, a := range r.st.alternatives {
		if a.QuestionID == q.ID {
			q.Alternatives = append(q.Alternatives, a)
		}
	}
	return q
}
