package exam

import (
	"context"
	"errors"

	syncx "github.com/mind-engage/memorizer/internal/sync"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports that a unique key (course code, exam name within a
	// course, username) is already taken, usually by a concurrent writer.
	ErrConflict = errors.New("conflict")
)

type StatsFilter struct {
	UserID       string
	CourseCode   string // filter by course
	ExamName     string // narrows CourseCode to one exam
	QuestionID   int64
	IncludeReset bool
}

type QuestionListOpts struct {
	ExamID        int64
	CourseID      int64 // all exams of the course when ExamID is zero
	IncludeHidden bool
	Limit         int
	Offset        int
}

// Repo is the set of persistence operations the importer, the stats recorder
// and the read side need. Implementations return ErrNotFound for missing rows
// and ErrConflict for unique key violations.
type Repo interface {
	FindCourseByCode(ctx context.Context, code string) (Course, error)
	CreateCourse(ctx context.Context, c *Course) error
	ListCourses(ctx context.Context) ([]Course, error)

	FindExamByNameAndCourse(ctx context.Context, name string, courseID int64) (Exam, error)
	CreateExam(ctx context.Context, e *Exam) error
	ListExams(ctx context.Context, courseID int64) ([]Exam, error)
	SetExamHidden(ctx context.Context, examID int64, hidden bool) error

	CreateQuestion(ctx context.Context, q *Question) error
	// CreateAlternatives inserts a batch and fills in the assigned ids.
	CreateAlternatives(ctx context.Context, alts []Alternative) error
	GetQuestion(ctx context.Context, id int64) (Question, error)
	ListQuestions(ctx context.Context, opts QuestionListOpts) ([]Question, error)
	CountQuestions(ctx context.Context, opts QuestionListOpts) (int, error)

	CreateStats(ctx context.Context, s *Stats) error
	QueryStats(ctx context.Context, f StatsFilter) ([]Stats, error)
	ResetStats(ctx context.Context, userID, courseCode string) (int64, error)

	CreateUser(ctx context.Context, u *User) error
	FindUserByUsername(ctx context.Context, username string) (User, error)
	FindUserByID(ctx context.Context, id string) (User, error)
	UpdatePassword(ctx context.Context, userID, hash string) error

	AppendEvent(ctx context.Context, e syncx.Event) error
	// ListEvents returns events with seq greater than after, oldest first.
	ListEvents(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

// Store is a Repo that can also run a function atomically. Writes made
// through the Repo handed to fn are committed only when fn returns nil.
type Store interface {
	Repo
	InTx(ctx context.Context, fn func(Repo) error) error
}
