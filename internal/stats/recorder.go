package stats

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/mind-engage/memorizer/internal/exam"
	syncx "github.com/mind-engage/memorizer/internal/sync"
)

// Recorder logs answer outcomes and reads them back. It never updates or
// deletes rows; resets are an admin operation on the store.
type Recorder struct {
	store exam.Store
	log   *log.Logger
}

func New(store exam.Store, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{store: store, log: logger}
}

// RecordAttempt stores one attempt together with its AttemptRecorded event.
func (r *Recorder) RecordAttempt(ctx context.Context, userID string, questionID int64, correct bool) (exam.Stats, error) {
	st := exam.Stats{UserID: userID, QuestionID: questionID, Correct: correct}
	err := r.store.InTx(ctx, func(repo exam.Repo) error {
		if err := repo.CreateStats(ctx, &st); err != nil {
			return fmt.Errorf("create stats: %w", err)
		}
		ev, err := syncx.NewEvent(syncx.EventAttemptRecorded, userID+"/"+strconv.FormatInt(questionID, 10), map[string]any{
			"stats_id":    st.ID,
			"question_id": questionID,
			"correct":     correct,
		})
		if err != nil {
			return err
		}
		return repo.AppendEvent(ctx, ev)
	})
	if err != nil {
		r.log.Printf("record attempt user=%s question=%d: %v", userID, questionID, err)
		return exam.Stats{}, err
	}
	return st, nil
}

// ForCourse returns the user's non-reset attempts on questions of the course.
func (r *Recorder) ForCourse(ctx context.Context, userID, courseCode string) ([]exam.Stats, error) {
	return r.store.QueryStats(ctx, exam.StatsFilter{UserID: userID, CourseCode: courseCode})
}

// ForExam narrows ForCourse to a single exam.
func (r *Recorder) ForExam(ctx context.Context, userID, courseCode, examName string) ([]exam.Stats, error) {
	return r.store.QueryStats(ctx, exam.StatsFilter{UserID: userID, CourseCode: courseCode, ExamName: examName})
}

// HasAnswered reports whether at least one non-reset attempt exists.
func (r *Recorder) HasAnswered(ctx context.Context, userID string, questionID int64) (bool, error) {
	rows, err := r.store.QueryStats(ctx, exam.StatsFilter{UserID: userID, QuestionID: questionID})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

type Summary struct {
	Attempts  int `json:"attempts"`
	Correct   int `json:"correct"`
	Questions int `json:"questions"` // distinct questions attempted
}

func Summarize(rows []exam.Stats) Summary {
	var s Summary
	seen := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		s.Attempts++
		if row.Correct {
			s.Correct++
		}
		seen[row.QuestionID] = struct{}{}
	}
	s.Questions = len(seen)
	return s
}
