package importer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mind-engage/memorizer/internal/exam"
	syncx "github.com/mind-engage/memorizer/internal/sync"
)

// PersistenceError wraps a store failure during import. The transaction has
// been rolled back when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

type Importer struct {
	store exam.Store
	log   *log.Logger
}

func New(store exam.Store, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.Default()
	}
	return &Importer{store: store, log: logger}
}

// Import validates raw and writes it in a single transaction. The course and
// exam are reused when they already exist; questions are always appended, so
// importing the same document twice yields two copies of every question.
func (im *Importer) Import(ctx context.Context, raw map[string]any) (exam.Exam, error) {
	doc, err := Parse(raw)
	if err != nil {
		return exam.Exam{}, err
	}
	return im.ImportDocument(ctx, doc)
}

// ImportDocument writes an already parsed document.
func (im *Importer) ImportDocument(ctx context.Context, doc Document) (exam.Exam, error) {
	var out exam.Exam
	err := im.store.InTx(ctx, func(r exam.Repo) error {
		course, err := resolveCourse(ctx, r, doc.Code, doc.Name)
		if err != nil {
			return &PersistenceError{Op: "resolve course " + doc.Code, Err: err}
		}
		ex, err := resolveExam(ctx, r, doc.Exam, course.ID)
		if err != nil {
			return &PersistenceError{Op: "resolve exam " + doc.Exam, Err: err}
		}
		for i, qd := range doc.Questions {
			if err := importQuestion(ctx, r, ex.ID, qd); err != nil {
				return &PersistenceError{Op: fmt.Sprintf("question %d", i+1), Err: err}
			}
		}
		ev, err := syncx.NewEvent(syncx.EventExamImported, course.Code+"/"+ex.Name, map[string]any{
			"course_id": course.ID,
			"exam_id":   ex.ID,
			"questions": len(doc.Questions),
		})
		if err == nil {
			err = r.AppendEvent(ctx, ev)
		}
		if err != nil {
			return &PersistenceError{Op: "append event", Err: err}
		}
		out = ex
		return nil
	})
	if err != nil {
		var pe *PersistenceError
		if !errors.As(err, &pe) {
			err = &PersistenceError{Op: "commit", Err: err}
		}
		return exam.Exam{}, err
	}
	im.log.Printf("imported %d questions into %s/%s (exam id %d)", len(doc.Questions), doc.Code, doc.Exam, out.ID)
	return out, nil
}

// resolveCourse is get-or-create keyed by code. A concurrent importer that
// wins the insert shows up as ErrConflict, after which its row is read back.
func resolveCourse(ctx context.Context, r exam.Repo, code, name string) (exam.Course, error) {
	c, err := r.FindCourseByCode(ctx, code)
	if err == nil || !errors.Is(err, exam.ErrNotFound) {
		return c, err
	}
	c = exam.Course{Code: code, Name: name}
	err = r.CreateCourse(ctx, &c)
	if errors.Is(err, exam.ErrConflict) {
		return r.FindCourseByCode(ctx, code)
	}
	return c, err
}

func resolveExam(ctx context.Context, r exam.Repo, name string, courseID int64) (exam.Exam, error) {
	e, err := r.FindExamByNameAndCourse(ctx, name, courseID)
	if err == nil || !errors.Is(err, exam.ErrNotFound) {
		return e, err
	}
	e = exam.Exam{Name: name, CourseID: courseID}
	err = r.CreateExam(ctx, &e)
	if errors.Is(err, exam.ErrConflict) {
		return r.FindExamByNameAndCourse(ctx, name, courseID)
	}
	return e, err
}

func importQuestion(ctx context.Context, r exam.Repo, examID int64, qd QuestionDoc) error {
	q := exam.Question{ExamID: examID, Type: qd.Type(), Text: qd.Text, Image: qd.Image}
	if b, ok := qd.Answer.(BooleanAnswer); ok {
		correct := b.Correct
		q.Correct = &correct
	}
	if err := r.CreateQuestion(ctx, &q); err != nil {
		return err
	}
	m, ok := qd.Answer.(MultipleAnswer)
	if !ok {
		return nil
	}
	return r.CreateAlternatives(ctx, m.Alternatives(q.ID))
}
