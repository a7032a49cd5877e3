package importer

import (
	"slices"

	"github.com/mind-engage/memorizer/internal/exam"
)

// Document is an exam document after validation. Nothing past Parse sees the
// raw map.
type Document struct {
	Code      string // course code
	Name      string // course name
	Exam      string // exam name
	Questions []QuestionDoc
}

type QuestionDoc struct {
	Text   string
	Image  string
	Answer Answer
}

// Answer is either MultipleAnswer or BooleanAnswer.
type Answer interface {
	questionType() exam.QuestionType
}

type MultipleAnswer struct {
	Options []string
	Correct IndexSet
}

type BooleanAnswer struct {
	Correct bool
}

func (MultipleAnswer) questionType() exam.QuestionType { return exam.Multiple }
func (BooleanAnswer) questionType() exam.QuestionType  { return exam.Boolean }

// Type reports the question type selected by the answer shape.
func (q QuestionDoc) Type() exam.QuestionType { return q.Answer.questionType() }

// IndexSet holds the indices of the correct options. A scalar "correct"
// becomes a one-element set.
type IndexSet []int

func (s IndexSet) Has(i int) bool { return slices.Contains(s, i) }

// Alternatives builds the alternatives of a multiple-choice question in
// option order.
func (m MultipleAnswer) Alternatives(questionID int64) []exam.Alternative {
	out := make([]exam.Alternative, 0, len(m.Options))
	for i, text := range m.Options {
		out = append(out, exam.Alternative{QuestionID: questionID, Text: text, Correct: m.Correct.Has(i)})
	}
	return out
}
