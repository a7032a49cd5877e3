package importer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError is a defect in an imported document. Validation stops at
// the first one; question-level messages end with the question text.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) *ValidationError { return &ValidationError{Msg: msg} }

// Validate checks raw without keeping the decoded result.
func Validate(raw map[string]any) error {
	_, err := Parse(raw)
	return err
}

// Parse validates raw and decodes it into a Document. The first problem
// found is returned as a *ValidationError.
func Parse(raw map[string]any) (Document, error) {
	code, err := text(raw, "code", "subject code missing", "subject code must be text", "subject code cannot be blank")
	if err != nil {
		return Document{}, err
	}
	name, err := text(raw, "name", "subject name is missing", "subject name must be text", "subject name cannot be empty")
	if err != nil {
		return Document{}, err
	}
	examName, err := text(raw, "exam", "exam name is missing", "Exam name must be text", "exam name cannot be empty")
	if err != nil {
		return Document{}, err
	}

	v, ok := raw["questions"]
	if !ok {
		return Document{}, invalid("questions are missing")
	}
	items, ok := v.([]any)
	if !ok {
		return Document{}, invalid("questions must be a list")
	}
	if len(items) == 0 {
		return Document{}, invalid("there must be at least one question")
	}

	doc := Document{Code: code, Name: name, Exam: examName, Questions: make([]QuestionDoc, 0, len(items))}
	for _, item := range items {
		q, verr := parseQuestion(item)
		if verr != nil {
			questionText := "None"
			if m, ok := item.(map[string]any); ok && m["question"] != nil {
				questionText = fmt.Sprint(m["question"])
			}
			return Document{}, invalid(verr.Msg + ": " + questionText)
		}
		doc.Questions = append(doc.Questions, q)
	}
	return doc, nil
}

// text reads a required, non-empty string field.
func text(raw map[string]any, key, missing, notText, empty string) (string, *ValidationError) {
	v, ok := raw[key]
	if !ok {
		return "", invalid(missing)
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid(notText)
	}
	if s == "" {
		return "", invalid(empty)
	}
	return s, nil
}

func parseQuestion(item any) (QuestionDoc, *ValidationError) {
	m, ok := item.(map[string]any)
	if !ok {
		return QuestionDoc{}, invalid("question must be an object")
	}
	t, verr := text(m, "question", "question text is missing", "questions must be text", "questions cannot be empty")
	if verr != nil {
		return QuestionDoc{}, verr
	}
	q := QuestionDoc{Text: t}
	if img, ok := m["image"].(string); ok {
		q.Image = img
	}

	if _, ok := m["answers"]; ok {
		ans, verr := parseMultiple(m)
		if verr != nil {
			return QuestionDoc{}, verr
		}
		q.Answer = ans
		return q, nil
	}
	if v, ok := m["answer"]; ok {
		b, ok := v.(bool)
		if !ok {
			return QuestionDoc{}, invalid("answers must be 'true' or 'false'")
		}
		q.Answer = BooleanAnswer{Correct: b}
		return q, nil
	}
	return QuestionDoc{}, invalid("answers are missing")
}

func parseMultiple(m map[string]any) (MultipleAnswer, *ValidationError) {
	options, ok := m["answers"].([]any)
	if !ok {
		return MultipleAnswer{}, invalid("options must be a list")
	}
	if len(options) < 2 {
		return MultipleAnswer{}, invalid("there must be at least two options")
	}
	rawCorrect, ok := m["correct"]
	if !ok {
		return MultipleAnswer{}, invalid("questions lack correct answers(s)")
	}

	// normalize scalar-or-list before looking at individual entries
	var entries []any
	if _, isInt := asInt(rawCorrect); isInt {
		entries = []any{rawCorrect}
	} else if list, isList := rawCorrect.([]any); isList {
		entries = list
	} else {
		return MultipleAnswer{}, invalid("the correct answer must be integer or a list of integers")
	}
	if len(entries) == 0 {
		return MultipleAnswer{}, invalid("there must be at least one correct answer")
	}

	texts := make([]string, 0, len(options))
	for _, o := range options {
		s, ok := o.(string)
		if !ok {
			return MultipleAnswer{}, invalid("all options include text")
		}
		if s == "" {
			return MultipleAnswer{}, invalid("alternative cannot be empty")
		}
		texts = append(texts, s)
	}

	set := make(IndexSet, 0, len(entries))
	for _, e := range entries {
		i, ok := asInt(e)
		if !ok {
			return MultipleAnswer{}, invalid("Correct answers must be integer or integer list")
		}
		if i < 0 || i >= len(texts) {
			return MultipleAnswer{}, invalid("One of the correct answers does not match any alternatives")
		}
		set = append(set, i)
	}
	return MultipleAnswer{Options: texts, Correct: set}, nil
}

// asInt accepts the integer shapes produced by the JSON (UseNumber) and YAML
// decoders. Booleans and floats are not integers. Integers too large for int
// come back as -1 so the range check rejects them.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > uint64(int(^uint(0)>>1)) {
			return -1, true
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return int(i), true
		}
		if isIntegerLiteral(string(n)) {
			return -1, true
		}
		return 0, false
	}
	return 0, false
}

func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
