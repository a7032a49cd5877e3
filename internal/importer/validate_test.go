package importer

import (
	"encoding/json"
	"errors"
	"testing"
)

func validDoc() map[string]any {
	return map[string]any{
		"code": "CS101",
		"name": "Intro",
		"exam": "midterm",
		"questions": []any{
			map[string]any{"question": "2+2=4?", "answer": true},
			map[string]any{"question": "pick primes", "answers": []any{"4", "5", "6", "7"}, "correct": []any{json.Number("1"), json.Number("3")}},
		},
	}
}

func with(mod func(m map[string]any)) map[string]any {
	d := validDoc()
	mod(d)
	return d
}

func question(q map[string]any) map[string]any {
	return with(func(m map[string]any) { m["questions"] = []any{q} })
}

func TestValidateDocumentFields(t *testing.T) {
	cases := []struct {
		name string
		doc  map[string]any
		want string
	}{
		{"code missing", with(func(m map[string]any) { delete(m, "code") }), "subject code missing"},
		{"code not text", with(func(m map[string]any) { m["code"] = json.Number("101") }), "subject code must be text"},
		{"code blank", with(func(m map[string]any) { m["code"] = "" }), "subject code cannot be blank"},
		{"name missing", with(func(m map[string]any) { delete(m, "name") }), "subject name is missing"},
		{"name not text", with(func(m map[string]any) { m["name"] = true }), "subject name must be text"},
		{"name empty", with(func(m map[string]any) { m["name"] = "" }), "subject name cannot be empty"},
		{"exam missing", with(func(m map[string]any) { delete(m, "exam") }), "exam name is missing"},
		{"exam not text", with(func(m map[string]any) { m["exam"] = []any{} }), "Exam name must be text"},
		{"exam empty", with(func(m map[string]any) { m["exam"] = "" }), "exam name cannot be empty"},
		{"questions missing", with(func(m map[string]any) { delete(m, "questions") }), "questions are missing"},
		{"questions not list", with(func(m map[string]any) { m["questions"] = map[string]any{} }), "questions must be a list"},
		{"questions empty", with(func(m map[string]any) { m["questions"] = []any{} }), "there must be at least one question"},

		// precedence: earlier fields win
		{"code before name", with(func(m map[string]any) { delete(m, "code"); delete(m, "name") }), "subject code missing"},
		{"name before exam", with(func(m map[string]any) { m["name"] = ""; delete(m, "exam") }), "subject name cannot be empty"},
		{"exam before questions", with(func(m map[string]any) { m["exam"] = ""; delete(m, "questions") }), "exam name cannot be empty"},
		{"all missing", map[string]any{}, "subject code missing"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Validate(c.doc)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Msg != c.want {
				t.Fatalf("msg = %q, want %q", ve.Msg, c.want)
			}
		})
	}
}

func TestValidateQuestions(t *testing.T) {
	opts := func() []any { return []any{"a", "b", "c"} }
	cases := []struct {
		name string
		q    map[string]any
		want string
	}{
		{"text missing", map[string]any{"answer": true}, "question text is missing: None"},
		{"text not string", map[string]any{"question": json.Number("5"), "answer": true}, "questions must be text: 5"},
		{"text empty", map[string]any{"question": "", "answer": true}, "questions cannot be empty: "},
		{"no answer shape", map[string]any{"question": "Q"}, "answers are missing: Q"},
		{"boolean string", map[string]any{"question": "Q", "answer": "true"}, "answers must be 'true' or 'false': Q"},
		{"boolean int", map[string]any{"question": "Q", "answer": json.Number("1")}, "answers must be 'true' or 'false': Q"},
		{"boolean int yaml", map[string]any{"question": "Q", "answer": 1}, "answers must be 'true' or 'false': Q"},
		{"answers not list", map[string]any{"question": "Q", "answers": "a,b", "correct": 0}, "options must be a list: Q"},
		{"one option", map[string]any{"question": "Q", "answers": []any{"a"}, "correct": 0}, "there must be at least two options: Q"},
		{"correct missing", map[string]any{"question": "Q", "answers": opts()}, "questions lack correct answers(s): Q"},
		{"correct string", map[string]any{"question": "Q", "answers": opts(), "correct": "1"}, "the correct answer must be integer or a list of integers: Q"},
		{"correct bool", map[string]any{"question": "Q", "answers": opts(), "correct": true}, "the correct answer must be integer or a list of integers: Q"},
		{"correct float", map[string]any{"question": "Q", "answers": opts(), "correct": json.Number("1.0")}, "the correct answer must be integer or a list of integers: Q"},
		{"correct empty list", map[string]any{"question": "Q", "answers": opts(), "correct": []any{}}, "there must be at least one correct answer: Q"},
		{"option not text", map[string]any{"question": "Q", "answers": []any{"a", json.Number("2")}, "correct": 0}, "all options include text: Q"},
		{"option empty", map[string]any{"question": "Q", "answers": []any{"a", ""}, "correct": 0}, "alternative cannot be empty: Q"},
		{"index not int", map[string]any{"question": "Q", "answers": opts(), "correct": []any{json.Number("0"), "1"}}, "Correct answers must be integer or integer list: Q"},
		{"index too big", map[string]any{"question": "Q", "answers": opts(), "correct": json.Number("3")}, "One of the correct answers does not match any alternatives: Q"},
		{"index beyond int64", map[string]any{"question": "Q", "answers": opts(), "correct": json.Number("99999999999999999999")}, "One of the correct answers does not match any alternatives: Q"},
		{"index beyond int64 in list", map[string]any{"question": "Q", "answers": opts(), "correct": []any{json.Number("0"), json.Number("-99999999999999999999")}}, "One of the correct answers does not match any alternatives: Q"},
		{"index beyond int yaml", map[string]any{"question": "Q", "answers": opts(), "correct": uint64(1 << 63)}, "One of the correct answers does not match any alternatives: Q"},
		{"correct exponent", map[string]any{"question": "Q", "answers": opts(), "correct": json.Number("1e30")}, "the correct answer must be integer or a list of integers: Q"},
		{"index negative", map[string]any{"question": "Q", "answers": opts(), "correct": []any{json.Number("-1")}}, "One of the correct answers does not match any alternatives: Q"},
		// options are checked before indices
		{"option before index", map[string]any{"question": "Q", "answers": []any{"a", ""}, "correct": 9}, "alternative cannot be empty: Q"},
		// answers wins over answer when both are present
		{"answers wins", map[string]any{"question": "Q", "answers": []any{"a"}, "answer": true}, "there must be at least two options: Q"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := Validate(question(c.q))
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Msg != c.want {
				t.Fatalf("msg = %q, want %q", ve.Msg, c.want)
			}
		})
	}
}

func TestValidateStopsAtFirstBadQuestion(t *testing.T) {
	doc := with(func(m map[string]any) {
		m["questions"] = []any{
			map[string]any{"question": "ok", "answer": false},
			map[string]any{"question": "first bad", "answer": "no"},
			map[string]any{"question": "second bad"},
		}
	})
	err := Validate(doc)
	if err == nil || err.Error() != "answers must be 'true' or 'false': first bad" {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateNonObjectQuestion(t *testing.T) {
	err := Validate(with(func(m map[string]any) { m["questions"] = []any{"just a string"} }))
	if err == nil || err.Error() != "question must be an object: None" {
		t.Fatalf("err = %v", err)
	}
}

func TestParseNormalizesCorrect(t *testing.T) {
	cases := []struct {
		name    string
		correct any
		want    []int
	}{
		{"scalar json", json.Number("1"), []int{1}},
		{"scalar yaml", 2, []int{2}},
		{"list", []any{json.Number("0"), json.Number("2")}, []int{0, 2}},
		{"list yaml", []any{0, 1, 2}, []int{0, 1, 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc, err := Parse(question(map[string]any{"question": "Q", "answers": []any{"a", "b", "c"}, "correct": c.correct}))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			m, ok := doc.Questions[0].Answer.(MultipleAnswer)
			if !ok {
				t.Fatalf("answer = %T, want MultipleAnswer", doc.Questions[0].Answer)
			}
			if len(m.Correct) != len(c.want) {
				t.Fatalf("correct = %v, want %v", m.Correct, c.want)
			}
			for i := range c.want {
				if m.Correct[i] != c.want[i] {
					t.Fatalf("correct = %v, want %v", m.Correct, c.want)
				}
			}
		})
	}
}

func TestParseDocument(t *testing.T) {
	raw := validDoc()
	raw["questions"] = append(raw["questions"].([]any),
		map[string]any{"question": "with image", "answer": false, "image": "fig.png"},
		map[string]any{"question": "bad image type", "answer": false, "image": json.Number("3")},
	)
	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Code != "CS101" || doc.Name != "Intro" || doc.Exam != "midterm" || len(doc.Questions) != 4 {
		t.Fatalf("doc = %+v", doc)
	}
	if b, ok := doc.Questions[0].Answer.(BooleanAnswer); !ok || !b.Correct {
		t.Fatalf("q0 answer = %#v", doc.Questions[0].Answer)
	}
	m := doc.Questions[1].Answer.(MultipleAnswer)
	alts := m.Alternatives(42)
	want := []bool{false, true, false, true}
	for i, a := range alts {
		if a.Correct != want[i] || a.QuestionID != 42 || a.Text != m.Options[i] {
			t.Fatalf("alternative %d = %+v", i, a)
		}
	}
	if doc.Questions[2].Image != "fig.png" || doc.Questions[3].Image != "" {
		t.Fatalf("images = %q %q", doc.Questions[2].Image, doc.Questions[3].Image)
	}
}
