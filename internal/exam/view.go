package exam

import (
	"net/url"
	"strings"
)

// Viewer is who a view is rendered for. Hidden exams and their questions
// are only visible to admins.
type Viewer struct {
	UserID string
	Admin  bool
}

type CourseView struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Str  string `json:"str"`
}

type ExamView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	CourseID        int64  `json:"course_id"`
	MultipleCorrect bool   `json:"multiple_correct"`
}

type AlternativeView struct {
	ID      int64  `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

type QuestionView struct {
	ID           int64             `json:"id"`
	Text         string            `json:"text"`
	ExamID       int64             `json:"exam_id"`
	Multiple     bool              `json:"multiple"`
	Type         QuestionType      `json:"type"`
	Alternatives []AlternativeView `json:"alternatives,omitempty"`
	Correct      *bool             `json:"correct,omitempty"`
	Image        string            `json:"image,omitempty"`
}

func ViewCourse(c Course) CourseView {
	return CourseView{ID: c.ID, Code: c.Code, Name: c.Name, Str: c.String()}
}

// ViewExam returns nil for a hidden exam unless the viewer is an admin.
func ViewExam(e Exam, v Viewer) *ExamView {
	if e.Hidden && !v.Admin {
		return nil
	}
	return &ExamView{ID: e.ID, Name: e.Name, CourseID: e.CourseID, MultipleCorrect: e.MultipleCorrect}
}

// ImageResolver turns a stored image reference into something a browser can load.
type ImageResolver struct {
	Base string // e.g. "/static/img" or "https://cdn.example.com/img"
}

// Resolve leaves absolute URLs alone and maps bare filenames to
// <Base>/<course code>/<filename>.
func (r ImageResolver) Resolve(courseCode, image string) string {
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	base := strings.TrimSuffix(r.Base, "/")
	if u, err := url.JoinPath(base, courseCode, image); err == nil && base != "" {
		return u
	}
	return base + "/" + url.PathEscape(courseCode) + "/" + url.PathEscape(image)
}

// ViewQuestion renders q as seen by v. It returns nil when the owning exam is
// hidden from v.
func ViewQuestion(q Question, owner Exam, courseCode string, v Viewer, images ImageResolver) *QuestionView {
	if owner.Hidden && !v.Admin {
		return nil
	}
	out := &QuestionView{
		ID:       q.ID,
		Text:     q.Text,
		ExamID:   q.ExamID,
		Multiple: q.Multiple(),
		Type:     q.Type,
	}
	if q.Multiple() {
		out.Alternatives = make([]AlternativeView, 0, len(q.Alternatives))
		for _, a := range q.Alternatives {
			out.Alternatives = append(out.Alternatives, AlternativeView{ID: a.ID, Text: a.Text, Correct: a.Correct})
		}
	} else {
		out.Correct = q.Correct
	}
	out.Image = images.Resolve(courseCode, q.Image)
	return out
}
