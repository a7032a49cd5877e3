package exam

type QuestionType string

const (
	Multiple QuestionType = "1" // multiple choice
	Boolean  QuestionType = "2" // yes/no
)

type Course struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

func (c Course) String() string { return c.Code + " " + c.Name }

type Exam struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	CourseID        int64  `json:"course_id"`
	MultipleCorrect bool   `json:"multiple_correct"`
	Hidden          bool   `json:"hidden"`
}

type Question struct {
	ID     int64        `json:"id"`
	ExamID int64        `json:"exam_id"`
	Type   QuestionType `json:"type"`
	Text   string       `json:"text"`
	Image  string       `json:"image,omitempty"`
	Reason string       `json:"reason,omitempty"`

	// Correct is set only for Boolean questions.
	Correct *bool `json:"correct,omitempty"`
	// Alternatives is populated only for Multiple questions, ordered by id.
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

func (q Question) Multiple() bool { return q.Type == Multiple }

type Alternative struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
}

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	PasswordHash string `json:"-"`
	Registered   bool   `json:"registered"` // false for guest accounts
	Admin        bool   `json:"admin"`
}

// Stats is one recorded attempt of a user on a question.
type Stats struct {
	ID         int64  `json:"id"`
	UserID     string `json:"user_id"`
	QuestionID int64  `json:"question_id"`
	Correct    bool   `json:"correct"`
	Reset      bool   `json:"reset"`
}
