package importer_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"

	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/importer"
)

// TestImportFeatures runs the import scenarios through godog.
func TestImportFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "import",
		ScenarioInitializer: initializeImportScenario,
		Options: &godog.Options{
			Format:   "progress",
			Paths:    []string{filepath.Join("testdata", "features")},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

type importState struct {
	store   *exam.MemoryStore
	lastDoc string
	lastErr error
}

func initializeImportScenario(ctx *godog.ScenarioContext) {
	s := &importState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*s = importState{}
		return ctx, nil
	})

	ctx.Step(`^an empty store$`, s.emptyStore)
	ctx.Step(`^I import the document:$`, s.importDocument)
	ctx.Step(`^I import the same document again$`, s.importAgain)
	ctx.Step(`^the import succeeds$`, s.importSucceeds)
	ctx.Step(`^the import fails with "(.*)"$`, s.importFails)
	ctx.Step(`^course "([^"]+)" exists with name "([^"]+)"$`, s.courseExists)
	ctx.Step(`^exam "([^"]+)" of course "([^"]+)" has (\d+) questions$`, s.examHasQuestions)
	ctx.Step(`^no course exists$`, s.noCourse)
}

func (s *importState) emptyStore() error {
	s.store = exam.NewInMemoryStore()
	return nil
}

func (s *importState) run(src string) error {
	s.lastDoc = src
	raw, err := importer.Decode([]byte(src), "json")
	if err != nil {
		return err
	}
	_, s.lastErr = importer.New(s.store, quiet).Import(context.Background(), raw)
	return nil
}

func (s *importState) importDocument(doc *godog.DocString) error {
	return s.run(doc.Content)
}

func (s *importState) importAgain() error {
	if s.lastErr != nil {
		return fmt.Errorf("previous import failed: %w", s.lastErr)
	}
	return s.run(s.lastDoc)
}

func (s *importState) importSucceeds() error {
	return s.lastErr
}

func (s *importState) importFails(msg string) error {
	var ve *importer.ValidationError
	if !errors.As(s.lastErr, &ve) {
		return fmt.Errorf("expected validation error, got %v", s.lastErr)
	}
	if ve.Msg != msg {
		return fmt.Errorf("message = %q, want %q", ve.Msg, msg)
	}
	return nil
}

func (s *importState) courseExists(code, name string) error {
	c, err := s.store.FindCourseByCode(context.Background(), code)
	if err != nil {
		return err
	}
	if c.Name != name {
		return fmt.Errorf("course name = %q, want %q", c.Name, name)
	}
	return nil
}

func (s *importState) examHasQuestions(examName, code string, want int) error {
	ctx := context.Background()
	c, err := s.store.FindCourseByCode(ctx, code)
	if err != nil {
		return err
	}
	e, err := s.store.FindExamByNameAndCourse(ctx, examName, c.ID)
	if err != nil {
		return err
	}
	n, err := s.store.CountQuestions(ctx, exam.QuestionListOpts{ExamID: e.ID})
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("questions = %d, want %d", n, want)
	}
	return nil
}

func (s *importState) noCourse() error {
	cs, err := s.store.ListCourses(context.Background())
	if err != nil {
		return err
	}
	if len(cs) != 0 {
		return fmt.Errorf("courses = %d, want 0", len(cs))
	}
	return nil
}
