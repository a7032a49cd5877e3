// Command import loads exam documents (JSON or YAML) into the database.
//
//	import [-db-driver sqlite|postgres] [-db-dsn DSN] FILE...
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/mind-engage/memorizer/internal/config"
	"github.com/mind-engage/memorizer/internal/db"
	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/importer"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	flags := flag.NewFlagSet("import", flag.ContinueOnError)
	flags.SetOutput(stderr)
	driver := flags.String("db-driver", cfg.DBDriver, "database driver: sqlite or postgres")
	dsn := flags.String("db-dsn", cfg.DBDSN, "database DSN (driver default when empty)")
	verbose := flags.Bool("v", false, "log progress to stderr")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: import [-db-driver sqlite|postgres] [-db-dsn DSN] FILE...")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return exitUsage
	}

	ctx := context.Background()
	dbh, err := db.Open(ctx, db.Driver(*driver), *dsn)
	if err != nil {
		fmt.Fprintf(stderr, "db open failed: %v\n", err)
		return exitError
	}
	defer dbh.Close()

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(stderr, "import: ", log.LstdFlags)
	}
	im := importer.New(exam.NewSQLStore(dbh), logger)

	p := newPalette(stdout)
	failed := 0
	for _, res := range im.ImportFiles(ctx, flags.Args()) {
		if res.Err != nil {
			failed++
			fmt.Fprintf(stdout, "%s %s: %s\n", p.fail("FAIL"), res.Path, res.Err)
			continue
		}
		fmt.Fprintf(stdout, "%s %s: %s/%s, %d questions\n", p.ok("OK"), res.Path, res.CourseCode, res.ExamName, res.Questions)
	}
	if failed > 0 {
		fmt.Fprintln(stdout, p.dim(fmt.Sprintf("%d of %d files failed", failed, flags.NArg())))
		return exitError
	}
	return exitOK
}

type palette struct{ enabled bool }

func newPalette(w io.Writer) palette {
	return palette{enabled: shouldUseStyling(w)}
}

func shouldUseStyling(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func (p palette) style(text string, color lipgloss.Color, bold bool) string {
	if !p.enabled {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Bold(bold).Render(text)
}

func (p palette) ok(text string) string   { return p.style(text, lipgloss.Color("42"), true) }
func (p palette) fail(text string) string { return p.style(text, lipgloss.Color("196"), true) }
func (p palette) dim(text string) string  { return p.style(text, lipgloss.Color("244"), false) }
