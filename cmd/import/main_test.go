package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunImportsFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "cs101.json")
	bad := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(good, []byte(`{"code":"CS101","name":"Intro","exam":"midterm","questions":[{"question":"q","answer":true}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("code: CS101\nname: Intro\nexam: final\nquestions:\n  - question: q\n    answer: maybe\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dsn := "file:" + filepath.Join(dir, "cli.db") + "?_pragma=foreign_keys(1)"

	var out, errOut bytes.Buffer
	code := run([]string{"-db-driver", "sqlite", "-db-dsn", dsn, good}, &out, &errOut)
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "OK "+good+": CS101/midterm, 1 questions") {
		t.Fatalf("stdout = %q", out.String())
	}

	out.Reset()
	code = run([]string{"-db-driver", "sqlite", "-db-dsn", dsn, good, bad}, &out, &errOut)
	if code != exitError {
		t.Fatalf("exit = %d, want %d", code, exitError)
	}
	if !strings.Contains(out.String(), "FAIL "+bad+": answers must be 'true' or 'false': q") {
		t.Fatalf("stdout = %q", out.String())
	}
	if !strings.Contains(out.String(), "1 of 2 files failed") {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestRunUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, &out, &errOut); code != exitUsage {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(errOut.String(), "usage: import") {
		t.Fatalf("stderr = %q", errOut.String())
	}
	if code := run([]string{"-db-driver", "oracle", "x.json"}, &out, &errOut); code != exitError {
		t.Fatalf("bad driver exit = %d", code)
	}
}
