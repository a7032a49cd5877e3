package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImageKey(t *testing.T) {
	k, err := ImageKey("CS101", "cpu.png")
	if err != nil || k != "img/CS101/cpu.png" {
		t.Fatalf("ImageKey = %q, %v", k, err)
	}
	for _, bad := range [][2]string{{"", "a.png"}, {"CS101", ""}, {"..", "a.png"}, {"CS101", "../a.png"}, {"CS101", `a\b.png`}} {
		if _, err := ImageKey(bad[0], bad[1]); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ImageKey(%q, %q) err = %v", bad[0], bad[1], err)
		}
	}
}

func TestFSStorePutGet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	key, _ := ImageKey("CS101", "cpu.png")
	if _, err := s.Put(key, strings.NewReader("png bytes")); err != nil {
		t.Fatal(err)
	}
	if !s.Exists(key) || s.Exists("img/CS101/missing.png") || s.Exists("img/CS101") {
		t.Fatal("Exists mismatch")
	}
	rc, err := s.Get(key)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "png bytes" {
		t.Fatalf("content = %q", b)
	}
	if _, err := os.Stat(filepath.Join(dir, "img", "CS101", "cpu.png")); err != nil {
		t.Fatalf("file not under base: %v", err)
	}
}

func TestFSStoreStaysInBase(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFSStore(filepath.Join(dir, "blobs"))
	// a climbing key is pinned below base
	if _, err := s.Put("../../escape.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); !os.IsNotExist(err) {
		t.Fatal("write escaped the base directory")
	}
	if !s.Exists("escape.txt") {
		t.Fatal("climbing key not stored below base")
	}
	if _, err := s.Put("", strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("empty key err = %v", err)
	}
}
