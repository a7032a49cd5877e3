package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads one exam document. Files ending in .yaml or .yml are YAML,
// everything else is JSON.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exam document: %w", err)
	}
	return Decode(data, FormatFor(path))
}

// FormatFor picks the decoder from a file name.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	}
	return "json"
}

// Decode parses a single document. JSON numbers are kept as json.Number so
// that 1 and 1.0 stay distinguishable during validation.
func Decode(data []byte, format string) (map[string]any, error) {
	if format == "yaml" {
		return decodeYAML(data)
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (map[string]any, error) {
	var doc map[string]any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse json: document must be an object")
	}
	return doc, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse yaml: document must be a mapping")
	}
	return doc, nil
}

// FileResult is the outcome of importing one file of a batch.
type FileResult struct {
	Path       string
	CourseCode string
	ExamName   string
	ExamID     int64
	Questions  int
	Err        error
}

// ImportFiles imports each file independently; a failing file does not stop
// the rest of the batch.
func (im *Importer) ImportFiles(ctx context.Context, paths []string) []FileResult {
	out := make([]FileResult, 0, len(paths))
	for _, p := range paths {
		res := FileResult{Path: p}
		raw, err := LoadFile(p)
		if err != nil {
			res.Err = err
			out = append(out, res)
			continue
		}
		doc, err := Parse(raw)
		if err != nil {
			res.Err = err
			im.log.Printf("import %s: %v", p, err)
			out = append(out, res)
			continue
		}
		res.CourseCode, res.ExamName, res.Questions = doc.Code, doc.Exam, len(doc.Questions)
		im.log.Printf("importing questions from %s %s exam %s", doc.Name, doc.Code, doc.Exam)
		ex, err := im.ImportDocument(ctx, doc)
		if err != nil {
			res.Err = err
			im.log.Printf("import %s: %v", p, err)
		} else {
			res.ExamID = ex.ID
		}
		out = append(out, res)
	}
	return out
}
