package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/importer"
)

const maxDocumentBytes = 8 << 20

// multipart framing on top of the document itself
const multipartSlack = 64 << 10

var errDocumentTooLarge = errors.New("document too large")

type importResponse struct {
	CourseCode string         `json:"course_code"`
	Exam       *exam.ExamView `json:"exam"`
	Questions  int            `json:"questions"`
}

// POST /import accepts the document as a JSON or YAML body, or as the "file"
// part of a multipart form.
func ImportHandler(im *importer.Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, format, err := readDocument(w, r)
		if errors.Is(err, errDocumentTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw, err := importer.Decode(data, format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		doc, err := importer.Parse(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		e, err := im.ImportDocument(r.Context(), doc)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, importResponse{
			CourseCode: doc.Code,
			Exam:       exam.ViewExam(e, exam.Viewer{Admin: true}),
			Questions:  len(doc.Questions),
		})
	}
}

// readDocument returns the whole document or errDocumentTooLarge; a body
// over the limit is never cut short and imported.
func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes+multipartSlack)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				return nil, "", errDocumentTooLarge
			}
			return nil, "", fmt.Errorf("file required")
		}
		defer f.Close()
		data, err := readAtMost(f)
		if err != nil {
			return nil, "", err
		}
		return data, importer.FormatFor(hdr.Filename), nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	data, err := readAtMost(r.Body)
	if err != nil {
		return nil, "", err
	}
	format := "json"
	if strings.Contains(ct, "yaml") {
		format = "yaml"
	}
	return data, format, nil
}

func readAtMost(rd io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(rd, maxDocumentBytes+1))
	if err != nil {
		if tooLarge(err) {
			return nil, errDocumentTooLarge
		}
		return nil, err
	}
	if len(data) > maxDocumentBytes {
		return nil, errDocumentTooLarge
	}
	return data, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
