package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/storage"
)

const maxImageBytes = 10 << 20

// MountImages serves question images: GET /{code}/{file}.
func MountImages(r chi.Router, bs storage.BlobStore) {
	r.Get("/{code}/{file}", func(w http.ResponseWriter, r *http.Request) {
		key, err := storage.ImageKey(chi.URLParam(r, "code"), chi.URLParam(r, "file"))
		if err != nil || !bs.Exists(key) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}

// POST /admin/images/{code} with a multipart "file". The stored name is the
// uploaded file name, which is what exam documents refer to.
func UploadImageHandler(bs storage.BlobStore, images exam.ImageResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		code := chi.URLParam(r, "code")
		name := path.Base(strings.ReplaceAll(hdr.Filename, `\`, "/"))
		key, err := storage.ImageKey(code, name)
		if err != nil {
			http.Error(w, "bad file name", http.StatusBadRequest)
			return
		}
		if _, err := bs.Put(key, f); err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": images.Resolve(code, name)})
	}
}
