package storage

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrInvalidName = errors.New("invalid file name")
)

// Storage keeps uploaded files. Store returns the public url of the file,
// Open and Delete accept that url back.
type Storage interface {
	Store(ctx context.Context, name string, content io.Reader) (string, error)
	Open(ctx context.Context, url string) (io.ReadCloser, error)
	Delete(ctx context.Context, url string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename keeps the base name of an uploaded file and replaces
// anything outside [a-zA-Z0-9._-] with an underscore.
func SanitizeFilename(name string) string {
	name = path.Base(strings.Replace(name, "\\", "/", -1))
	if name == "." || name == "/" {
		return "file"
	}
	return unsafeChars.ReplaceAllString(name, "_")
}

// objectName extracts the stored file name from a public url. Only the last
// path element is kept so a url can never point outside the storage root.
func objectName(url string) (string, error) {
	name := path.Base(url)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", ErrInvalidName
	}
	return name, nil
}

// Handler serves stored files under the uploads prefix.
func Handler(s Storage, urlPrefix string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, err := objectName(r.URL.Path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		reader, err := s.Open(r.Context(), path.Join(urlPrefix, name))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer reader.Close()

		content, err := ioutil.ReadAll(reader)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(content))
	})
}
