package shared

import (
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// Upload is a file received in a multipart form.
type Upload struct {
	Filename string
	Mimetype string
	Content  []byte
}

func (u *Upload) Size() int64 {
	return int64(len(u.Content))
}

// multipartOverhead leaves room for form fields and part headers.
const multipartOverhead = 1 << 20

// LimitUploadBody caps the request body of an upload route so an oversized
// body is cut off while it is read instead of being spooled to disk.
func LimitUploadBody(next http.Handler, maxUploadSize int64) http.Handler {
	return http.MaxBytesHandler(next, maxUploadSize+multipartOverhead)
}

// ParseMultipart parses a multipart body. A body cut off by LimitUploadBody
// is reported as ErrUploadTooLarge.
func ParseMultipart(r *http.Request, maxBytes int64) error {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || err == multipart.ErrMessageTooLarge {
			return ErrUploadTooLarge
		}
		return NewValidationError("invalid multipart form: %s", err.Error())
	}
	return nil
}

// FormValue returns the trimmed value of a multipart or urlencoded field.
func FormValue(r *http.Request, field string) string {
	return strings.TrimSpace(r.FormValue(field))
}

// ReadUpload returns the file sent under field, or nil when none was sent.
// The content type is sniffed from the bytes, not taken from the client.
func ReadUpload(r *http.Request, field string, maxBytes int64) (*Upload, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", field)
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, ErrUploadTooLarge
	}
	content, err := ioutil.ReadAll(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", field)
	}

	return &Upload{
		Filename: header.Filename,
		Mimetype: mimetype.Detect(content).String(),
		Content:  content,
	}, nil
}
