package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sri-ravi13/Orphan-Management-System/common/store"

	"github.com/pkg/errors"
)

var (
	ErrBadRouting     = errors.New("inconsistent mapping between route and handler (programmer error)")
	ErrInvalidId      = errors.New("invalid identifier format")
	ErrInvalidJson    = errors.New("invalid JSON body")
	ErrUploadTooLarge = errors.New("uploaded file is too large")
)

const serverErrorMessage = "An internal server error occurred."

// ValidationError carries a message meant for the client.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) error {
	return ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StatusOf maps the errors every resource shares to an http status code.
func StatusOf(err error) int {
	switch cause := errors.Cause(err); cause {
	case ErrInvalidId, ErrInvalidJson, ErrUploadTooLarge:
		return http.StatusBadRequest
	case store.ErrUserNotFound, store.ErrChildNotFound, store.ErrHealthRecordNotFound,
		store.ErrEducationalRecordNotFound, store.ErrStaffAssignmentNotFound, store.ErrAdoptionNotFound,
		store.ErrTaskNotFound, store.ErrDocumentNotFound, store.ErrInquiryNotFound, store.ErrJobNotFound:
		return http.StatusNotFound
	case store.ErrDuplicateUser, store.ErrDuplicateStaffAssignment, store.ErrAlreadyAdopted, store.ErrDuplicateTransaction:
		return http.StatusConflict
	default:
		if _, ok := cause.(ValidationError); ok {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

// EncodeError is the default go-kit error encoder. 5xx bodies never carry
// the underlying error.
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	EncodeErrorWithStatus(err, StatusOf(err), w)
}

func EncodeErrorWithStatus(err error, code int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if code >= http.StatusInternalServerError {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": serverErrorMessage,
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": errors.Cause(err).Error(),
		"error":   err.Error(),
	})
}
