package datastore

import (
	"context"
	"errors"
	"net/http"

	"github.com/frahmantamala/travel-backoffice/internal"
)

// Status classifies the outcome of one store operation.
type Status string

const (
	StatusOK          Status = "ok"
	StatusTimeout     Status = "timeout"
	StatusClientError Status = "client-error"
	StatusServerError Status = "server-error"
	StatusUnknown     Status = "unknown"
)

// Result is the envelope every data-access call returns. Exactly one of Value and
// Err is meaningful: on failure Value is the zero value of T.
type Result[T any] struct {
	Value      T
	Err        error
	Status     Status
	StatusCode int
}

// Empty is the value type of operations that carry no payload back, such as Delete.
type Empty struct{}

func (r Result[T]) OK() bool {
	return r.Err == nil && r.Status == StatusOK
}

func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

func Ok[T any](value T, statusCode int) Result[T] {
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	return Result[T]{Value: value, Status: StatusOK, StatusCode: statusCode}
}

// Fail builds a failed result, deriving status and code from err.
func Fail[T any](err error) Result[T] {
	status, code := Classify(err)
	return Result[T]{Err: err, Status: status, StatusCode: code}
}

// Map transforms a successful value and passes failures through unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.Err != nil {
		return Result[U]{Err: r.Err, Status: r.Status, StatusCode: r.StatusCode}
	}
	return Result[U]{Value: fn(r.Value), Status: r.Status, StatusCode: r.StatusCode}
}

// Classify maps an error onto the status classifier and the numeric code reported with it.
func Classify(err error) (Status, int) {
	if err == nil {
		return StatusOK, http.StatusOK
	}
	appErr, ok := internal.IsAppError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return StatusTimeout, 0
		}
		return StatusUnknown, 0
	}
	switch appErr.Type {
	case internal.ErrorTypeTimeout:
		return StatusTimeout, 0
	case internal.ErrorTypeTransport:
		return StatusUnknown, 0
	case internal.ErrorTypeServer, internal.ErrorTypeInternal:
		return StatusServerError, appErr.StatusCode
	default:
		return StatusClientError, appErr.StatusCode
	}
}
