package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
)

// ErrorResponse is rendered as {"detail": "..."} with Code as the status.
type ErrorResponse struct {
	Err  error `json:"-"` // low-level runtime error, logged not served
	Code int   `json:"-"` // http response status code

	Detail string `json:"detail"`
}

func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Code)
	return nil
}

func (e *ErrorResponse) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Detail
}

func (e *ErrorResponse) Unwrap() error { return e.Err }

func newError(code int, detail string, err error) *ErrorResponse {
	if err == nil {
		err = errors.New(detail)
	}
	return &ErrorResponse{Err: err, Code: code, Detail: detail}
}

func badRequest(detail string) *ErrorResponse {
	return newError(http.StatusBadRequest, detail, nil)
}

func notFound(detail string) *ErrorResponse {
	return newError(http.StatusNotFound, detail, nil)
}

var (
	errNotFound         = notFound("Not Found")
	errMethodNotAllowed = newError(http.StatusMethodNotAllowed, "Method Not Allowed", nil)
	errTooManyRequests  = newError(http.StatusTooManyRequests, "Too Many Requests", nil)
)
