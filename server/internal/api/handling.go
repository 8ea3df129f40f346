package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// HandlerFunc is a route handler that reports failures by returning an error.
// An *ErrorResponse is rendered as-is; any other error becomes a 500.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

func handler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		var resp *ErrorResponse
		if !errors.As(err, &resp) {
			resp = newError(http.StatusInternalServerError, "Internal Server Error", err)
		}
		if resp.Code >= http.StatusInternalServerError {
			slog.Error("api: request failed",
				"path", r.URL.Path, "code", resp.Code,
				"request_id", middleware.GetReqID(r.Context()), "err", resp.Err)
		}
		if err := render.Render(w, r, resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// respond writes v as JSON with the given status.
func respond(w http.ResponseWriter, r *http.Request, code int, v any) error {
	render.Status(r, code)
	render.JSON(w, r, v)
	return nil
}
