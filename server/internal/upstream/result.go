package upstream

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrNoCredential marks a source that was not attempted because its access
// key is not configured.
var ErrNoCredential = errors.New("upstream: credential not configured")

// Status tags whether a source produced data for this request.
type Status int

const (
	// Unavailable means the source failed or was not attempted.
	Unavailable Status = iota
	// OK means the source answered; the value may still be empty.
	OK
)

func (s Status) String() string {
	if s == OK {
		return "ok"
	}
	return "unavailable"
}

// Result is a client outcome. An OK result with an empty Value is a genuine
// "nothing found"; an Unavailable result carries the reason in Err.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
}

// Success wraps a value fetched from (or cached for) the source.
func Success[T any](v T) Result[T] { return Result[T]{Value: v, Status: OK} }

// Failure returns an Unavailable result holding the empty value v.
func Failure[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Status: Unavailable, Err: err}
}

// Available reports whether the source produced data.
func (r Result[T]) Available() bool { return r.Status == OK }

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
