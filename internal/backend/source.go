package backend

import "errors"

// Source labels where a response's data came from, so the dashboard can
// visibly distinguish sample data from a connected-but-empty backend from
// an outage.
type Source string

const (
	// SourceLive means the data came from the upstream backend.
	SourceLive Source = "live"
	// SourceDemo means the backend was unavailable and built-in sample
	// data is being served instead.
	SourceDemo Source = "demo"
	// SourceUnavailable means the backend was unavailable and no demo
	// fallback applies; Data is empty.
	SourceUnavailable Source = "unavailable"
)

// Envelope wraps a collection response with its data source. Reason is set
// only when Source is demo or unavailable.
type Envelope[T any] struct {
	Source Source `json:"source"`
	Reason string `json:"reason,omitempty"`
	Data   T      `json:"data"`
}

// Live wraps data fetched from the backend.
func Live[T any](data T) Envelope[T] {
	return Envelope[T]{Source: SourceLive, Data: data}
}

// Demo wraps fallback sample data with the failure that triggered it.
func Demo[T any](data T, err error) Envelope[T] {
	return Envelope[T]{Source: SourceDemo, Reason: reason(err), Data: data}
}

// Unavailable wraps an empty result with the failure reason.
func Unavailable[T any](err error) Envelope[T] {
	var zero T
	return Envelope[T]{Source: SourceUnavailable, Reason: reason(err), Data: zero}
}

func reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformed):
		return "malformed response"
	case errors.Is(err, ErrUnreachable):
		return "backend unreachable"
	default:
		return err.Error()
	}
}
