package result

// Result makes partial success explicit: an operation either succeeded fully,
// succeeded with a non-critical sub-step failing (Degraded), or failed.
// Callers can branch on the state instead of guessing from nil checks.
type Result[T any] struct {
	value   T
	warning string
	err     error
	state   state
}

type state int

const (
	stateOk state = iota
	stateDegraded
	stateFailed
)

// Ok wraps a fully successful value
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, state: stateOk}
}

// Degraded wraps a usable-but-incomplete value together with what went wrong
func Degraded[T any](value T, warning string, err error) Result[T] {
	return Result[T]{value: value, warning: warning, err: err, state: stateDegraded}
}

// Failed wraps a hard failure with no usable value
func Failed[T any](err error) Result[T] {
	return Result[T]{err: err, state: stateFailed}
}

// IsOk reports full success
func (r Result[T]) IsOk() bool { return r.state == stateOk }

// IsDegraded reports partial success
func (r Result[T]) IsDegraded() bool { return r.state == stateDegraded }

// IsFailed reports hard failure
func (r Result[T]) IsFailed() bool { return r.state == stateFailed }

// Value returns the carried value; the zero value on failure
func (r Result[T]) Value() T { return r.value }

// Warning returns the degradation notice, empty unless degraded
func (r Result[T]) Warning() string { return r.warning }

// Err returns the underlying error for degraded and failed results
func (r Result[T]) Err() error { return r.err }
