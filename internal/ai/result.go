package ai

// Outcome tags how an AI-backed operation ended. Each operation picks its own
// failure policy: some fall back to a safe value, some fail.
type Outcome int

const (
	OK Outcome = iota
	Fallback
	Failed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case Fallback:
		return "fallback"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result carries a value plus how it was obtained. Err is set for Fallback (the absorbed cause) and Failed.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Outcome: OK}
}

func fallback[T any](v T, cause error) Result[T] {
	return Result[T]{Value: v, Outcome: Fallback, Err: cause}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Outcome: Failed, Err: err}
}

// Get returns the value, or the error when the operation failed. Fallback values are returned without error.
func (r Result[T]) Get() (T, error) {
	if r.Outcome == Failed {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}
