// Package state holds the tagged Idle/Loading/Success/Error value streamed
// to WebSocket clients, and an observable holder for it.
package state

type Kind string

const (
	KindIdle    Kind = "idle"
	KindLoading Kind = "loading"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// State is a tagged value: Data is meaningful only for KindSuccess and
// Message only for KindError.
type State[T any] struct {
	Kind    Kind   `json:"status"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

func Idle[T any]() State[T] {
	return State[T]{Kind: KindIdle}
}

func Loading[T any]() State[T] {
	return State[T]{Kind: KindLoading}
}

func Success[T any](data T) State[T] {
	return State[T]{Kind: KindSuccess, Data: data}
}

func Error[T any](message string) State[T] {
	return State[T]{Kind: KindError, Message: message}
}

// Done reports whether the state is a final outcome of a load.
func (s State[T]) Done() bool {
	return s.Kind == KindSuccess || s.Kind == KindError
}
