package fanout

import (
	"fmt"
	"runtime"
)

// stackSize bounds the trace kept per recovered panic; runtime.Stack
// truncates longer traces.
const stackSize = 8 << 10

// PanicError is the failure recorded for an action that panicked instead
// of returning. The panic never escapes [ForEach]: the cursor that ran the
// action stops and the value shows up in the [AggregateError] next to
// ordinary action errors.
type PanicError struct {
	Value any    // argument given to panic
	Stack string // trace of the cursor goroutine, taken during recovery
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap lets errors.Is and errors.As see through panic(err).
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

func newPanicError(v any) *PanicError {
	buf := make([]byte, stackSize)
	buf = buf[:runtime.Stack(buf, false)]
	return &PanicError{Value: v, Stack: string(buf)}
}
