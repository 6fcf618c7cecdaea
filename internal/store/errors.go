package store

import "fmt"

// Error is returned when the message store cannot complete an operation.
// Callers report it to the sender only; nothing is retried.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
