package planner

import "errors"

var (
	// ErrExhausted means every strategy fell short of the minimum unit count.
	ErrExhausted = errors.New("no planning strategy produced a lesson")
	// ErrPersist wraps a failure to store an otherwise complete lesson.
	ErrPersist = errors.New("persist planned lesson")
)
