package nabaztag

import "fmt"

// Op names the step of a dispatch that failed.
type Op string

const (
	OpEncode   Op = "encode"
	OpConnect  Op = "connect"
	OpDeadline Op = "deadline"
	OpWrite    Op = "write"
	OpShutdown Op = "shutdown"
	OpRead     Op = "read"
)

// DispatchError is returned by Send for every failure.
type DispatchError struct {
	Op   Op
	Addr string
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("nabaztag %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
