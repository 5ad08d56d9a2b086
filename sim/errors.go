package sim

import (
	"errors"
	"fmt"
)

// ErrTooManySimulations is returned by Registry.Create when the configured
// instance limit has been reached.
var ErrTooManySimulations = errors.New("too many simulation instances")

// ContractViolation is the panic value raised when a caller breaks a kernel
// precondition. It signals a bug in the calling model, not a simulation
// condition, and is not meant to be recovered and retried.
type ContractViolation struct {
	Op  string // kernel operation that detected the violation
	Msg string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func violate(op, format string, args ...any) {
	panic(&ContractViolation{Op: op, Msg: fmt.Sprintf(format, args...)})
}
