package sandbox

import "errors"

// Execution errors.
var (
	// ErrExecutionTimeout means the hard wall-clock timeout expired. Fatal
	// for the call; never retried, never falls back.
	ErrExecutionTimeout = errors.New("routine execution timed out")

	// ErrExecutionFailed means both the isolated run and the in-process
	// fallback failed.
	ErrExecutionFailed = errors.New("routine execution failed")

	// ErrUnsafeRoutine means the routine text failed the safety gate and
	// was never executed.
	ErrUnsafeRoutine = errors.New("routine rejected by safety check")

	// ErrValidationFailed means the produced table does not match the
	// metadata document's structure.
	ErrValidationFailed = errors.New("generated table failed structural validation")
)
