// Package generator - sentinel errors.
package generator

import "errors"

var (
	// ErrCollaborator indicates the remote model call failed and no routine
	// text could be obtained from it.
	ErrCollaborator = errors.New("collaborator request failed")

	// ErrEmptyRoutine indicates the collaborator returned no usable code.
	ErrEmptyRoutine = errors.New("collaborator returned empty routine")
)
