// Package sandbox - interpreted in-process fallback.
package sandbox

import (
	"context"
	"fmt"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// interpRunner evaluates routines with the yaegi interpreter. It is the
// fallback when the subprocess path fails for reasons other than the
// deadline, e.g. when no Go toolchain is installed on the host.
type interpRunner struct{}

func (r *interpRunner) run(ctx context.Context, code string) (string, error) {
	type outcome struct {
		out string
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		out, err := evalRoutine(code)
		done <- outcome{out: out, err: err}
	}()

	select {
	case <-ctx.Done():
		// The goroutine keeps running until the Eval returns; the buffered
		// channel lets it exit without a receiver.
		return "", ctx.Err()
	case res := <-done:
		return res.out, res.err
	}
}

func evalRoutine(code string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("interpreter panic: %v", r)
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", fmt.Errorf("load interpreter symbols: %w", err)
	}
	if _, err := i.Eval(code); err != nil {
		return "", fmt.Errorf("evaluate routine: %w", err)
	}

	v, err := i.Eval("main." + EntryPoint)
	if err != nil {
		return "", fmt.Errorf("resolve entry point: %w", err)
	}
	fn, ok := v.Interface().(func() (string, error))
	if !ok {
		return "", fmt.Errorf("entry point %s has wrong signature", EntryPoint)
	}
	return fn()
}
