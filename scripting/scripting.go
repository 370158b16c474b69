// Package scripting checks document-level JavaScript before it is embedded
// and can run it against a small viewer stub.
package scripting

import (
	"context"
	"errors"
	"strings"

	"github.com/dop251/goja"

	"github.com/wudi/pdfflow/recovery"
)

// Validate reports whether script compiles.
func Validate(script string) error {
	if strings.TrimSpace(script) == "" {
		return recovery.Errorf(recovery.InvalidFormat, "scripting.Validate", "empty script")
	}
	if _, err := goja.Compile("document", script, false); err != nil {
		return recovery.Wrap(recovery.InvalidFormat, "scripting.Validate", err)
	}
	return nil
}

// Viewer receives the calls a script makes to the viewer application.
type Viewer interface {
	Alert(message string)
}

// Engine runs scripts with an "app" object and a "this" document exposing
// numPages.
type Engine struct {
	vm *goja.Runtime
}

func NewEngine(viewer Viewer, numPages int) (*Engine, error) {
	vm := goja.New()
	app := vm.NewObject()
	if err := app.Set("alert", func(call goja.FunctionCall) goja.Value {
		if viewer != nil && len(call.Arguments) > 0 {
			viewer.Alert(call.Arguments[0].String())
		}
		return goja.Undefined()
	}); err != nil {
		return nil, err
	}
	if err := vm.Set("app", app); err != nil {
		return nil, err
	}
	if err := vm.Set("numPages", numPages); err != nil {
		return nil, err
	}
	return &Engine{vm: vm}, nil
}

// Execute runs script until it finishes or ctx is done.
func (e *Engine) Execute(ctx context.Context, script string) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause := interrupted.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, recovery.Wrap(recovery.InvalidFormat, "scripting.Execute", err)
	}
	return val.Export(), nil
}
