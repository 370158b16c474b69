package recovery

import (
	"errors"
	"fmt"

	"github.com/wudi/pdfflow/observability"
)

// StrictStrategy implements a fail-fast recovery strategy.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(err error, location Location) Action {
	return ActionFail
}

// LenientStrategy substitutes a default for degraded input and keeps going.
// Every substitution is logged and kept in Errors.
type LenientStrategy struct {
	Logger observability.Logger
	Errors []error
}

func NewLenientStrategy(logger observability.Logger) *LenientStrategy {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &LenientStrategy{Logger: logger}
}

func (s *LenientStrategy) OnError(err error, location Location) Action {
	s.Errors = append(s.Errors, fmt.Errorf("[%s] page %d: %w", location.Component, location.Page, err))
	s.Logger.Warn("degraded input substituted",
		observability.String("component", location.Component),
		observability.Int("page", location.Page),
		observability.Error("error", err))
	return ActionFix
}

// Guard collects teardown functions that must run before a fatal error
// leaves the document, such as removing temp files.
type Guard struct {
	fns []func() error
}

// Defer registers fn; functions run in reverse registration order.
func (g *Guard) Defer(fn func() error) {
	g.fns = append(g.fns, fn)
}

// Release runs every registered function once and joins their errors.
func (g *Guard) Release() error {
	var errs []error
	for i := len(g.fns) - 1; i >= 0; i-- {
		if err := g.fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	g.fns = nil
	return errors.Join(errs...)
}

// Fail releases g and returns err, so callers can write
// `return g.Fail(err)` on a fatal path.
func (g *Guard) Fail(err error) error {
	if rerr := g.Release(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}
