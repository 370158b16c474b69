package recovery_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/wudi/pdfflow/recovery"
)

func TestErrorKinds(t *testing.T) {
	err := recovery.Errorf(recovery.InvalidFormat, "SetPage", "page %d out of range", 9)
	if !errors.Is(err, recovery.InvalidFormat) {
		t.Fatalf("expected InvalidFormat, got %v", err)
	}
	if errors.Is(err, recovery.IOFailure) {
		t.Fatalf("kind should not match IOFailure")
	}
	if got := err.Error(); got != "SetPage: invalid format: page 9 out of range" {
		t.Fatalf("unexpected message %q", got)
	}

	wrapped := recovery.Wrap(recovery.IOFailure, "open", fs.ErrNotExist)
	if !errors.Is(wrapped, fs.ErrNotExist) || !errors.Is(wrapped, recovery.IOFailure) {
		t.Fatalf("wrap should keep cause and kind: %v", wrapped)
	}
	if again := recovery.Wrap(recovery.MissingResource, "outer", wrapped); recovery.KindOf(again) != recovery.IOFailure {
		t.Fatalf("rewrapping must keep the first kind")
	}
	if recovery.Wrap(recovery.IOFailure, "x", nil) != nil {
		t.Fatalf("wrap(nil) should be nil")
	}
}

func TestRecoveryStrategies(t *testing.T) {
	cause := errors.New("unknown page format")
	loc := recovery.Location{Component: "document", Page: 1}

	t.Run("StrictStrategy", func(t *testing.T) {
		if a := recovery.NewStrictStrategy().OnError(cause, loc); a != recovery.ActionFail {
			t.Fatalf("expected ActionFail, got %v", a)
		}
	})

	t.Run("LenientStrategy", func(t *testing.T) {
		s := recovery.NewLenientStrategy(nil)
		if a := s.OnError(cause, loc); a != recovery.ActionFix {
			t.Fatalf("expected ActionFix, got %v", a)
		}
		if len(s.Errors) != 1 || !errors.Is(s.Errors[0], cause) {
			t.Fatalf("expected recorded error, got %v", s.Errors)
		}
	})
}

func TestGuardRunsInReverse(t *testing.T) {
	var order []int
	var g recovery.Guard
	g.Defer(func() error { order = append(order, 1); return nil })
	g.Defer(func() error { order = append(order, 2); return errors.New("close failed") })

	err := g.Fail(recovery.Errorf(recovery.MissingResource, "Image", "not found"))
	if !errors.Is(err, recovery.MissingResource) {
		t.Fatalf("fatal kind lost: %v", err)
	}
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("teardown order = %v", order)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("second release should be a no-op, got %v", err)
	}
}
