package recovery

import (
	"errors"
	"fmt"
)

// Kind classifies fatal document errors.
type Kind int

const (
	InvalidFormat Kind = iota + 1
	MissingResource
	UnsupportedFeature
	IOFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidFormat:
		return "invalid format"
	case MissingResource:
		return "missing resource"
	case UnsupportedFeature:
		return "unsupported feature"
	case IOFailure:
		return "i/o failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error makes a Kind usable as an errors.Is target.
func (k Kind) Error() string { return k.String() }

// Error is a fatal error raised while building or serializing a document.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.String()
	}
	return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// Errorf builds an *Error with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and op to err. Errors that already carry a Kind are
// returned unchanged.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind carried by err, or 0.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}

type Strategy interface {
	OnError(err error, location Location) Action
}

type Location struct {
	Page      int
	ObjectNum int
	Component string
}

type Action int

const (
	ActionFail Action = iota
	ActionSkip
	ActionFix
	ActionWarn
)
