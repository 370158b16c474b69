package scripting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wudi/pdfflow/recovery"
)

type alerts []string

func (a *alerts) Alert(m string) { *a = append(*a, m) }

func TestValidate(t *testing.T) {
	if err := Validate("app.alert('hi');"); err != nil {
		t.Fatalf("valid script rejected: %v", err)
	}
	if err := Validate("function ("); !errors.Is(err, recovery.InvalidFormat) {
		t.Fatalf("syntax error not reported: %v", err)
	}
	if err := Validate("  "); err == nil {
		t.Fatalf("empty script accepted")
	}
}

func TestExecuteAlert(t *testing.T) {
	var got alerts
	e, err := NewEngine(&got, 3)
	if err != nil {
		t.Fatal(err)
	}
	v, err := e.Execute(context.Background(), "app.alert('pages ' + numPages); numPages * 2")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if v != int64(6) {
		t.Fatalf("result = %#v", v)
	}
	if len(got) != 1 || got[0] != "pages 3" {
		t.Fatalf("alerts = %v", got)
	}
}

func TestExecuteCancellation(t *testing.T) {
	e, err := NewEngine(nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = e.Execute(ctx, "while(true){}")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("interrupt took too long")
	}
}
