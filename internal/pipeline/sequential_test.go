package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func newSequentialRunner(t *testing.T, fake *fakeCompleter, format func(string) string) *Runner {
	t.Helper()
	runner, err := NewRunner(Config{
		Completer:      fake,
		MaintainFormat: true,
		Format:         format,
	})
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return runner
}

func TestSequentialContextThreading(t *testing.T) {
	fake := &fakeCompleter{}
	format := func(s string) string { return "fmt(" + s + ")" }
	runner := newSequentialRunner(t, fake, format)

	output, err := runner.Run(context.Background(), makeUnits(3))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	calls := fake.calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	if calls[0].PriorPage != "" {
		t.Fatalf("first unit should have no prior page, got %q", calls[0].PriorPage)
	}
	if want := "fmt(page:page_0001.png)"; calls[1].PriorPage != want {
		t.Fatalf("unit 1 prior page = %q, want %q", calls[1].PriorPage, want)
	}
	if want := "fmt(page:page_0002.png)"; calls[2].PriorPage != want {
		t.Fatalf("unit 2 prior page = %q, want %q", calls[2].PriorPage, want)
	}

	for i, res := range output.Results {
		if res.Index != i {
			t.Fatalf("result %d has index %d", i, res.Index)
		}
		if want := fmt.Sprintf("fmt(page:page_%04d.png)", i+1); res.Content != want {
			t.Fatalf("result %d content = %q, want %q", i, res.Content, want)
		}
	}
}

func TestSequentialFailFast(t *testing.T) {
	boom := errors.New("boom")
	units := makeUnits(5)
	fake := &fakeCompleter{
		failWith: map[string]error{units[1].ImagePath: boom},
	}
	runner := newSequentialRunner(t, fake, nil)

	output, err := runner.Run(context.Background(), units)
	if output != nil {
		t.Fatalf("expected no partial output in sequential mode, got %d results", len(output.Results))
	}
	if err == nil {
		t.Fatal("expected error")
	}

	var unitErr *UnitError
	if !errors.As(err, &unitErr) {
		t.Fatalf("expected UnitError, got %T: %v", err, err)
	}
	if unitErr.Index != 1 || unitErr.Page != 2 {
		t.Fatalf("error attributed to unit %d page %d, want unit 1 page 2", unitErr.Index, unitErr.Page)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}

	if calls := fake.calls(); len(calls) != 2 {
		t.Fatalf("expected dispatch to stop after failure, got %d calls", len(calls))
	}
}

func TestSequentialTokenTotals(t *testing.T) {
	fake := &fakeCompleter{}
	runner := newSequentialRunner(t, fake, nil)

	output, err := runner.Run(context.Background(), makeUnits(3))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if output.InputTokens != 21 || output.OutputTokens != 33 {
		t.Fatalf("token totals = %d/%d, want 21/33", output.InputTokens, output.OutputTokens)
	}
}

func TestSequentialContextCancelled(t *testing.T) {
	fake := &fakeCompleter{}
	runner := newSequentialRunner(t, fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output, err := runner.Run(ctx, makeUnits(3))
	if output != nil || err == nil {
		t.Fatalf("expected nil output and error, got %v, %v", output, err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls := fake.calls(); len(calls) != 0 {
		t.Fatalf("expected no calls after cancellation, got %d", len(calls))
	}
}
