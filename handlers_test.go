package ircmesh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/ircmesh/task"
)

func runChain(t *testing.T, handlers []MessageHandler, line string) {
	t.Helper()
	sup := task.NewSupervisor()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := StackProcess(ctx, sup, handlers, nil, []byte(line)).Wait(ctx); err != nil {
		t.Fatalf("chain: %v", err)
	}
}

func TestStackProcess_RunsInOrder(t *testing.T) {
	var order []string
	handlers := []MessageHandler{
		func(ctx context.Context, next NextHandler, _ *Client, line []byte) error {
			order = append(order, "first")
			return next(ctx, line)
		},
		func(ctx context.Context, next NextHandler, _ *Client, line []byte) error {
			order = append(order, "second")
			return next(ctx, line)
		},
	}

	runChain(t, handlers, "line")

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
}

func TestStackProcess_ShortCircuit(t *testing.T) {
	var order []string
	handlers := []MessageHandler{
		func(context.Context, NextHandler, *Client, []byte) error {
			order = append(order, "first")
			return nil // never calls next
		},
		func(ctx context.Context, next NextHandler, _ *Client, line []byte) error {
			order = append(order, "second")
			return next(ctx, line)
		},
	}

	runChain(t, handlers, "line")

	if len(order) != 1 || order[0] != "first" {
		t.Fatalf("order = %v", order)
	}
}

func TestStackProcess_EmptyChain(t *testing.T) {
	runChain(t, nil, "line")
}

func TestStackProcess_NextPastEndIsNoOp(t *testing.T) {
	handlers := []MessageHandler{
		func(ctx context.Context, next NextHandler, _ *Client, line []byte) error {
			if err := next(ctx, line); err != nil {
				return err
			}
			// a second advance runs off the end of the chain
			return next(ctx, line)
		},
	}

	runChain(t, handlers, "line")
}

func TestStackProcess_LineSubstitution(t *testing.T) {
	var seen []string
	handlers := []MessageHandler{
		func(ctx context.Context, next NextHandler, _ *Client, line []byte) error {
			seen = append(seen, string(line))
			return next(ctx, []byte("rewritten"))
		},
		func(ctx context.Context, next NextHandler, _ *Client, line []byte) error {
			seen = append(seen, string(line))
			return next(ctx, line)
		},
	}

	runChain(t, handlers, "original")

	if len(seen) != 2 || seen[0] != "original" || seen[1] != "rewritten" {
		t.Fatalf("seen = %v", seen)
	}
}

func TestStackProcess_CopiesLine(t *testing.T) {
	sup := task.NewSupervisor()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	seen := make(chan string, 1)
	handlers := []MessageHandler{
		func(_ context.Context, _ NextHandler, _ *Client, line []byte) error {
			seen <- string(line)
			return nil
		},
	}

	line := []byte("stable")
	tk := StackProcess(ctx, sup, handlers, nil, line)
	// The caller may clobber the backing slice immediately.
	copy(line, []byte("XXXXXX"))

	if err := tk.Wait(ctx); err != nil {
		t.Fatalf("chain: %v", err)
	}
	if got := <-seen; got != "stable" {
		t.Fatalf("got %q", got)
	}
}

func TestStackProcess_HandlerErrorSurfaces(t *testing.T) {
	sup := task.NewSupervisor()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	boom := errors.New("boom")
	handlers := []MessageHandler{
		func(context.Context, NextHandler, *Client, []byte) error { return boom },
	}

	err := StackProcess(ctx, sup, handlers, nil, []byte("line")).Wait(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
