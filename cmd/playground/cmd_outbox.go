package main

import (
	"context"
	"fmt"

	"github.com/elee1766/playground/src/app"
)

// OutboxCmd inspects message records the backend did not accept
type OutboxCmd struct {
	List  OutboxListCmd  `cmd:"" help:"List queued message records"`
	Flush OutboxFlushCmd `cmd:"" help:"Replay queued message records"`
}

// OutboxListCmd lists the outbox
type OutboxListCmd struct{}

// Run executes the outbox list command
func (c *OutboxListCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.app.Outbox == nil {
		return app.ErrNoStorage
	}
	entries, err := rt.app.Outbox.Entries(ctx)
	if err != nil {
		return err
	}
	printOutboxTable(rt.out, rt.styles, entries)
	return nil
}

// OutboxFlushCmd replays the outbox
type OutboxFlushCmd struct{}

// Run executes the outbox flush command
func (c *OutboxFlushCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.app.FlushOutbox(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "Delivered %d, still queued %d\n", result.Delivered, result.Failed)
	if result.Failed > 0 {
		return fmt.Errorf("%d message records could not be delivered", result.Failed)
	}
	return nil
}
