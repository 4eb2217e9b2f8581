package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elee1766/playground/src/session"
)

var errNoReply = errors.New("the model did not reply")

// SendCmd sends a single message
type SendCmd struct {
	Conversation string   `short:"c" help:"Conversation ID to send into"`
	New          bool     `short:"n" help:"Start a new conversation first"`
	Model        string   `short:"m" help:"Model to use for this and later messages"`
	Text         []string `arg:"" optional:"" help:"Message text, read from stdin when empty or -"`
}

// Run executes the send command
func (c *SendCmd) Run(ctx context.Context, cli *CLI) error {
	text, err := c.message(os.Stdin)
	if err != nil {
		return err
	}

	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	return c.send(ctx, rt, text)
}

func (c *SendCmd) message(stdin io.Reader) (string, error) {
	text := strings.Join(c.Text, " ")
	if text == "" || text == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read message from stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", &usageError{msg: "message text is empty"}
	}
	return text, nil
}

func (c *SendCmd) send(ctx context.Context, rt *runtime, text string) error {
	if c.Conversation != "" && c.New {
		return &usageError{msg: "--conversation and --new are mutually exclusive"}
	}

	switch {
	case c.Conversation != "":
		err := rt.app.Session.SelectConversationByID(ctx, c.Conversation)
		if err != nil && !session.IsDegraded(err) {
			return err
		}
		if err != nil {
			// history could not be fetched; send into the conversation anyway
			fmt.Fprintln(rt.out, rt.styles.Warning.Render("warning: "+err.Error()))
		}
	case c.New:
		if _, err := rt.app.Session.NewConversation(ctx); err != nil {
			return err
		}
	}
	if c.Model != "" {
		rt.app.Catalog.SelectModel(c.Model)
	}

	reply, err := rt.app.Session.SendMessage(ctx, text)
	if err != nil {
		return err
	}
	printMessage(rt.out, rt.styles, *reply)
	if reply.IsError {
		return errNoReply
	}
	return nil
}
