package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/elee1766/playground/src/session"
)

// ChatCmd runs the interactive line REPL
type ChatCmd struct {
	Conversation string `short:"c" help:"Conversation ID to open"`
}

// Run executes the chat command
func (c *ChatCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	r := &repl{rt: rt}
	if c.Conversation != "" {
		r.open(ctx, c.Conversation)
	}
	return r.run(ctx, os.Stdin)
}

const replHelp = `Commands:
  /new          start a new conversation
  /list         list conversations
  /open ID      open a conversation
  /delete ID    delete a conversation
  /models       list models
  /model ID     select a model
  /help         show this help
  /quit         exit
Anything else is sent as a message.`

type repl struct {
	rt *runtime
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	out := r.rt.out
	styles := r.rt.styles

	fmt.Fprintln(out, styles.Title.Render("playground"))
	r.status()
	fmt.Fprintln(out, styles.Muted.Render("Type /help for commands."))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, line); quit {
				return nil
			}
			continue
		}
		r.send(ctx, line)
	}
}

// command runs a slash command and reports whether the REPL should exit.
func (r *repl) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.rt.out, replHelp)
	case "/new":
		r.newConversation(ctx)
	case "/list":
		if err := r.rt.app.Session.LoadConversations(ctx); err != nil {
			r.fail(err)
			return false
		}
		state := r.rt.app.Session.State()
		printConversationsTable(r.rt.out, r.rt.styles, state.Conversations, state.ActiveID())
	case "/open":
		if r.needArg(name, arg) {
			r.open(ctx, arg)
		}
	case "/delete":
		if r.needArg(name, arg) {
			if err := r.rt.app.DeleteConversation(ctx, arg); err != nil {
				r.fail(err)
				return false
			}
			fmt.Fprintf(r.rt.out, "Deleted conversation %s\n", arg)
		}
	case "/models":
		printModelsTable(r.rt.out, r.rt.styles, r.rt.app.Catalog.Reconcile(ctx), false)
	case "/model":
		if r.needArg(name, arg) {
			selectModel(r.rt, arg)
		}
	default:
		fmt.Fprintf(r.rt.out, "Unknown command %s, type /help for commands\n", name)
	}
	return false
}

func (r *repl) send(ctx context.Context, text string) {
	r.rt.app.Session.SetInput(text)
	reply, err := r.rt.app.Session.Submit(ctx)
	if err != nil {
		r.fail(err)
		return
	}
	printMessage(r.rt.out, r.rt.styles, *reply)
}

func (r *repl) newConversation(ctx context.Context) {
	conv, err := r.rt.app.Session.NewConversation(ctx)
	if errors.Is(err, session.ErrEmptyConversationExists) {
		fmt.Fprintln(r.rt.out, r.rt.styles.Muted.Render("Current conversation is still empty"))
		return
	}
	if err != nil {
		r.fail(err)
		return
	}
	fmt.Fprintf(r.rt.out, "Started %s (%s)\n", r.rt.styles.Title.Render(conv.Title), conv.ID)
}

func (r *repl) open(ctx context.Context, id string) {
	err := r.rt.app.Session.SelectConversationByID(ctx, id)
	if err != nil && !session.IsDegraded(err) {
		r.fail(err)
		return
	}
	state := r.rt.app.Session.State()
	printTranscript(r.rt.out, r.rt.styles, state.ActiveConversation, state.Messages)
	if err != nil {
		r.fail(err)
	}
}

func (r *repl) status() {
	state := r.rt.app.Session.State()
	model := r.rt.app.Catalog.Selected()
	if model == "" {
		model = "none"
	}
	conv := "none"
	if state.ActiveConversation != nil {
		conv = state.ActiveConversation.Title
	}
	fmt.Fprintln(r.rt.out, r.rt.styles.Muted.Render(fmt.Sprintf("model: %s  conversation: %s", model, conv)))
}

func (r *repl) needArg(name, arg string) bool {
	if arg == "" {
		fmt.Fprintf(r.rt.out, "Usage: %s ID\n", name)
		return false
	}
	return true
}

func (r *repl) fail(err error) {
	r.rt.logger.Debug("repl command failed", "error", err)
	fmt.Fprintln(r.rt.out, r.rt.styles.Warning.Render("error: "+err.Error()))
}
