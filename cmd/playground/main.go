package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

// CLI represents the main CLI structure
type CLI struct {
	APIBase  string `name:"api-base" help:"Backend API base URL"`
	User     string `help:"User handle conversations belong to"`
	Config   string `type:"path" help:"Explicit config file, must exist"`
	LogLevel string `help:"Log level (debug, info, warn, error)"`
	LogFile  string `type:"path" help:"Write JSON logs to this file instead of stderr"`
	DB       string `name:"db" type:"path" help:"Local state database path"`
	Plain    bool   `help:"Disable colored output"`

	// Chat is the default command - interactive line REPL
	Chat ChatCmd `default:"1" cmd:"" help:"Interactive chat (default)"`

	Send          SendCmd         `cmd:"" help:"Send one message and print the reply"`
	Models        ModelCmd        `cmd:"" help:"Model catalog and lifecycle"`
	Conversations ConversationCmd `cmd:"" aliases:"conv" help:"Manage conversations"`
	Outbox        OutboxCmd       `cmd:"" help:"Inspect and replay unsaved messages"`
	Migrate       MigrateCmd      `cmd:"" help:"Database migrations"`
	ConfigCmd     ConfigCmd       `cmd:"" name:"config" help:"Show configuration sources"`
}

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("playground"),
		kong.Description("Chat client for a local model playground backend"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(runCtx, (*context.Context)(nil)),
	)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}
