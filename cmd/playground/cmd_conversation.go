package main

import (
	"context"
	"fmt"
)

// ConversationCmd manages conversations
type ConversationCmd struct {
	List   ConversationListCmd   `cmd:"" help:"List conversations"`
	Show   ConversationShowCmd   `cmd:"" help:"Print a conversation transcript"`
	Delete ConversationDeleteCmd `cmd:"" help:"Delete a conversation"`
}

// ConversationListCmd lists the user's conversations
type ConversationListCmd struct{}

// Run executes the conversations list command
func (c *ConversationListCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Restore already loaded the list; reload so a failure is reported
	if err := rt.app.Session.LoadConversations(ctx); err != nil {
		return err
	}
	state := rt.app.Session.State()
	printConversationsTable(rt.out, rt.styles, state.Conversations, state.ActiveID())
	return nil
}

// ConversationShowCmd opens a conversation and prints it
type ConversationShowCmd struct {
	ID string `arg:"" help:"Conversation ID"`
}

// Run executes the conversations show command
func (c *ConversationShowCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.app.Session.SelectConversationByID(ctx, c.ID); err != nil {
		return err
	}
	state := rt.app.Session.State()
	printTranscript(rt.out, rt.styles, state.ActiveConversation, state.Messages)
	return nil
}

// ConversationDeleteCmd deletes a conversation
type ConversationDeleteCmd struct {
	ID string `arg:"" help:"Conversation ID"`
}

// Run executes the conversations delete command
func (c *ConversationDeleteCmd) Run(ctx context.Context, cli *CLI) error {
	rt, err := cli.open(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.app.DeleteConversation(ctx, c.ID); err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "Deleted conversation %s\n", c.ID)
	return nil
}
