package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/elee1766/playground/src/catalog"
	"github.com/elee1766/playground/src/chat"
	"github.com/elee1766/playground/src/storage"
	"github.com/elee1766/playground/src/theme"
)

// Styled values stay in the last column so escape codes never skew alignment.

func printModelsTable(w io.Writer, styles theme.Styles, snap *catalog.Snapshot, all bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	running := make(map[string]bool)
	for _, ref := range snap.Running() {
		running[ref.CanonicalID] = true
	}

	refs := append(snap.Installed(), snap.Pullable()...)
	if all {
		refs = append(refs, snap.Catalog()...)
	}
	if len(refs) == 0 {
		fmt.Fprintln(tw, styles.Muted.Render("No models available"))
		return
	}

	fmt.Fprintln(tw, " \tID\tName\tSize\tState\tKind")
	fmt.Fprintln(tw, " \t--\t----\t----\t-----\t----")
	for _, ref := range refs {
		marker := " "
		if ref.CanonicalID == snap.Selected() {
			marker = "*"
		}
		state := "-"
		if running[ref.CanonicalID] {
			state = "running"
		}
		size := ref.FileSize
		if size == "" {
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			marker, ref.CanonicalID, ref.DisplayName, size, state, styles.Kind(ref.Kind))
	}
}

func printConversationsTable(w io.Writer, styles theme.Styles, conversations []chat.Conversation, activeID string) {
	if len(conversations) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No conversations yet"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, " \tID\tModel\tMessages\tUpdated\tTitle")
	fmt.Fprintln(tw, " \t--\t-----\t--------\t-------\t-----")
	for _, conv := range conversations {
		marker := " "
		if conv.ID == activeID {
			marker = "*"
		}
		model := conv.ModelUsed
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			marker, conv.ID, model, conv.MessageCount, shortTime(conv.UpdatedAt), conv.Title)
	}
}

func printMessage(w io.Writer, styles theme.Styles, m chat.Message) {
	fmt.Fprintf(w, "%s: %s\n", styles.Speaker(m), styles.Body(m))
}

func printTranscript(w io.Writer, styles theme.Styles, conv *chat.Conversation, messages []chat.Message) {
	if conv != nil {
		fmt.Fprintln(w, styles.Title.Render(conv.Title))
		if conv.ModelUsed != "" {
			fmt.Fprintln(w, styles.Muted.Render("model: "+conv.ModelUsed))
		}
		fmt.Fprintln(w)
	}
	if len(messages) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No messages"))
		return
	}
	for _, m := range messages {
		printMessage(w, styles, m)
	}
}

func printOutboxTable(w io.Writer, styles theme.Styles, entries []storage.OutboxEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("Outbox is empty"))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tConversation\tRole\tAttempts\tCreated\tLast Error")
	fmt.Fprintln(tw, "--\t------------\t----\t--------\t-------\t----------")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.ID, e.ConversationID, e.Role, e.Attempts,
			e.CreatedAt.Format("2006-01-02 15:04:05"), styles.Warning.Render(e.LastError))
	}
}

func shortTime(t chat.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
