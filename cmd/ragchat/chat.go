package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/ragchat/ragchat/chat"
	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
	"github.com/spf13/cobra"
)

var showSources bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Reads messages from stdin, one per line.

Commands:
  /reset   clear the conversation
  /exit    quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&showSources, "sources", false, "Print source nodes after each answer")
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := a.engine()
	if err != nil {
		return err
	}
	return chatLoop(cmd.Context(), engine, cmd.InOrStdin(), cmd.OutOrStdout(), showSources)
}

// chatLoop drives one engine from line-oriented input until EOF, /exit or cancellation.
// A failed turn is reported, rolled back to the prior history, and the loop continues.
func chatLoop(ctx context.Context, engine chat.Engine, in io.Reader, out io.Writer, sources bool) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Fprint(out, "> ")
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			engine.Reset()
			fmt.Fprintln(out, "(conversation cleared)")
			fmt.Fprint(out, "> ")
			continue
		}

		snap := engine.Snapshot()
		resp, err := engine.Chat(ctx, line)
		switch {
		case errors.Is(err, context.Canceled):
			engine.Restore(snap)
			return nil
		case err != nil:
			engine.Restore(snap)
			fmt.Fprintf(out, "error: %v (turn discarded)\n", err)
		default:
			fmt.Fprintln(out, resp.Text)
			if sources {
				printSources(out, resp.SourceNodes)
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func printSources(out io.Writer, nodes []ports.NodeWithScore) {
	for i, n := range nodes {
		src := n.Node.Metadata["source"]
		if src == "" {
			src = n.Node.ID
		}
		fmt.Fprintf(out, "  [%d] %s (score %.3f)\n", i+1, src, n.Score)
	}
}
