package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/agent"
	"github.com/ramyad06/cautious-llm/internal/embedder"
	"github.com/ramyad06/cautious-llm/internal/searcher"
	"github.com/ramyad06/cautious-llm/internal/store"
	"github.com/ramyad06/cautious-llm/internal/tools"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start interactive chat mode",
	Long:  "Chat with the agent about your codebase. Type 'exit' to leave.",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := resolveConfig()

	client, err := agent.NewClient(cfg.GroqAPIKey, cfg.GroqModel)
	if err != nil {
		return err
	}

	tk := tools.New(nil)
	// Semantic search works only when an index exists; the other tools
	// don't need one.
	if _, err := os.Stat(cfg.StorePath); err == nil {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer func() { _ = st.Close() }()

		emb, err := embedder.NewFromEnv(cfg.EmbeddingProvider)
		if err != nil {
			return fmt.Errorf("failed to initialize embedder: %w", err)
		}
		defer func() { _ = emb.Close() }()
		tk.SetSearcher(searcher.New(st, emb))
	}

	a := agent.New(client, agent.NewRegistry(tk))
	sessionID := uuid.New().String()[:8]

	cmd.Println(panelStyle.Render(
		"Code Intelligence Agent - Interactive Mode\n" +
			"Type your questions and I'll help you understand your codebase.\n" +
			"Type 'exit' or 'quit' to leave."))
	cmd.Println(mutedStyle.Render("session " + sessionID))

	var history []agent.Message
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		cmd.Print(titleStyle.Render("\nYou: "))
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		switch strings.ToLower(query) {
		case "exit", "quit", "q":
			cmd.Println("\nGoodbye!")
			return nil
		}

		cmd.Println(mutedStyle.Render("Thinking..."))

		answer, updated, err := a.RunWithHistory(cmd.Context(), history, query)
		if err != nil {
			cmd.Println(errorStyle.Render("Error: " + err.Error()))
			continue
		}
		history = updated

		cmd.Println()
		cmd.Println(panelStyle.Render(answer))
	}

	cmd.Println("\nGoodbye!")
	return scanner.Err()
}
