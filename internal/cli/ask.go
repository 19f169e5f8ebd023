package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/agent"
	"github.com/ramyad06/cautious-llm/internal/embedder"
	"github.com/ramyad06/cautious-llm/internal/searcher"
	"github.com/ramyad06/cautious-llm/internal/store"
)

var (
	askContext     int
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the codebase",
	Long: `Retrieves the most relevant indexed chunks for the question and asks
the model to answer from them.

Example: codeagent ask "How does authentication work?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askContext, "context", 5, "number of context chunks to retrieve")
	askCmd.Flags().BoolVar(&askShowSources, "show-sources", false, "show source files")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	cfg := resolveConfig()

	if _, err := os.Stat(cfg.StorePath); err != nil {
		cmd.Println(errorStyle.Render("No index found."))
		cmd.Println(mutedStyle.Render("Tip: run 'codeagent init' first to build the index"))
		return fmt.Errorf("index not found at %s", cfg.StorePath)
	}

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

	client, err := agent.NewClient(cfg.GroqAPIKey, cfg.GroqModel)
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render("Searching: " + question))

	result, err := agent.Ask(cmd.Context(), client, searcher.New(st, emb), question, askContext)
	if err != nil {
		return err
	}

	cmd.Println()
	cmd.Println(panelStyle.Render(result.Answer))
	if askShowSources && len(result.Sources) > 0 {
		cmd.Println()
		cmd.Println(titleStyle.Render("Sources:"))
		for _, src := range result.Sources {
			cmd.Println("  " + sourceStyle.Render(src))
		}
	}
	return nil
}
