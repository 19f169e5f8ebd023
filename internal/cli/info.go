package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/embedder"
	"github.com/ramyad06/cautious-llm/internal/store"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration and index status",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := resolveConfig()

	groqKey := errorStyle.Render("not set")
	if cfg.GroqAPIKey != "" {
		groqKey = successStyle.Render("set")
	}

	rows := [][2]string{
		{"Version", Version},
		{"Store path", cfg.StorePath},
		{"Repo path", orDefault(cfg.RepoPath, ".")},
		{"Batch size", fmt.Sprintf("%d", cfg.BatchSize)},
		{"Chunk size", fmt.Sprintf("%d", cfg.ChunkSize)},
		{"Chunk overlap", fmt.Sprintf("%d", cfg.ChunkOverlap)},
		{"Embedding provider", embedder.DetectProvider(cfg.EmbeddingProvider)},
		{"LLM model", cfg.GroqModel},
		{"Groq API key", groqKey},
		{"SQLite build", store.BuildMode},
	}

	cmd.Println(titleStyle.Render("Code Intelligence Agent - System Info"))
	cmd.Println()
	for _, row := range rows {
		cmd.Printf("  %-20s %s\n", row[0], row[1])
	}

	if _, err := os.Stat(cfg.StorePath); err != nil {
		cmd.Println()
		cmd.Println(mutedStyle.Render("No index built yet; run 'codeagent init'."))
		return nil
	}

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = st.Close() }()

	count, err := st.Count(context.Background())
	if err != nil {
		return err
	}
	sources, err := st.Sources(context.Background())
	if err != nil {
		return err
	}

	cmd.Println()
	cmd.Printf("  %-20s %d\n", "Indexed chunks", count)
	cmd.Printf("  %-20s %d\n", "Indexed files", len(sources))
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
