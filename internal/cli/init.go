package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/embedder"
	"github.com/ramyad06/cautious-llm/internal/pipeline"
)

var (
	initPath         string
	initBatchSize    int
	initChunkSize    int
	initChunkOverlap int
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Build the vector index for a project",
	Long: `Scans the project, chunks every supported file, and builds a fresh
vector index. Any existing index at the target path is wiped first.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPath, "path", ".", "path to the project directory")
	initCmd.Flags().IntVar(&initBatchSize, "batch-size", 0, "chunks per indexing batch")
	initCmd.Flags().IntVar(&initChunkSize, "chunk-size", 0, "target chunk size in characters")
	initCmd.Flags().IntVar(&initChunkOverlap, "chunk-overlap", 0, "overlap between chunks in characters")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := resolveConfig()
	cfg.RepoPath = initPath
	if initBatchSize > 0 {
		cfg.BatchSize = initBatchSize
	}
	if initChunkSize > 0 {
		cfg.ChunkSize = initChunkSize
	}
	if initChunkOverlap > 0 {
		cfg.ChunkOverlap = initChunkOverlap
	}
	cfg.Normalize()

	runID := uuid.New().String()[:8]
	cmd.Println(titleStyle.Render(fmt.Sprintf("Initializing index for %s", cfg.RepoPath)))
	cmd.Println(mutedStyle.Render(fmt.Sprintf("run %s, store %s, batch size %d", runID, cfg.StorePath, cfg.BatchSize)))

	emb, err := embedder.NewFromEnv(cfg.EmbeddingProvider)
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}
	defer func() { _ = emb.Close() }()

	stats, err := pipeline.Rebuild(cmd.Context(), cfg, emb)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	cmd.Println()
	cmd.Printf("  Files scanned:     %d\n", stats.FilesScanned)
	cmd.Printf("  Chunks created:    %d\n", stats.ChunksTotal)
	cmd.Printf("  Chunks persisted:  %d\n", stats.ChunksPersisted)
	cmd.Printf("  Batches committed: %d\n", stats.BatchesCommitted)
	if stats.BatchesFailed > 0 {
		cmd.Println(errorStyle.Render(fmt.Sprintf("  Batches failed:    %d", stats.BatchesFailed)))
	}
	cmd.Printf("  Duration:          %s\n", stats.Duration.Round(time.Millisecond))
	cmd.Println()
	cmd.Println(successStyle.Render(fmt.Sprintf("Index built at %s", cfg.StorePath)))
	return nil
}
