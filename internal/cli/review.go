package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/agent"
	"github.com/ramyad06/cautious-llm/internal/tools"
)

var reviewType string

var reviewCmd = &cobra.Command{
	Use:   "review [file]",
	Short: "Review a code file for issues",
	Long: `Asks the model to review a file. Without a GROQ_API_KEY the command
falls back to printing the file outline and a preview.

Example: codeagent review ./internal/store/sqlite.go --type security`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVar(&reviewType, "type", "all", "review focus: security, performance, style, or all")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	path := args[0]
	switch reviewType {
	case "security", "performance", "style", "all":
	default:
		return fmt.Errorf("invalid review type %q", reviewType)
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}

	tk := tools.New(nil)
	content, err := tk.ReadFile(path)
	if err != nil {
		return err
	}
	outline, err := tk.FileOutline(path)
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render("Reviewing: " + path))
	cmd.Println()
	cmd.Println(titleStyle.Render("File Outline:"))
	cmd.Println(outline)
	cmd.Println()

	cfg := resolveConfig()
	client, err := agent.NewClient(cfg.GroqAPIKey, cfg.GroqModel)
	if err != nil {
		// No API key: show structure and a preview instead of a review.
		cmd.Println(mutedStyle.Render("GROQ_API_KEY not set; showing file preview only."))
		lines := strings.SplitN(content, "\n", 21)
		if len(lines) > 20 {
			lines = lines[:20]
		}
		cmd.Println(panelStyle.Render(strings.Join(lines, "\n")))
		return nil
	}

	prompt := fmt.Sprintf(
		"Review the following file for %s issues. Be specific: cite line content and explain each finding.\n\nFile: %s\n\n%s",
		reviewType, path, content)

	reply, err := client.Complete(cmd.Context(), []agent.Message{
		{Role: "system", Content: "You are a Senior Software Engineer performing a focused code review."},
		{Role: "user", Content: prompt},
	}, nil)
	if err != nil {
		return fmt.Errorf("review failed: %w", err)
	}

	cmd.Println(panelStyle.Render(reply.Content))
	return nil
}
