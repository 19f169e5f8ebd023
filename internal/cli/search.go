package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/tools"
)

var (
	searchPath  string
	searchRegex bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for exact strings in the codebase",
	Long: `Recursive content search, literal by default.

Example: codeagent search "func main" --path ./src`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchPath, "path", ".", "path to search in")
	searchCmd.Flags().BoolVar(&searchRegex, "regex", false, "treat query as a regex pattern")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	cmd.Println(titleStyle.Render(fmt.Sprintf("Searching for %q in %s", query, searchPath)))
	cmd.Println()

	tk := tools.New(nil)
	result, err := tk.GrepSearch(query, searchPath, searchRegex)
	if err != nil {
		return err
	}

	if result == "No matches found." {
		cmd.Println(mutedStyle.Render(result))
		return nil
	}

	matches := strings.Split(strings.TrimPrefix(result, "Matches:\n"), "\n")
	cmd.Println(successStyle.Render(fmt.Sprintf("Found %d matches:", len(matches))))
	cmd.Println()

	const maxShown = 20
	for i, match := range matches {
		if i == maxShown {
			cmd.Println(mutedStyle.Render(fmt.Sprintf("... and %d more matches", len(matches)-maxShown)))
			break
		}
		cmd.Println(match)
	}
	return nil
}
