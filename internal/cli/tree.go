package cli

import (
	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/tools"
)

var (
	treePath     string
	treeMaxDepth int
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Display the project directory tree",
	Long: `Prints an indented tree of the project, hidden entries skipped.

Example: codeagent tree --path ./src --max-depth 3`,
	RunE: runTree,
}

func init() {
	treeCmd.Flags().StringVar(&treePath, "path", ".", "directory to display")
	treeCmd.Flags().IntVar(&treeMaxDepth, "max-depth", 2, "maximum depth to traverse")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	tk := tools.New(nil)
	out, err := tk.DirectoryTree(treePath, treeMaxDepth)
	if err != nil {
		return err
	}
	cmd.Println(out)
	return nil
}
