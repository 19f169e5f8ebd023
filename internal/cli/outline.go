package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/tools"
)

var outlineCmd = &cobra.Command{
	Use:   "outline [file]",
	Short: "Show declarations in a source file",
	Long: `Lists the line-numbered function, type, and class declarations of a
file.

Example: codeagent outline ./internal/agent/agent.go`,
	Args: cobra.ExactArgs(1),
	RunE: runOutline,
}

func init() {
	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	path := args[0]

	tk := tools.New(nil)
	out, err := tk.FileOutline(path)
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render(fmt.Sprintf("Outline: %s", filepath.Base(path))))
	cmd.Println()
	cmd.Println(out)
	return nil
}
