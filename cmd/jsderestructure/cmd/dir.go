package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dirOutput string

// dirCmd represents the deobfuscate-a-directory command
var dirCmd = &cobra.Command{
	Use:   "dir <input_dir>",
	Short: "Deobfuscate every JavaScript file in a directory tree",
	Long: `Walks a directory recursively, runs the resolved target's
pipeline against every JavaScript file found, copies non-JavaScript files
through unchanged, and writes the results under the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		cmd.SilenceUsage = true
		inputDir := args[0]
		if dirOutput == "" {
			return fmt.Errorf("--output (-o) is required")
		}

		d, err := newDeobfuscator()
		if err != nil {
			return fmt.Errorf("failed to initialize deobfuscator: %w", err)
		}

		if !cfg.Silent {
			fmt.Printf("Processing directory: %s -> %s\n", inputDir, dirOutput)
		}
		if err := d.DeobfuscateDirectory(inputDir, dirOutput); err != nil {
			return fmt.Errorf("error processing directory %s: %w", inputDir, err)
		}
		if !cfg.Silent {
			fmt.Println("Directory processing finished.")
		}
		return nil
	},
}

func init() {
	dirCmd.Flags().StringVarP(&dirOutput, "output", "o", "", "output directory path (required)")
}
