package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsrevert/deobfuscator/pkg/api"
)

var outputFile string // Flag variable for output file path

// fileCmd represents the deobfuscate-a-single-file command
var fileCmd = &cobra.Command{
	Use:   "file <js_file_path>",
	Short: "Deobfuscate a single JavaScript file",
	Long: `Reads a single JavaScript file, runs the resolved target's
pipeline against it, and writes the result to stdout or a specified file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		cmd.SilenceUsage = true
		filePath := args[0]

		d, err := newDeobfuscator()
		if err != nil {
			return fmt.Errorf("failed to initialize deobfuscator: %w", err)
		}

		if !cfg.Silent {
			fmt.Printf("Processing file: %s\n", filePath)
		}
		outputContent, err := d.DeobfuscateFile(filePath)
		if err != nil {
			return fmt.Errorf("error processing file %s: %w", filePath, err)
		}

		if outputFile != "" {
			if !cfg.Silent {
				fmt.Printf("Info: writing output to file: %s\n", outputFile)
			}
			if err := os.WriteFile(outputFile, []byte(outputContent), 0644); err != nil {
				return fmt.Errorf("error writing to output file %s: %w", outputFile, err)
			}
		} else {
			fmt.Print(outputContent)
		}
		return nil
	},
}

func init() {
	fileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file path (default: stdout)")
}
