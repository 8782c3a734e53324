package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsrevert/deobfuscator/internal/jsparser"
)

// targetsCmd lists the registered targets, or, given a file, reports what
// each one thinks of it.
var targetsCmd = &cobra.Command{
	Use:   "targets [js_file]",
	Short: "List registered targets, or detect which one fits a file",
	Long: `With no arguments, lists every registered target's id, name, and
description. Given a JavaScript file, runs each target's detection and
prints its confidence score, sorted highest first.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		cmd.SilenceUsage = true

		d, err := newDeobfuscator()
		if err != nil {
			return fmt.Errorf("failed to initialize deobfuscator: %w", err)
		}

		if len(args) == 0 {
			for _, t := range d.Registry.GetAll() {
				meta := t.Meta()
				fmt.Printf("%-16s %-24s %s\n", meta.ID, meta.Name, meta.Description)
			}
			return nil
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		prog, err := jsparser.Parse(string(content))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		entries := d.Registry.Detect(prog)
		if len(entries) == 0 {
			fmt.Println("no target reported non-zero confidence")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%-16s confidence=%.2f %s\n", e.Target.Meta().ID, e.Result.Confidence, e.Result.Details)
		}
		return nil
	},
}
