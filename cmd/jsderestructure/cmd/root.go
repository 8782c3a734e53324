// Package cmd implements the command line interface for the application.
package cmd

import (
	"fmt"
	"os"

	"github.com/jsrevert/deobfuscator/internal/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile string         // Variable to hold the config file path from the flag
	cfg     *config.Config // Global variable to hold the loaded configuration

	// Flag variables mapped to config fields for override
	silentMode   bool // -> cfg.Silent
	abortOnError bool // -> cfg.AbortOnError
	debugLogging bool // -> cfg.DebugLogging
	targetName   string
	threshold    float64
	beautify     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jsderestructure",
	Short: "A CLI tool that reverses obfuscator.io and Abba-family JavaScript obfuscation.",
	Long: `jsderestructure parses obfuscated JavaScript, detects which
obfuscation family produced it, and rewrites the tree back toward its
original, readable shape.`,
	// PersistentPreRunE runs before any subcommand's RunE.
	// Use this to load configuration early.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil { // Only load config once
			loadedCfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading configuration: %w", err)
			}
			cfg = loadedCfg
			applyFlagOverrides(cfg, cmd)
		}
		return nil
	},
	// Run: Executes if no subcommand is given. Print help.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// applyFlagOverrides applies command-line flag values to the config struct.
// Only overrides if the flag was explicitly set by the user via cmd.Flags().Changed().
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command) {
	if cmd.Flags().Changed("silent") {
		cfg.Silent = silentMode
	}
	if cmd.Flags().Changed("abort-on-error") {
		cfg.AbortOnError = abortOnError
	}
	if cmd.Flags().Changed("debug") {
		cfg.DebugLogging = debugLogging
	}
	if cmd.Flags().Changed("target") {
		cfg.Target = targetName
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold = threshold
	}
	if cmd.Flags().Changed("beautify") {
		cfg.Output.Beautify = beautify
	}
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./jsderestructure.yaml)")

	rootCmd.PersistentFlags().BoolVarP(&silentMode, "silent", "s", false, "suppress informational output (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&abortOnError, "abort-on-error", true, "stop processing on the first error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "enable verbose per-node debug logging (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&targetName, "target", "t", "auto", `target selection: "auto", "off", or a registered target id`)
	rootCmd.PersistentFlags().Float64Var(&threshold, "threshold", 0.3, "minimum detection confidence for auto-selection")
	rootCmd.PersistentFlags().BoolVar(&beautify, "beautify", true, "pretty-print the regenerated source (overrides config)")

	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(dirCmd)
	rootCmd.AddCommand(targetsCmd)
}
