// Package api provides the public API for using the deobfuscator as a
// library.
//
// This package allows callers to run the deobfuscation pipeline
// programmatically using the same engine available through the command-line
// interface: parse a target registry is picked (or an explicit one given),
// its pipeline is run against the parsed tree, and the result is
// regenerated as source.
//
// Basic usage example:
//
//	d, err := api.NewDeobfuscator(api.Options{ConfigPath: "jsderestructure.yaml"})
//	if err != nil {
//	    log.Fatalf("failed to create deobfuscator: %v", err)
//	}
//
//	result, err := d.DeobfuscateCode("var _0x1=['a'];...")
//	if err != nil {
//	    log.Fatalf("failed to deobfuscate code: %v", err)
//	}
//
//	fmt.Println(result)
package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jsrevert/deobfuscator/internal/codegen"
	"github.com/jsrevert/deobfuscator/internal/config"
	"github.com/jsrevert/deobfuscator/internal/deadcode"
	"github.com/jsrevert/deobfuscator/internal/jsast"
	"github.com/jsrevert/deobfuscator/internal/jsparser"
	"github.com/jsrevert/deobfuscator/internal/logging"
	"github.com/jsrevert/deobfuscator/internal/sandbox"
	"github.com/jsrevert/deobfuscator/internal/target"
	"github.com/jsrevert/deobfuscator/internal/target/abba"
	"github.com/jsrevert/deobfuscator/internal/target/obfio"
)

// PrintInfo prints formatted information to stdout, respecting config.Testing.
// Forwards to internal/config.PrintInfo.
func PrintInfo(format string, args ...interface{}) {
	config.PrintInfo(format, args...)
}

// Deobfuscator is the main deobfuscation engine: a loaded configuration plus
// the target registry it resolves against.
type Deobfuscator struct {
	Config   *config.Config
	Registry *target.Registry
	logger   *logging.Logger
}

// Options configures a new Deobfuscator.
type Options struct {
	// ConfigPath is the path to a YAML configuration file. If empty,
	// ./jsderestructure.yaml is read when it exists and default
	// configuration is used otherwise.
	ConfigPath string

	// Silent suppresses informational messages.
	Silent bool

	// Target overrides the configured target selection: "auto", "off", or
	// a registered target id. Empty leaves the loaded config's value.
	Target string

	// Threshold overrides the configured auto-detection threshold. Zero
	// leaves the loaded config's value.
	Threshold float64

	// ConfigOverrides allows overriding specific config options. Reserved
	// for future use and not currently implemented.
	ConfigOverrides map[string]interface{}
}

// NewDeobfuscator creates a new Deobfuscator using the provided options.
func NewDeobfuscator(options Options) (*Deobfuscator, error) {
	cfg, err := config.LoadConfig(options.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if options.Silent {
		cfg.Silent = true
	}
	if options.Target != "" {
		cfg.Target = options.Target
	}
	if options.Threshold != 0 {
		cfg.Threshold = options.Threshold
	}

	return NewDeobfuscatorWithConfig(cfg)
}

// NewDeobfuscatorWithConfig builds a Deobfuscator from an already-loaded
// configuration, skipping the load step. Callers that load config once
// themselves (the CLI applies flag overrides on top of a loaded config)
// use this to avoid re-reading the config file from NewDeobfuscator.
func NewDeobfuscatorWithConfig(cfg *config.Config) (*Deobfuscator, error) {
	logger := logging.New(cfg.Silent, cfg.DebugLogging)
	reg := target.NewRegistry(logger.LogFunc())
	reg.Register(obfio.New())
	reg.Register(abba.New())
	if err := reg.SetDefault("obfuscator-io"); err != nil {
		return nil, fmt.Errorf("failed to set default target: %w", err)
	}

	return &Deobfuscator{
		Config:   cfg,
		Registry: reg,
		logger:   logger,
	}, nil
}

// runCore is the deobfuscation entry of §6: parse, resolve a target,
// run its pipeline (or dead-code removal alone when targeting is off or
// nothing resolves), and regenerate source.
func (d *Deobfuscator) runCore(src string) (string, *jsast.TransformState, error) {
	prog, err := jsparser.Parse(src)
	if err != nil {
		return "", nil, fmt.Errorf("deobfuscate: parsing input: %w", err)
	}

	state := &jsast.TransformState{}

	sb, err := sandbox.New()
	if err != nil {
		return "", nil, fmt.Errorf("deobfuscate: initializing sandbox: %w", err)
	}

	if d.Config.Target == "off" {
		d.logger.Info("target selection disabled, running dead-code removal only")
		deadcode.Run(prog, state)
	} else {
		explicitID := d.Config.Target
		if explicitID == "auto" {
			explicitID = ""
		}
		t, err := d.Registry.Resolve(prog, explicitID, d.Config.Threshold)
		if err != nil {
			return "", nil, fmt.Errorf("deobfuscate: resolving target: %w", err)
		}
		if t == nil {
			d.logger.Info("no target resolved, running dead-code removal only")
			deadcode.Run(prog, state)
		} else {
			d.logger.Info("running target %q", t.Meta().ID)
			ctx := &target.Context{
				Program:   prog,
				State:     state,
				Sandbox:   sb,
				Info:      d.logger.InfoFunc(),
				Debug:     d.logger.DebugFunc(),
				Threshold: d.Config.Threshold,
			}
			if err := t.Run(ctx); err != nil {
				return "", nil, fmt.Errorf("deobfuscate: running target %q: %w", t.Meta().ID, err)
			}
		}
	}

	var out string
	if d.Config.Output.Beautify {
		out, err = codegen.GenerateAndBeautify(prog)
		if err != nil {
			return "", nil, fmt.Errorf("deobfuscate: generating output: %w", err)
		}
	} else {
		out = codegen.Generate(prog)
	}
	d.logger.Info("finished with %d change(s)", state.Changes)
	return out, state, nil
}

// DeobfuscateCode deobfuscates a string of JavaScript source and returns the
// resulting code.
func (d *Deobfuscator) DeobfuscateCode(code string) (string, error) {
	out, _, err := d.runCore(code)
	return out, err
}

// DeobfuscateFile deobfuscates a JavaScript file and returns the resulting
// code.
func (d *Deobfuscator) DeobfuscateFile(filePath string) (string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	out, _, err := d.runCore(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to deobfuscate file %s: %w", filePath, err)
	}
	return out, nil
}

// DeobfuscateFileToFile deobfuscates a JavaScript file and writes the result
// to another file.
func (d *Deobfuscator) DeobfuscateFileToFile(inputPath, outputPath string) error {
	result, err := d.DeobfuscateFile(inputPath)
	if err != nil {
		return err
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	if err := os.WriteFile(outputPath, []byte(result), 0644); err != nil {
		return fmt.Errorf("failed to write to output file %s: %w", outputPath, err)
	}
	return nil
}

// DeobfuscateDirectory deobfuscates every JavaScript file under inputDir and
// writes the results under outputDir, preserving directory structure and
// copying non-JavaScript files through unchanged. Paths matching the
// configured skip list are left out entirely.
func (d *Deobfuscator) DeobfuscateDirectory(inputDir, outputDir string) error {
	inputInfo, err := os.Stat(inputDir)
	if err != nil {
		return fmt.Errorf("failed to stat input directory %s: %w", inputDir, err)
	}
	if !inputInfo.IsDir() {
		return fmt.Errorf("input path %s is not a directory", inputDir)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	d.Config.TargetDirectory = outputDir

	return d.processDirectoryRecursive(inputDir, outputDir, inputDir)
}

func (d *Deobfuscator) processDirectoryRecursive(inputDir, outputDir, root string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", inputDir, err)
	}

	for _, entry := range entries {
		inputPath := filepath.Join(inputDir, entry.Name())
		outputPath := filepath.Join(outputDir, entry.Name())

		relPath, err := filepath.Rel(root, inputPath)
		if err != nil {
			relPath = entry.Name()
		}

		if shouldSkipPath(relPath, d.Config.SkipPaths) {
			d.logger.Info("skipping path (matches skiplist): %s", relPath)
			continue
		}

		if entry.IsDir() {
			if err := os.MkdirAll(outputPath, 0755); err != nil {
				return fmt.Errorf("failed to create output directory %s: %w", outputPath, err)
			}
			if err := d.processDirectoryRecursive(inputPath, outputPath, root); err != nil {
				return err
			}
			continue
		}

		if isJSFile(entry.Name()) {
			result, err := d.DeobfuscateFile(inputPath)
			if err != nil {
				if d.Config.AbortOnError {
					return err
				}
				d.logger.Info("warning: failed to process %s: %v", inputPath, err)
				continue
			}
			if err := os.WriteFile(outputPath, []byte(result), 0644); err != nil {
				if d.Config.AbortOnError {
					return fmt.Errorf("failed to write output to %s: %w", outputPath, err)
				}
				d.logger.Info("warning: failed to write output to %s: %v", outputPath, err)
				continue
			}
			d.logger.Info("processed: %s -> %s", inputPath, outputPath)
		} else {
			content, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", inputPath, err)
			}
			if err := os.WriteFile(outputPath, content, 0644); err != nil {
				return fmt.Errorf("failed to write file %s: %w", outputPath, err)
			}
			d.logger.Info("copied: %s -> %s", inputPath, outputPath)
		}
	}

	return nil
}

func shouldSkipPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

func isJSFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".js", ".mjs", ".cjs":
		return true
	default:
		return false
	}
}
