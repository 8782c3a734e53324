package cmd

import (
	"github.com/jsrevert/deobfuscator/pkg/api"
)

// newDeobfuscator builds a *api.Deobfuscator from the already-loaded,
// flag-overridden global cfg, so the CLI and the library surface share
// exactly one registry-construction path without reloading the config file.
func newDeobfuscator() (*api.Deobfuscator, error) {
	return api.NewDeobfuscatorWithConfig(cfg)
}
