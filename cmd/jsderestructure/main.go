/*
jsderestructure reverses javascript-obfuscator.io and Abba-family
obfuscation: it parses a JavaScript source tree, detects (or accepts) the
obfuscation family it belongs to, and rewrites the tree back toward its
original shape.
*/
package main

import (
	"github.com/jsrevert/deobfuscator/cmd/jsderestructure/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
