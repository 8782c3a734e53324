package api_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jsrevert/deobfuscator/internal/config"
	"github.com/jsrevert/deobfuscator/pkg/api"
)

// Example shows basic usage of the deobfuscation library.
func Example() {
	config.Testing = true
	defer func() { config.Testing = false }()

	d, err := api.NewDeobfuscator(api.Options{Silent: true})
	if err != nil {
		log.Fatalf("failed to create deobfuscator: %v", err)
	}

	src := `var _0xarr = ['Hello World'];
function _0xdec(i) { return _0xarr[i]; }
console.log(_0xdec(0));`

	_, err = d.DeobfuscateCode(src)
	if err != nil {
		log.Fatalf("failed to deobfuscate code: %v", err)
	}

	fmt.Println("code was successfully deobfuscated")

	// Output: code was successfully deobfuscated
}

// ExampleDeobfuscator_DeobfuscateFile demonstrates deobfuscating a single
// JavaScript file.
func ExampleDeobfuscator_DeobfuscateFile() {
	config.Testing = true
	defer func() { config.Testing = false }()

	d, err := api.NewDeobfuscator(api.Options{Silent: true})
	if err != nil {
		log.Fatalf("failed to create deobfuscator: %v", err)
	}

	dir, err := os.MkdirTemp("", "jsderestructure-example")
	if err != nil {
		log.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	inPath := filepath.Join(dir, "in.js")
	src := "var _0xarr = ['Hello World'];\nfunction _0xdec(i) { return _0xarr[i]; }\nconsole.log(_0xdec(0));"
	if err := os.WriteFile(inPath, []byte(src), 0644); err != nil {
		log.Fatalf("failed to write input file: %v", err)
	}

	if _, err := d.DeobfuscateFile(inPath); err != nil {
		log.Fatalf("failed to deobfuscate file: %v", err)
	}

	fmt.Println("file successfully deobfuscated")
	// Output: file successfully deobfuscated
}

// ExampleDeobfuscator_DeobfuscateFileToFile demonstrates deobfuscating a
// JavaScript file and writing the result to another file.
func ExampleDeobfuscator_DeobfuscateFileToFile() {
	config.Testing = true
	defer func() { config.Testing = false }()

	d, err := api.NewDeobfuscator(api.Options{Silent: true})
	if err != nil {
		log.Fatalf("failed to create deobfuscator: %v", err)
	}

	dir, err := os.MkdirTemp("", "jsderestructure-example")
	if err != nil {
		log.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)
	inPath := filepath.Join(dir, "in.js")
	src := "var _0xarr = ['Hello World'];\nfunction _0xdec(i) { return _0xarr[i]; }\nconsole.log(_0xdec(0));"
	if err := os.WriteFile(inPath, []byte(src), 0644); err != nil {
		log.Fatalf("failed to write input file: %v", err)
	}

	if err := d.DeobfuscateFileToFile(inPath, filepath.Join(dir, "out", "out.js")); err != nil {
		log.Fatalf("failed to deobfuscate file: %v", err)
	}

	fmt.Println("file successfully written")
	// Output: file successfully written
}
