package api_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsrevert/deobfuscator/pkg/api"
)

const decoderSrc = `
var _0xarr = ['foo', 'bar'];
function _0xdec(i) {
  return _0xarr[i];
}
var greeting = _0xdec(0);
var target = _0xdec(1);
console.log(greeting, target);
`

func TestNewDeobfuscatorDefaults(t *testing.T) {
	d, err := api.NewDeobfuscator(api.Options{})
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "auto", d.Config.Target)
	assert.NotNil(t, d.Registry)
}

func TestNewDeobfuscatorAppliesOptions(t *testing.T) {
	d, err := api.NewDeobfuscator(api.Options{Silent: true, Target: "abba", Threshold: 0.8})
	require.NoError(t, err)
	assert.True(t, d.Config.Silent)
	assert.Equal(t, "abba", d.Config.Target)
	assert.InDelta(t, 0.8, d.Config.Threshold, 0.0001)
}

func TestDeobfuscateCodeAutoResolvesObfuscatorIO(t *testing.T) {
	d, err := api.NewDeobfuscator(api.Options{Silent: true})
	require.NoError(t, err)

	out, err := d.DeobfuscateCode(decoderSrc)
	require.NoError(t, err)
	assert.Contains(t, out, "foo")
	assert.Contains(t, out, "bar")
	assert.NotContains(t, out, "_0xdec")
}

func TestDeobfuscateCodeExplicitTargetOff(t *testing.T) {
	d, err := api.NewDeobfuscator(api.Options{Silent: true, Target: "off"})
	require.NoError(t, err)

	out, err := d.DeobfuscateCode(`var x = 1; function unused() { return 1; }`)
	require.NoError(t, err)
	assert.NotContains(t, out, "unused")
}

func TestDeobfuscateFileAndToFile(t *testing.T) {
	d, err := api.NewDeobfuscator(api.Options{Silent: true})
	require.NoError(t, err)

	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.js")
	require.NoError(t, os.WriteFile(inPath, []byte(decoderSrc), 0644))

	out, err := d.DeobfuscateFile(inPath)
	require.NoError(t, err)
	assert.Contains(t, out, "foo")

	outPath := filepath.Join(dir, "nested", "out.js")
	require.NoError(t, d.DeobfuscateFileToFile(inPath, outPath))

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "foo")
}

func TestDeobfuscateDirectoryPreservesStructureAndSkips(t *testing.T) {
	d, err := api.NewDeobfuscator(api.Options{Silent: true})
	require.NoError(t, err)

	src := t.TempDir()
	dst := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(src, "app.js"), []byte(decoderSrc), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("keep me"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(src, "node_modules"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "node_modules", "skip.js"), []byte("ignored"), 0644))

	require.NoError(t, d.DeobfuscateDirectory(src, dst))

	appOut, err := os.ReadFile(filepath.Join(dst, "app.js"))
	require.NoError(t, err)
	assert.Contains(t, string(appOut), "foo")

	notesOut, err := os.ReadFile(filepath.Join(dst, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(notesOut))

	_, err = os.Stat(filepath.Join(dst, "node_modules", "skip.js"))
	assert.True(t, os.IsNotExist(err), "node_modules/skip.js should have been skipped")
}
