package logging_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsrevert/deobfuscator/internal/logging"
)

func TestFields(t *testing.T) {
	assert.Equal(t, "", logging.Fields())
	assert.Equal(t, "a=1", logging.Fields("a", 1))
	assert.Equal(t, "a=1 b=two", logging.Fields("a", 1, "b", "two"))
}

func TestInfoDebugAndAdaptersDoNotPanic(t *testing.T) {
	l := logging.New(false, true)
	l.Info("info %d", 1)
	l.Debug("debug %d", 2)
	l.InfoFunc()("via adapter %s", "info")
	l.DebugFunc()("via adapter %s", "debug")
	l.LogFunc()("debug", "via log func")
	l.LogFunc()("info", "via log func")
}

// newCapturedLogger builds a Logger whose stderr is a pipe, and returns a
// function that closes the pipe and returns everything written to it.
func newCapturedLogger(t *testing.T, silent, debug bool) (*logging.Logger, func() string) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stderr := os.Stderr
	os.Stderr = w
	l := logging.New(silent, debug)
	os.Stderr = stderr
	return l, func() string {
		w.Close()
		buf := make([]byte, 4096)
		n, _ := r.Read(buf)
		return string(buf[:n])
	}
}

func TestSilentSuppressesInfoNotDebug(t *testing.T) {
	l, output := newCapturedLogger(t, true, true)
	l.Info("should be suppressed")
	l.Debug("should still print since debug is independent of silent")
	out := output()
	assert.NotContains(t, out, "should be suppressed")
	assert.Contains(t, out, "debug: should still print")
}

func TestDebugDisabledSuppressesDebug(t *testing.T) {
	l, output := newCapturedLogger(t, false, false)
	l.Debug("should be suppressed")
	assert.Equal(t, "", output())
}
