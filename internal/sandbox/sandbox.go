// Package sandbox implements the bounded evaluator of §4.3: a single
// isolated JavaScript execution context, seeded with JS-stdlib and
// browser-global stand-ins plus a recursive permissive proxy for every
// other name, used to run obfuscator-emitted fragments (string-array
// IIFEs, decoder calls) without letting them escape or block.
package sandbox

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// EvalError wraps a sandbox evaluation failure, per §7: local to the call
// site, the offending node is left unchanged by the caller.
type EvalError struct {
	Source string
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("sandbox: eval failed: %v", e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Evaluator is the bounded evaluator. One instance is owned per
// deobfuscation run (§5's "shared resources" rule); it must be callable
// re-entrantly, so every call takes the mutex the way the teacher's
// ParentTracker guards its shared map (parent_tracker.go).
type Evaluator struct {
	mu sync.Mutex
	rt *goja.Runtime
}

// New builds an Evaluator with a fresh goja.Runtime and runs the sandbox
// bootstrap once. goja gives a real isolated execution context (§4.3's
// backing "(a)"); its native Proxy/Reflect support is what lets the
// permissive-global requirement be expressed entirely in the bootstrap
// script below rather than through engine-specific Go-level proxy plumbing.
func New() (*Evaluator, error) {
	rt := goja.New()
	if err := rt.Set("__b64encode", func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	}); err != nil {
		return nil, err
	}
	if err := rt.Set("__b64decode", func(s string) (string, error) {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}); err != nil {
		return nil, err
	}
	if _, err := rt.RunString(bootstrapScript); err != nil {
		return nil, fmt.Errorf("sandbox: bootstrap failed: %w", err)
	}
	return &Evaluator{rt: rt}, nil
}

// Eval evaluates src as an expression inside the sandbox's permissive
// global scope and returns its value, or an *EvalError on failure. Re-used
// across many calls within one deobfuscation run (decoders are invoked
// many times per tree).
func (e *Evaluator) Eval(src string) (goja.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	wrapped := "(function(__g){ with(__g){ return (\n" + src + "\n); } })(__sandboxProxy)"
	v, err := e.rt.RunString(wrapped)
	if err != nil {
		return nil, &EvalError{Source: src, Err: err}
	}
	return v, nil
}

// EvalWithBinding evaluates src the same way as Eval, but first binds name
// to value in the sandbox's real global object for the duration of the
// call — used by the Abba string-array extractor (§4.6.1) to seed a
// self-referencing declarator's own name as undefined before evaluating
// its IIFE.
func (e *Evaluator) EvalWithBinding(name string, value goja.Value, src string) (goja.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.rt.Get(name)
	if err := e.rt.Set(name, value); err != nil {
		return nil, err
	}
	defer func() {
		if prev == nil || goja.IsUndefined(prev) {
			e.rt.GlobalObject().Delete(name)
		} else {
			e.rt.Set(name, prev)
		}
	}()
	wrapped := "(function(__g){ with(__g){ return (\n" + src + "\n); } })(__sandboxProxy)"
	v, err := e.rt.RunString(wrapped)
	if err != nil {
		return nil, &EvalError{Source: src, Err: err}
	}
	return v, nil
}

// Undefined exposes the runtime's undefined value, used by callers that
// need to pass it to EvalWithBinding.
func (e *Evaluator) Undefined() goja.Value { return goja.Undefined() }

// bootstrapScript seeds the JavaScript standard library stand-ins, browser
// globals, timers, and the recursive permissive proxy described in §4.3.
// goja already implements the real ECMAScript stdlib (String, Array,
// Object, Math, JSON, typed arrays, Promise, Symbol, Proxy, Reflect, number
// parsing); this script only adds what goja does not provide out of the
// box — the browser stand-ins, synchronous timers, base-64 codecs wired to
// the Go helpers above, and the permissive-proxy global used via `with` in
// Eval.
const bootstrapScript = `
(function() {
  function makePermissive(label) {
    var fn = function() { return makePermissive(label + "()"); };
    return new Proxy(fn, {
      get: function(target, prop) {
        if (prop === "toString") return function() { return ""; };
        if (prop === "valueOf") return function() { return 0; };
        if (prop === "length") return 0;
        return makePermissive(label + "." + String(prop));
      },
      set: function() { return true; },
      has: function() { return true; },
      apply: function() { return makePermissive(label + "()"); },
      construct: function() { return makePermissive("new " + label); }
    });
  }

  globalThis.window = makePermissive("window");
  globalThis.document = makePermissive("document");
  globalThis.navigator = makePermissive("navigator");
  globalThis.location = makePermissive("location");
  globalThis.self = globalThis;

  globalThis.setTimeout = function(cb) { if (typeof cb === "function") cb(); return 0; };
  globalThis.setInterval = function(cb) { if (typeof cb === "function") cb(); return 0; };
  globalThis.clearTimeout = function() {};
  globalThis.clearInterval = function() {};

  globalThis.atob = function(s) { return __b64decode(s); };
  globalThis.btoa = function(s) { return __b64encode(s); };

  globalThis.console = globalThis.console || {
    log: function() {}, warn: function() {}, error: function() {}, info: function() {}
  };

  var knownNames = [
    "window", "document", "navigator", "location", "self", "globalThis", "console",
    "String", "Array", "Object", "Math", "JSON", "Number", "Boolean", "Symbol",
    "Proxy", "Reflect", "Promise", "parseInt", "parseFloat", "isNaN", "isFinite",
    "encodeURIComponent", "decodeURIComponent", "encodeURI", "decodeURI",
    "atob", "btoa", "setTimeout", "setInterval", "clearTimeout", "clearInterval",
    "undefined", "NaN", "Infinity",
    "Int8Array", "Uint8Array", "Int16Array", "Uint16Array",
    "Int32Array", "Uint32Array", "Float32Array", "Float64Array"
  ];
  var knownSet = {};
  for (var i = 0; i < knownNames.length; i++) { knownSet[knownNames[i]] = true; }

  globalThis.__sandboxProxy = new Proxy({}, {
    has: function() { return true; },
    get: function(target, prop) {
      if (knownSet[prop] === true) {
        return globalThis[prop];
      }
      if (Object.prototype.hasOwnProperty.call(globalThis, prop)) {
        return globalThis[prop];
      }
      return makePermissive(String(prop));
    },
    set: function(target, prop, value) {
      globalThis[prop] = value;
      return true;
    }
  });
})();
`
