package target

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jsrevert/deobfuscator/internal/jsast"
)

// Registry holds the set of named targets (§4.4).
type Registry struct {
	mu      sync.RWMutex
	targets map[string]Target
	order   []string // registration order, for List()
	def     string
	onLog   LogFunc
}

// NewRegistry returns an empty registry. onLog may be nil.
func NewRegistry(onLog LogFunc) *Registry {
	if onLog == nil {
		onLog = func(string, string) {}
	}
	return &Registry{targets: map[string]Target{}, onLog: onLog}
}

// Register adds t, logging (at info) if it overwrites an existing id.
func (r *Registry) Register(t Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := t.Meta().ID
	if _, exists := r.targets[id]; exists {
		r.onLog("info", fmt.Sprintf("target %q re-registered, overwriting previous", id))
	} else {
		r.order = append(r.order, id)
	}
	r.targets[id] = t
}

func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.def == id {
		r.def = ""
	}
}

func (r *Registry) Get(id string) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[id]
	return t, ok
}

func (r *Registry) GetAll() []Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Target, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.targets[id])
	}
	return out
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.targets[id]
	return ok
}

// SetDefault fails with *UnknownTargetError if id isn't registered.
func (r *Registry) SetDefault(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.targets[id]; !ok {
		return &UnknownTargetError{ID: id}
	}
	r.def = id
	return nil
}

func (r *Registry) Default() (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.def == "" {
		return nil, false
	}
	t, ok := r.targets[r.def]
	return t, ok
}

// DetectionEntry pairs a target with what it reported for a tree.
type DetectionEntry struct {
	Target Target
	Result DetectResult
}

// Detect runs every registered target's Detect against prog and returns the
// non-zero-confidence results sorted by descending confidence (§4.4).
// Per-target panics are recovered, wrapped as *DetectionError, logged, and
// the target is omitted rather than aborting the whole detection pass.
func (r *Registry) Detect(prog *jsast.Program) []DetectionEntry {
	targets := r.GetAll()
	var out []DetectionEntry
	for _, t := range targets {
		result := safeDetect(t, prog, r.onLog)
		if result == nil || result.Confidence <= 0 {
			continue
		}
		out = append(out, DetectionEntry{Target: t, Result: *result})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Confidence > out[j].Result.Confidence
	})
	return out
}

func safeDetect(t Target, prog *jsast.Program, onLog LogFunc) (result *DetectResult) {
	defer func() {
		if r := recover(); r != nil {
			err := &DetectionError{TargetID: t.Meta().ID, Err: fmt.Errorf("%v", r)}
			onLog("debug", err.Error())
			result = nil
		}
	}()
	return t.Detect(prog)
}

// Resolve implements the three-step resolution algorithm of §4.4 used by
// the deobfuscation entry point.
func (r *Registry) Resolve(prog *jsast.Program, explicitID string, threshold float64) (Target, error) {
	if explicitID != "" {
		t, ok := r.Get(explicitID)
		if !ok {
			return nil, &UnknownTargetError{ID: explicitID}
		}
		return t, nil
	}
	entries := r.Detect(prog)
	if len(entries) > 0 && entries[0].Result.Confidence >= threshold {
		return entries[0].Target, nil
	}
	if t, ok := r.Default(); ok {
		return t, nil
	}
	return nil, nil
}
