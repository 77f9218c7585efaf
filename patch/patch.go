// Package patch implements a runtime method-interception registry. Hooks
// attach to a slot identified by (owner type, method name, static flag):
// before-hooks run ahead of the method body and may abort it, after-hooks
// run once the body returns, and a replacement substitutes the body
// entirely. Dispatch goes through an explicit indirection table; the owner
// types themselves are never modified.
//
// Known hazards, by contract rather than by guard:
//   - A hook that re-invokes its own intercepted method recurses without
//     bound. Capture the original via Original before patching instead.
//   - A second Replace on the same slot silently overwrites the first.
//   - Render/paint-path methods are a usage constraint, not a registry
//     concern: hooks run synchronously inside the call, and nothing here
//     makes that safe for a frame loop.
//   - Slots bind to the exact owner type. *T and T are distinct owners, and
//     a type that gains a method by embedding is still its own slot, so
//     sibling types sharing an embedded base never see each other's patches.
package patch

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Key identifies one interceptable method slot.
type Key struct {
	Type   reflect.Type
	Method string
	Static bool
}

func (k Key) String() string {
	sep := "."
	if k.Static {
		sep = "::"
	}
	return fmt.Sprintf("%s%s%s", k.Type, sep, k.Method)
}

// HookID identifies a registered before- or after-hook for removal.
// IDs are unique within a Registry.
type HookID uint64

type (
	// BeforeFunc runs ahead of the method body. A non-nil error aborts the
	// call: the body never executes and the caller receives an
	// *InterceptionError.
	BeforeFunc func(c *Call) error

	// AfterFunc runs after the body returned. c.Results holds the body's
	// results. A non-nil error stops the remaining after-hooks and the
	// caller receives an *InterceptionError.
	AfterFunc func(c *Call) error

	// ReplaceFunc substitutes the method body. It must return values
	// matching the original's result types; a non-nil error propagates to
	// the caller as the body's own failure, skipping after-hooks.
	ReplaceFunc func(c *Call) ([]interface{}, error)
)

type hookEntry struct {
	id HookID
	fn interface{} // BeforeFunc or AfterFunc
}

// slot holds the hook chains for one Key. The original is captured exactly
// once, at slot creation, and never overwritten by later patches.
type slot struct {
	key         Key
	original    reflect.Value
	befores     []hookEntry
	afters      []hookEntry
	replacement ReplaceFunc
}

// Registry is the indirection table. Create one with New during setup and
// route calls through it; there is no package-level default. Dispatch is
// safe for concurrent use. Registration is intended for single-threaded
// setup but is internally locked, so late registration is safe, merely
// unordered relative to in-flight calls.
type Registry struct {
	mu     sync.RWMutex
	nextID HookID
	slots  map[Key]*slot
}

func New() *Registry {
	return &Registry{slots: make(map[Key]*slot)}
}

// keyFor normalizes the owner into a Key. The owner may be a value of the
// type to patch or its reflect.Type.
func keyFor(owner interface{}, method string, static bool) (Key, error) {
	if owner == nil {
		return Key{}, ErrNilOwner
	}
	typ, ok := owner.(reflect.Type)
	if !ok {
		typ = reflect.TypeOf(owner)
	}
	return Key{Type: typ, Method: method, Static: static}, nil
}

// ensureSlot returns the slot for the key, creating it lazily. For instance
// slots the original is looked up in the owner type's method set. Static
// slots must have been bound with BindFunc first.
func (r *Registry) ensureSlot(key Key) (*slot, error) {
	if s, ok := r.slots[key]; ok {
		return s, nil
	}
	if key.Static {
		return nil, errors.Wrapf(ErrNotBound, "%s", key)
	}
	m, ok := key.Type.MethodByName(key.Method)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMethod, "%s", key)
	}
	s := &slot{key: key, original: m.Func}
	r.slots[key] = s
	return s, nil
}

// BindFunc establishes the original body of a static slot: a package-level
// function filed under an owner type so hooks have a type to attach to.
// Rebinding an already-bound slot returns ErrAlreadyBound.
func (r *Registry) BindFunc(owner interface{}, name string, fn interface{}) error {
	key, err := keyFor(owner, name, true)
	if err != nil {
		return err
	}
	fv, err := funcValue(fn)
	if err != nil {
		return errors.Wrapf(err, "%s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[key]; ok {
		return errors.Wrapf(ErrAlreadyBound, "%s", key)
	}
	r.slots[key] = &slot{key: key, original: fv}
	return nil
}

// AddBefore registers fn to run ahead of the method body, after any
// previously registered before-hooks. The returned HookID removes it again.
func (r *Registry) AddBefore(owner interface{}, method string, static bool, fn BeforeFunc) (HookID, error) {
	if fn == nil {
		return 0, ErrNilCallback
	}
	key, err := keyFor(owner, method, static)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.ensureSlot(key)
	if err != nil {
		return 0, err
	}
	r.nextID++
	s.befores = append(s.befores, hookEntry{id: r.nextID, fn: fn})
	return r.nextID, nil
}

// AddAfter registers fn to run once the method body returned, after any
// previously registered after-hooks.
func (r *Registry) AddAfter(owner interface{}, method string, static bool, fn AfterFunc) (HookID, error) {
	if fn == nil {
		return 0, ErrNilCallback
	}
	key, err := keyFor(owner, method, static)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.ensureSlot(key)
	if err != nil {
		return 0, err
	}
	r.nextID++
	s.afters = append(s.afters, hookEntry{id: r.nextID, fn: fn})
	return r.nextID, nil
}

// Replace installs fn as the method body. At most one replacement is active
// per slot; a later Replace overwrites the earlier one and the return value
// reports whether that happened. The original stays captured underneath and
// comes back with Restore.
func (r *Registry) Replace(owner interface{}, method string, static bool, fn ReplaceFunc) (replaced bool, err error) {
	if fn == nil {
		return false, ErrNilCallback
	}
	key, err := keyFor(owner, method, static)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.ensureSlot(key)
	if err != nil {
		return false, err
	}
	replaced = s.replacement != nil
	s.replacement = fn
	return replaced, nil
}

// Remove deletes the hook with the given id from the slot. It reports
// whether a hook was removed.
func (r *Registry) Remove(owner interface{}, method string, static bool, id HookID) bool {
	key, err := keyFor(owner, method, static)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[key]
	if !ok {
		return false
	}
	if s.befores, ok = removeEntry(s.befores, id); ok {
		return true
	}
	s.afters, ok = removeEntry(s.afters, id)
	return ok
}

func removeEntry(entries []hookEntry, id HookID) ([]hookEntry, bool) {
	for i, e := range entries {
		if e.id == id {
			return append(entries[:i:i], entries[i+1:]...), true
		}
	}
	return entries, false
}

// Restore drops every hook and any replacement from the slot, leaving the
// captured original in place so the slot can be patched again. It reports
// whether the slot existed.
func (r *Registry) Restore(owner interface{}, method string, static bool) bool {
	key, err := keyFor(owner, method, static)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[key]
	if !ok {
		return false
	}
	s.befores = nil
	s.afters = nil
	s.replacement = nil
	return true
}

// Original returns an invoker for the slot's unpatched body, bypassing all
// hooks and any replacement. Hooks that need to re-enter their own method
// must go through this instead of the registry, or they recurse without
// bound. The target argument is ignored for static slots.
func (r *Registry) Original(owner interface{}, method string, static bool) (func(target interface{}, args ...interface{}) ([]interface{}, error), bool) {
	key, err := keyFor(owner, method, static)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	s, ok := r.slots[key]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	orig := s.original
	return func(target interface{}, args ...interface{}) ([]interface{}, error) {
		var recv *reflect.Value
		if !key.Static {
			if target == nil {
				return nil, errors.Wrapf(ErrNilOwner, "%s", key)
			}
			rv := reflect.ValueOf(target)
			recv = &rv
		}
		return invoke(orig, recv, args)
	}, true
}

// Patched reports whether the slot exists and currently carries at least
// one hook or a replacement.
func (r *Registry) Patched(owner interface{}, method string, static bool) bool {
	key, err := keyFor(owner, method, static)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[key]
	return ok && (len(s.befores) > 0 || len(s.afters) > 0 || s.replacement != nil)
}
