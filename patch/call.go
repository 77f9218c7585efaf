package patch

import (
	"reflect"

	"github.com/pkg/errors"
)

// Call carries one invocation through its hook chain. Each dispatch gets a
// fresh Call, so values stored on it are never shared across concurrent
// invocations; state that must span calls belongs in an atomically-updated
// shared store owned by the hook, not in a captured local.
type Call struct {
	// Target is the receiver the method was invoked on, nil for static
	// slots.
	Target interface{}
	// Method is the slot's method name.
	Method string
	// Args are the caller's original arguments.
	Args []interface{}
	// Results holds the body's return values. It is populated only for
	// after-hooks.
	Results []interface{}

	values map[string]interface{}
}

// Set stores an invocation-scoped value, typically written by a before-hook
// for its paired after-hook.
func (c *Call) Set(key string, v interface{}) {
	if c.values == nil {
		c.values = make(map[string]interface{})
	}
	c.values[key] = v
}

// Value returns an invocation-scoped value stored with Set.
func (c *Call) Value(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// dispatchPlan is a point-in-time snapshot of a slot, taken under the read
// lock so hooks run without holding it.
type dispatchPlan struct {
	key         Key
	original    reflect.Value
	befores     []BeforeFunc
	afters      []AfterFunc
	replacement ReplaceFunc
}

func (r *Registry) snapshot(key Key) (dispatchPlan, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[key]
	if !ok {
		return dispatchPlan{}, false
	}
	plan := dispatchPlan{key: key, original: s.original, replacement: s.replacement}
	for _, e := range s.befores {
		plan.befores = append(plan.befores, e.fn.(BeforeFunc))
	}
	for _, e := range s.afters {
		plan.afters = append(plan.afters, e.fn.(AfterFunc))
	}
	return plan, true
}

// Call dispatches an instance method through the registry: before-hooks in
// registration order, then the replacement or the original body, then
// after-hooks in registration order. A target type that was never patched
// dispatches straight to its method.
//
// Panics are not recovered at any stage: a panicking body skips the
// after-hooks and unwinds to the caller.
func (r *Registry) Call(target interface{}, method string, args ...interface{}) ([]interface{}, error) {
	if target == nil {
		return nil, ErrNilOwner
	}
	key := Key{Type: reflect.TypeOf(target), Method: method, Static: false}
	plan, ok := r.snapshot(key)
	if !ok {
		m := reflect.ValueOf(target).MethodByName(method)
		if !m.IsValid() {
			return nil, errors.Wrapf(ErrUnknownMethod, "%s", key)
		}
		return invoke(m, nil, args)
	}
	return run(plan, target, args)
}

// CallFunc dispatches a static slot bound with BindFunc. Hooks see a nil
// Call.Target.
func (r *Registry) CallFunc(owner interface{}, name string, args ...interface{}) ([]interface{}, error) {
	key, err := keyFor(owner, name, true)
	if err != nil {
		return nil, err
	}
	plan, ok := r.snapshot(key)
	if !ok {
		return nil, errors.Wrapf(ErrNotBound, "%s", key)
	}
	return run(plan, nil, args)
}

func run(plan dispatchPlan, target interface{}, args []interface{}) ([]interface{}, error) {
	c := &Call{Target: target, Method: plan.key.Method, Args: args}

	for _, before := range plan.befores {
		if err := before(c); err != nil {
			return nil, &InterceptionError{Key: plan.key, Phase: PhaseBefore, Err: err}
		}
	}

	var results []interface{}
	if plan.replacement != nil {
		out, err := plan.replacement(c)
		if err != nil {
			// The replacement failed as the body itself: propagate as-is,
			// after-hooks do not run.
			return nil, err
		}
		if err := conformResults(plan.original.Type(), out); err != nil {
			return nil, errors.Wrapf(err, "%s: replacement", plan.key)
		}
		results = out
	} else {
		var recv *reflect.Value
		if !plan.key.Static {
			rv := reflect.ValueOf(target)
			recv = &rv
		}
		out, err := invoke(plan.original, recv, args)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", plan.key)
		}
		results = out
	}

	c.Results = results
	for _, after := range plan.afters {
		if err := after(c); err != nil {
			return nil, &InterceptionError{Key: plan.key, Phase: PhaseAfter, Err: err}
		}
	}
	return results, nil
}
