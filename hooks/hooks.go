// Package hooks provides ready-made hook pairs for the common interception
// patterns: entry/exit logging, call timing, invocation counting, and
// argument guards.
package hooks

import (
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/seafloor/methodpatch/patch"
)

// startKey is the Call bag key the Timing before-hook writes its start time
// under.
const startKey = "hooks.start"

// Logging returns a before/after pair logging method entry and exit.
func Logging(lg *zap.Logger) (patch.BeforeFunc, patch.AfterFunc) {
	before := func(c *patch.Call) error {
		lg.Info("method enter",
			zap.String("method", c.Method),
			zap.Int("args", len(c.Args)),
		)
		return nil
	}
	after := func(c *patch.Call) error {
		lg.Info("method exit",
			zap.String("method", c.Method),
			zap.Int("results", len(c.Results)),
		)
		return nil
	}
	return before, after
}

// Timing returns a before/after pair measuring the body's wall-clock
// duration. The start time rides on the Call itself, so concurrent
// invocations never race on a shared capture. sample is called exactly once
// per successful call with a non-negative duration.
func Timing(sample func(method string, d time.Duration)) (patch.BeforeFunc, patch.AfterFunc) {
	before := func(c *patch.Call) error {
		c.Set(startKey, time.Now())
		return nil
	}
	after := func(c *patch.Call) error {
		v, ok := c.Value(startKey)
		if !ok {
			// After-hook installed without its paired before-hook.
			return nil
		}
		d := time.Since(v.(time.Time))
		if d < 0 {
			d = 0
		}
		sample(c.Method, d)
		return nil
	}
	return before, after
}

// Counter counts successful invocations per method name. It is safe for
// concurrent dispatch: counts live in an atomically-updated shared map, not
// in captured locals.
type Counter struct {
	counts map[string]*atomic.Int64
}

// NewCounter creates a Counter for the given method names. The method set
// is fixed up front so dispatch never writes to the map.
func NewCounter(methods ...string) *Counter {
	c := &Counter{counts: make(map[string]*atomic.Int64, len(methods))}
	for _, m := range methods {
		c.counts[m] = atomic.NewInt64(0)
	}
	return c
}

// After returns the counting after-hook. Methods the Counter was not
// created with are ignored.
func (c *Counter) After() patch.AfterFunc {
	return func(call *patch.Call) error {
		if n, ok := c.counts[call.Method]; ok {
			n.Inc()
		}
		return nil
	}
}

// Get returns the current count for a method.
func (c *Counter) Get(method string) int64 {
	if n, ok := c.counts[method]; ok {
		return n.Load()
	}
	return 0
}

// Guard adapts a validation check into a before-hook. A non-nil error from
// check aborts the call before the body runs.
func Guard(check func(c *patch.Call) error) patch.BeforeFunc {
	return patch.BeforeFunc(check)
}
