package patch

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownMethod is returned when the owner type has no method with
	// the given name in its method set.
	ErrUnknownMethod = errors.New("patch: unknown method")

	// ErrNotBound is returned when a static slot is used before BindFunc
	// established its original function.
	ErrNotBound = errors.New("patch: function not bound")

	// ErrAlreadyBound is returned by BindFunc when the slot already holds
	// an original. The original is captured once and never overwritten.
	ErrAlreadyBound = errors.New("patch: function already bound")

	// ErrNilCallback is returned when a nil hook or replacement is passed.
	ErrNilCallback = errors.New("patch: nil callback")

	// ErrNilOwner is returned when the owner or call target is nil.
	ErrNilOwner = errors.New("patch: nil owner")
)

// Phase names the dispatch stage a hook failed in.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// InterceptionError reports a hook failure during dispatch. A before-hook
// failure means the method body never ran; an after-hook failure means the
// body ran but its results were discarded.
type InterceptionError struct {
	Key   Key
	Phase Phase
	Err   error
}

func (e *InterceptionError) Error() string {
	return fmt.Sprintf("patch: %s hook failed for %s: %v", e.Phase, e.Key, e.Err)
}

func (e *InterceptionError) Unwrap() error {
	return e.Err
}
