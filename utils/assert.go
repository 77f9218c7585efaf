// Package utils holds panic-on-violation assertions for internal
// invariants.
package utils

import "github.com/pkg/errors"

// True panics when the invariant does not hold.
func True(c bool) {
	if !c {
		panic(errors.New("assert: unexpected false value"))
	}
}

// NotNil panics when any of the given values is nil.
func NotNil(v ...interface{}) {
	for _, v := range v {
		if v == nil {
			panic(errors.New("assert: unexpected nil value"))
		}
	}
}
