package patch

import (
	"reflect"

	"github.com/pkg/errors"
)

// funcValue checks that fn is a non-nil function value, in which case its
// reflect.Value is returned.
func funcValue(fn interface{}) (reflect.Value, error) {
	if fn == nil {
		return reflect.Value{}, ErrNilCallback
	}
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return reflect.Value{}, errors.Errorf("patch: expecting a function value but got `%T`", fn)
	}
	if fv.IsNil() {
		return reflect.Value{}, ErrNilCallback
	}
	return fv, nil
}

// invoke calls fn with the given receiver (prepended when non-nil) and
// arguments, converting each argument to the corresponding parameter type.
// Results come back as plain interface values.
func invoke(fn reflect.Value, recv *reflect.Value, args []interface{}) ([]interface{}, error) {
	fnType := fn.Type()

	in := make([]reflect.Value, 0, len(args)+1)
	offset := 0
	if recv != nil {
		in = append(in, *recv)
		offset = 1
	}

	fixed := fnType.NumIn()
	if fnType.IsVariadic() {
		fixed--
		if len(args)+offset < fixed {
			return nil, errors.Errorf("patch: not enough arguments: got `%d` but need at least `%d`", len(args), fixed-offset)
		}
	} else if len(args)+offset != fnType.NumIn() {
		return nil, errors.Errorf("patch: unexpected number of arguments: got `%d` instead of `%d`", len(args), fnType.NumIn()-offset)
	}

	for i, arg := range args {
		pos := i + offset
		paramType := fnType.In(min(pos, fnType.NumIn()-1))
		if fnType.IsVariadic() && pos >= fnType.NumIn()-1 {
			paramType = fnType.In(fnType.NumIn() - 1).Elem()
		}
		av, err := conform(arg, paramType)
		if err != nil {
			return nil, errors.Wrapf(err, "argument `%d`", i)
		}
		in = append(in, av)
	}

	out := fn.Call(in)
	results := make([]interface{}, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

// conform turns one interface value into a reflect.Value of the parameter
// type, allowing untyped nil only for nilable kinds.
func conform(arg interface{}, paramType reflect.Type) (reflect.Value, error) {
	if arg == nil {
		if !nilable(paramType.Kind()) {
			return reflect.Value{}, errors.Errorf("has value `nil` but type `%s` is not nilable", paramType)
		}
		return reflect.Zero(paramType), nil
	}
	av := reflect.ValueOf(arg)
	if !av.Type().AssignableTo(paramType) {
		return reflect.Value{}, errors.Errorf("has type `%s` instead of `%s`", av.Type(), paramType)
	}
	return av, nil
}

// conformResults checks a replacement's results against the original
// function type, so the caller always receives what the method signature
// promises.
func conformResults(fnType reflect.Type, results []interface{}) error {
	if len(results) != fnType.NumOut() {
		return errors.Errorf("unexpected number of result values: got `%d` instead of `%d`", len(results), fnType.NumOut())
	}
	for i, res := range results {
		if _, err := conform(res, fnType.Out(i)); err != nil {
			return errors.Wrapf(err, "result `%d`", i)
		}
	}
	return nil
}

func nilable(k reflect.Kind) bool {
	switch k {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
