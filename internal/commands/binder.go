package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
)

var (
	ctxType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType     = reflect.TypeOf((*error)(nil)).Elem()
	requestType = reflect.TypeOf(Request{})
	awaiterType = reflect.TypeOf((*Awaiter)(nil)).Elem()
)

// bind turns a concrete handler function plus its parameter descriptors
// into a boundInvoker, validating the function's shape once at
// registration time rather than on every call.
func bind(name string, params []ParamDescriptor, handler any) (boundInvoker, error) {
	fv := reflect.ValueOf(handler)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("command %q: handler must be a function, got %s", name, fv.Kind())
	}
	ft := fv.Type()

	numOut := ft.NumOut()
	if numOut < 1 || numOut > 2 {
		return nil, fmt.Errorf("command %q: handler must return (error) or (value, error)", name)
	}
	if !ft.Out(numOut - 1).Implements(errType) {
		return nil, fmt.Errorf("command %q: handler's last return value must be error", name)
	}

	in := ft.NumIn()
	hasCtx := in > 0 && ft.In(0) == ctxType
	argStart := 0
	if hasCtx {
		argStart = 1
	}
	fixedArgs := in - argStart

	opaque := len(params) == 1 && params[0].Kind == KindOpaqueRequest
	flatten := len(params) == 1 && params[0].Kind == KindRecord && fixedArgs == 1

	if opaque {
		if fixedArgs != 1 || ft.In(argStart) != requestType {
			return nil, fmt.Errorf("command %q: opaque-request handler must take a commands.Request", name)
		}
	} else if fixedArgs != len(params) {
		return nil, fmt.Errorf("command %q: handler has %d bindable parameters, %d declared", name, fixedArgs, len(params))
	}

	invoke := func(ctx context.Context, req Request) (any, error) {
		callArgs := make([]reflect.Value, 0, in)
		if hasCtx {
			callArgs = append(callArgs, reflect.ValueOf(ctx))
		}

		switch {
		case opaque:
			callArgs = append(callArgs, reflect.ValueOf(req))
		case flatten:
			pt := ft.In(argStart)
			target := reflect.New(derefType(pt))
			if err := unmarshalObject(req.Args, target.Interface()); err != nil {
				return nil, err
			}
			if pt.Kind() == reflect.Ptr {
				callArgs = append(callArgs, target)
			} else {
				callArgs = append(callArgs, target.Elem())
			}
		default:
			for i, p := range params {
				pt := ft.In(argStart + i)
				val, err := bindOne(p, pt, req.Args)
				if err != nil {
					return nil, err
				}
				callArgs = append(callArgs, val)
			}
		}

		results := fv.Call(callArgs)
		errVal := results[numOut-1]
		if !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
		if numOut == 1 {
			return nil, nil
		}
		out := results[0].Interface()
		if aw, ok := out.(Awaiter); ok {
			return aw.Await(ctx)
		}
		return out, nil
	}

	return invoke, nil
}

// bindOne binds a single named parameter: present in args -> unmarshal
// coerced to pt; missing -> the type-specific default (spec §4.5.3).
func bindOne(p ParamDescriptor, pt reflect.Type, args map[string]json.RawMessage) (reflect.Value, error) {
	raw, present := args[p.Name]
	if !present || len(raw) == 0 {
		return reflect.Zero(pt), nil
	}
	target := reflect.New(pt)
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("binding argument %q: %w", p.Name, err)
	}
	return target.Elem(), nil
}

// unmarshalObject re-marshals the already-split args map back into a JSON
// object and unmarshals it into target in one step — used for POJO
// flattening where the *whole* args object becomes one struct.
func unmarshalObject(args map[string]json.RawMessage, target any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

func derefType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}
