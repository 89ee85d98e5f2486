package trampoline

import (
	picerrors "picjit/internal/errors"
	"picjit/internal/inference"
	"picjit/internal/pic"
	"picjit/internal/shape"
)

// Runtime bundles the collaborators a PIC entry point needs beyond the
// frame and record themselves: the shape/property oracle and, for SET,
// the type-inference subset-union primitive.
type Runtime struct {
	Oracle  shape.Oracle
	Monitor *inference.RecompilationMonitor
}

// NewRuntime returns a runtime backed by the reference DefaultOracle.
func NewRuntime() *Runtime {
	return &Runtime{Oracle: shape.DefaultOracle{}, Monitor: inference.NewRecompilationMonitor()}
}

// GetProp is the GET entry point: reads the receiver from the frame's
// top-of-stack, resolves `name` through the cache or (on miss) the slow
// path, and leaves the result in the same slot.
func (rt *Runtime) GetProp(f *Frame, rec *pic.Record, name string) error {
	recv := f.Top().Object()
	acc := &pic.Access{Receiver: recv, Name: name}

	if v, ok, err := rec.Dispatch(acc); ok {
		f.SetTop(v)
		if err != nil {
			return picerrors.NewCacheError(err.Error(), 0)
		}
		return nil
	}

	holder, prop, found := rt.Oracle.LookupProperty(recv, name)
	var result shape.Value
	if found {
		if prop.Native != nil {
			v, err := prop.Native(shape.FromObject(recv), nil)
			if err != nil {
				return err
			}
			result = v
		} else {
			result = holder.Slot(prop.Slot, prop.Fixed)
		}
	} else {
		result = shape.Undefined()
	}
	f.SetTop(result)

	pic.UpdateGet(rec, rt.Oracle, acc)
	return nil
}

// SetProp is the SET entry point. The specializer runs before the
// generic store so it observes the receiver's pre-write shape — the
// add-property case guards on the initial shape and bakes the
// transitioned one, which is unrecoverable once the store has happened.
// The current operation then still completes through the generic path;
// the stub serves future hits only.
func (rt *Runtime) SetProp(f *Frame, rec *pic.Record, name string, typeSet *inference.TypeSet) error {
	v := f.Pop()
	recv := f.Top().Object()
	acc := &pic.Access{Receiver: recv, Name: name, Value: v}

	if result, ok, err := rec.Dispatch(acc); ok {
		f.SetTop(result)
		return err
	}

	pic.UpdateSet(rec, rt.Oracle, acc, typeSet, rt.Monitor)

	if recv.Class == shape.ClassCallObject {
		if idx, ok := recv.CallObjectSlot(name); ok {
			recv.SetSlot(idx, false, v)
			f.SetTop(v)
			return nil
		}
	}
	if _, _, _, _, err := rt.Oracle.PutProperty(recv, name, v); err != nil {
		return picerrors.NewRuntimeError(err.Error(), "<pic>", 0, 0)
	}
	f.SetTop(v)
	return nil
}

// Name is the NAME entry point: resolves a bare identifier starting at
// the frame's own scope chain.
func (rt *Runtime) Name(f *Frame, rec *pic.Record, name string, typeofNext bool) error {
	return rt.resolveName(f, rec, f.ScopeChain, name, typeofNext)
}

// XName is the XNAME entry point: resolves starting from an explicit
// scope object already sitting on the stack.
func (rt *Runtime) XName(f *Frame, rec *pic.Record, name string, typeofNext bool) error {
	scope := f.Pop().Object()
	return rt.resolveName(f, rec, scope, name, typeofNext)
}

func (rt *Runtime) resolveName(f *Frame, rec *pic.Record, scope *shape.Object, name string, typeofNext bool) error {
	acc := &pic.Access{ScopeChain: scope, Name: name, NextOpIsTypeof: typeofNext}

	if v, ok, err := rec.Dispatch(acc); ok {
		f.Push(v)
		return err
	}

	holder, prop, found := rt.Oracle.LookupProperty(scope, name)
	var result shape.Value
	if found {
		result = holder.Slot(prop.Slot, prop.Fixed)
	} else {
		result = shape.Undefined()
	}
	if typeofNext && result.IsUndefined() {
		result = shape.String("undefined")
	}
	f.Push(result)

	pic.UpdateName(rec, rt.Oracle, acc)
	return nil
}

// BindName is the BIND entry point: pushes the binding object a following
// assignment should target.
func (rt *Runtime) BindName(f *Frame, rec *pic.Record, name string) error {
	holder, _, found := rt.Oracle.LookupProperty(f.ScopeChain, name)
	if !found {
		holder = f.ScopeChain
	}
	acc := &pic.Access{ScopeChain: f.ScopeChain, Name: name}
	f.Push(shape.FromObject(holder))

	pic.UpdateBind(rec, acc, holder)
	return nil
}

// GetElement is the GETELEM entry point.
func (rt *Runtime) GetElement(f *Frame, rec *pic.Record) error {
	key := f.Pop()
	recv := f.Pop().Object()
	acc := &pic.Access{Receiver: recv, Key: key}

	if v, ok, err := rec.Dispatch(acc); ok {
		f.Push(v)
		return err
	}

	var result shape.Value
	if key.IsString() {
		if holder, prop, found := rt.Oracle.LookupProperty(recv, key.Str()); found {
			result = holder.Slot(prop.Slot, prop.Fixed)
		} else {
			result = shape.Undefined()
		}
	} else if recv.Class == shape.ClassTypedArray {
		idx := int(key.Int32())
		if idx >= 0 && idx < len(recv.TABuffer)/recv.TAType.ByteSize() {
			result = recv.LoadElement(idx, recv.TAType)
		} else {
			result = shape.Undefined()
		}
	} else {
		idx := int(key.Int32())
		if idx >= 0 && idx < len(recv.Elements) {
			result = recv.Elements[idx]
		} else {
			result = shape.Undefined()
		}
	}
	f.Push(result)

	pic.UpdateGetElem(rec, rt.Oracle, acc)
	return nil
}

// SetElement is the SETELEM entry point.
func (rt *Runtime) SetElement(f *Frame, rec *pic.Record) error {
	v := f.Pop()
	key := f.Pop()
	recv := f.Pop().Object()
	acc := &pic.Access{Receiver: recv, Key: key, Value: v}

	if result, ok, err := rec.Dispatch(acc); ok {
		f.Push(result)
		return err
	}

	if recv.Class == shape.ClassTypedArray {
		idx := int(key.Int32())
		if idx >= 0 && idx < len(recv.TABuffer)/recv.TAType.ByteSize() {
			recv.StoreElement(idx, recv.TAType, v)
		}
	} else {
		idx := int(key.Int32())
		for idx >= len(recv.Elements) {
			recv.Elements = append(recv.Elements, shape.Undefined())
		}
		if idx >= 0 {
			recv.Elements[idx] = v
			if idx >= recv.InitLength {
				recv.InitLength = idx + 1
			}
			if idx >= recv.Length {
				recv.Length = idx + 1
			}
		}
	}
	f.Push(v)

	pic.UpdateSetElem(rec, acc)
	return nil
}
