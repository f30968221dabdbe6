package gossa

import (
	"go/types"
)

// Oracle decides whether values of a type are safe to observe from more than
// one concurrency domain at once. The structural rules classify deeply
// immutable and internally synchronized types as sendable; the config can
// override individual types in either direction by their printed name.
type Oracle struct {
	sendable    map[string]struct{}
	nonSendable map[string]struct{}
}

func (o *Oracle) Sendable(t types.Type) bool {
	name := t.String()
	if _, ok := o.nonSendable[name]; ok {
		return false
	}
	if _, ok := o.sendable[name]; ok {
		return true
	}
	return sendableType(t, nil)
}

func sendableType(t types.Type, seen map[types.Type]bool) bool {
	if seen[t] {
		// Recursive named types: a cycle through only sendable shapes is
		// sendable.
		return true
	}

	switch t := t.(type) {
	case *types.Basic:
		return t.Kind() != types.UnsafePointer
	case *types.Pointer, *types.Slice, *types.Map, *types.Interface, *types.Signature:
		return false
	case *types.Chan:
		// Channels are internally synchronized.
		return true
	case *types.Named:
		if seen == nil {
			seen = make(map[types.Type]bool)
		}
		seen[t] = true
		return sendableType(t.Underlying(), seen)
	case *types.Struct:
		for i := 0; i < t.NumFields(); i++ {
			if !sendableType(t.Field(i).Type(), seen) {
				return false
			}
		}
		return true
	case *types.Array:
		return sendableType(t.Elem(), seen)
	case *types.Tuple:
		for i := 0; i < t.Len(); i++ {
			if !sendableType(t.At(i).Type(), seen) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
