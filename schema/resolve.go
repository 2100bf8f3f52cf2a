package schema

import (
	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/errors"
)

// Resolve converts a variable selector into an ordered value reference set.
// Accepted selector shapes:
//
//	nil                          -> nil ("no selection"; some call sites
//	                                read this as "all variables")
//	fmi.ValueReference / uint32  -> single reference, passed through
//	[]fmi.ValueReference         -> copied through
//	[]uint32                     -> converted
//	string                       -> looked up by name
//	[]string                     -> looked up by name, order preserved
//
// Name lookup fails fast on the first unknown name; resolution is never
// partial.
func (m *Model) Resolve(selector any) ([]fmi.ValueReference, error) {
	switch sel := selector.(type) {
	case nil:
		return nil, nil
	case fmi.ValueReference:
		return []fmi.ValueReference{sel}, nil
	case uint32:
		return []fmi.ValueReference{fmi.ValueReference(sel)}, nil
	case []fmi.ValueReference:
		out := make([]fmi.ValueReference, len(sel))
		copy(out, sel)
		return out, nil
	case []uint32:
		out := make([]fmi.ValueReference, len(sel))
		for i, vr := range sel {
			out[i] = fmi.ValueReference(vr)
		}
		return out, nil
	case string:
		vr, err := m.ResolveOne(sel)
		if err != nil {
			return nil, err
		}
		return []fmi.ValueReference{vr}, nil
	case []string:
		out := make([]fmi.ValueReference, len(sel))
		for i, name := range sel {
			vr, err := m.ResolveOne(name)
			if err != nil {
				return nil, err
			}
			out[i] = vr
		}
		return out, nil
	default:
		return nil, errors.InvalidSelector(selector)
	}
}

// ResolveOne looks up a single variable name.
func (m *Model) ResolveOne(name string) (fmi.ValueReference, error) {
	v, ok := m.Lookup(name)
	if !ok {
		return 0, errors.UnknownVariable(name)
	}
	return v.ValueReference, nil
}
