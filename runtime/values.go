package runtime

import (
	"runtime"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/engine"
	"github.com/wippyai/fmi-runtime/errors"
)

// rawVRs reinterprets a value reference slice as the raw uint32 form the
// native tables take.
func rawVRs(vrs []fmi.ValueReference) []uint32 {
	out := make([]uint32, len(vrs))
	for i, vr := range vrs {
		out[i] = uint32(vr)
	}
	return out
}

// GetFloat64 reads float64 variables. For FMI 2.0 this maps to
// fmi2GetReal. An empty reference set performs no native call.
func (i *Instance) GetFloat64(vrs []fmi.ValueReference) ([]float64, error) {
	if len(vrs) == 0 {
		return []float64{}, nil
	}
	if err := i.precheck(opGet); err != nil {
		return nil, err
	}
	out := make([]float64, len(vrs))
	raw := rawVRs(vrs)
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.GetReal == nil {
			return nil, errors.Unsupported("fmi2GetReal")
		}
		err = i.escalate("fmi2GetReal", fmi.Status(i.v2.GetReal(i.handle, raw, uint64(len(raw)), out)))
	case fmi.FMI3:
		if i.v3.GetFloat64 == nil {
			return nil, errors.Unsupported("fmi3GetFloat64")
		}
		err = i.escalate("fmi3GetFloat64", fmi.Status(i.v3.GetFloat64(i.handle, raw, uint64(len(raw)), out, uint64(len(out)))))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetFloat64 writes float64 variables. For FMI 2.0 this maps to
// fmi2SetReal.
func (i *Instance) SetFloat64(vrs []fmi.ValueReference, values []float64) error {
	if len(vrs) != len(values) {
		return errors.InvalidInput(errors.PhaseCall, "value count does not match references")
	}
	if len(vrs) == 0 {
		return nil
	}
	if err := i.precheck(opSet); err != nil {
		return err
	}
	raw := rawVRs(vrs)
	switch i.version {
	case fmi.FMI2:
		if i.v2.SetReal == nil {
			return errors.Unsupported("fmi2SetReal")
		}
		return i.escalate("fmi2SetReal", fmi.Status(i.v2.SetReal(i.handle, raw, uint64(len(raw)), values)))
	default:
		if i.v3.SetFloat64 == nil {
			return errors.Unsupported("fmi3SetFloat64")
		}
		return i.escalate("fmi3SetFloat64", fmi.Status(i.v3.SetFloat64(i.handle, raw, uint64(len(raw)), values, uint64(len(values)))))
	}
}

// FMI 3.0 expands the 2.0 Real/Integer pair into one entry point per
// primitive width. The accessor bodies are identical up to the element
// type, so they funnel through one generic pair keyed by the table
// function.

func get3[T any](i *Instance, vrs []fmi.ValueReference, fn func(c uintptr, vr []uint32, nvr uint64, values []T, nValues uint64) int32, name string) ([]T, error) {
	if len(vrs) == 0 {
		return []T{}, nil
	}
	if err := i.precheck(opGet); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, errors.Unsupported(name)
	}
	out := make([]T, len(vrs))
	raw := rawVRs(vrs)
	if err := i.escalate(name, fmi.Status(fn(i.handle, raw, uint64(len(raw)), out, uint64(len(out))))); err != nil {
		return nil, err
	}
	return out, nil
}

func set3[T any](i *Instance, vrs []fmi.ValueReference, values []T, fn func(c uintptr, vr []uint32, nvr uint64, values []T, nValues uint64) int32, name string) error {
	if len(vrs) != len(values) {
		return errors.InvalidInput(errors.PhaseCall, "value count does not match references")
	}
	if len(vrs) == 0 {
		return nil
	}
	if err := i.precheck(opSet); err != nil {
		return err
	}
	if fn == nil {
		return errors.Unsupported(name)
	}
	raw := rawVRs(vrs)
	return i.escalate(name, fmi.Status(fn(i.handle, raw, uint64(len(raw)), values, uint64(len(values)))))
}

// GetFloat32 reads float32 variables. FMI 3.0 only.
func (i *Instance) GetFloat32(vrs []fmi.ValueReference) ([]float32, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetFloat32")
	}
	return get3(i, vrs, i.v3.GetFloat32, "fmi3GetFloat32")
}

// SetFloat32 writes float32 variables. FMI 3.0 only.
func (i *Instance) SetFloat32(vrs []fmi.ValueReference, values []float32) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetFloat32")
	}
	return set3(i, vrs, values, i.v3.SetFloat32, "fmi3SetFloat32")
}

// GetInt8 reads int8 variables. FMI 3.0 only.
func (i *Instance) GetInt8(vrs []fmi.ValueReference) ([]int8, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetInt8")
	}
	return get3(i, vrs, i.v3.GetInt8, "fmi3GetInt8")
}

// SetInt8 writes int8 variables. FMI 3.0 only.
func (i *Instance) SetInt8(vrs []fmi.ValueReference, values []int8) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetInt8")
	}
	return set3(i, vrs, values, i.v3.SetInt8, "fmi3SetInt8")
}

// GetUInt8 reads uint8 variables. FMI 3.0 only.
func (i *Instance) GetUInt8(vrs []fmi.ValueReference) ([]uint8, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetUInt8")
	}
	return get3(i, vrs, i.v3.GetUInt8, "fmi3GetUInt8")
}

// SetUInt8 writes uint8 variables. FMI 3.0 only.
func (i *Instance) SetUInt8(vrs []fmi.ValueReference, values []uint8) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetUInt8")
	}
	return set3(i, vrs, values, i.v3.SetUInt8, "fmi3SetUInt8")
}

// GetInt16 reads int16 variables. FMI 3.0 only.
func (i *Instance) GetInt16(vrs []fmi.ValueReference) ([]int16, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetInt16")
	}
	return get3(i, vrs, i.v3.GetInt16, "fmi3GetInt16")
}

// SetInt16 writes int16 variables. FMI 3.0 only.
func (i *Instance) SetInt16(vrs []fmi.ValueReference, values []int16) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetInt16")
	}
	return set3(i, vrs, values, i.v3.SetInt16, "fmi3SetInt16")
}

// GetUInt16 reads uint16 variables. FMI 3.0 only.
func (i *Instance) GetUInt16(vrs []fmi.ValueReference) ([]uint16, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetUInt16")
	}
	return get3(i, vrs, i.v3.GetUInt16, "fmi3GetUInt16")
}

// SetUInt16 writes uint16 variables. FMI 3.0 only.
func (i *Instance) SetUInt16(vrs []fmi.ValueReference, values []uint16) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetUInt16")
	}
	return set3(i, vrs, values, i.v3.SetUInt16, "fmi3SetUInt16")
}

// GetUInt32 reads uint32 variables. FMI 3.0 only.
func (i *Instance) GetUInt32(vrs []fmi.ValueReference) ([]uint32, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetUInt32")
	}
	return get3(i, vrs, i.v3.GetUInt32, "fmi3GetUInt32")
}

// SetUInt32 writes uint32 variables. FMI 3.0 only.
func (i *Instance) SetUInt32(vrs []fmi.ValueReference, values []uint32) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetUInt32")
	}
	return set3(i, vrs, values, i.v3.SetUInt32, "fmi3SetUInt32")
}

// GetUInt64 reads uint64 variables. FMI 3.0 only.
func (i *Instance) GetUInt64(vrs []fmi.ValueReference) ([]uint64, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetUInt64")
	}
	return get3(i, vrs, i.v3.GetUInt64, "fmi3GetUInt64")
}

// SetUInt64 writes uint64 variables. FMI 3.0 only.
func (i *Instance) SetUInt64(vrs []fmi.ValueReference, values []uint64) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetUInt64")
	}
	return set3(i, vrs, values, i.v3.SetUInt64, "fmi3SetUInt64")
}

// GetInt32 reads int32 variables. For FMI 2.0 this maps to
// fmi2GetInteger.
func (i *Instance) GetInt32(vrs []fmi.ValueReference) ([]int32, error) {
	if len(vrs) == 0 {
		return []int32{}, nil
	}
	if err := i.precheck(opGet); err != nil {
		return nil, err
	}
	out := make([]int32, len(vrs))
	raw := rawVRs(vrs)
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.GetInteger == nil {
			return nil, errors.Unsupported("fmi2GetInteger")
		}
		err = i.escalate("fmi2GetInteger", fmi.Status(i.v2.GetInteger(i.handle, raw, uint64(len(raw)), out)))
	case fmi.FMI3:
		if i.v3.GetInt32 == nil {
			return nil, errors.Unsupported("fmi3GetInt32")
		}
		err = i.escalate("fmi3GetInt32", fmi.Status(i.v3.GetInt32(i.handle, raw, uint64(len(raw)), out, uint64(len(out)))))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetInt32 writes int32 variables. For FMI 2.0 this maps to
// fmi2SetInteger.
func (i *Instance) SetInt32(vrs []fmi.ValueReference, values []int32) error {
	if len(vrs) != len(values) {
		return errors.InvalidInput(errors.PhaseCall, "value count does not match references")
	}
	if len(vrs) == 0 {
		return nil
	}
	if err := i.precheck(opSet); err != nil {
		return err
	}
	raw := rawVRs(vrs)
	switch i.version {
	case fmi.FMI2:
		if i.v2.SetInteger == nil {
			return errors.Unsupported("fmi2SetInteger")
		}
		return i.escalate("fmi2SetInteger", fmi.Status(i.v2.SetInteger(i.handle, raw, uint64(len(raw)), values)))
	default:
		if i.v3.SetInt32 == nil {
			return errors.Unsupported("fmi3SetInt32")
		}
		return i.escalate("fmi3SetInt32", fmi.Status(i.v3.SetInt32(i.handle, raw, uint64(len(raw)), values, uint64(len(values)))))
	}
}

// GetInt64 reads int64 variables. FMI 3.0 only.
func (i *Instance) GetInt64(vrs []fmi.ValueReference) ([]int64, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetInt64")
	}
	return get3(i, vrs, i.v3.GetInt64, "fmi3GetInt64")
}

// SetInt64 writes int64 variables. FMI 3.0 only.
func (i *Instance) SetInt64(vrs []fmi.ValueReference, values []int64) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetInt64")
	}
	return set3(i, vrs, values, i.v3.SetInt64, "fmi3SetInt64")
}

// GetBoolean reads boolean variables. FMI 2.0 booleans travel as C ints
// and are converted here.
func (i *Instance) GetBoolean(vrs []fmi.ValueReference) ([]bool, error) {
	if len(vrs) == 0 {
		return []bool{}, nil
	}
	if err := i.precheck(opGet); err != nil {
		return nil, err
	}
	raw := rawVRs(vrs)
	switch i.version {
	case fmi.FMI2:
		if i.v2.GetBoolean == nil {
			return nil, errors.Unsupported("fmi2GetBoolean")
		}
		ints := make([]int32, len(vrs))
		if err := i.escalate("fmi2GetBoolean", fmi.Status(i.v2.GetBoolean(i.handle, raw, uint64(len(raw)), ints))); err != nil {
			return nil, err
		}
		out := make([]bool, len(ints))
		for n, v := range ints {
			out[n] = v != 0
		}
		return out, nil
	default:
		if i.v3.GetBoolean == nil {
			return nil, errors.Unsupported("fmi3GetBoolean")
		}
		out := make([]bool, len(vrs))
		if err := i.escalate("fmi3GetBoolean", fmi.Status(i.v3.GetBoolean(i.handle, raw, uint64(len(raw)), out, uint64(len(out))))); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// SetBoolean writes boolean variables.
func (i *Instance) SetBoolean(vrs []fmi.ValueReference, values []bool) error {
	if len(vrs) != len(values) {
		return errors.InvalidInput(errors.PhaseCall, "value count does not match references")
	}
	if len(vrs) == 0 {
		return nil
	}
	if err := i.precheck(opSet); err != nil {
		return err
	}
	raw := rawVRs(vrs)
	switch i.version {
	case fmi.FMI2:
		if i.v2.SetBoolean == nil {
			return errors.Unsupported("fmi2SetBoolean")
		}
		ints := make([]int32, len(values))
		for n, v := range values {
			if v {
				ints[n] = 1
			}
		}
		return i.escalate("fmi2SetBoolean", fmi.Status(i.v2.SetBoolean(i.handle, raw, uint64(len(raw)), ints)))
	default:
		if i.v3.SetBoolean == nil {
			return errors.Unsupported("fmi3SetBoolean")
		}
		return i.escalate("fmi3SetBoolean", fmi.Status(i.v3.SetBoolean(i.handle, raw, uint64(len(raw)), values, uint64(len(values)))))
	}
}

// GetString reads string variables. The native strings are copied into Go
// strings before returning; the FMU may reuse its buffers afterwards.
func (i *Instance) GetString(vrs []fmi.ValueReference) ([]string, error) {
	if len(vrs) == 0 {
		return []string{}, nil
	}
	if err := i.precheck(opGet); err != nil {
		return nil, err
	}
	raw := rawVRs(vrs)
	ptrs := make([]uintptr, len(vrs))
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.GetString == nil {
			return nil, errors.Unsupported("fmi2GetString")
		}
		err = i.escalate("fmi2GetString", fmi.Status(i.v2.GetString(i.handle, raw, uint64(len(raw)), ptrs)))
	case fmi.FMI3:
		if i.v3.GetString == nil {
			return nil, errors.Unsupported("fmi3GetString")
		}
		err = i.escalate("fmi3GetString", fmi.Status(i.v3.GetString(i.handle, raw, uint64(len(raw)), ptrs, uint64(len(ptrs)))))
	}
	if err != nil {
		return nil, err
	}
	return engine.GoStrings(ptrs), nil
}

// SetString writes string variables. C copies of the values are kept
// alive for the duration of the native call.
func (i *Instance) SetString(vrs []fmi.ValueReference, values []string) error {
	if len(vrs) != len(values) {
		return errors.InvalidInput(errors.PhaseCall, "value count does not match references")
	}
	if len(vrs) == 0 {
		return nil
	}
	if err := i.precheck(opSet); err != nil {
		return err
	}
	raw := rawVRs(vrs)
	cs := engine.NewCStrings(values)
	defer runtime.KeepAlive(cs)
	ptrs := cs.Pointers()
	switch i.version {
	case fmi.FMI2:
		if i.v2.SetString == nil {
			return errors.Unsupported("fmi2SetString")
		}
		return i.escalate("fmi2SetString", fmi.Status(i.v2.SetString(i.handle, raw, uint64(len(raw)), ptrs)))
	default:
		if i.v3.SetString == nil {
			return errors.Unsupported("fmi3SetString")
		}
		return i.escalate("fmi3SetString", fmi.Status(i.v3.SetString(i.handle, raw, uint64(len(raw)), ptrs, uint64(len(ptrs)))))
	}
}

// GetBinary reads binary variables. FMI 3.0 only. The native buffers are
// copied before returning.
func (i *Instance) GetBinary(vrs []fmi.ValueReference) ([][]byte, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetBinary")
	}
	if len(vrs) == 0 {
		return [][]byte{}, nil
	}
	if err := i.precheck(opGet); err != nil {
		return nil, err
	}
	if i.v3.GetBinary == nil {
		return nil, errors.Unsupported("fmi3GetBinary")
	}
	raw := rawVRs(vrs)
	ptrs := make([]uintptr, len(vrs))
	sizes := make([]uint64, len(vrs))
	if err := i.escalate("fmi3GetBinary", fmi.Status(i.v3.GetBinary(i.handle, raw, uint64(len(raw)), sizes, ptrs, uint64(len(ptrs))))); err != nil {
		return nil, err
	}
	return engine.GoBinaries(ptrs, sizes), nil
}

// SetBinary writes binary variables. FMI 3.0 only. Copies of the values
// are kept alive for the duration of the native call.
func (i *Instance) SetBinary(vrs []fmi.ValueReference, values [][]byte) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetBinary")
	}
	if len(vrs) != len(values) {
		return errors.InvalidInput(errors.PhaseCall, "value count does not match references")
	}
	if len(vrs) == 0 {
		return nil
	}
	if err := i.precheck(opSet); err != nil {
		return err
	}
	if i.v3.SetBinary == nil {
		return errors.Unsupported("fmi3SetBinary")
	}
	raw := rawVRs(vrs)
	cb := engine.NewCBinaries(values)
	defer runtime.KeepAlive(cb)
	return i.escalate("fmi3SetBinary", fmi.Status(i.v3.SetBinary(i.handle, raw, uint64(len(raw)), cb.Sizes(), cb.Pointers(), uint64(len(vrs)))))
}

// GetClock reads clock activation states. FMI 3.0 only.
func (i *Instance) GetClock(vrs []fmi.ValueReference) ([]bool, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetClock")
	}
	if len(vrs) == 0 {
		return []bool{}, nil
	}
	if err := i.precheck(opGet); err != nil {
		return nil, err
	}
	if i.v3.GetClock == nil {
		return nil, errors.Unsupported("fmi3GetClock")
	}
	out := make([]bool, len(vrs))
	raw := rawVRs(vrs)
	if err := i.escalate("fmi3GetClock", fmi.Status(i.v3.GetClock(i.handle, raw, uint64(len(raw)), out))); err != nil {
		return nil, err
	}
	return out, nil
}

// SetClock writes clock activation states. FMI 3.0 only.
func (i *Instance) SetClock(vrs []fmi.ValueReference, values []bool) error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3SetClock")
	}
	if len(vrs) != len(values) {
		return errors.InvalidInput(errors.PhaseCall, "value count does not match references")
	}
	if len(vrs) == 0 {
		return nil
	}
	if err := i.precheck(opSet); err != nil {
		return err
	}
	if i.v3.SetClock == nil {
		return errors.Unsupported("fmi3SetClock")
	}
	raw := rawVRs(vrs)
	return i.escalate("fmi3SetClock", fmi.Status(i.v3.SetClock(i.handle, raw, uint64(len(raw)), values)))
}

// GetAny reads one variable, dispatching on its declared type. The result
// holds the accessor's element type for that tag (float64, int32, bool,
// string, []byte, ...).
func (i *Instance) GetAny(vr fmi.ValueReference) (any, error) {
	tag, err := i.typeOf(vr)
	if err != nil {
		return nil, err
	}
	one := []fmi.ValueReference{vr}
	switch tag {
	case fmi.TagFloat32:
		return first(i.GetFloat32(one))
	case fmi.TagFloat64:
		return first(i.GetFloat64(one))
	case fmi.TagInt8:
		return first(i.GetInt8(one))
	case fmi.TagUInt8:
		return first(i.GetUInt8(one))
	case fmi.TagInt16:
		return first(i.GetInt16(one))
	case fmi.TagUInt16:
		return first(i.GetUInt16(one))
	case fmi.TagUInt32:
		return first(i.GetUInt32(one))
	case fmi.TagInt64:
		return first(i.GetInt64(one))
	case fmi.TagUInt64:
		return first(i.GetUInt64(one))
	case fmi.TagBoolean:
		return first(i.GetBoolean(one))
	case fmi.TagString:
		return first(i.GetString(one))
	case fmi.TagBinary:
		return first(i.GetBinary(one))
	case fmi.TagClock:
		return first(i.GetClock(one))
	default:
		return first(i.GetInt32(one))
	}
}

func first[T any](values []T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return values[0], nil
}

// SetAny writes one variable, dispatching on its declared type and
// converting compatible Go numeric values.
func (i *Instance) SetAny(vr fmi.ValueReference, value any) error {
	tag, err := i.typeOf(vr)
	if err != nil {
		return err
	}
	one := []fmi.ValueReference{vr}
	switch tag {
	case fmi.TagBoolean:
		b, ok := value.(bool)
		if !ok {
			return errors.InvalidInput(errors.PhaseCall, "value is not a bool")
		}
		return i.SetBoolean(one, []bool{b})
	case fmi.TagClock:
		b, ok := value.(bool)
		if !ok {
			return errors.InvalidInput(errors.PhaseCall, "value is not a bool")
		}
		return i.SetClock(one, []bool{b})
	case fmi.TagString:
		s, ok := value.(string)
		if !ok {
			return errors.InvalidInput(errors.PhaseCall, "value is not a string")
		}
		return i.SetString(one, []string{s})
	case fmi.TagBinary:
		b, ok := value.([]byte)
		if !ok {
			return errors.InvalidInput(errors.PhaseCall, "value is not a byte slice")
		}
		return i.SetBinary(one, [][]byte{b})
	}
	v, ok := toFloat64(value)
	if !ok {
		return errors.InvalidInput(errors.PhaseCall, "value is not numeric")
	}
	switch tag {
	case fmi.TagFloat32:
		return i.SetFloat32(one, []float32{float32(v)})
	case fmi.TagFloat64:
		return i.SetFloat64(one, []float64{v})
	case fmi.TagInt8:
		return i.SetInt8(one, []int8{int8(v)})
	case fmi.TagUInt8:
		return i.SetUInt8(one, []uint8{uint8(v)})
	case fmi.TagInt16:
		return i.SetInt16(one, []int16{int16(v)})
	case fmi.TagUInt16:
		return i.SetUInt16(one, []uint16{uint16(v)})
	case fmi.TagUInt32:
		return i.SetUInt32(one, []uint32{uint32(v)})
	case fmi.TagInt64:
		return i.SetInt64(one, []int64{int64(v)})
	case fmi.TagUInt64:
		return i.SetUInt64(one, []uint64{uint64(v)})
	default:
		return i.SetInt32(one, []int32{int32(v)})
	}
}

func (i *Instance) typeOf(vr fmi.ValueReference) (fmi.TypeTag, error) {
	tag, ok := i.module.model.TypeOf(vr)
	if !ok {
		return 0, errors.New(errors.PhaseResolve, errors.KindUnknownVariable).
			Instance(i.name).Detail("no variable with value reference %d", uint32(vr)).Build()
	}
	return tag, nil
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
