package runtime

import (
	"bytes"
	"testing"
	"unsafe"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/engine"
	fmierrors "github.com/wippyai/fmi-runtime/errors"
	"github.com/wippyai/fmi-runtime/registry"
)

const typedXML = `<?xml version="1.0" encoding="UTF-8"?>
<fmiModelDescription fmiVersion="3.0" modelName="Typed"
    instantiationToken="{1c7a41d0-6f3c-4a1e-9d51-b41f1a6c2a10}">
  <CoSimulation modelIdentifier="Typed"/>
  <ModelVariables>
    <Int8 name="tiny" valueReference="0" variability="discrete" start="0"/>
    <UInt16 name="port" valueReference="1" variability="discrete" start="80"/>
    <Binary name="blob" valueReference="2" variability="discrete"/>
    <Clock name="tick" valueReference="3" causality="input" variability="discrete"/>
    <Float32 name="gain" valueReference="4" variability="tunable" start="1"/>
  </ModelVariables>
  <ModelStructure/>
</fmiModelDescription>`

func newTypedInstance(t *testing.T, tab *engine.FMI3) *Instance {
	t.Helper()
	mod := &Module{
		model:     parseModel(t, typedXML),
		v3:        tab,
		instances: registry.NewTable(),
	}
	inst := &Instance{
		module:  mod,
		name:    "typed",
		kind:    fmi.CoSimulation,
		version: fmi.FMI3,
		v3:      tab,
		state:   StateStepMode,
		handle:  1,
	}
	inst.regHandle = mod.instances.Insert(inst)
	return inst
}

func TestTypedWidthRoundTrip(t *testing.T) {
	tiny := int8(0)
	port := uint16(80)
	tab := &engine.FMI3{
		GetInt8: func(c uintptr, vr []uint32, nvr uint64, out []int8, n uint64) int32 {
			out[0] = tiny
			return 0
		},
		SetInt8: func(c uintptr, vr []uint32, nvr uint64, in []int8, n uint64) int32 {
			tiny = in[0]
			return 0
		},
		GetUInt16: func(c uintptr, vr []uint32, nvr uint64, out []uint16, n uint64) int32 {
			out[0] = port
			return 0
		},
		SetUInt16: func(c uintptr, vr []uint32, nvr uint64, in []uint16, n uint64) int32 {
			port = in[0]
			return 0
		},
	}
	inst := newTypedInstance(t, tab)

	if err := inst.SetInt8([]fmi.ValueReference{0}, []int8{-5}); err != nil {
		t.Fatalf("SetInt8 error: %v", err)
	}
	got, err := inst.GetInt8([]fmi.ValueReference{0})
	if err != nil {
		t.Fatalf("GetInt8 error: %v", err)
	}
	if got[0] != -5 {
		t.Errorf("GetInt8 = %d, want -5", got[0])
	}

	if err := inst.SetAny(1, 8080); err != nil {
		t.Fatalf("SetAny error: %v", err)
	}
	v, err := inst.GetAny(1)
	if err != nil {
		t.Fatalf("GetAny error: %v", err)
	}
	if u, ok := v.(uint16); !ok || u != 8080 {
		t.Errorf("GetAny = %v (%T), want uint16 8080", v, v)
	}
}

func TestTypedWidthRequiresFMI3(t *testing.T) {
	inst := newFMI2Instance(t, fmi.CoSimulation, &engine.FMI2{})
	if _, err := inst.GetInt8([]fmi.ValueReference{0}); !isKind(err, fmierrors.KindUnsupported) {
		t.Fatalf("GetInt8 on FMI 2.0 = %v, want unsupported", err)
	}
	if _, err := inst.GetClock([]fmi.ValueReference{0}); !isKind(err, fmierrors.KindUnsupported) {
		t.Fatalf("GetClock on FMI 2.0 = %v, want unsupported", err)
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	var stored []byte
	tab := &engine.FMI3{
		SetBinary: func(c uintptr, vr []uint32, nvr uint64, sizes []uint64, vals []uintptr, n uint64) int32 {
			stored = append([]byte{}, unsafe.Slice((*byte)(unsafe.Pointer(vals[0])), sizes[0])...)
			return 0
		},
		GetBinary: func(c uintptr, vr []uint32, nvr uint64, sizes []uint64, vals []uintptr, n uint64) int32 {
			sizes[0] = uint64(len(stored))
			vals[0] = uintptr(unsafe.Pointer(&stored[0]))
			return 0
		},
	}
	inst := newTypedInstance(t, tab)

	want := []byte{0xde, 0xad, 0xbe, 0xef}
	if err := inst.SetBinary([]fmi.ValueReference{2}, [][]byte{want}); err != nil {
		t.Fatalf("SetBinary error: %v", err)
	}
	got, err := inst.GetBinary([]fmi.ValueReference{2})
	if err != nil {
		t.Fatalf("GetBinary error: %v", err)
	}
	if !bytes.Equal(got[0], want) {
		t.Errorf("GetBinary = %x, want %x", got[0], want)
	}
}

func TestClockDispatchThroughAny(t *testing.T) {
	active := false
	tab := &engine.FMI3{
		GetClock: func(c uintptr, vr []uint32, nvr uint64, out []bool) int32 {
			out[0] = active
			return 0
		},
		SetClock: func(c uintptr, vr []uint32, nvr uint64, in []bool) int32 {
			active = in[0]
			return 0
		},
	}
	inst := newTypedInstance(t, tab)

	if err := inst.SetAny(3, true); err != nil {
		t.Fatalf("SetAny error: %v", err)
	}
	v, err := inst.GetAny(3)
	if err != nil {
		t.Fatalf("GetAny error: %v", err)
	}
	if b, ok := v.(bool); !ok || !b {
		t.Errorf("GetAny = %v (%T), want true", v, v)
	}
}
