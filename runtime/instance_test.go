package runtime

import (
	"errors"
	"strings"
	"testing"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/engine"
	fmierrors "github.com/wippyai/fmi-runtime/errors"
	"github.com/wippyai/fmi-runtime/registry"
	"github.com/wippyai/fmi-runtime/schema"
)

const bouncingBallXML = `<?xml version="1.0" encoding="UTF-8"?>
<fmiModelDescription fmiVersion="2.0" modelName="BouncingBall"
    guid="{8c4e810f-3da3-4a00-8276-176fa3c9f000}" numberOfEventIndicators="1">
  <ModelExchange modelIdentifier="BouncingBall"/>
  <CoSimulation modelIdentifier="BouncingBall" providesDirectionalDerivative="true"/>
  <DefaultExperiment startTime="0" stopTime="3" tolerance="1e-4"/>
  <ModelVariables>
    <ScalarVariable name="h" valueReference="0" causality="output" variability="continuous">
      <Real start="1"/>
    </ScalarVariable>
    <ScalarVariable name="v" valueReference="1" causality="output" variability="continuous">
      <Real start="0"/>
    </ScalarVariable>
    <ScalarVariable name="g" valueReference="2" causality="parameter" variability="fixed">
      <Real start="-9.81"/>
    </ScalarVariable>
    <ScalarVariable name="ticks" valueReference="3" variability="discrete">
      <Integer start="0"/>
    </ScalarVariable>
    <ScalarVariable name="bouncing" valueReference="4" variability="discrete">
      <Boolean start="true"/>
    </ScalarVariable>
    <ScalarVariable name="label" valueReference="5" variability="constant">
      <String start="ball"/>
    </ScalarVariable>
  </ModelVariables>
  <ModelStructure>
    <Outputs>
      <Unknown index="1" dependencies="2"/>
      <Unknown index="2"/>
    </Outputs>
  </ModelStructure>
</fmiModelDescription>`

const vanDerPolXML = `<?xml version="1.0" encoding="UTF-8"?>
<fmiModelDescription fmiVersion="3.0" modelName="VanDerPol"
    instantiationToken="{9fdc9d5e-22fa-4f26-8b6a-aaa1a2aeb52e}">
  <ModelExchange modelIdentifier="VanDerPol"/>
  <CoSimulation modelIdentifier="VanDerPol" providesDirectionalDerivatives="true"/>
  <DefaultExperiment startTime="0" stopTime="20"/>
  <ModelVariables>
    <Float64 name="time" valueReference="0" causality="independent" variability="continuous"/>
    <Float64 name="x0" valueReference="1" causality="output" variability="continuous" start="2"/>
    <Float64 name="der(x0)" valueReference="2" variability="continuous"/>
    <Float64 name="mu" valueReference="5" causality="parameter" variability="fixed" start="1"/>
    <Int32 name="counter" valueReference="6" variability="discrete" start="0"/>
    <Boolean name="positive" valueReference="7" variability="discrete" start="true"/>
  </ModelVariables>
  <ModelStructure>
    <Output valueReference="1" dependencies="1"/>
    <ContinuousStateDerivative valueReference="2" dependencies="1"/>
  </ModelStructure>
</fmiModelDescription>`

func parseModel(t *testing.T, xml string) *schema.Model {
	t.Helper()
	m, err := schema.Parse(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return m
}

func newFMI2Instance(t *testing.T, kind fmi.Kind, tab *engine.FMI2, opts ...InstanceOption) *Instance {
	t.Helper()
	mod := &Module{
		model:     parseModel(t, bouncingBallXML),
		v2:        tab,
		instances: registry.NewTable(),
	}
	cfg := instanceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	inst := &Instance{
		module:  mod,
		name:    "ball",
		kind:    kind,
		version: fmi.FMI2,
		v2:      tab,
		cfg:     cfg,
		state:   StateInstantiated,
		handle:  1,
	}
	inst.regHandle = mod.instances.Insert(inst)
	return inst
}

func newFMI3Instance(t *testing.T, kind fmi.Kind, tab *engine.FMI3, opts ...InstanceOption) *Instance {
	t.Helper()
	mod := &Module{
		model:     parseModel(t, vanDerPolXML),
		v3:        tab,
		instances: registry.NewTable(),
	}
	cfg := instanceConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	inst := &Instance{
		module:  mod,
		name:    "vdp",
		kind:    kind,
		version: fmi.FMI3,
		v3:      tab,
		cfg:     cfg,
		state:   StateInstantiated,
		handle:  1,
	}
	inst.regHandle = mod.instances.Insert(inst)
	return inst
}

func isKind(err error, kind fmierrors.Kind) bool {
	var e *fmierrors.Error
	return errors.As(err, &e) && e.Kind == kind
}

func TestStrictSequencingRejectsBeforeNativeCall(t *testing.T) {
	calls := 0
	tab := &engine.FMI2{
		DoStep: func(c uintptr, tc, h float64, noSet int32) int32 {
			calls++
			return int32(fmi.StatusOK)
		},
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab, WithStrictSequencing())

	// Still in the instantiated state: stepping is out of order.
	_, err := inst.DoStep(0, 0.1)
	if err == nil {
		t.Fatal("expected sequencing error")
	}
	if !isKind(err, fmierrors.KindSequenceViolation) {
		t.Errorf("wrong error kind: %v", err)
	}
	if calls != 0 {
		t.Errorf("native DoStep called %d times, want 0", calls)
	}
}

func TestDefaultSequencingAttemptsCall(t *testing.T) {
	calls := 0
	tab := &engine.FMI2{
		DoStep: func(c uintptr, tc, h float64, noSet int32) int32 {
			calls++
			return int32(fmi.StatusOK)
		},
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)

	if _, err := inst.DoStep(0, 0.1); err != nil {
		t.Fatalf("DoStep error: %v", err)
	}
	if calls != 1 {
		t.Errorf("native DoStep called %d times, want 1", calls)
	}
}

func TestDoStepSkipLatch(t *testing.T) {
	calls := 0
	tab := &engine.FMI2{
		DoStep: func(c uintptr, tc, h float64, noSet int32) int32 {
			calls++
			return int32(fmi.StatusOK)
		},
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)
	inst.state = StateStepMode

	inst.SkipNextDoStep()
	res, err := inst.DoStep(0, 0.1)
	if err != nil {
		t.Fatalf("skipped DoStep error: %v", err)
	}
	if res.Status != fmi.StatusOK {
		t.Errorf("skipped step status = %v", res.Status)
	}
	if calls != 0 {
		t.Fatalf("native DoStep called during skipped step")
	}

	// Latch is one-shot.
	if _, err := inst.DoStep(0, 0.1); err != nil {
		t.Fatalf("second DoStep error: %v", err)
	}
	if calls != 1 {
		t.Errorf("native DoStep called %d times, want 1", calls)
	}
}

func TestTimeOffsetCrossesBoundary(t *testing.T) {
	var setupStart, stepPoint float64
	tab := &engine.FMI2{
		SetupExperiment: func(c uintptr, tolDef int32, tol, start float64, stopDef int32, stop float64) int32 {
			setupStart = start
			return int32(fmi.StatusOK)
		},
		EnterInitializationMode: func(c uintptr) int32 { return int32(fmi.StatusOK) },
		ExitInitializationMode:  func(c uintptr) int32 { return int32(fmi.StatusOK) },
		DoStep: func(c uintptr, tc, h float64, noSet int32) int32 {
			stepPoint = tc
			return int32(fmi.StatusOK)
		},
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab, WithZeroStartTime())

	if err := inst.EnterInitialization(InitConfig{StartTime: Float64Ptr(5)}); err != nil {
		t.Fatalf("EnterInitialization error: %v", err)
	}
	if setupStart != 0 {
		t.Errorf("native start time = %v, want 0", setupStart)
	}
	if inst.TimeOffset() != -5 {
		t.Errorf("TimeOffset = %v, want -5", inst.TimeOffset())
	}
	if inst.Time() != 5 {
		t.Errorf("Time = %v, want 5", inst.Time())
	}

	if err := inst.ExitInitialization(); err != nil {
		t.Fatalf("ExitInitialization error: %v", err)
	}

	res, err := inst.DoStep(5, 0.5)
	if err != nil {
		t.Fatalf("DoStep error: %v", err)
	}
	if stepPoint != 0 {
		t.Errorf("native communication point = %v, want 0", stepPoint)
	}
	if res.LastSuccessfulTime != 5.5 {
		t.Errorf("LastSuccessfulTime = %v, want 5.5", res.LastSuccessfulTime)
	}
	if inst.Time() != 5.5 {
		t.Errorf("Time = %v, want 5.5", inst.Time())
	}
}

func TestInitializationDefaultsFromManifest(t *testing.T) {
	var gotTolDef, gotStopDef int32
	var gotTol, gotStop float64
	tab := &engine.FMI2{
		SetupExperiment: func(c uintptr, tolDef int32, tol, start float64, stopDef int32, stop float64) int32 {
			gotTolDef, gotTol = tolDef, tol
			gotStopDef, gotStop = stopDef, stop
			return int32(fmi.StatusOK)
		},
		EnterInitializationMode: func(c uintptr) int32 { return int32(fmi.StatusOK) },
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)

	if err := inst.EnterInitialization(InitConfig{}); err != nil {
		t.Fatalf("EnterInitialization error: %v", err)
	}
	if gotTolDef != 1 || gotTol != 1e-4 {
		t.Errorf("tolerance = (%d, %v), want (1, 1e-4)", gotTolDef, gotTol)
	}
	if gotStopDef != 1 || gotStop != 3 {
		t.Errorf("stop time = (%d, %v), want (1, 3)", gotStopDef, gotStop)
	}
	if inst.State() != StateInitializationMode {
		t.Errorf("state = %v", inst.State())
	}
}

func TestExitInitializationSuccessors(t *testing.T) {
	okV2 := func() *engine.FMI2 {
		return &engine.FMI2{
			SetupExperiment:         func(c uintptr, a int32, b, d float64, e int32, f float64) int32 { return 0 },
			EnterInitializationMode: func(c uintptr) int32 { return 0 },
			ExitInitializationMode:  func(c uintptr) int32 { return 0 },
		}
	}
	okV3 := func() *engine.FMI3 {
		return &engine.FMI3{
			EnterInitializationMode: func(c uintptr, a bool, b, d float64, e bool, f float64) int32 { return 0 },
			ExitInitializationMode:  func(c uintptr) int32 { return 0 },
		}
	}

	cases := []struct {
		name string
		inst *Instance
		want State
	}{
		{"fmi2 model exchange", newFMI2Instance(t, fmi.ModelExchange, okV2()), StateEventMode},
		{"fmi2 co-simulation", newFMI2Instance(t, fmi.CoSimulation, okV2()), StateStepMode},
		{"fmi3 co-simulation", newFMI3Instance(t, fmi.CoSimulation, okV3()), StateStepMode},
		{"fmi3 co-simulation event mode", newFMI3Instance(t, fmi.CoSimulation, okV3(), WithEventMode()), StateEventMode},
		{"fmi3 model exchange", newFMI3Instance(t, fmi.ModelExchange, okV3()), StateEventMode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.inst.EnterInitialization(InitConfig{}); err != nil {
				t.Fatalf("EnterInitialization error: %v", err)
			}
			if err := tc.inst.ExitInitialization(); err != nil {
				t.Fatalf("ExitInitialization error: %v", err)
			}
			if got := tc.inst.State(); got != tc.want {
				t.Errorf("state = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStatusEscalation(t *testing.T) {
	status := int32(fmi.StatusOK)
	tab := &engine.FMI2{
		DoStep: func(c uintptr, tc, h float64, noSet int32) int32 { return status },
	}

	t.Run("error moves state", func(t *testing.T) {
		inst := newFMI2Instance(t, fmi.CoSimulation, tab)
		inst.state = StateStepMode
		status = int32(fmi.StatusError)
		res, err := inst.DoStep(0, 0.1)
		if err == nil {
			t.Fatal("expected error")
		}
		if res.Status != fmi.StatusError {
			t.Errorf("result status = %v", res.Status)
		}
		if inst.State() != StateError {
			t.Errorf("state = %v, want error", inst.State())
		}
	})

	t.Run("fatal rejects further calls", func(t *testing.T) {
		inst := newFMI2Instance(t, fmi.CoSimulation, tab)
		inst.state = StateStepMode
		status = int32(fmi.StatusFatal)
		if _, err := inst.DoStep(0, 0.1); err == nil {
			t.Fatal("expected error")
		}
		if inst.State() != StateFatal {
			t.Fatalf("state = %v, want fatal", inst.State())
		}
		// Even in the default lenient mode a fatal instance is dead.
		if _, err := inst.DoStep(0.1, 0.1); err == nil {
			t.Error("expected error from fatal instance")
		}
	})

	t.Run("discard surfaces without state change", func(t *testing.T) {
		inst := newFMI2Instance(t, fmi.CoSimulation, tab)
		inst.state = StateStepMode
		status = int32(fmi.StatusDiscard)
		res, err := inst.DoStep(0, 0.1)
		if err == nil {
			t.Fatal("expected error")
		}
		if res.Status != fmi.StatusDiscard {
			t.Errorf("result status = %v", res.Status)
		}
		if inst.State() != StateStepMode {
			t.Errorf("state = %v, want step-mode", inst.State())
		}
	})

	t.Run("warning passes by default", func(t *testing.T) {
		inst := newFMI2Instance(t, fmi.CoSimulation, tab)
		inst.state = StateStepMode
		status = int32(fmi.StatusWarning)
		if _, err := inst.DoStep(0, 0.1); err != nil {
			t.Fatalf("warning should not error: %v", err)
		}
	})

	t.Run("warning asserts when configured", func(t *testing.T) {
		inst := newFMI2Instance(t, fmi.CoSimulation, tab, WithAssertOnWarning())
		inst.state = StateStepMode
		status = int32(fmi.StatusWarning)
		if _, err := inst.DoStep(0, 0.1); err == nil {
			t.Fatal("expected error")
		}
		if inst.State() != StateStepMode {
			t.Errorf("warning must not change state, got %v", inst.State())
		}
	})
}

func TestResetReinstantiatesWithoutNativeReset(t *testing.T) {
	freed, created := 0, 0
	tab := &engine.FMI2{
		Instantiate: func(name string, fmuType int32, guid, loc string, cb uintptr, vis, log int32) uintptr {
			created++
			return 7
		},
		FreeInstance: func(c uintptr) { freed++ },
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)
	inst.state = StateTerminated
	inst.timeOffset = -5
	inst.currentTime = 9
	inst.skipNextDoStep = true

	if err := inst.Reset(); err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if freed != 1 || created != 1 {
		t.Errorf("freed=%d created=%d, want 1/1", freed, created)
	}
	if inst.State() != StateInstantiated {
		t.Errorf("state = %v", inst.State())
	}
	if inst.Time() != 0 || inst.TimeOffset() != 0 {
		t.Errorf("caches not cleared: time=%v offset=%v", inst.Time(), inst.TimeOffset())
	}
	if inst.skipNextDoStep {
		t.Error("skip latch survived reset")
	}
}

func TestResetUsesNativeEntry(t *testing.T) {
	resets, freed := 0, 0
	tab := &engine.FMI2{
		Reset:        func(c uintptr) int32 { resets++; return 0 },
		FreeInstance: func(c uintptr) { freed++ },
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)
	inst.state = StateTerminated

	if err := inst.Reset(); err != nil {
		t.Fatalf("Reset error: %v", err)
	}
	if resets != 1 || freed != 0 {
		t.Errorf("resets=%d freed=%d, want 1/0", resets, freed)
	}
	if inst.State() != StateInstantiated {
		t.Errorf("state = %v", inst.State())
	}
}

func TestHardResetBypassesNativeReset(t *testing.T) {
	resets, freed, created := 0, 0, 0
	tab := &engine.FMI2{
		Reset:        func(c uintptr) int32 { resets++; return 0 },
		FreeInstance: func(c uintptr) { freed++ },
		Instantiate: func(name string, fmuType int32, guid, loc string, cb uintptr, vis, log int32) uintptr {
			created++
			return 2
		},
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)
	inst.state = StateTerminated

	if err := inst.HardReset(); err != nil {
		t.Fatalf("HardReset error: %v", err)
	}
	if resets != 0 || freed != 1 || created != 1 {
		t.Errorf("resets=%d freed=%d created=%d, want 0/1/1", resets, freed, created)
	}
	if inst.State() != StateInstantiated {
		t.Errorf("state = %v", inst.State())
	}
}

func TestKindGuards(t *testing.T) {
	cs := newFMI2Instance(t, fmi.CoSimulation, &engine.FMI2{})
	if err := cs.SetTime(0); !isKind(err, fmierrors.KindCapability) {
		t.Errorf("SetTime on co-simulation: %v", err)
	}
	if err := cs.EnterEventMode(); !isKind(err, fmierrors.KindCapability) {
		t.Errorf("EnterEventMode on FMI2 co-simulation: %v", err)
	}

	entered := false
	cs3 := newFMI3Instance(t, fmi.CoSimulation, &engine.FMI3{
		EnterEventMode: func(c uintptr) int32 { entered = true; return 0 },
	})
	cs3.state = StateStepMode
	if err := cs3.EnterEventMode(); err != nil {
		t.Errorf("EnterEventMode on FMI3 co-simulation: %v", err)
	}
	if !entered {
		t.Error("FMI3 co-simulation event mode should reach the native call")
	}
	if _, err := cs.GetContinuousStates(); !isKind(err, fmierrors.KindCapability) {
		t.Errorf("GetContinuousStates on co-simulation: %v", err)
	}

	me := newFMI2Instance(t, fmi.ModelExchange, &engine.FMI2{})
	if _, err := me.DoStep(0, 0.1); !isKind(err, fmierrors.KindCapability) {
		t.Errorf("DoStep on model exchange: %v", err)
	}
	if err := me.CancelStep(); !isKind(err, fmierrors.KindCapability) {
		t.Errorf("CancelStep on model exchange: %v", err)
	}
}

func TestValueRoundTripFMI2(t *testing.T) {
	store := map[uint32]float64{0: 1.0, 1: 0.0, 2: -9.81}
	bools := map[uint32]int32{4: 1}
	tab := &engine.FMI2{
		GetReal: func(c uintptr, vr []uint32, nvr uint64, out []float64) int32 {
			for n, r := range vr {
				out[n] = store[r]
			}
			return 0
		},
		SetReal: func(c uintptr, vr []uint32, nvr uint64, in []float64) int32 {
			for n, r := range vr {
				store[r] = in[n]
			}
			return 0
		},
		GetBoolean: func(c uintptr, vr []uint32, nvr uint64, out []int32) int32 {
			for n, r := range vr {
				out[n] = bools[r]
			}
			return 0
		},
		SetBoolean: func(c uintptr, vr []uint32, nvr uint64, in []int32) int32 {
			for n, r := range vr {
				bools[r] = in[n]
			}
			return 0
		},
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)
	inst.state = StateStepMode

	vrs, err := inst.module.Resolve([]string{"h", "g"})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	got, err := inst.GetFloat64(vrs)
	if err != nil {
		t.Fatalf("GetFloat64 error: %v", err)
	}
	if got[0] != 1.0 || got[1] != -9.81 {
		t.Errorf("GetFloat64 = %v", got)
	}

	if err := inst.SetFloat64(vrs[:1], []float64{2.5}); err != nil {
		t.Fatalf("SetFloat64 error: %v", err)
	}
	if store[0] != 2.5 {
		t.Errorf("store[0] = %v after set", store[0])
	}

	b, err := inst.GetBoolean([]fmi.ValueReference{4})
	if err != nil {
		t.Fatalf("GetBoolean error: %v", err)
	}
	if !b[0] {
		t.Error("GetBoolean = false, want true")
	}
	if err := inst.SetBoolean([]fmi.ValueReference{4}, []bool{false}); err != nil {
		t.Fatalf("SetBoolean error: %v", err)
	}
	if bools[4] != 0 {
		t.Errorf("bools[4] = %d after set", bools[4])
	}
}

func TestGetStringCopiesNative(t *testing.T) {
	cs := engine.NewCStrings([]string{"ball", "red"})
	ptrs := cs.Pointers()
	tab := &engine.FMI2{
		GetString: func(c uintptr, vr []uint32, nvr uint64, out []uintptr) int32 {
			copy(out, ptrs)
			return 0
		},
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)
	inst.state = StateStepMode

	got, err := inst.GetString([]fmi.ValueReference{5, 5})
	if err != nil {
		t.Fatalf("GetString error: %v", err)
	}
	if got[0] != "ball" || got[1] != "red" {
		t.Errorf("GetString = %v", got)
	}
}

func TestEmptySelectorsSkipNativeCalls(t *testing.T) {
	tab := &engine.FMI2{
		GetReal: func(c uintptr, vr []uint32, nvr uint64, out []float64) int32 {
			t.Error("native GetReal called for empty selector")
			return 0
		},
	}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)
	inst.state = StateStepMode

	got, err := inst.GetFloat64(nil)
	if err != nil {
		t.Fatalf("GetFloat64 error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v", got)
	}
	if err := inst.SetFloat64(nil, nil); err != nil {
		t.Fatalf("SetFloat64 error: %v", err)
	}
}

func TestUpdateDiscreteStatesConvertsEventInfo(t *testing.T) {
	tab := &engine.FMI2{
		NewDiscreteStates: func(c uintptr, info *engine.FMI2EventInfo) int32 {
			info.TerminateSimulation = 0
			info.ValuesOfContinuousStatesChanged = 1
			info.NextEventTimeDefined = 1
			info.NextEventTime = 1.25
			return 0
		},
	}
	inst := newFMI2Instance(t, fmi.ModelExchange, tab)
	inst.state = StateEventMode
	inst.timeOffset = -5 // caller runs 5s ahead of the native clock

	info, err := inst.UpdateDiscreteStates()
	if err != nil {
		t.Fatalf("UpdateDiscreteStates error: %v", err)
	}
	if !info.StatesChanged {
		t.Error("StatesChanged not carried over")
	}
	if !info.NextEventTimeDefined || info.NextEventTime != 6.25 {
		t.Errorf("NextEventTime = %v, want 6.25", info.NextEventTime)
	}
}

func TestDirectionalDerivativeNeedsDeclaredSupport(t *testing.T) {
	// VanDerPol's model exchange section does not advertise derivatives.
	me := newFMI3Instance(t, fmi.ModelExchange, &engine.FMI3{
		GetDirectionalDerivative: func(c uintptr, u []uint32, nu uint64, k []uint32, nk uint64, s []float64, ns uint64, out []float64, no uint64) int32 {
			t.Error("native derivative entry called without declared support")
			return 0
		},
	})
	me.state = StateContinuousTimeMode
	_, err := me.DirectionalDerivative([]fmi.ValueReference{2}, []fmi.ValueReference{1}, []float64{1})
	if !isKind(err, fmierrors.KindCapability) {
		t.Errorf("expected capability error, got %v", err)
	}

	cs := newFMI3Instance(t, fmi.CoSimulation, &engine.FMI3{
		GetDirectionalDerivative: func(c uintptr, u []uint32, nu uint64, k []uint32, nk uint64, s []float64, ns uint64, out []float64, no uint64) int32 {
			out[0] = 4.0
			return 0
		},
	})
	cs.state = StateStepMode
	got, err := cs.DirectionalDerivative([]fmi.ValueReference{1}, []fmi.ValueReference{5}, []float64{1})
	if err != nil {
		t.Fatalf("DirectionalDerivative error: %v", err)
	}
	if got[0] != 4.0 {
		t.Errorf("sensitivity = %v, want 4.0", got[0])
	}
}

func TestGetAnyDispatchesOnType(t *testing.T) {
	tab := &engine.FMI3{
		GetFloat64: func(c uintptr, vr []uint32, nvr uint64, out []float64, n uint64) int32 {
			out[0] = 2.0
			return 0
		},
		GetInt32: func(c uintptr, vr []uint32, nvr uint64, out []int32, n uint64) int32 {
			out[0] = 42
			return 0
		},
		GetBoolean: func(c uintptr, vr []uint32, nvr uint64, out []bool, n uint64) int32 {
			out[0] = true
			return 0
		},
	}
	inst := newFMI3Instance(t, fmi.CoSimulation, tab)
	inst.state = StateStepMode

	if v, err := inst.GetAny(1); err != nil || v != 2.0 {
		t.Errorf("GetAny(x0) = %v, %v", v, err)
	}
	if v, err := inst.GetAny(6); err != nil || v != int32(42) {
		t.Errorf("GetAny(counter) = %v, %v", v, err)
	}
	if v, err := inst.GetAny(7); err != nil || v != true {
		t.Errorf("GetAny(positive) = %v, %v", v, err)
	}
	if _, err := inst.GetAny(999); !isKind(err, fmierrors.KindUnknownVariable) {
		t.Errorf("GetAny(unknown) = %v", err)
	}
}

func TestFreeRemovesFromRegistry(t *testing.T) {
	freed := 0
	tab := &engine.FMI2{FreeInstance: func(c uintptr) { freed++ }}
	inst := newFMI2Instance(t, fmi.CoSimulation, tab)

	if n := inst.module.LiveInstances(); n != 1 {
		t.Fatalf("LiveInstances = %d", n)
	}
	if err := inst.Free(); err != nil {
		t.Fatalf("Free error: %v", err)
	}
	if freed != 1 {
		t.Errorf("native free called %d times", freed)
	}
	if n := inst.module.LiveInstances(); n != 0 {
		t.Errorf("LiveInstances = %d after free", n)
	}
	// Idempotent, and further ops fail.
	if err := inst.Free(); err != nil {
		t.Errorf("second Free error: %v", err)
	}
	if _, err := inst.GetFloat64([]fmi.ValueReference{0}); err == nil {
		t.Error("expected error from freed instance")
	}
}
