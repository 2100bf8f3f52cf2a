package engine

import (
	"github.com/wippyai/fmi-runtime/errors"
)

// FMI2EventInfo mirrors the C fmi2EventInfo struct returned by
// fmi2NewDiscreteStates.
type FMI2EventInfo struct {
	NewDiscreteStatesNeeded           int32
	TerminateSimulation               int32
	NominalsOfContinuousStatesChanged int32
	ValuesOfContinuousStatesChanged   int32
	NextEventTimeDefined              int32
	NextEventTime                     float64
}

// FMI2 is the FMI 2.0 native function table. Every field is one capability
// resolved at load time; nil means the entry point is not exported by the
// module. fmi2Boolean is a C int, hence the int32 flags.
type FMI2 struct {
	GetVersion func() string

	Instantiate  func(instanceName string, fmuType int32, guid string, resourceLocation string, callbacks uintptr, visible int32, loggingOn int32) uintptr
	FreeInstance func(c uintptr)

	SetupExperiment         func(c uintptr, toleranceDefined int32, tolerance float64, startTime float64, stopTimeDefined int32, stopTime float64) int32
	EnterInitializationMode func(c uintptr) int32
	ExitInitializationMode  func(c uintptr) int32
	Terminate               func(c uintptr) int32
	Reset                   func(c uintptr) int32

	GetReal    func(c uintptr, vr []uint32, nvr uint64, value []float64) int32
	SetReal    func(c uintptr, vr []uint32, nvr uint64, value []float64) int32
	GetInteger func(c uintptr, vr []uint32, nvr uint64, value []int32) int32
	SetInteger func(c uintptr, vr []uint32, nvr uint64, value []int32) int32
	GetBoolean func(c uintptr, vr []uint32, nvr uint64, value []int32) int32
	SetBoolean func(c uintptr, vr []uint32, nvr uint64, value []int32) int32
	GetString  func(c uintptr, vr []uint32, nvr uint64, value []uintptr) int32
	SetString  func(c uintptr, vr []uint32, nvr uint64, value []uintptr) int32

	GetDirectionalDerivative func(c uintptr, vUnknown []uint32, nUnknown uint64, vKnown []uint32, nKnown uint64, dvKnown []float64, dvUnknown []float64) int32

	// Model exchange
	EnterEventMode          func(c uintptr) int32
	EnterContinuousTimeMode func(c uintptr) int32
	SetTime                 func(c uintptr, time float64) int32
	SetContinuousStates     func(c uintptr, x []float64, nx uint64) int32
	GetContinuousStates     func(c uintptr, x []float64, nx uint64) int32
	GetDerivatives          func(c uintptr, derivatives []float64, nx uint64) int32
	GetEventIndicators      func(c uintptr, indicators []float64, ni uint64) int32
	NewDiscreteStates       func(c uintptr, eventInfo *FMI2EventInfo) int32
	CompletedIntegratorStep func(c uintptr, noSetFMUStatePriorToCurrentPoint int32, enterEventMode *int32, terminateSimulation *int32) int32

	// Co-simulation
	DoStep           func(c uintptr, currentCommunicationPoint float64, communicationStepSize float64, noSetFMUStatePriorToCurrentPoint int32) int32
	CancelStep       func(c uintptr) int32
	GetStatus        func(c uintptr, kind int32, value *int32) int32
	GetRealStatus    func(c uintptr, kind int32, value *float64) int32
	GetBooleanStatus func(c uintptr, kind int32, value *int32) int32

	// FMU state snapshots
	GetFMUState  func(c uintptr, state *uintptr) int32
	SetFMUState  func(c uintptr, state uintptr) int32
	FreeFMUState func(c uintptr, state *uintptr) int32
}

// BindFMI2 resolves the FMI 2.0 entry point set from lib. Only
// fmi2Instantiate is mandatory; all other entry points stay nil when
// absent and surface as "unsupported" at the call site.
func BindFMI2(lib *Library) (*FMI2, error) {
	t := &FMI2{}
	if !register(lib, &t.Instantiate, "fmi2Instantiate") {
		return nil, errors.MissingSymbol("fmi2Instantiate", nil)
	}

	register(lib, &t.GetVersion, "fmi2GetVersion")
	register(lib, &t.FreeInstance, "fmi2FreeInstance")
	register(lib, &t.SetupExperiment, "fmi2SetupExperiment")
	register(lib, &t.EnterInitializationMode, "fmi2EnterInitializationMode")
	register(lib, &t.ExitInitializationMode, "fmi2ExitInitializationMode")
	register(lib, &t.Terminate, "fmi2Terminate")
	register(lib, &t.Reset, "fmi2Reset")

	register(lib, &t.GetReal, "fmi2GetReal")
	register(lib, &t.SetReal, "fmi2SetReal")
	register(lib, &t.GetInteger, "fmi2GetInteger")
	register(lib, &t.SetInteger, "fmi2SetInteger")
	register(lib, &t.GetBoolean, "fmi2GetBoolean")
	register(lib, &t.SetBoolean, "fmi2SetBoolean")
	register(lib, &t.GetString, "fmi2GetString")
	register(lib, &t.SetString, "fmi2SetString")

	register(lib, &t.GetDirectionalDerivative, "fmi2GetDirectionalDerivative")

	register(lib, &t.EnterEventMode, "fmi2EnterEventMode")
	register(lib, &t.EnterContinuousTimeMode, "fmi2EnterContinuousTimeMode")
	register(lib, &t.SetTime, "fmi2SetTime")
	register(lib, &t.SetContinuousStates, "fmi2SetContinuousStates")
	register(lib, &t.GetContinuousStates, "fmi2GetContinuousStates")
	register(lib, &t.GetDerivatives, "fmi2GetDerivatives")
	register(lib, &t.GetEventIndicators, "fmi2GetEventIndicators")
	register(lib, &t.NewDiscreteStates, "fmi2NewDiscreteStates")
	register(lib, &t.CompletedIntegratorStep, "fmi2CompletedIntegratorStep")

	register(lib, &t.DoStep, "fmi2DoStep")
	register(lib, &t.CancelStep, "fmi2CancelStep")
	register(lib, &t.GetStatus, "fmi2GetStatus")
	register(lib, &t.GetRealStatus, "fmi2GetRealStatus")
	register(lib, &t.GetBooleanStatus, "fmi2GetBooleanStatus")

	register(lib, &t.GetFMUState, "fmi2GetFMUstate")
	register(lib, &t.SetFMUState, "fmi2SetFMUstate")
	register(lib, &t.FreeFMUState, "fmi2FreeFMUstate")

	return t, nil
}

// InstantiateInstance calls fmi2Instantiate with the engine's shared
// callback table wired in.
func (t *FMI2) InstantiateInstance(name string, fmuType int32, guid, resourceLocation string, visible, loggingOn bool) uintptr {
	return t.Instantiate(name, fmuType, guid, resourceLocation, callbacks2(), cbool2(visible), cbool2(loggingOn))
}

func cbool2(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
