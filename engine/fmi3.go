package engine

import (
	"github.com/wippyai/fmi-runtime/errors"
)

// FMI3 is the FMI 3.0 native function table. fmi3Boolean is a C bool,
// which maps to Go bool; value references stay uint32 as in FMI 2.0.
type FMI3 struct {
	GetVersion func() string

	InstantiateModelExchange      func(instanceName, instantiationToken, resourcePath string, visible, loggingOn bool, instanceEnvironment uintptr, logMessage uintptr) uintptr
	InstantiateCoSimulation       func(instanceName, instantiationToken, resourcePath string, visible, loggingOn, eventModeUsed, earlyReturnAllowed bool, requiredIntermediateVariables []uint32, nRequired uint64, instanceEnvironment, logMessage, intermediateUpdate uintptr) uintptr
	InstantiateScheduledExecution func(instanceName, instantiationToken, resourcePath string, visible, loggingOn bool, instanceEnvironment, logMessage, clockUpdate, lockPreemption, unlockPreemption uintptr) uintptr
	FreeInstance                  func(c uintptr)

	EnterInitializationMode func(c uintptr, toleranceDefined bool, tolerance float64, startTime float64, stopTimeDefined bool, stopTime float64) int32
	ExitInitializationMode  func(c uintptr) int32
	EnterEventMode          func(c uintptr) int32
	EnterContinuousTimeMode func(c uintptr) int32
	EnterStepMode           func(c uintptr) int32
	EnterConfigurationMode  func(c uintptr) int32
	ExitConfigurationMode   func(c uintptr) int32
	Terminate               func(c uintptr) int32
	Reset                   func(c uintptr) int32

	GetFloat32 func(c uintptr, vr []uint32, nvr uint64, values []float32, nValues uint64) int32
	SetFloat32 func(c uintptr, vr []uint32, nvr uint64, values []float32, nValues uint64) int32
	GetFloat64 func(c uintptr, vr []uint32, nvr uint64, values []float64, nValues uint64) int32
	SetFloat64 func(c uintptr, vr []uint32, nvr uint64, values []float64, nValues uint64) int32
	GetInt8    func(c uintptr, vr []uint32, nvr uint64, values []int8, nValues uint64) int32
	SetInt8    func(c uintptr, vr []uint32, nvr uint64, values []int8, nValues uint64) int32
	GetUInt8   func(c uintptr, vr []uint32, nvr uint64, values []uint8, nValues uint64) int32
	SetUInt8   func(c uintptr, vr []uint32, nvr uint64, values []uint8, nValues uint64) int32
	GetInt16   func(c uintptr, vr []uint32, nvr uint64, values []int16, nValues uint64) int32
	SetInt16   func(c uintptr, vr []uint32, nvr uint64, values []int16, nValues uint64) int32
	GetUInt16  func(c uintptr, vr []uint32, nvr uint64, values []uint16, nValues uint64) int32
	SetUInt16  func(c uintptr, vr []uint32, nvr uint64, values []uint16, nValues uint64) int32
	GetInt32   func(c uintptr, vr []uint32, nvr uint64, values []int32, nValues uint64) int32
	SetInt32   func(c uintptr, vr []uint32, nvr uint64, values []int32, nValues uint64) int32
	GetUInt32  func(c uintptr, vr []uint32, nvr uint64, values []uint32, nValues uint64) int32
	SetUInt32  func(c uintptr, vr []uint32, nvr uint64, values []uint32, nValues uint64) int32
	GetInt64   func(c uintptr, vr []uint32, nvr uint64, values []int64, nValues uint64) int32
	SetInt64   func(c uintptr, vr []uint32, nvr uint64, values []int64, nValues uint64) int32
	GetUInt64  func(c uintptr, vr []uint32, nvr uint64, values []uint64, nValues uint64) int32
	SetUInt64  func(c uintptr, vr []uint32, nvr uint64, values []uint64, nValues uint64) int32
	GetBoolean func(c uintptr, vr []uint32, nvr uint64, values []bool, nValues uint64) int32
	SetBoolean func(c uintptr, vr []uint32, nvr uint64, values []bool, nValues uint64) int32
	GetString  func(c uintptr, vr []uint32, nvr uint64, values []uintptr, nValues uint64) int32
	SetString  func(c uintptr, vr []uint32, nvr uint64, values []uintptr, nValues uint64) int32
	GetBinary  func(c uintptr, vr []uint32, nvr uint64, valueSizes []uint64, values []uintptr, nValues uint64) int32
	SetBinary  func(c uintptr, vr []uint32, nvr uint64, valueSizes []uint64, values []uintptr, nValues uint64) int32
	GetClock   func(c uintptr, vr []uint32, nvr uint64, values []bool) int32
	SetClock   func(c uintptr, vr []uint32, nvr uint64, values []bool) int32

	GetDirectionalDerivative func(c uintptr, unknowns []uint32, nUnknowns uint64, knowns []uint32, nKnowns uint64, seed []float64, nSeed uint64, sensitivity []float64, nSensitivity uint64) int32
	GetAdjointDerivative     func(c uintptr, unknowns []uint32, nUnknowns uint64, knowns []uint32, nKnowns uint64, seed []float64, nSeed uint64, sensitivity []float64, nSensitivity uint64) int32

	// Model exchange
	SetTime                       func(c uintptr, time float64) int32
	SetContinuousStates           func(c uintptr, x []float64, nx uint64) int32
	GetContinuousStates           func(c uintptr, x []float64, nx uint64) int32
	GetContinuousStateDerivatives func(c uintptr, derivatives []float64, nx uint64) int32
	GetEventIndicators            func(c uintptr, indicators []float64, ni uint64) int32
	GetNumberOfContinuousStates   func(c uintptr, n *uint64) int32
	GetNumberOfEventIndicators    func(c uintptr, n *uint64) int32
	CompletedIntegratorStep       func(c uintptr, noSetFMUStatePriorToCurrentPoint bool, enterEventMode *bool, terminateSimulation *bool) int32
	UpdateDiscreteStates          func(c uintptr, discreteStatesNeedUpdate, terminateSimulation, nominalsChanged, statesChanged, nextEventTimeDefined *bool, nextEventTime *float64) int32

	// Co-simulation
	DoStep func(c uintptr, currentCommunicationPoint, communicationStepSize float64, noSetFMUStatePriorToCurrentPoint bool, eventHandlingNeeded, terminateSimulation, earlyReturn *bool, lastSuccessfulTime *float64) int32

	// FMU state snapshots
	GetFMUState  func(c uintptr, state *uintptr) int32
	SetFMUState  func(c uintptr, state uintptr) int32
	FreeFMUState func(c uintptr, state *uintptr) int32
}

// BindFMI3 resolves the FMI 3.0 entry point set from lib. At least one
// instantiate entry point must be exported; everything else is optional.
func BindFMI3(lib *Library) (*FMI3, error) {
	t := &FMI3{}

	me := register(lib, &t.InstantiateModelExchange, "fmi3InstantiateModelExchange")
	cs := register(lib, &t.InstantiateCoSimulation, "fmi3InstantiateCoSimulation")
	se := register(lib, &t.InstantiateScheduledExecution, "fmi3InstantiateScheduledExecution")
	if !me && !cs && !se {
		return nil, errors.MissingSymbol("fmi3Instantiate*", nil)
	}

	register(lib, &t.GetVersion, "fmi3GetVersion")
	register(lib, &t.FreeInstance, "fmi3FreeInstance")

	register(lib, &t.EnterInitializationMode, "fmi3EnterInitializationMode")
	register(lib, &t.ExitInitializationMode, "fmi3ExitInitializationMode")
	register(lib, &t.EnterEventMode, "fmi3EnterEventMode")
	register(lib, &t.EnterContinuousTimeMode, "fmi3EnterContinuousTimeMode")
	register(lib, &t.EnterStepMode, "fmi3EnterStepMode")
	register(lib, &t.EnterConfigurationMode, "fmi3EnterConfigurationMode")
	register(lib, &t.ExitConfigurationMode, "fmi3ExitConfigurationMode")
	register(lib, &t.Terminate, "fmi3Terminate")
	register(lib, &t.Reset, "fmi3Reset")

	register(lib, &t.GetFloat32, "fmi3GetFloat32")
	register(lib, &t.SetFloat32, "fmi3SetFloat32")
	register(lib, &t.GetFloat64, "fmi3GetFloat64")
	register(lib, &t.SetFloat64, "fmi3SetFloat64")
	register(lib, &t.GetInt8, "fmi3GetInt8")
	register(lib, &t.SetInt8, "fmi3SetInt8")
	register(lib, &t.GetUInt8, "fmi3GetUInt8")
	register(lib, &t.SetUInt8, "fmi3SetUInt8")
	register(lib, &t.GetInt16, "fmi3GetInt16")
	register(lib, &t.SetInt16, "fmi3SetInt16")
	register(lib, &t.GetUInt16, "fmi3GetUInt16")
	register(lib, &t.SetUInt16, "fmi3SetUInt16")
	register(lib, &t.GetInt32, "fmi3GetInt32")
	register(lib, &t.SetInt32, "fmi3SetInt32")
	register(lib, &t.GetUInt32, "fmi3GetUInt32")
	register(lib, &t.SetUInt32, "fmi3SetUInt32")
	register(lib, &t.GetInt64, "fmi3GetInt64")
	register(lib, &t.SetInt64, "fmi3SetInt64")
	register(lib, &t.GetUInt64, "fmi3GetUInt64")
	register(lib, &t.SetUInt64, "fmi3SetUInt64")
	register(lib, &t.GetBoolean, "fmi3GetBoolean")
	register(lib, &t.SetBoolean, "fmi3SetBoolean")
	register(lib, &t.GetString, "fmi3GetString")
	register(lib, &t.SetString, "fmi3SetString")
	register(lib, &t.GetBinary, "fmi3GetBinary")
	register(lib, &t.SetBinary, "fmi3SetBinary")
	register(lib, &t.GetClock, "fmi3GetClock")
	register(lib, &t.SetClock, "fmi3SetClock")

	register(lib, &t.GetDirectionalDerivative, "fmi3GetDirectionalDerivative")
	register(lib, &t.GetAdjointDerivative, "fmi3GetAdjointDerivative")

	register(lib, &t.SetTime, "fmi3SetTime")
	register(lib, &t.SetContinuousStates, "fmi3SetContinuousStates")
	register(lib, &t.GetContinuousStates, "fmi3GetContinuousStates")
	register(lib, &t.GetContinuousStateDerivatives, "fmi3GetContinuousStateDerivatives")
	register(lib, &t.GetEventIndicators, "fmi3GetEventIndicators")
	register(lib, &t.GetNumberOfContinuousStates, "fmi3GetNumberOfContinuousStates")
	register(lib, &t.GetNumberOfEventIndicators, "fmi3GetNumberOfEventIndicators")
	register(lib, &t.CompletedIntegratorStep, "fmi3CompletedIntegratorStep")
	register(lib, &t.UpdateDiscreteStates, "fmi3UpdateDiscreteStates")

	register(lib, &t.DoStep, "fmi3DoStep")

	register(lib, &t.GetFMUState, "fmi3GetFMUState")
	register(lib, &t.SetFMUState, "fmi3SetFMUState")
	register(lib, &t.FreeFMUState, "fmi3FreeFMUState")

	return t, nil
}

// NewModelExchangeInstance calls fmi3InstantiateModelExchange with the
// engine's log callback wired in.
func (t *FMI3) NewModelExchangeInstance(name, token, resourcePath string, visible, loggingOn bool) uintptr {
	if t.InstantiateModelExchange == nil {
		return 0
	}
	return t.InstantiateModelExchange(name, token, resourcePath, visible, loggingOn, 0, logCallback3())
}

// NewCoSimulationInstance calls fmi3InstantiateCoSimulation with the
// engine's log callback wired in. eventModeUsed asks the FMU to report
// events through event mode instead of handling them internally.
func (t *FMI3) NewCoSimulationInstance(name, token, resourcePath string, visible, loggingOn, eventModeUsed bool) uintptr {
	if t.InstantiateCoSimulation == nil {
		return 0
	}
	return t.InstantiateCoSimulation(name, token, resourcePath, visible, loggingOn, eventModeUsed, false, nil, 0, 0, logCallback3(), 0)
}
