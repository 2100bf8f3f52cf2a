package runtime

import (
	fmi "github.com/wippyai/fmi-runtime"
)

// State is the lifecycle state of an Instance. The set is the union of
// both standard versions; ConfigurationMode is FMI 3.0 only and StepMode
// doubles as the FMI 2.0 "slave initialized" state for co-simulation.
type State uint8

const (
	StateInstantiated State = iota
	StateConfigurationMode
	StateInitializationMode
	StateEventMode
	StateContinuousTimeMode
	StateStepMode
	StateTerminated
	StateError
	StateFatal
	StateFreed
)

var stateNames = [...]string{
	StateInstantiated:       "instantiated",
	StateConfigurationMode:  "configuration-mode",
	StateInitializationMode: "initialization-mode",
	StateEventMode:          "event-mode",
	StateContinuousTimeMode: "continuous-time-mode",
	StateStepMode:           "step-mode",
	StateTerminated:         "terminated",
	StateError:              "error",
	StateFatal:              "fatal",
	StateFreed:              "freed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further native calls may be issued.
func (s State) Terminal() bool {
	return s == StateFatal || s == StateFreed
}

// op identifies a checked operation in the transition tables.
type op string

const (
	opEnterConfiguration op = "enterConfigurationMode"
	opExitConfiguration  op = "exitConfigurationMode"
	opEnterInit          op = "enterInitialization"
	opExitInit           op = "exitInitialization"
	opEnterEventMode     op = "enterEventMode"
	opEnterContinuous    op = "enterContinuousTimeMode"
	opUpdateDiscrete     op = "updateDiscreteStates"
	opSetTime            op = "setTime"
	opSetStates          op = "setContinuousStates"
	opGetStates          op = "getContinuousStates"
	opGetDerivatives     op = "getDerivatives"
	opGetIndicators      op = "getEventIndicators"
	opCompletedStep      op = "completedIntegratorStep"
	opDoStep             op = "doStep"
	opCancelStep         op = "cancelStep"
	opStepStatus         op = "stepStatus"
	opTerminate          op = "terminate"
	opReset              op = "reset"
	opGet                op = "get"
	opSet                op = "set"
	opDirectional        op = "getDirectionalDerivative"
	opGetState           op = "getFMUState"
	opSetState           op = "setFMUState"
)

// transitions maps each checked operation to the states it is legal in.
// The tables express the call order mandated by the standards; both
// versions share most rows, and the per-version overrides below adjust the
// divergent ones.
var sharedTransitions = map[op][]State{
	opEnterInit:       {StateInstantiated},
	opExitInit:        {StateInitializationMode},
	opEnterEventMode:  {StateContinuousTimeMode, StateStepMode},
	opEnterContinuous: {StateEventMode},
	opUpdateDiscrete:  {StateEventMode},
	opSetTime:         {StateEventMode, StateContinuousTimeMode},
	opSetStates:       {StateEventMode, StateContinuousTimeMode},
	opGetStates:       {StateEventMode, StateContinuousTimeMode, StateInitializationMode, StateTerminated},
	opGetDerivatives:  {StateEventMode, StateContinuousTimeMode, StateInitializationMode, StateTerminated},
	opGetIndicators:   {StateEventMode, StateContinuousTimeMode, StateInitializationMode, StateTerminated},
	opCompletedStep:   {StateContinuousTimeMode},
	opDoStep:          {StateStepMode},
	opCancelStep:      {StateStepMode},
	opStepStatus:      {StateStepMode, StateTerminated},
	opTerminate:       {StateEventMode, StateContinuousTimeMode, StateStepMode},
	opReset:           {StateTerminated, StateError},
	opGet:             {StateInstantiated, StateInitializationMode, StateEventMode, StateContinuousTimeMode, StateStepMode, StateTerminated},
	opSet:             {StateInstantiated, StateInitializationMode, StateEventMode, StateContinuousTimeMode, StateStepMode},
	opDirectional:     {StateInitializationMode, StateEventMode, StateContinuousTimeMode, StateStepMode, StateTerminated},
	opGetState:        {StateInitializationMode, StateEventMode, StateContinuousTimeMode, StateStepMode, StateTerminated},
	opSetState:        {StateInstantiated, StateInitializationMode, StateEventMode, StateContinuousTimeMode, StateStepMode},
}

// fmi3Overrides holds the FMI 3.0 rows that differ from the shared table.
var fmi3Overrides = map[op][]State{
	opEnterConfiguration: {StateInstantiated},
	opExitConfiguration:  {StateConfigurationMode},
	// FMI3 co-simulation with event mode leaves event handling via
	// EnterStepMode, and event mode is reachable from step mode.
	opEnterEventMode: {StateContinuousTimeMode, StateStepMode},
}

// allowedStates returns the legality row for version/op. Unknown ops have
// no row and are treated as unchecked.
func allowedStates(version fmi.SpecVersion, o op) ([]State, bool) {
	if version == fmi.FMI3 {
		if row, ok := fmi3Overrides[o]; ok {
			return row, true
		}
	}
	row, ok := sharedTransitions[o]
	return row, ok
}

func stateIn(states []State, s State) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

func stateName(states []State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.String()
	}
	return out
}
