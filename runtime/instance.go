package runtime

import (
	"go.uber.org/zap"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/engine"
	"github.com/wippyai/fmi-runtime/errors"
	"github.com/wippyai/fmi-runtime/registry"
	"github.com/wippyai/fmi-runtime/schema"
)

// Instance is one running FMU instance. It owns the native handle, the
// lifecycle state and the value caches; every native call is guarded by
// the state machine and escalated according to the returned status.
//
// An Instance is not safe for concurrent use.
type Instance struct {
	module    *Module
	name      string
	kind      fmi.Kind
	version   fmi.SpecVersion
	v2        *engine.FMI2
	v3        *engine.FMI3
	cfg       instanceConfig
	regHandle registry.Handle

	handle uintptr
	state  State

	currentTime      float64
	timeOffset       float64
	continuousStates []float64
	stateDerivatives []float64
	skipNextDoStep   bool
}

// EventInfo is the owned-value form of the event information the native
// side reports from discrete-state updates. Times are in the caller's
// time base.
type EventInfo struct {
	DiscreteStatesNeedUpdate bool
	TerminateSimulation      bool
	NominalsChanged          bool
	StatesChanged            bool
	NextEventTimeDefined     bool
	NextEventTime            float64
}

// StepResult carries the outcome of one co-simulation step. Status is the
// raw native status: Discard and Pending are reported here while the
// accompanying error tells the caller the step did not complete normally.
type StepResult struct {
	Status              fmi.Status
	EventHandlingNeeded bool
	TerminateRequested  bool
	EarlyReturn         bool
	LastSuccessfulTime  float64
}

// Name returns the instance name passed at creation.
func (i *Instance) Name() string { return i.name }

// Kind returns the execution kind fixed at creation.
func (i *Instance) Kind() fmi.Kind { return i.kind }

// State returns the current lifecycle state.
func (i *Instance) State() State { return i.state }

// Module returns the owning module.
func (i *Instance) Module() *Module { return i.module }

// Model returns the owning module's parsed manifest.
func (i *Instance) Model() *schema.Model { return i.module.model }

// Time returns the last accepted time value, in the caller's time base.
func (i *Instance) Time() float64 { return i.currentTime }

// TimeOffset returns the additive shift applied to times crossing the
// native boundary. Zero unless WithZeroStartTime is in effect and a
// non-zero start time was requested.
func (i *Instance) TimeOffset() float64 { return i.timeOffset }

func (i *Instance) nativeTime(t float64) float64  { return t + i.timeOffset }
func (i *Instance) callerTime(tn float64) float64 { return tn - i.timeOffset }

// --- lifecycle ---

func (i *Instance) instantiateNative() error {
	switch i.version {
	case fmi.FMI2:
		var fmuType int32
		switch i.kind {
		case fmi.ModelExchange:
			fmuType = 0
		case fmi.CoSimulation:
			fmuType = 1
		default:
			return errors.Capability(i.name, "instantiate", i.kind.String())
		}
		if i.v2.Instantiate == nil {
			return errors.Unsupported("fmi2Instantiate")
		}
		i.handle = i.v2.InstantiateInstance(i.name, fmuType, i.module.model.Token, i.module.resource, i.cfg.visible, i.cfg.loggingOn)
	case fmi.FMI3:
		switch i.kind {
		case fmi.ModelExchange:
			i.handle = i.v3.NewModelExchangeInstance(i.name, i.module.model.Token, i.module.resource, i.cfg.visible, i.cfg.loggingOn)
		case fmi.CoSimulation:
			i.handle = i.v3.NewCoSimulationInstance(i.name, i.module.model.Token, i.module.resource, i.cfg.visible, i.cfg.loggingOn, i.cfg.eventModeUsed)
		default:
			return errors.Capability(i.name, "instantiate", i.kind.String())
		}
	}
	if i.handle == 0 {
		return errors.Instantiation(i.name, nil)
	}
	return nil
}

// EnterInitialization moves the instance into initialization mode.
// Unset InitConfig fields default to the manifest's DefaultExperiment;
// a missing start time defaults to 0. When the instance was created with
// WithZeroStartTime and a non-zero start is requested, the time offset is
// armed here.
func (i *Instance) EnterInitialization(cfg InitConfig) error {
	if err := i.precheck(opEnterInit); err != nil {
		return err
	}

	exp := i.module.model.Experiment
	start := 0.0
	switch {
	case cfg.StartTime != nil:
		start = *cfg.StartTime
	case exp.StartTime != nil:
		start = *exp.StartTime
	}
	stop, stopDefined := 0.0, false
	switch {
	case cfg.StopTime != nil:
		stop, stopDefined = *cfg.StopTime, true
	case exp.StopTime != nil:
		stop, stopDefined = *exp.StopTime, true
	}
	tol, tolDefined := 0.0, false
	switch {
	case cfg.Tolerance != nil:
		tol, tolDefined = *cfg.Tolerance, true
	case exp.Tolerance != nil:
		tol, tolDefined = *exp.Tolerance, true
	}

	i.timeOffset = 0
	if i.cfg.zeroStartTime && start != 0 {
		i.timeOffset = -start
		Logger().Debug("arming time offset",
			zap.String("instance", i.name),
			zap.Float64("offset", i.timeOffset))
	}
	nativeStart := i.nativeTime(start)
	nativeStop := stop
	if stopDefined {
		nativeStop = i.nativeTime(stop)
	}

	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.SetupExperiment == nil || i.v2.EnterInitializationMode == nil {
			return errors.Unsupported("fmi2EnterInitializationMode")
		}
		err = i.escalate("fmi2SetupExperiment",
			fmi.Status(i.v2.SetupExperiment(i.handle, b2i(tolDefined), tol, nativeStart, b2i(stopDefined), nativeStop)))
		if err == nil {
			err = i.escalate("fmi2EnterInitializationMode",
				fmi.Status(i.v2.EnterInitializationMode(i.handle)))
		}
	case fmi.FMI3:
		if i.v3.EnterInitializationMode == nil {
			return errors.Unsupported("fmi3EnterInitializationMode")
		}
		err = i.escalate("fmi3EnterInitializationMode",
			fmi.Status(i.v3.EnterInitializationMode(i.handle, tolDefined, tol, nativeStart, stopDefined, nativeStop)))
	}
	if err != nil {
		return err
	}

	i.state = StateInitializationMode
	i.currentTime = start
	return nil
}

// ExitInitialization leaves initialization mode, entering event mode for
// model exchange (and FMI3 co-simulation with event mode) or step mode
// for plain co-simulation.
func (i *Instance) ExitInitialization() error {
	if err := i.precheck(opExitInit); err != nil {
		return err
	}

	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.ExitInitializationMode == nil {
			return errors.Unsupported("fmi2ExitInitializationMode")
		}
		err = i.escalate("fmi2ExitInitializationMode", fmi.Status(i.v2.ExitInitializationMode(i.handle)))
	case fmi.FMI3:
		if i.v3.ExitInitializationMode == nil {
			return errors.Unsupported("fmi3ExitInitializationMode")
		}
		err = i.escalate("fmi3ExitInitializationMode", fmi.Status(i.v3.ExitInitializationMode(i.handle)))
	}
	if err != nil {
		return err
	}

	switch {
	case i.kind == fmi.ModelExchange:
		i.state = StateEventMode
	case i.version == fmi.FMI3 && i.cfg.eventModeUsed:
		i.state = StateEventMode
	default:
		i.state = StateStepMode
	}
	return nil
}

// EnterEventMode transitions from continuous-time (or step) mode into
// event mode. FMI 2.0 restricts event mode to model exchange; FMI 3.0
// co-simulation instances reach it when instantiated with event mode.
func (i *Instance) EnterEventMode() error {
	if i.version == fmi.FMI2 && i.kind != fmi.ModelExchange {
		return errors.Capability(i.name, "enterEventMode", i.kind.String())
	}
	if err := i.precheck(opEnterEventMode); err != nil {
		return err
	}
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.EnterEventMode == nil {
			return errors.Unsupported("fmi2EnterEventMode")
		}
		err = i.escalate("fmi2EnterEventMode", fmi.Status(i.v2.EnterEventMode(i.handle)))
	case fmi.FMI3:
		if i.v3.EnterEventMode == nil {
			return errors.Unsupported("fmi3EnterEventMode")
		}
		err = i.escalate("fmi3EnterEventMode", fmi.Status(i.v3.EnterEventMode(i.handle)))
	}
	if err != nil {
		return err
	}
	i.state = StateEventMode
	return nil
}

// EnterContinuousTimeMode transitions from event mode into
// continuous-time mode.
func (i *Instance) EnterContinuousTimeMode() error {
	if i.kind != fmi.ModelExchange {
		return errors.Capability(i.name, "enterContinuousTimeMode", i.kind.String())
	}
	if err := i.precheck(opEnterContinuous); err != nil {
		return err
	}
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.EnterContinuousTimeMode == nil {
			return errors.Unsupported("fmi2EnterContinuousTimeMode")
		}
		err = i.escalate("fmi2EnterContinuousTimeMode", fmi.Status(i.v2.EnterContinuousTimeMode(i.handle)))
	case fmi.FMI3:
		if i.v3.EnterContinuousTimeMode == nil {
			return errors.Unsupported("fmi3EnterContinuousTimeMode")
		}
		err = i.escalate("fmi3EnterContinuousTimeMode", fmi.Status(i.v3.EnterContinuousTimeMode(i.handle)))
	}
	if err != nil {
		return err
	}
	i.state = StateContinuousTimeMode
	return nil
}

// EnterStepMode returns an FMI3 co-simulation instance from event mode to
// step mode.
func (i *Instance) EnterStepMode() error {
	if i.version != fmi.FMI3 || i.kind != fmi.CoSimulation {
		return errors.Capability(i.name, "enterStepMode", i.kind.String())
	}
	if i.v3.EnterStepMode == nil {
		return errors.Unsupported("fmi3EnterStepMode")
	}
	if err := i.escalate("fmi3EnterStepMode", fmi.Status(i.v3.EnterStepMode(i.handle))); err != nil {
		return err
	}
	i.state = StateStepMode
	return nil
}

// UpdateDiscreteStates performs one discrete-state update in event mode
// and returns the event information as an owned value.
func (i *Instance) UpdateDiscreteStates() (EventInfo, error) {
	var info EventInfo
	if err := i.precheck(opUpdateDiscrete); err != nil {
		return info, err
	}

	switch i.version {
	case fmi.FMI2:
		if i.v2.NewDiscreteStates == nil {
			return info, errors.Unsupported("fmi2NewDiscreteStates")
		}
		var raw engine.FMI2EventInfo
		st := fmi.Status(i.v2.NewDiscreteStates(i.handle, &raw))
		if err := i.escalate("fmi2NewDiscreteStates", st); err != nil {
			return info, err
		}
		info = EventInfo{
			DiscreteStatesNeedUpdate: raw.NewDiscreteStatesNeeded != 0,
			TerminateSimulation:      raw.TerminateSimulation != 0,
			NominalsChanged:          raw.NominalsOfContinuousStatesChanged != 0,
			StatesChanged:            raw.ValuesOfContinuousStatesChanged != 0,
			NextEventTimeDefined:     raw.NextEventTimeDefined != 0,
		}
		if info.NextEventTimeDefined {
			info.NextEventTime = i.callerTime(raw.NextEventTime)
		}
	case fmi.FMI3:
		if i.v3.UpdateDiscreteStates == nil {
			return info, errors.Unsupported("fmi3UpdateDiscreteStates")
		}
		var nextTime float64
		st := fmi.Status(i.v3.UpdateDiscreteStates(i.handle,
			&info.DiscreteStatesNeedUpdate, &info.TerminateSimulation,
			&info.NominalsChanged, &info.StatesChanged,
			&info.NextEventTimeDefined, &nextTime))
		if err := i.escalate("fmi3UpdateDiscreteStates", st); err != nil {
			return EventInfo{}, err
		}
		if info.NextEventTimeDefined {
			info.NextEventTime = i.callerTime(nextTime)
		}
	}
	return info, nil
}

// SetTime sets the independent variable. Model exchange only.
func (i *Instance) SetTime(t float64) error {
	if i.kind != fmi.ModelExchange {
		return errors.Capability(i.name, "setTime", i.kind.String())
	}
	if err := i.precheck(opSetTime); err != nil {
		return err
	}
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.SetTime == nil {
			return errors.Unsupported("fmi2SetTime")
		}
		err = i.escalate("fmi2SetTime", fmi.Status(i.v2.SetTime(i.handle, i.nativeTime(t))))
	case fmi.FMI3:
		if i.v3.SetTime == nil {
			return errors.Unsupported("fmi3SetTime")
		}
		err = i.escalate("fmi3SetTime", fmi.Status(i.v3.SetTime(i.handle, i.nativeTime(t))))
	}
	if err != nil {
		return err
	}
	i.currentTime = t
	return nil
}

// SetContinuousStates sets the continuous state vector. Model exchange
// only. The cache is updated only when the native call reports OK.
func (i *Instance) SetContinuousStates(x []float64) error {
	if i.kind != fmi.ModelExchange {
		return errors.Capability(i.name, "setContinuousStates", i.kind.String())
	}
	if err := i.precheck(opSetStates); err != nil {
		return err
	}
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.SetContinuousStates == nil {
			return errors.Unsupported("fmi2SetContinuousStates")
		}
		err = i.escalate("fmi2SetContinuousStates", fmi.Status(i.v2.SetContinuousStates(i.handle, x, uint64(len(x)))))
	case fmi.FMI3:
		if i.v3.SetContinuousStates == nil {
			return errors.Unsupported("fmi3SetContinuousStates")
		}
		err = i.escalate("fmi3SetContinuousStates", fmi.Status(i.v3.SetContinuousStates(i.handle, x, uint64(len(x)))))
	}
	if err != nil {
		return err
	}
	i.continuousStates = append(i.continuousStates[:0], x...)
	return nil
}

// GetContinuousStates reads the continuous state vector.
func (i *Instance) GetContinuousStates() ([]float64, error) {
	if i.kind != fmi.ModelExchange {
		return nil, errors.Capability(i.name, "getContinuousStates", i.kind.String())
	}
	if err := i.precheck(opGetStates); err != nil {
		return nil, err
	}
	nx := i.module.model.ContinuousStates
	out := make([]float64, nx)
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.GetContinuousStates == nil {
			return nil, errors.Unsupported("fmi2GetContinuousStates")
		}
		err = i.escalate("fmi2GetContinuousStates", fmi.Status(i.v2.GetContinuousStates(i.handle, out, uint64(nx))))
	case fmi.FMI3:
		if i.v3.GetContinuousStates == nil {
			return nil, errors.Unsupported("fmi3GetContinuousStates")
		}
		err = i.escalate("fmi3GetContinuousStates", fmi.Status(i.v3.GetContinuousStates(i.handle, out, uint64(nx))))
	}
	if err != nil {
		return nil, err
	}
	i.continuousStates = append(i.continuousStates[:0], out...)
	return out, nil
}

// GetDerivatives reads the state derivative vector.
func (i *Instance) GetDerivatives() ([]float64, error) {
	if i.kind != fmi.ModelExchange {
		return nil, errors.Capability(i.name, "getDerivatives", i.kind.String())
	}
	if err := i.precheck(opGetDerivatives); err != nil {
		return nil, err
	}
	nx := i.module.model.ContinuousStates
	out := make([]float64, nx)
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.GetDerivatives == nil {
			return nil, errors.Unsupported("fmi2GetDerivatives")
		}
		err = i.escalate("fmi2GetDerivatives", fmi.Status(i.v2.GetDerivatives(i.handle, out, uint64(nx))))
	case fmi.FMI3:
		if i.v3.GetContinuousStateDerivatives == nil {
			return nil, errors.Unsupported("fmi3GetContinuousStateDerivatives")
		}
		err = i.escalate("fmi3GetContinuousStateDerivatives", fmi.Status(i.v3.GetContinuousStateDerivatives(i.handle, out, uint64(nx))))
	}
	if err != nil {
		return nil, err
	}
	i.stateDerivatives = append(i.stateDerivatives[:0], out...)
	return out, nil
}

// GetEventIndicators reads the event indicator vector.
func (i *Instance) GetEventIndicators() ([]float64, error) {
	if err := i.precheck(opGetIndicators); err != nil {
		return nil, err
	}
	ni := i.module.model.NumEventIndicators
	out := make([]float64, ni)
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.GetEventIndicators == nil {
			return nil, errors.Unsupported("fmi2GetEventIndicators")
		}
		err = i.escalate("fmi2GetEventIndicators", fmi.Status(i.v2.GetEventIndicators(i.handle, out, uint64(ni))))
	case fmi.FMI3:
		if i.v3.GetEventIndicators == nil {
			return nil, errors.Unsupported("fmi3GetEventIndicators")
		}
		err = i.escalate("fmi3GetEventIndicators", fmi.Status(i.v3.GetEventIndicators(i.handle, out, uint64(ni))))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CompletedIntegratorStep notifies the FMU that one integrator step has
// completed. Model exchange only.
func (i *Instance) CompletedIntegratorStep() (enterEventMode, terminate bool, err error) {
	if i.kind != fmi.ModelExchange {
		return false, false, errors.Capability(i.name, "completedIntegratorStep", i.kind.String())
	}
	if err := i.precheck(opCompletedStep); err != nil {
		return false, false, err
	}
	switch i.version {
	case fmi.FMI2:
		if i.v2.CompletedIntegratorStep == nil {
			return false, false, errors.Unsupported("fmi2CompletedIntegratorStep")
		}
		var enter, term int32
		st := fmi.Status(i.v2.CompletedIntegratorStep(i.handle, 1, &enter, &term))
		if err := i.escalate("fmi2CompletedIntegratorStep", st); err != nil {
			return false, false, err
		}
		return enter != 0, term != 0, nil
	default:
		if i.v3.CompletedIntegratorStep == nil {
			return false, false, errors.Unsupported("fmi3CompletedIntegratorStep")
		}
		var enter, term bool
		st := fmi.Status(i.v3.CompletedIntegratorStep(i.handle, true, &enter, &term))
		if err := i.escalate("fmi3CompletedIntegratorStep", st); err != nil {
			return false, false, err
		}
		return enter, term, nil
	}
}

// SkipNextDoStep arms a one-shot latch: the next DoStep returns OK
// without invoking the native stepping entry point. Used to evaluate
// outputs at the initial time without advancing the FMU.
func (i *Instance) SkipNextDoStep() {
	i.skipNextDoStep = true
}

// DoStep advances a co-simulation instance from communication point t by
// step h. The result's Status carries the raw native status; Discard and
// Error are also reported through the returned error.
func (i *Instance) DoStep(t, h float64) (StepResult, error) {
	res := StepResult{Status: fmi.StatusOK, LastSuccessfulTime: t}
	if i.kind != fmi.CoSimulation {
		return res, errors.Capability(i.name, "doStep", i.kind.String())
	}
	if i.skipNextDoStep {
		i.skipNextDoStep = false
		return res, nil
	}
	if err := i.precheck(opDoStep); err != nil {
		return res, err
	}

	switch i.version {
	case fmi.FMI2:
		if i.v2.DoStep == nil {
			return res, errors.Unsupported("fmi2DoStep")
		}
		st := fmi.Status(i.v2.DoStep(i.handle, i.nativeTime(t), h, 1))
		res.Status = st
		if err := i.escalate("fmi2DoStep", st); err != nil {
			return res, err
		}
		if st == fmi.StatusOK {
			i.currentTime = t + h
			res.LastSuccessfulTime = t + h
		}
	case fmi.FMI3:
		if i.v3.DoStep == nil {
			return res, errors.Unsupported("fmi3DoStep")
		}
		var eventNeeded, term, early bool
		var lastTime float64
		st := fmi.Status(i.v3.DoStep(i.handle, i.nativeTime(t), h, true, &eventNeeded, &term, &early, &lastTime))
		res.Status = st
		res.EventHandlingNeeded = eventNeeded
		res.TerminateRequested = term
		res.EarlyReturn = early
		res.LastSuccessfulTime = i.callerTime(lastTime)
		if err := i.escalate("fmi3DoStep", st); err != nil {
			return res, err
		}
		if st == fmi.StatusOK {
			i.currentTime = res.LastSuccessfulTime
		}
	}
	return res, nil
}

// CancelStep cancels an asynchronous FMI 2.0 step left Pending.
func (i *Instance) CancelStep() error {
	if i.version != fmi.FMI2 || i.kind != fmi.CoSimulation {
		return errors.Capability(i.name, "cancelStep", i.kind.String())
	}
	if err := i.precheck(opCancelStep); err != nil {
		return err
	}
	if i.v2.CancelStep == nil {
		return errors.Unsupported("fmi2CancelStep")
	}
	return i.escalate("fmi2CancelStep", fmi.Status(i.v2.CancelStep(i.handle)))
}

// StepStatus polls the status of an asynchronous FMI 2.0 step.
func (i *Instance) StepStatus() (fmi.Status, error) {
	if i.version != fmi.FMI2 || i.kind != fmi.CoSimulation {
		return fmi.StatusError, errors.Capability(i.name, "stepStatus", i.kind.String())
	}
	if err := i.precheck(opStepStatus); err != nil {
		return fmi.StatusError, err
	}
	if i.v2.GetStatus == nil {
		return fmi.StatusError, errors.Unsupported("fmi2GetStatus")
	}
	var value int32
	// fmi2StatusKind fmi2DoStepStatus
	st := fmi.Status(i.v2.GetStatus(i.handle, 0, &value))
	if err := i.escalate("fmi2GetStatus", st); err != nil {
		return fmi.StatusError, err
	}
	return fmi.Status(value), nil
}

// LastSuccessfulTime queries the communication point reached by the last
// (possibly partial) FMI 2.0 step, in the caller's time base.
func (i *Instance) LastSuccessfulTime() (float64, error) {
	if i.version != fmi.FMI2 || i.kind != fmi.CoSimulation {
		return 0, errors.Capability(i.name, "lastSuccessfulTime", i.kind.String())
	}
	if i.v2.GetRealStatus == nil {
		return 0, errors.Unsupported("fmi2GetRealStatus")
	}
	var value float64
	// fmi2StatusKind fmi2LastSuccessfulTime
	st := fmi.Status(i.v2.GetRealStatus(i.handle, 2, &value))
	if err := i.escalate("fmi2GetRealStatus", st); err != nil {
		return 0, err
	}
	return i.callerTime(value), nil
}

// Terminate ends the simulation run. The instance stays allocated and
// can still be read from or reset.
func (i *Instance) Terminate() error {
	if err := i.precheck(opTerminate); err != nil {
		return err
	}
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.Terminate == nil {
			return errors.Unsupported("fmi2Terminate")
		}
		err = i.escalate("fmi2Terminate", fmi.Status(i.v2.Terminate(i.handle)))
	case fmi.FMI3:
		if i.v3.Terminate == nil {
			return errors.Unsupported("fmi3Terminate")
		}
		err = i.escalate("fmi3Terminate", fmi.Status(i.v3.Terminate(i.handle)))
	}
	if err != nil {
		return err
	}
	i.state = StateTerminated
	return nil
}

// Reset returns the instance to the instantiated state, clearing all
// caches to fresh-instance values. The native reset entry point is used
// when exported; otherwise the instance is destroyed and recreated
// transparently.
func (i *Instance) Reset() error {
	if err := i.precheck(opReset); err != nil {
		return err
	}

	var nativeReset func() int32
	switch i.version {
	case fmi.FMI2:
		if i.v2.Reset != nil {
			nativeReset = func() int32 { return i.v2.Reset(i.handle) }
		}
	case fmi.FMI3:
		if i.v3.Reset != nil {
			nativeReset = func() int32 { return i.v3.Reset(i.handle) }
		}
	}

	if nativeReset != nil {
		if err := i.escalate("reset", fmi.Status(nativeReset())); err != nil {
			return err
		}
	} else {
		// Recreate behind the caller's back.
		i.freeNative()
		if err := i.instantiateNative(); err != nil {
			return err
		}
	}

	i.resetCaches()
	return nil
}

// HardReset destroys the native instance and recreates it, bypassing the
// native reset entry point. Use when a module's soft reset is known to
// leave residual state behind.
func (i *Instance) HardReset() error {
	if err := i.precheck(opReset); err != nil {
		return err
	}
	i.freeNative()
	if err := i.instantiateNative(); err != nil {
		return err
	}
	i.resetCaches()
	return nil
}

func (i *Instance) resetCaches() {
	i.state = StateInstantiated
	i.currentTime = 0
	i.timeOffset = 0
	i.continuousStates = nil
	i.stateDerivatives = nil
	i.skipNextDoStep = false
}

// Free disposes the native instance and removes it from the module's
// registry. Any further operation fails.
func (i *Instance) Free() error {
	if i.state == StateFreed {
		return nil
	}
	i.freeNative()
	i.module.instances.Remove(i.regHandle)
	i.state = StateFreed
	i.handle = 0
	return nil
}

func (i *Instance) freeNative() {
	if i.handle == 0 {
		return
	}
	switch i.version {
	case fmi.FMI2:
		if i.v2.FreeInstance != nil {
			i.v2.FreeInstance(i.handle)
		}
	case fmi.FMI3:
		if i.v3.FreeInstance != nil {
			i.v3.FreeInstance(i.handle)
		}
	}
}

// EnterConfigurationMode opens the FMI 3.0 configuration mode for
// changing structural parameters before initialization.
func (i *Instance) EnterConfigurationMode() error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3EnterConfigurationMode")
	}
	if err := i.precheck(opEnterConfiguration); err != nil {
		return err
	}
	if i.v3.EnterConfigurationMode == nil {
		return errors.Unsupported("fmi3EnterConfigurationMode")
	}
	if err := i.escalate("fmi3EnterConfigurationMode", fmi.Status(i.v3.EnterConfigurationMode(i.handle))); err != nil {
		return err
	}
	i.state = StateConfigurationMode
	return nil
}

// ExitConfigurationMode closes configuration mode and returns to the
// instantiated state.
func (i *Instance) ExitConfigurationMode() error {
	if i.version != fmi.FMI3 {
		return errors.Unsupported("fmi3ExitConfigurationMode")
	}
	if err := i.precheck(opExitConfiguration); err != nil {
		return err
	}
	if i.v3.ExitConfigurationMode == nil {
		return errors.Unsupported("fmi3ExitConfigurationMode")
	}
	if err := i.escalate("fmi3ExitConfigurationMode", fmi.Status(i.v3.ExitConfigurationMode(i.handle))); err != nil {
		return err
	}
	i.state = StateInstantiated
	return nil
}

// ProvidesDirectionalDerivatives reports whether the manifest declares
// native directional derivative support for this instance's kind.
func (i *Instance) ProvidesDirectionalDerivatives() bool {
	if !i.module.model.ProvidesDirectionalDerivatives(i.kind) {
		return false
	}
	switch i.version {
	case fmi.FMI2:
		return i.v2.GetDirectionalDerivative != nil
	default:
		return i.v3.GetDirectionalDerivative != nil
	}
}

// DirectionalDerivative computes the product of the partial derivative
// matrix d(unknowns)/d(knowns) with the seed vector, using the FMU's own
// derivative entry point. len(seed) must equal len(knowns).
func (i *Instance) DirectionalDerivative(unknowns, knowns []fmi.ValueReference, seed []float64) ([]float64, error) {
	if len(seed) != len(knowns) {
		return nil, errors.InvalidInput(errors.PhaseCall, "seed length does not match knowns")
	}
	if !i.module.model.ProvidesDirectionalDerivatives(i.kind) {
		return nil, errors.Capability(i.name, "getDirectionalDerivative", i.kind.String())
	}
	if err := i.precheck(opDirectional); err != nil {
		return nil, err
	}
	if len(unknowns) == 0 {
		return []float64{}, nil
	}

	out := make([]float64, len(unknowns))
	vu := rawVRs(unknowns)
	vk := rawVRs(knowns)
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.GetDirectionalDerivative == nil {
			return nil, errors.Unsupported("fmi2GetDirectionalDerivative")
		}
		err = i.escalate("fmi2GetDirectionalDerivative",
			fmi.Status(i.v2.GetDirectionalDerivative(i.handle, vu, uint64(len(vu)), vk, uint64(len(vk)), seed, out)))
	case fmi.FMI3:
		if i.v3.GetDirectionalDerivative == nil {
			return nil, errors.Unsupported("fmi3GetDirectionalDerivative")
		}
		err = i.escalate("fmi3GetDirectionalDerivative",
			fmi.Status(i.v3.GetDirectionalDerivative(i.handle, vu, uint64(len(vu)), vk, uint64(len(vk)), seed, uint64(len(seed)), out, uint64(len(out)))))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AdjointDerivative computes the product of the seed row vector with the
// partial derivative matrix, via fmi3GetAdjointDerivative. FMI 3.0 only;
// len(seed) must equal len(unknowns).
func (i *Instance) AdjointDerivative(unknowns, knowns []fmi.ValueReference, seed []float64) ([]float64, error) {
	if i.version != fmi.FMI3 {
		return nil, errors.Unsupported("fmi3GetAdjointDerivative")
	}
	if len(seed) != len(unknowns) {
		return nil, errors.InvalidInput(errors.PhaseCall, "seed length does not match unknowns")
	}
	if err := i.precheck(opDirectional); err != nil {
		return nil, err
	}
	if i.v3.GetAdjointDerivative == nil {
		return nil, errors.Unsupported("fmi3GetAdjointDerivative")
	}
	if len(knowns) == 0 {
		return []float64{}, nil
	}

	out := make([]float64, len(knowns))
	vu := rawVRs(unknowns)
	vk := rawVRs(knowns)
	err := i.escalate("fmi3GetAdjointDerivative",
		fmi.Status(i.v3.GetAdjointDerivative(i.handle, vu, uint64(len(vu)), vk, uint64(len(vk)), seed, uint64(len(seed)), out, uint64(len(out)))))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot is an opaque FMU state captured by SaveState. It is owned by
// the native side and must be released with FreeState.
type Snapshot struct {
	ptr uintptr
}

// SaveState captures the complete internal state of the FMU.
func (i *Instance) SaveState() (*Snapshot, error) {
	if err := i.precheck(opGetState); err != nil {
		return nil, err
	}
	var ptr uintptr
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.GetFMUState == nil {
			return nil, errors.Unsupported("fmi2GetFMUstate")
		}
		err = i.escalate("fmi2GetFMUstate", fmi.Status(i.v2.GetFMUState(i.handle, &ptr)))
	case fmi.FMI3:
		if i.v3.GetFMUState == nil {
			return nil, errors.Unsupported("fmi3GetFMUState")
		}
		err = i.escalate("fmi3GetFMUState", fmi.Status(i.v3.GetFMUState(i.handle, &ptr)))
	}
	if err != nil {
		return nil, err
	}
	return &Snapshot{ptr: ptr}, nil
}

// RestoreState rewinds the FMU to a previously captured snapshot.
func (i *Instance) RestoreState(s *Snapshot) error {
	if s == nil || s.ptr == 0 {
		return errors.InvalidInput(errors.PhaseCall, "nil snapshot")
	}
	if err := i.precheck(opSetState); err != nil {
		return err
	}
	switch i.version {
	case fmi.FMI2:
		if i.v2.SetFMUState == nil {
			return errors.Unsupported("fmi2SetFMUstate")
		}
		return i.escalate("fmi2SetFMUstate", fmi.Status(i.v2.SetFMUState(i.handle, s.ptr)))
	default:
		if i.v3.SetFMUState == nil {
			return errors.Unsupported("fmi3SetFMUState")
		}
		return i.escalate("fmi3SetFMUState", fmi.Status(i.v3.SetFMUState(i.handle, s.ptr)))
	}
}

// FreeState releases a snapshot. The snapshot is unusable afterwards.
func (i *Instance) FreeState(s *Snapshot) error {
	if s == nil || s.ptr == 0 {
		return nil
	}
	var err error
	switch i.version {
	case fmi.FMI2:
		if i.v2.FreeFMUState == nil {
			return errors.Unsupported("fmi2FreeFMUstate")
		}
		err = i.escalate("fmi2FreeFMUstate", fmi.Status(i.v2.FreeFMUState(i.handle, &s.ptr)))
	case fmi.FMI3:
		if i.v3.FreeFMUState == nil {
			return errors.Unsupported("fmi3FreeFMUState")
		}
		err = i.escalate("fmi3FreeFMUState", fmi.Status(i.v3.FreeFMUState(i.handle, &s.ptr)))
	}
	if err == nil {
		s.ptr = 0
	}
	return err
}

// --- guards ---

// precheck validates that the operation is legal in the current state.
// Fatal and freed instances reject everything; otherwise the configured
// sequencing policy decides whether a violation is an error or a logged
// warning followed by the native call.
func (i *Instance) precheck(o op) error {
	if i.state == StateFatal {
		return errors.New(errors.PhaseSequence, errors.KindSequenceViolation).
			Instance(i.name).Detail("instance is in the fatal state").Build()
	}
	if i.state == StateFreed {
		return errors.New(errors.PhaseSequence, errors.KindSequenceViolation).
			Instance(i.name).Detail("instance has been freed").Build()
	}

	row, ok := allowedStates(i.version, o)
	if !ok || stateIn(row, i.state) {
		return nil
	}

	err := errors.Sequence(string(o), i.state.String(), stateName(row)...)
	err.Instance = i.name
	if i.cfg.strictSequencing {
		return err
	}
	Logger().Warn("sequencing violation, attempting call anyway",
		zap.String("instance", i.name),
		zap.String("op", string(o)),
		zap.String("state", i.state.String()))
	return nil
}

// escalate applies the status escalation policy to one native result.
// OK and Pending pass, Warning passes unless asserted, Discard surfaces
// as an error without a state change, Error and Fatal move the state.
func (i *Instance) escalate(fn string, st fmi.Status) error {
	switch st {
	case fmi.StatusOK, fmi.StatusPending:
		return nil
	case fmi.StatusWarning:
		if i.cfg.assertOnWarning {
			return errors.NativeStatus(i.name, fn, int32(st))
		}
		Logger().Warn("native call returned warning",
			zap.String("instance", i.name),
			zap.String("function", fn))
		return nil
	case fmi.StatusDiscard:
		return errors.NativeStatus(i.name, fn, int32(st))
	case fmi.StatusError:
		i.state = StateError
		return errors.NativeStatus(i.name, fn, int32(st))
	default:
		i.state = StateFatal
		return errors.NativeStatus(i.name, fn, int32(st))
	}
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
