package schema

import (
	fmi "github.com/wippyai/fmi-runtime"
)

// Variable is one declared model variable.
type Variable struct {
	Name           string
	Description    string
	Unit           string
	Causality      string // parameter, input, output, local, independent, ...
	Variability    string // constant, fixed, tunable, discrete, continuous
	Initial        string
	Start          string // raw start attribute, empty if absent
	ValueReference fmi.ValueReference
	Type           fmi.TypeTag
}

// Interface holds the capability flags of one execution interface section
// (ModelExchange, CoSimulation or ScheduledExecution).
type Interface struct {
	ModelIdentifier                       string
	ProvidesDirectionalDerivatives        bool
	CanGetAndSetState                     bool
	CanHandleVariableStepSize             bool
	CanReturnEarlyAfterIntermediateUpdate bool
}

// DefaultExperiment carries the manifest's suggested simulation setup.
// Nil pointer fields mean the attribute was absent.
type DefaultExperiment struct {
	StartTime *float64
	StopTime  *float64
	Tolerance *float64
	StepSize  *float64
}

// Model is the parsed manifest. Immutable after Parse.
type Model struct {
	FMIVersion  string
	SpecVersion fmi.SpecVersion
	Name        string
	// GUID for FMI2, instantiationToken for FMI3; passed verbatim to the
	// native instantiate call which validates it against the binary.
	Token       string
	Description string

	ModelExchange      *Interface
	CoSimulation       *Interface
	ScheduledExecution *Interface

	Experiment DefaultExperiment

	Variables []Variable

	// Outputs, derivatives and event indicators from ModelStructure, in
	// declaration order, normalized to value references.
	Outputs          []fmi.ValueReference
	Derivatives      []fmi.ValueReference
	EventIndicators  []fmi.ValueReference
	ContinuousStates int

	// NumEventIndicators is the event indicator count: the attribute in
	// FMI2, the EventIndicator element count in FMI3.
	NumEventIndicators int

	byName map[string]int
	byVR   map[fmi.ValueReference]int

	// deps maps an unknown's value reference to the value references it
	// depends on. Absence from the map means the manifest declared no
	// dependency information for that unknown, i.e. it may depend on
	// everything.
	deps map[fmi.ValueReference][]fmi.ValueReference
}

// Lookup returns the variable declared under name.
func (m *Model) Lookup(name string) (*Variable, bool) {
	i, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return &m.Variables[i], true
}

// ByValueReference returns the first variable declared with vr. FMI2 allows
// aliases sharing one reference; the first declaration wins, which is
// sufficient for type lookup since aliases share a type.
func (m *Model) ByValueReference(vr fmi.ValueReference) (*Variable, bool) {
	i, ok := m.byVR[vr]
	if !ok {
		return nil, false
	}
	return &m.Variables[i], true
}

// TypeOf returns the declared primitive type of vr.
func (m *Model) TypeOf(vr fmi.ValueReference) (fmi.TypeTag, bool) {
	v, ok := m.ByValueReference(vr)
	if !ok {
		return 0, false
	}
	return v.Type, true
}

// Capabilities returns the interface section for kind, or nil if the FMU
// does not implement that execution kind.
func (m *Model) Capabilities(kind fmi.Kind) *Interface {
	switch kind {
	case fmi.ModelExchange:
		return m.ModelExchange
	case fmi.CoSimulation:
		return m.CoSimulation
	case fmi.ScheduledExecution:
		return m.ScheduledExecution
	}
	return nil
}

// ProvidesDirectionalDerivatives reports whether the interface section for
// kind advertises the native directional derivative entry point.
func (m *Model) ProvidesDirectionalDerivatives(kind fmi.Kind) bool {
	c := m.Capabilities(kind)
	return c != nil && c.ProvidesDirectionalDerivatives
}

// Dependencies returns the declared dependency set of the unknown vr.
// ok=false means the manifest carries no dependency information for vr and
// the caller must assume it depends on everything. An empty, non-nil slice
// means vr provably depends on nothing.
func (m *Model) Dependencies(vr fmi.ValueReference) ([]fmi.ValueReference, bool) {
	d, ok := m.deps[vr]
	return d, ok
}

// DependsOn reports whether unknown may depend on known according to the
// manifest. Missing dependency information counts as "may depend".
func (m *Model) DependsOn(unknown, known fmi.ValueReference) bool {
	d, ok := m.deps[unknown]
	if !ok {
		return true
	}
	for _, vr := range d {
		if vr == known {
			return true
		}
	}
	return false
}
