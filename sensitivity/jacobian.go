package sensitivity

import (
	"math"

	"go.uber.org/zap"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/errors"
	"github.com/wippyai/fmi-runtime/schema"
)

// Step floors for central-difference sampling. Event indicators are
// switching functions typically sampled near a zero crossing, so they get
// a much tighter floor than ordinary outputs.
const (
	defaultStepFloor   = 1e-6
	indicatorStepFloor = 1e-12
)

// Instance is the slice of the runtime instance surface the engine needs.
// *runtime.Instance satisfies it.
type Instance interface {
	Name() string
	Model() *schema.Model
	ProvidesDirectionalDerivatives() bool
	DirectionalDerivative(unknowns, knowns []fmi.ValueReference, seed []float64) ([]float64, error)
	GetFloat64(vrs []fmi.ValueReference) ([]float64, error)
	SetFloat64(vrs []fmi.ValueReference, values []float64) error
}

type config struct {
	seed        []float64
	forceSample bool
	noPruning   bool
}

// Option configures one Jacobian computation.
type Option func(*config)

// WithSeed supplies a per-known perturbation vector: seed[c] scales the
// directional derivative seed for column c, or fixes the sampling step
// for that column. Its length must equal len(knowns).
func WithSeed(seed []float64) Option {
	return func(c *config) { c.seed = seed }
}

// WithSampling forces central-difference sampling even when the FMU
// advertises a native directional derivative entry point. Useful for
// cross-checking an FMU's own derivatives.
func WithSampling() Option {
	return func(c *config) { c.forceSample = true }
}

// WithoutDependencyPruning disables the dependency-based zero shortcut,
// computing every entry even when the manifest proves it independent.
func WithoutDependencyPruning() Option {
	return func(c *config) { c.noPruning = true }
}

// Jacobian computes d(unknowns)/d(knowns) at inst's current operating
// point. Zero-sized unknown or known sets yield a well-formed empty
// matrix without touching the native module. The instance's externally
// visible state is unchanged when the call returns, on success and on
// error alike.
func Jacobian(inst Instance, unknowns, knowns []fmi.ValueReference, opts ...Option) (*Matrix, error) {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := newMatrix(len(unknowns), len(knowns))
	if len(unknowns) == 0 || len(knowns) == 0 {
		return m, nil
	}
	if cfg.seed != nil && len(cfg.seed) != len(knowns) {
		return nil, errors.InvalidInput(errors.PhaseSample, "seed length does not match knowns")
	}

	if inst.ProvidesDirectionalDerivatives() && !cfg.forceSample {
		if err := nativeColumns(inst, m, unknowns, knowns, &cfg); err != nil {
			return nil, err
		}
		return m, nil
	}
	if err := sampleColumns(inst, m, unknowns, knowns, &cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// nativeColumns fills m one column at a time through the FMU's own
// directional derivative routine.
func nativeColumns(inst Instance, m *Matrix, unknowns, knowns []fmi.ValueReference, cfg *config) error {
	model := inst.Model()
	seedVec := make([]float64, len(knowns))
	for c, known := range knowns {
		rows := dependentRows(model, unknowns, known, cfg.noPruning)
		if len(rows) == 0 {
			continue // provably zero column
		}

		weight := 1.0
		if cfg.seed != nil {
			weight = cfg.seed[c]
		}
		seedVec[c] = weight
		col, err := inst.DirectionalDerivative(unknowns, knowns, seedVec)
		seedVec[c] = 0
		if err != nil {
			return err
		}
		for r := range unknowns {
			m.SetAt(r, c, col[r])
		}
	}
	return nil
}

// sampleColumns fills m by central differences, perturbing one known at a
// time and restoring it unconditionally before moving on.
func sampleColumns(inst Instance, m *Matrix, unknowns, knowns []fmi.ValueReference, cfg *config) error {
	model := inst.Model()
	floor := stepFloorFor(model, unknowns)

	for c, known := range knowns {
		rows := dependentRows(model, unknowns, known, cfg.noPruning)
		if len(rows) == 0 {
			continue
		}
		subset := make([]fmi.ValueReference, len(rows))
		for n, r := range rows {
			subset[n] = unknowns[r]
		}

		if err := sampleColumn(inst, m, subset, rows, known, c, floor, cfg); err != nil {
			return err
		}
	}
	return nil
}

func sampleColumn(inst Instance, m *Matrix, subset []fmi.ValueReference, rows []int, known fmi.ValueReference, c int, floor float64, cfg *config) error {
	one := []fmi.ValueReference{known}
	orig, err := inst.GetFloat64(one)
	if err != nil {
		return err
	}
	v0 := orig[0]

	h := samplingStep(v0, floor)
	if cfg.seed != nil {
		h = cfg.seed[c]
	}
	if h == 0 {
		return errors.InvalidInput(errors.PhaseSample, "zero sampling step")
	}

	// From here on the known is perturbed: whatever happens, put v0 back.
	restore := func() {
		if rerr := inst.SetFloat64(one, []float64{v0}); rerr != nil {
			Logger().Error("failed to restore perturbed variable",
				zap.String("instance", inst.Name()),
				zap.Uint32("valueReference", uint32(known)),
				zap.Error(rerr))
		}
	}

	if err := inst.SetFloat64(one, []float64{v0 - h}); err != nil {
		restore()
		return err
	}
	neg, err := inst.GetFloat64(subset)
	if err != nil {
		restore()
		return err
	}
	if err := inst.SetFloat64(one, []float64{v0 + h}); err != nil {
		restore()
		return err
	}
	pos, err := inst.GetFloat64(subset)
	if err != nil {
		restore()
		return err
	}
	if err := inst.SetFloat64(one, []float64{v0}); err != nil {
		return err
	}

	for n, r := range rows {
		m.SetAt(r, c, (pos[n]-neg[n])/(2*h))
	}
	return nil
}

// dependentRows returns the indexes of the unknowns that may depend on
// known. With pruning disabled every row is returned.
func dependentRows(model *schema.Model, unknowns []fmi.ValueReference, known fmi.ValueReference, noPruning bool) []int {
	rows := make([]int, 0, len(unknowns))
	for r, u := range unknowns {
		if noPruning || model.DependsOn(u, known) {
			rows = append(rows, r)
		}
	}
	return rows
}

// stepFloorFor picks the sampling floor: the tight indicator floor only
// when every requested unknown is a declared event indicator.
func stepFloorFor(model *schema.Model, unknowns []fmi.ValueReference) float64 {
	if len(model.EventIndicators) == 0 {
		return defaultStepFloor
	}
	indicator := make(map[fmi.ValueReference]bool, len(model.EventIndicators))
	for _, vr := range model.EventIndicators {
		indicator[vr] = true
	}
	for _, u := range unknowns {
		if !indicator[u] {
			return defaultStepFloor
		}
	}
	return indicatorStepFloor
}

// samplingStep is max(2·eps(float32(v0)), floor): wide enough that the
// perturbation survives a float32-truncating FMU, never below the floor.
func samplingStep(v0, floor float64) float64 {
	f := float32(math.Abs(v0))
	if math.IsInf(float64(f), 0) {
		return floor
	}
	next := math.Float32frombits(math.Float32bits(f) + 1)
	h := 2 * float64(next-f)
	if h < floor {
		h = floor
	}
	return h
}
