package runtime

// instanceConfig holds the policy toggles of one instance.
type instanceConfig struct {
	strictSequencing bool
	assertOnWarning  bool
	visible          bool
	loggingOn        bool
	eventModeUsed    bool
	zeroStartTime    bool
}

// InstanceOption configures an Instance at creation.
type InstanceOption func(*instanceConfig)

// WithStrictSequencing turns lifecycle sequencing violations into errors
// returned before the native module is invoked. The default policy logs a
// warning and still attempts the call, which interoperates with FMUs that
// accept out-of-order calls.
func WithStrictSequencing() InstanceOption {
	return func(c *instanceConfig) { c.strictSequencing = true }
}

// WithAssertOnWarning makes native Warning statuses surface as errors
// instead of log entries. The instance state is unaffected either way.
func WithAssertOnWarning() InstanceOption {
	return func(c *instanceConfig) { c.assertOnWarning = true }
}

// WithVisible asks the FMU to run with its interactive UI, if it has one.
func WithVisible() InstanceOption {
	return func(c *instanceConfig) { c.visible = true }
}

// WithNativeLogging enables the FMU's own diagnostic logging, forwarded
// to the engine logger.
func WithNativeLogging() InstanceOption {
	return func(c *instanceConfig) { c.loggingOn = true }
}

// WithEventMode instantiates an FMI 3.0 co-simulation FMU with event mode
// enabled, so discrete events are surfaced to the caller instead of being
// handled inside DoStep. Ignored for FMI 2.0.
func WithEventMode() InstanceOption {
	return func(c *instanceConfig) { c.eventModeUsed = true }
}

// WithZeroStartTime declares that the FMU only supports simulations
// starting at t=0. A non-zero start time is then realized through an
// additive offset applied on every time value crossing the native
// boundary; callers keep their own time base.
func WithZeroStartTime() InstanceOption {
	return func(c *instanceConfig) { c.zeroStartTime = true }
}

// InitConfig carries the arguments of EnterInitialization. Nil fields
// default to the manifest's DefaultExperiment values; a missing start
// time defaults to 0.
type InitConfig struct {
	StartTime *float64
	StopTime  *float64
	Tolerance *float64
}

// Float64Ptr is a convenience for building InitConfig literals.
func Float64Ptr(v float64) *float64 {
	return &v
}
