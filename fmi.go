package fmiruntime

// Status is the six-valued result code returned by every native FMI call.
// The numeric values match the C enumerations of both FMI 2.0 (fmi2Status)
// and FMI 3.0 (fmi3Status); Pending only occurs for asynchronous FMI 2.0
// co-simulation steps.
type Status int32

const (
	StatusOK Status = iota
	StatusWarning
	StatusDiscard
	StatusError
	StatusFatal
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusDiscard:
		return "discard"
	case StatusError:
		return "error"
	case StatusFatal:
		return "fatal"
	case StatusPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Recoverable reports whether an instance can continue after this status.
// Error requires termination or reset; Fatal permanently invalidates the
// instance.
func (s Status) Recoverable() bool {
	return s != StatusError && s != StatusFatal
}

// Kind selects the execution interface an instance is created with.
// It is fixed at instantiation and gates which operations are legal.
type Kind uint8

const (
	ModelExchange Kind = iota
	CoSimulation
	ScheduledExecution
)

func (k Kind) String() string {
	switch k {
	case ModelExchange:
		return "model-exchange"
	case CoSimulation:
		return "co-simulation"
	case ScheduledExecution:
		return "scheduled-execution"
	default:
		return "unknown"
	}
}

// SpecVersion identifies the major FMI standard version of a loaded FMU.
type SpecVersion uint8

const (
	FMI2 SpecVersion = iota + 2
	FMI3
)

func (v SpecVersion) String() string {
	switch v {
	case FMI2:
		return "2.0"
	case FMI3:
		return "3.0"
	default:
		return "unknown"
	}
}

// ValueReference is the canonical numeric handle the native module uses to
// address a variable. Both standard versions encode it as an unsigned
// 32-bit integer.
type ValueReference uint32

// TypeTag identifies the declared primitive type of a variable. The set is
// closed: FMI 3.0 defines all tags below, FMI 2.0 only Float64 (Real),
// Int32 (Integer), Boolean and String.
type TypeTag uint8

const (
	TagFloat32 TypeTag = iota
	TagFloat64
	TagInt8
	TagUInt8
	TagInt16
	TagUInt16
	TagInt32
	TagUInt32
	TagInt64
	TagUInt64
	TagBoolean
	TagString
	TagBinary
	TagClock
)

var tagNames = [...]string{
	TagFloat32: "Float32",
	TagFloat64: "Float64",
	TagInt8:    "Int8",
	TagUInt8:   "UInt8",
	TagInt16:   "Int16",
	TagUInt16:  "UInt16",
	TagInt32:   "Int32",
	TagUInt32:  "UInt32",
	TagInt64:   "Int64",
	TagUInt64:  "UInt64",
	TagBoolean: "Boolean",
	TagString:  "String",
	TagBinary:  "Binary",
	TagClock:   "Clock",
}

func (t TypeTag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "unknown"
}

// Numeric reports whether values of this type participate in Jacobian
// computation. Booleans, strings, binaries and clocks do not.
func (t TypeTag) Numeric() bool {
	switch t {
	case TagBoolean, TagString, TagBinary, TagClock:
		return false
	default:
		return true
	}
}
