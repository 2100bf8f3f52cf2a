// Package fmiruntime provides a Go host runtime for Functional Mock-up
// Units (FMUs) following the FMI 2.0 and FMI 3.0 standards.
//
// An FMU is a black-box simulation model shipped as a zip container with a
// platform-specific shared library and an XML manifest. This library loads
// the container, drives instances through the standardized lifecycle
// (instantiation, initialization, continuous-time/event/step modes,
// termination) and exchanges variable values and sensitivities with the
// native model.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	fmiruntime/          Root package with the shared FMI vocabulary:
//	                     Status, Kind, SpecVersion, ValueReference, TypeTag
//	├── runtime/         High-level API for loading FMUs and driving instances
//	├── engine/          Low-level FFI boundary: shared-library loading and
//	                     the per-version native function tables
//	├── schema/          modelDescription.xml parsing and variable lookup
//	├── sensitivity/     Jacobian computation (directional derivatives with
//	                     a central-difference fallback)
//	├── registry/        Handle table tracking live instances per module
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Load an FMU and perform one co-simulation step:
//
//	rt := runtime.New()
//	defer rt.Close()
//
//	mod, err := rt.Load("BouncingBall.fmu")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate("ball", fmiruntime.CoSimulation)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Free()
//
//	inst.EnterInitialization(runtime.InitConfig{})
//	inst.ExitInitialization()
//	inst.DoStep(0.0, 0.01)
//
//	h, _ := mod.ResolveOne("h")
//	values, _ := inst.GetFloat64([]fmiruntime.ValueReference{h})
//	fmt.Println(values[0])
//
// # Sensitivities
//
// The sensitivity package produces dense Jacobians ∂unknowns/∂knowns. When
// the FMU advertises directional-derivative support the native routine is
// used; otherwise values are sampled with central differences and every
// perturbed variable is restored before the call returns.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Instance is NOT
// thread-safe and must be driven by a single goroutine, or access must be
// synchronized externally.
//
// # Time Offsets
//
// Some FMUs only support simulations starting at t=0. When a non-zero
// start time is requested, instances apply an additive offset on every time
// value crossing the native boundary, so callers always observe their own
// time base.
package fmiruntime
