// Package runtime provides the high-level API for loading FMUs and
// driving their instances through the FMI lifecycle.
//
// # Quick Start
//
//	rt := runtime.New()
//	defer rt.Close()
//
//	// Load an FMU container
//	mod, err := rt.Load("BouncingBall.fmu")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create an instance
//	inst, err := mod.Instantiate("ball", fmiruntime.CoSimulation)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Free()
//
//	inst.EnterInitialization(runtime.InitConfig{})
//	inst.ExitInitialization()
//
//	res, err := inst.DoStep(0.0, 0.01)
//
// # Lifecycle Enforcement
//
// Every operation is checked against the instance's lifecycle state before
// the native module is invoked. The default policy logs violations and
// still attempts the call, for interoperability with lenient FMUs; the
// WithStrictSequencing option turns violations into errors that never
// reach the native side.
//
// Native statuses escalate uniformly: Error moves the instance to the
// error state, Fatal permanently invalidates it. Warning is logged and
// otherwise ignored unless WithAssertOnWarning is set. Discard and
// Pending are reported to the caller, who decides how to react (shrink
// the step, poll StepStatus).
//
// # Version Support
//
// FMI 2.0 and FMI 3.0 FMUs are both supported. The version is detected
// from the manifest; per-version transition tables and call signatures
// live behind a shared Instance API, so callers rarely branch on version.
package runtime
