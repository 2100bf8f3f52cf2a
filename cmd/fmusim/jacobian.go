package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/runtime"
	"github.com/wippyai/fmi-runtime/sensitivity"
)

func runJacobian(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	rt := runtime.New()
	defer rt.Close()

	mod, err := rt.Load(args[0])
	if err != nil {
		return err
	}
	defer mod.Close()

	model := mod.Model()
	kind := fmi.CoSimulation
	if model.CoSimulation == nil {
		kind = fmi.ModelExchange
	}

	var opts []runtime.InstanceOption
	if cfg.Strict {
		opts = append(opts, runtime.WithStrictSequencing())
	}
	inst, err := mod.Instantiate("fmusim", kind, opts...)
	if err != nil {
		return err
	}
	defer inst.Free()

	if err := applyInputs(inst, cfg.Inputs); err != nil {
		return err
	}
	if err := inst.EnterInitialization(runtime.InitConfig{}); err != nil {
		return err
	}
	if err := inst.ExitInitialization(); err != nil {
		return err
	}

	unknownVRs, err := selectVariables(mod, unknowns, model.Outputs)
	if err != nil {
		return err
	}
	knownVRs, err := selectVariables(mod, knowns, inputVRs(mod))
	if err != nil {
		return err
	}
	if len(unknownVRs) == 0 || len(knownVRs) == 0 {
		return fmt.Errorf("nothing to differentiate; use --unknowns and --knowns")
	}

	var jopts []sensitivity.Option
	if sample {
		jopts = append(jopts, sensitivity.WithSampling())
	}
	m, err := sensitivity.Jacobian(inst, unknownVRs, knownVRs, jopts...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "d/d")
	for _, vr := range knownVRs {
		fmt.Fprintf(w, "\t%s", variableName(mod, vr))
	}
	fmt.Fprintln(w)
	for r, vr := range unknownVRs {
		fmt.Fprint(w, variableName(mod, vr))
		for c := range knownVRs {
			fmt.Fprintf(w, "\t%g", m.At(r, c))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// selectVariables resolves names when given, otherwise falls back to the
// provided default set.
func selectVariables(mod *runtime.Module, names []string, fallback []fmi.ValueReference) ([]fmi.ValueReference, error) {
	if len(names) > 0 {
		return mod.Resolve(names)
	}
	return fallback, nil
}

// inputVRs returns the value references of every declared input variable.
func inputVRs(mod *runtime.Module) []fmi.ValueReference {
	var vrs []fmi.ValueReference
	for _, v := range mod.Model().Variables {
		if v.Causality == "input" || v.Causality == "parameter" {
			vrs = append(vrs, v.ValueReference)
		}
	}
	return vrs
}

func variableName(mod *runtime.Module, vr fmi.ValueReference) string {
	if v, ok := mod.Model().ByValueReference(vr); ok {
		return v.Name
	}
	return "vr" + strconv.FormatUint(uint64(vr), 10)
}
