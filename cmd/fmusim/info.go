package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wippyai/fmi-runtime/runtime"
	"github.com/wippyai/fmi-runtime/schema"
)

func runInfo(cmd *cobra.Command, args []string) error {
	rt := runtime.New()
	defer rt.Close()

	mod, err := rt.Load(args[0])
	if err != nil {
		return err
	}
	defer mod.Close()

	model := mod.Model()
	fmt.Printf("Model:       %s\n", model.Name)
	fmt.Printf("FMI version: %s\n", model.FMIVersion)
	if model.Description != "" {
		fmt.Printf("Description: %s\n", model.Description)
	}
	printInterface("ModelExchange", model.ModelExchange)
	printInterface("CoSimulation", model.CoSimulation)
	printInterface("ScheduledExecution", model.ScheduledExecution)
	fmt.Printf("Continuous states: %d, event indicators: %d\n",
		model.ContinuousStates, model.NumEventIndicators)

	exp := model.Experiment
	if exp.StartTime != nil || exp.StopTime != nil || exp.Tolerance != nil || exp.StepSize != nil {
		fmt.Printf("Default experiment:")
		if exp.StartTime != nil {
			fmt.Printf(" start=%g", *exp.StartTime)
		}
		if exp.StopTime != nil {
			fmt.Printf(" stop=%g", *exp.StopTime)
		}
		if exp.Tolerance != nil {
			fmt.Printf(" tolerance=%g", *exp.Tolerance)
		}
		if exp.StepSize != nil {
			fmt.Printf(" step=%g", *exp.StepSize)
		}
		fmt.Println()
	}

	fmt.Printf("\nVariables (%d):\n", len(model.Variables))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VR\tNAME\tTYPE\tCAUSALITY\tVARIABILITY\tSTART")
	for _, v := range model.Variables {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			uint32(v.ValueReference), v.Name, v.Type, v.Causality, v.Variability, v.Start)
	}
	return w.Flush()
}

func printInterface(name string, iface *schema.Interface) {
	if iface == nil {
		return
	}
	fmt.Printf("%s: identifier=%s", name, iface.ModelIdentifier)
	if iface.ProvidesDirectionalDerivatives {
		fmt.Printf(", directional derivatives")
	}
	if iface.CanGetAndSetState {
		fmt.Printf(", state snapshots")
	}
	fmt.Println()
}
