package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	fmi "github.com/wippyai/fmi-runtime"
	"github.com/wippyai/fmi-runtime/runtime"
	"github.com/wippyai/fmi-runtime/schema"
)

func runSimulate(cmd *cobra.Command, args []string) error {
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
	if model.CoSimulation == nil {
		return fmt.Errorf("%s declares no co-simulation interface", model.Name)
	}

	var opts []runtime.InstanceOption
	if cfg.Strict {
		opts = append(opts, runtime.WithStrictSequencing())
	}
	if cfg.EventMode {
		opts = append(opts, runtime.WithEventMode())
	}
	inst, err := mod.Instantiate("fmusim", fmi.CoSimulation, opts...)
	if err != nil {
		return err
	}
	defer inst.Free()

	start, stop, h := resolveHorizon(cfg, model.Experiment)
	init := runtime.InitConfig{
		StartTime: runtime.Float64Ptr(start),
		StopTime:  runtime.Float64Ptr(stop),
	}
	if cfg.Tolerance != 0 {
		init.Tolerance = runtime.Float64Ptr(cfg.Tolerance)
	}

	if err := applyInputs(inst, cfg.Inputs); err != nil {
		return err
	}
	if err := inst.EnterInitialization(init); err != nil {
		return err
	}
	if err := inst.ExitInitialization(); err != nil {
		return err
	}

	recordVRs, names, err := recordedVariables(mod, cfg)
	if err != nil {
		return err
	}

	var times []float64
	series := make([][]float64, len(recordVRs))
	record := func(t float64) error {
		vals, err := inst.GetFloat64(recordVRs)
		if err != nil {
			return err
		}
		times = append(times, t)
		for n, v := range vals {
			series[n] = append(series[n], v)
		}
		return nil
	}

	if err := record(start); err != nil {
		return err
	}
	for t := start; t < stop-h/2; {
		res, err := inst.DoStep(t, h)
		if err != nil {
			return fmt.Errorf("step at t=%g: %w", t, err)
		}
		t = res.LastSuccessfulTime
		if err := record(t); err != nil {
			return err
		}
		if res.TerminateRequested {
			fmt.Printf("FMU requested termination at t=%g\n", t)
			break
		}
	}

	if err := inst.Terminate(); err != nil {
		return err
	}

	if csvPath != "" {
		if err := writeCSV(csvPath, names, times, series); err != nil {
			return err
		}
		fmt.Printf("wrote %d samples to %s\n", len(times), csvPath)
	}
	if !noPlot {
		plotSeries(names, series)
	}
	return nil
}

// resolveHorizon merges config, manifest defaults and fallbacks into
// (start, stop, step).
func resolveHorizon(cfg *Config, exp schema.DefaultExperiment) (start, stop, h float64) {
	start = cfg.StartTime
	if start == 0 && exp.StartTime != nil {
		start = *exp.StartTime
	}
	stop = cfg.StopTime
	if stop == 0 {
		if exp.StopTime != nil {
			stop = *exp.StopTime
		} else {
			stop = start + DefaultStopTime
		}
	}
	h = cfg.StepSize
	if h == 0 {
		if exp.StepSize != nil {
			h = *exp.StepSize
		} else {
			h = DefaultStepSize
		}
	}
	return start, stop, h
}

func applyInputs(inst *runtime.Instance, inputs map[string]float64) error {
	for name, value := range inputs {
		vr, err := inst.Module().ResolveOne(name)
		if err != nil {
			return err
		}
		if err := inst.SetFloat64([]fmi.ValueReference{vr}, []float64{value}); err != nil {
			return err
		}
	}
	return nil
}

// recordedVariables resolves the output selection: config names if given,
// else the manifest's declared outputs, else every float64 output-ish
// variable.
func recordedVariables(mod *runtime.Module, cfg *Config) ([]fmi.ValueReference, []string, error) {
	model := mod.Model()
	var vrs []fmi.ValueReference
	if len(cfg.Outputs) > 0 {
		var err error
		vrs, err = mod.Resolve(cfg.Outputs)
		if err != nil {
			return nil, nil, err
		}
	} else {
		vrs = model.Outputs
	}
	if len(vrs) == 0 {
		return nil, nil, fmt.Errorf("%s declares no outputs; use --outputs", model.Name)
	}
	names := make([]string, len(vrs))
	for n, vr := range vrs {
		if v, ok := model.ByValueReference(vr); ok {
			names[n] = v.Name
		} else {
			names[n] = "vr" + strconv.FormatUint(uint64(vr), 10)
		}
	}
	return vrs, names, nil
}

func writeCSV(path string, names []string, times []float64, series [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"time"}, names...)
	if err := w.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for i, t := range times {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for n := range series {
			row[n+1] = strconv.FormatFloat(series[n][i], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func plotSeries(names []string, series [][]float64) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}
	for n, data := range series {
		if len(data) < 2 {
			continue
		}
		fmt.Printf("\n%s:\n", names[n])
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(12),
			asciigraph.Width(width-12),
			asciigraph.Precision(4)))
	}
}
