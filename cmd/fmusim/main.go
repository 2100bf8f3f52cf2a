package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/fmi-runtime/engine"
	"github.com/wippyai/fmi-runtime/runtime"
	"github.com/wippyai/fmi-runtime/sensitivity"
)

var (
	configFile string
	startTime  float64
	stopTime   float64
	stepSize   float64
	tolerance  float64
	outputs    []string
	inputs     []string
	csvPath    string
	noPlot     bool
	strict     bool
	eventMode  bool
	verbose    bool

	unknowns []string
	knowns   []string
	sample   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fmusim",
		Short: "drive FMI 2.0/3.0 co-simulation modules",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger, err := zap.NewDevelopment()
				if err == nil {
					engine.SetLogger(logger)
					runtime.SetLogger(logger)
					sensitivity.SetLogger(logger)
				}
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	infoCmd := &cobra.Command{
		Use:   "info [model.fmu]",
		Short: "print the FMU manifest summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	simulateCmd := &cobra.Command{
		Use:   "simulate [model.fmu]",
		Short: "run a co-simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().StringVar(&configFile, "config", "", "experiment config file (yaml)")
	simulateCmd.Flags().Float64Var(&startTime, "start", 0, "start time")
	simulateCmd.Flags().Float64Var(&stopTime, "stop", 0, "stop time (0 = manifest default)")
	simulateCmd.Flags().Float64Var(&stepSize, "dt", 0, "communication step size (0 = manifest default)")
	simulateCmd.Flags().Float64Var(&tolerance, "tolerance", 0, "relative tolerance (0 = manifest default)")
	simulateCmd.Flags().StringSliceVar(&outputs, "outputs", nil, "variables to record (default: declared outputs)")
	simulateCmd.Flags().StringSliceVar(&inputs, "set", nil, "start values, name=value")
	simulateCmd.Flags().StringVar(&csvPath, "csv", "", "write results to a CSV file")
	simulateCmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip the terminal plot")
	simulateCmd.Flags().BoolVar(&strict, "strict", false, "strict lifecycle sequencing")
	simulateCmd.Flags().BoolVar(&eventMode, "event-mode", false, "instantiate with event mode (FMI 3.0)")

	jacobianCmd := &cobra.Command{
		Use:   "jacobian [model.fmu]",
		Short: "print d(unknowns)/d(knowns) at the initial point",
		Args:  cobra.ExactArgs(1),
		RunE:  runJacobian,
	}
	jacobianCmd.Flags().StringSliceVar(&unknowns, "unknowns", nil, "unknown variables (default: declared outputs)")
	jacobianCmd.Flags().StringSliceVar(&knowns, "knowns", nil, "known variables (default: declared inputs)")
	jacobianCmd.Flags().StringSliceVar(&inputs, "set", nil, "start values, name=value")
	jacobianCmd.Flags().BoolVar(&sample, "sample", false, "force central-difference sampling")
	jacobianCmd.Flags().BoolVar(&strict, "strict", false, "strict lifecycle sequencing")

	exploreCmd := &cobra.Command{
		Use:   "explore [model.fmu]",
		Short: "interactive variable explorer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(args[0])
		},
	}

	rootCmd.AddCommand(infoCmd, simulateCmd, jacobianCmd, exploreCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
