package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	logLevel   string

	preset      string
	seed        int64
	rate        float64
	replayPath  string
	speed       float64
	fps         int
	theme       string
	metricsAddr string

	duration     time.Duration
	frame        time.Duration
	sampleEvery  time.Duration
	scenarioPath string
	tour         time.Duration
	numSeeds     int
	jsonOut      string
	svgOut       string
	serveFor     time.Duration
	captureFor   time.Duration
)

var (
	brand  = color.New(color.FgHiCyan, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

// main registers the msgviz commands. With no subcommand it opens the live
// view in the configured mode.
func main() {
	rootCmd := &cobra.Command{
		Use:           "msgviz",
		Short:         "message bus traffic visualizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, nil)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".msgviz", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	addSourceFlags(rootCmd)
	rootCmd.Flags().StringVar(&theme, "theme", "neon", "color theme")

	liveCmd := &cobra.Command{
		Use:   "live [mode]",
		Short: "show traffic in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSourceFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "neon", "color theme")
	liveCmd.Flags().IntVar(&fps, "fps", 60, "frame rate")

	runCmd := &cobra.Command{
		Use:   "run [mode]",
		Short: "run a headless simulation and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSourceFlags(runCmd)
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario file (yaml)")
	runCmd.Flags().DurationVar(&tour, "tour", 0, "visit every mode for this long instead of a single mode")
	runCmd.Flags().StringVar(&svgOut, "svg", "", "save the final frame as SVG")

	benchCmd := &cobra.Command{
		Use:   "bench [mode]",
		Short: "measure engine throughput across seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchMode,
	}
	addSourceFlags(benchCmd)
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&numSeeds, "seeds", 4, "number of seeds to run concurrently")

	serveCmd := &cobra.Command{
		Use:   "serve [mode]",
		Short: "run the engine in real time without a terminal view",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	addSourceFlags(serveCmd)
	serveCmd.Flags().DurationVar(&serveFor, "time", 0, "stop after this long (0 runs until interrupted)")

	recordCmd := &cobra.Command{
		Use:   "record [file]",
		Short: "write synthetic traffic to a JSONL capture",
		Args:  cobra.ExactArgs(1),
		RunE:  recordTraffic,
	}
	recordCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	recordCmd.Flags().Float64Var(&rate, "rate", 0, "mean events per second")
	recordCmd.Flags().DurationVar(&captureFor, "time", 30*time.Second, "capture length")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot entity counts of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the entity total as SVG")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&jsonOut, "out", "o", "", "output file (default stdout)")

	modesCmd := &cobra.Command{
		Use:   "modes",
		Short: "list visualization modes and their presets",
		RunE:  listModes,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [mode]",
		Short: "list available presets for a mode",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "write the effective configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE:  writeConfig,
	}
	addSourceFlags(configCmd)

	rootCmd.AddCommand(liveCmd, runCmd, benchCmd, serveCmd, recordCmd, listCmd, plotCmd, exportCmd, modesCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, bad.Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "apply a preset for the mode")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().Float64Var(&rate, "rate", 0, "synthetic events per second")
	cmd.Flags().StringVar(&replayPath, "replay", "", "replay a JSONL capture instead of synthetic traffic")
	cmd.Flags().Float64Var(&speed, "speed", 1, "replay speed multiplier")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&duration, "time", 30*time.Second, "simulated duration")
	cmd.Flags().DurationVar(&frame, "frame", 0, "frame length (default from fps)")
	cmd.Flags().DurationVar(&sampleEvery, "sample", 100*time.Millisecond, "sampling interval")
}
