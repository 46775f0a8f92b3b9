package cmd

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/gpubridge/gpubridge/sim"
)

var (
	// CLI flags for the simulation run
	logLevel string // Log verbosity level
	horizon  int64  // Total simulation time (in ticks)

	// Timing parameters of the bridge
	streamDelay    int64   // Ticks between stream dispatch wake-ups
	launchDelay    float64 // Kernel launch delay (in device cycles)
	returnDelay    float64 // Kernel return delay (in device cycles)
	tickConversion float64 // Host ticks per device cycle
	sharedMemDelay float64 // Shared-memory access delay (in device cycles)
	pageSize       uint64  // Host page granularity for device memory backing

	// Device and scenario configuration
	watchdogCycles int64  // Device deadlock watchdog bound (in cycles)
	numCores       int    // Number of shader cores to register
	timingFile     string // YAML file overriding timing parameters
	scenarioFile   string // YAML file describing the workload scenario
	statsFile      string // File to additionally write end-of-run stats to
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "gpubridge",
	Short: "Co-simulation timing bridge between a tick-driven host and a cycle-stepped device",
}

// runCmd executes a bridge simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a bridge simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		timing := sim.DefaultTimingConfig()
		if timingFile != "" {
			timing, err = LoadTimingConfig(timingFile)
			if err != nil {
				logrus.Fatalf("unable to read timing config: %v", err)
			}
		}
		applyTimingFlags(cmd, &timing)
		if err := timing.Validate(); err != nil {
			logrus.Fatalf("invalid timing config: %v", err)
		}

		scenario := DefaultScenario()
		if scenarioFile != "" {
			scenario, err = LoadScenarioConfig(scenarioFile)
			if err != nil {
				logrus.Fatalf("unable to read scenario config: %v", err)
			}
		}
		if err := scenario.Validate(); err != nil {
			logrus.Fatalf("invalid scenario: %v", err)
		}

		logrus.Infof("Starting simulation with horizon=%d ticks, conv=%v ticks/cycle, %d kernels, %d copies",
			horizon, timing.TickConversion, len(scenario.Kernels), len(scenario.Copies))

		startTime := time.Now()

		// Wire the simulation: host engine, memory image, context, device,
		// producer queue, and the bridge that ties them together.
		s := sim.NewSimulator(horizon)
		mem := sim.NewPageMemory(timing.PageSize)
		ctx := sim.NewThreadContext(mem)
		device := sim.NewCycleDevice(s, watchdogCycles)
		streams := sim.NewStreamManager()
		bridge := sim.NewBridge(s, device, streams, ctx, timing)

		for i := 0; i < numCores; i++ {
			bridge.RegisterShaderCore(&sim.ShaderCore{})
		}

		// Bulk transfers first: allocate device-visible buffers, fill the
		// sources, and queue functional copies.
		for _, cp := range scenario.Copies {
			src := bridge.AllocMemory(cp.Bytes)
			dst := bridge.AllocMemory(cp.Bytes)
			data := make([]byte, cp.Bytes)
			for i := range data {
				data[i] = byte(i)
			}
			bridge.WriteFunctional(src, data)
			bridge.EnqueueStream(&sim.MemcpyOp{Src: src, Dst: dst, Count: cp.Bytes})
		}

		for _, k := range scenario.Kernels {
			bridge.EnqueueStream(&sim.KernelLaunchOp{
				KernelID:  k.ID,
				Cycles:    k.Cycles,
				IssueTick: s.Now(),
				Device:    device,
			})
		}

		// The host context blocks until all device work drains, the way a
		// synchronize call would.
		if bridge.RequestSuspend() {
			ctx.Suspend()
		}

		s.Run()

		if ctx.Suspended() {
			logrus.Fatalf("simulation ended with the host context still suspended")
		}

		fmt.Println("=== Simulation Metrics ===")
		bridge.Metrics().Print(os.Stdout, bridge.ShaderCores())

		if statsFile != "" {
			f, err := os.Create(statsFile)
			if err != nil {
				logrus.Fatalf("unable to create stats file: %v", err)
			}
			bridge.Metrics().Print(f, bridge.ShaderCores())
			if err := f.Close(); err != nil {
				logrus.Fatalf("unable to write stats file: %v", err)
			}
		}

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// applyTimingFlags overrides file/default timing values with any flags the
// user set explicitly.
func applyTimingFlags(cmd *cobra.Command, timing *sim.TimingConfig) {
	if cmd.Flags().Changed("stream-delay") {
		timing.StreamDelay = streamDelay
	}
	if cmd.Flags().Changed("launch-delay") {
		timing.LaunchDelay = launchDelay
	}
	if cmd.Flags().Changed("return-delay") {
		timing.ReturnDelay = returnDelay
	}
	if cmd.Flags().Changed("tick-conversion") {
		timing.TickConversion = tickConversion
	}
	if cmd.Flags().Changed("shared-mem-delay") {
		timing.SharedMemDelay = sharedMemDelay
	}
	if cmd.Flags().Changed("page-size") {
		timing.PageSize = pageSize
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().Int64Var(&horizon, "horizon", math.MaxInt64, "Total simulation horizon (in ticks)")

	// Bridge timing parameters
	runCmd.Flags().Int64Var(&streamDelay, "stream-delay", 1, "Ticks between stream dispatch wake-ups")
	runCmd.Flags().Float64Var(&launchDelay, "launch-delay", 2, "Kernel launch delay in device cycles")
	runCmd.Flags().Float64Var(&returnDelay, "return-delay", 1, "Kernel return delay in device cycles")
	runCmd.Flags().Float64Var(&tickConversion, "tick-conversion", 10, "Host ticks per device cycle")
	runCmd.Flags().Float64Var(&sharedMemDelay, "shared-mem-delay", 30, "Shared-memory access delay in device cycles")
	runCmd.Flags().Uint64Var(&pageSize, "page-size", sim.DefaultPageSize, "Host page size backing device memory")

	// Device and scenario configuration
	runCmd.Flags().Int64Var(&watchdogCycles, "watchdog-cycles", sim.DefaultWatchdogCycles, "Device deadlock watchdog bound in cycles")
	runCmd.Flags().IntVar(&numCores, "shader-cores", 4, "Number of shader cores to register")
	runCmd.Flags().StringVar(&timingFile, "timing-config", "", "YAML file with timing parameter overrides")
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "YAML file describing the workload scenario")
	runCmd.Flags().StringVar(&statsFile, "stats-file", "", "File to additionally write end-of-run stats to")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
