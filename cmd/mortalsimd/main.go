// Command mortalsimd boots a Driver from a YAML config file and advances
// it tick by tick until interrupted, then logs the final simulated time.
// Each tick's time is logged at debug level, which the default
// info-level handler used here does not print.
// Concrete organism wiring (vessels, nerves, components) is left to the
// caller embedding the driver package directly; this binary exists to
// exercise the composition root end to end (SPEC_FULL.md §3).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mortalsim/mortalsim/driver"
	"github.com/mortalsim/mortalsim/simtime"
)

type testVessel string
type testNerve string

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "mortalsimd",
		Short: "mortalsimd runs a MortalSim discrete-event kernel driver",
		Long:  "A standalone driver loop: loads boot configuration, constructs a Driver, and advances simulated time until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
		SilenceUsage: true,
	}

	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "Path to YAML driver config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg := &driver.FileConfig{TickSeconds: 1.0, LogLevel: "info"}
	if configPath != "" {
		loaded, err := driver.LoadFileConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	logger.Info("starting driver", "threaded", cfg.Threaded, "tick_seconds", cfg.TickSeconds)

	var d *driver.Driver[testVessel, testNerve]
	if cfg.Threaded {
		d = driver.NewThreaded[testVessel, testNerve](driver.Config{Logger: logger})
	} else {
		d = driver.New[testVessel, testNerve](driver.Config{Logger: logger})
	}

	logger.Info("driver ready", "run_id", d.RunID().String())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	span := simtime.SimTimeSpan(cfg.TickSeconds)

	for {
		select {
		case <-stop:
			logger.Info("shutting down", "final_time", float64(d.Time()))
			return nil
		case <-ticker.C:
			d.AdvanceBy(span)
			logger.Debug("tick", "time", float64(d.Time()))
		}
	}
}
