package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TFMV/growthgraph/config"
	"github.com/TFMV/growthgraph/driver"
	"github.com/TFMV/growthgraph/models"
	"github.com/TFMV/growthgraph/physics"
	"github.com/TFMV/growthgraph/render"
	"github.com/TFMV/growthgraph/server"
	"github.com/TFMV/growthgraph/tui"
)

var version = "0.1.0-dev"

func main() {
	// Create a context that can be canceled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "growthgraph",
		Short: "Differential growth on a planar point graph",
		Long: `growthgraph grows closed loops of points under repulsion, springs and noise.

Stretched edges subdivide, crowded nodes collapse and nodes that reach the
canvas border are culled. Frames can be written to a file, served over HTTP
or watched in the terminal.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("seeds", "", "Seed file (json, csv or txt) replacing the configured seeds")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newTUICmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "growthgraph version %s\n", version)
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a fixed number of ticks and write the last frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ticks, _ := cmd.Flags().GetInt("ticks")
			if ticks < 0 {
				return fmt.Errorf("ticks must not be negative, got %d", ticks)
			}
			if cmd.Flags().Changed("format") {
				cfg.Render.Format, _ = cmd.Flags().GetString("format")
			}
			if cmd.Flags().Changed("output") {
				cfg.Render.Output, _ = cmd.Flags().GetString("output")
			}

			_, drv, err := newSimulation(cfg, logger)
			if err != nil {
				return err
			}
			frame, err := drv.RunTicks(cmd.Context(), ticks)
			if err != nil {
				return fmt.Errorf("simulation interrupted at tick %d: %w", frame.Tick, err)
			}

			if err := renderOutput(cmd, frame, cfg); err != nil {
				return err
			}
			logger.Info("processing complete",
				zap.Int("tick", frame.Tick),
				zap.Int("nodes", len(frame.Nodes)),
				zap.Int("edges", len(frame.Edges)),
				zap.String("output", cfg.Render.Output),
			)
			return nil
		},
	}
	cmd.Flags().Int("ticks", 600, "Number of ticks to simulate")
	cmd.Flags().String("format", "", "Output format: svg, ascii, json, dot")
	cmd.Flags().StringP("output", "o", "", "Output file, - for stdout")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation and serve frames over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}

			_, drv, err := newSimulation(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			srvCfg := server.Config{
				Addr:        cfg.Server.Addr,
				ClickCount:  cfg.Server.ClickCount,
				ClickRadius: cfg.Server.ClickRadius,
				StrokeWidth: cfg.Render.StrokeWidth,
				Background:  cfg.Render.Background,
			}

			var wg sync.WaitGroup
			var mu sync.Mutex
			var errs []error
			record := func(err error) {
				if err == nil || errors.Is(err, context.Canceled) {
					return
				}
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				cancel()
			}

			wg.Add(2)
			go func() {
				defer wg.Done()
				record(drv.Run(ctx))
			}()
			go func() {
				defer wg.Done()
				record(server.Start(ctx, srvCfg, drv, logger.Named("server")))
			}()
			wg.Wait()

			return errors.Join(errs...)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Watch the simulation in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// The terminal belongs to the viewer.
			logger = zap.NewNop()

			_, drv, err := newSimulation(cfg, logger)
			if err != nil {
				return err
			}

			opts := tui.DefaultOptions()
			opts.FPS = cfg.Driver.FPS
			opts.LoopCount = cfg.Server.ClickCount
			opts.LoopRadius = cfg.Server.ClickRadius
			opts.Seed = cfg.Simulation.Seed
			return tui.Run(cmd.Context(), drv, opts)
		},
	}
}

// loadConfig layers defaults, the config file and flags, and builds the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if seeds, _ := cmd.Flags().GetString("seeds"); seeds != "" {
		cfg.SeedFile = seeds
	}
	if err := cfg.ResolveSeeds(); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := newLogger(cfg.Logging.Level, debug)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(level string, debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if debug {
		zc = zap.NewDevelopmentConfig()
		level = "debug"
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	zc.OutputPaths = []string{"stderr"}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// newSimulation builds the point cloud and its driver and inserts the seeds.
func newSimulation(cfg *config.Config, logger *zap.Logger) (*physics.PointCloud, *driver.Driver, error) {
	pc := physics.NewPointCloud(cfg.Simulation, physics.WithLogger(logger.Named("physics")))
	drv := driver.New(pc, cfg.Driver, driver.WithLogger(logger.Named("driver")))
	if err := drv.Seed(cfg.Seeds...); err != nil {
		return nil, nil, err
	}
	logger.Debug("simulation seeded",
		zap.String("run_id", drv.RunID()),
		zap.Int("loops", len(cfg.Seeds)),
	)
	return pc, drv, nil
}

// renderOutput renders the frame in the configured format and writes it out
func renderOutput(cmd *cobra.Command, frame *models.Frame, cfg *config.Config) error {
	options := render.NewDefaultOptions(cfg.Render.Format)
	if frame.Width > 0 && frame.Height > 0 {
		options.Width = frame.Width
		options.Height = frame.Height
	}
	options.StrokeWidth = cfg.Render.StrokeWidth
	options.Background = cfg.Render.Background

	output, err := render.GenerateWithOptions(frame, options)
	if err != nil {
		return fmt.Errorf("rendering failed: %w", err)
	}

	if cfg.Render.Output == "-" {
		_, err = cmd.OutOrStdout().Write(output)
		return err
	}
	path := cfg.Render.Output
	if path == "" {
		path = "output." + strings.ToLower(cfg.Render.Format)
	}
	if err := os.WriteFile(path, output, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
