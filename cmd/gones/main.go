// Command gones runs the NES emulator.
package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/harusamee/nes-emulator/internal/app"
	"github.com/harusamee/nes-emulator/internal/graphics"
	"github.com/harusamee/nes-emulator/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gones",
		Short: "gones is a cycle-coordinated NES emulator",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		headless   bool
		scale      int
		frames     int
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "run <rom>",
		Short: "Load an iNES ROM and run it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			romPath := args[0]

			config := app.NewConfig()
			if configPath != "" {
				if err := config.LoadFromFile(configPath); err != nil {
					return fmt.Errorf("load config: %w", err)
				}
			}
			if debug {
				config.Debug.CPUTracing = true
			}
			if scale > 0 {
				config.Window.Scale = scale
			}

			application := app.New(config)
			if err := application.LoadROM(romPath); err != nil {
				return err
			}

			if headless {
				if frames <= 0 {
					frames = 60
				}
				application.SetBackend(graphics.NewHeadlessBackend(frames))
			} else {
				application.SetBackend(graphics.NewEbitengineBackend(config.Window.Scale))
			}

			return application.Run()
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON config file")
	cmd.Flags().BoolVar(&headless, "headless", false, "run without a window, for a fixed number of frames")
	cmd.Flags().IntVar(&scale, "scale", 0, "integer window scale (overrides config)")
	cmd.Flags().IntVar(&frames, "frames", 60, "frames to run in --headless mode")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable CPU instruction tracing")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			version.PrintBuildInfo()
			return nil
		},
	}
}
