package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ev3remote/config"
)

var (
	cfgPath    string
	legoNumber int
	platform   string
)

var rootCmd = &cobra.Command{
	Use:          "ev3remote",
	Short:        "Remote control for LEGO EV3 robots over MQTT",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().IntVarP(&legoNumber, "lego", "n", -1, "robot number, overrides mqtt.lego_number")
	rootCmd.PersistentFlags().StringVar(&platform, "platform", "", "robot platform (ev3dev or sim), overrides robot.platform.type")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if legoNumber >= 0 {
		cfg.MQTT.LegoNumber = legoNumber
	}
	if platform != "" {
		cfg.Robot.Platform.Type = platform
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
