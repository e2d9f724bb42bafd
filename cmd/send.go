package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/ev3remote/app"
)

var sendCmd = &cobra.Command{
	Use:   "send <method> [args...]",
	Short: "Call a method on the robot over MQTT",
	Example: `  ev3remote send move 50 50
  ev3remote send say_it "hello robot"
  ev3remote send end`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

var localCmd = &cobra.Command{
	Use:   "local <method> [args...]",
	Short: "Call a method on this machine's robot without a broker",
	Example: `  ev3remote local go_straight_for_seconds 2 50
  ev3remote --platform sim local go_straight_until_black 30`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLocal,
}

func init() {
	rootCmd.AddCommand(sendCmd, localCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return app.Send(cfg, args[0], app.ParseArgs(args[1:])...)
}

func runLocal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	return app.Local(ctx, cfg, cmd.OutOrStdout(), args[0], app.ParseArgs(args[1:])...)
}
