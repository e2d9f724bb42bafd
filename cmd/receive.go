package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/ev3remote/app"
	"github.com/kilianp07/ev3remote/infra/logger"
)

var (
	delegateName  string
	subscribeName string
	publishName   string
)

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Run on the robot: execute calls sent from the PC",
	Args:  cobra.NoArgs,
	RunE:  runReceive,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run on the PC: print state reports sent by the robot",
	Args:  cobra.NoArgs,
	RunE:  runMonitor,
}

func init() {
	receiveCmd.Flags().StringVarP(&delegateName, "delegate", "d", "", "robot or printer, overrides receiver.delegate")
	receiveCmd.Flags().StringVar(&subscribeName, "subscribe", "", "topic suffix to listen on (default msg4ev3)")
	receiveCmd.Flags().StringVar(&publishName, "publish", "", "topic suffix to reply on (default msg4pc)")
	rootCmd.AddCommand(receiveCmd, monitorCmd)
}

func runReceive(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if subscribeName != "" {
		cfg.Receiver.Subscribe = subscribeName
	}
	if publishName != "" {
		cfg.Receiver.Publish = publishName
	}
	if delegateName != "" {
		cfg.Receiver.Delegate = delegateName
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	svc, err := app.NewReceiver(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return runService(svc)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.NewMonitor(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return runService(svc)
}

func runService(svc *app.Service) error {
	ctx, stop := signalContext()
	defer stop()
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
