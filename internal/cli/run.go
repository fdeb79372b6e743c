package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/envmon/internal/app"
	"github.com/relabs-tech/envmon/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor",
	Long: `Initialize the sensor, display and status LEDs, then sample on a fixed
interval until interrupted. The web page is served on WEB_SERVER_PORT and,
when MQTT_BROKER is set, every cycle is also published over MQTT.

A sensor or display that cannot be initialized stops the monitor with a
non-zero exit status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runCommand(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if err := app.RunMonitor(ctx, cfg, log); err != nil {
		log.Error("monitor failed", logger.Err(err))
		return err
	}
	return nil
}
