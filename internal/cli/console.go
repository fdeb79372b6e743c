package cli

import (
	"github.com/spf13/cobra"

	"github.com/relabs-tech/envmon/internal/app"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Watch a running monitor over MQTT",
	Long: `Subscribe to TOPIC_STATE on MQTT_BROKER and print one colored line per
monitor cycle until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		return app.RunConsoleMQTT(cmd.Context(), cfg, log, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
