// birthdayctl is the ops companion of the bot: one-shot test
// reminders and fake-data seeding against the same database and
// Telegram API the server uses.
package main

import (
	"os"

	"github.com/snavid/tg-birthday-bot/pkg/config"
	"github.com/snavid/tg-birthday-bot/pkg/db"
	"github.com/snavid/tg-birthday-bot/pkg/logger"
	"github.com/spf13/cobra"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "birthdayctl",
		Short:        "Management commands for the birthday reminder bot",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadConfig(configFile); err != nil {
				return err
			}
			if err := logger.Configure(logger.Options{
				Level: config.AppConfig.Logging.Level,
				File:  config.AppConfig.Logging.File,
			}); err != nil {
				logger.Error("failed to configure logger", "error", err)
			}
			return db.InitDB(config.AppConfig.Database)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.json", "path to the config file")

	rootCmd.AddCommand(newSendReminderCmd())
	rootCmd.AddCommand(newSeedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
