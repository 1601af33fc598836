// Command cuplog is a single-user coffee-consumption logger.
//
// It records consumption events against a local sqlite database served over
// an HTTP API, lists the most recent entries, and edits one entry's rating
// and location after the fact.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwalters/cuplog/internal/config"
	"github.com/mwalters/cuplog/internal/i18n"
)

var (
	cfg        *config.Config
	translator *i18n.Translator
)

var rootCmd = &cobra.Command{
	Use:   "cuplog",
	Short: "Track your coffee consumption",
	Long: `cuplog records coffee-consumption events and lets you rate them.

Run 'cuplog serve' to start the API server, then log entries with
'cuplog add', review them with 'cuplog list', and amend an entry's
rating or location with 'cuplog edit'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		// Flags beat file and environment; only apply the ones given.
		flags := cmd.Flags()
		if v, _ := flags.GetString("owner"); flags.Changed("owner") {
			cfg.Owner = v
		}
		if v, _ := flags.GetString("server"); flags.Changed("server") {
			cfg.ServerURL = v
		}
		if v, _ := flags.GetString("locale"); flags.Changed("locale") {
			cfg.Locale = v
		}

		translator, err = i18n.New(cfg.Locale)
		if err != nil {
			return fmt.Errorf("failed to load locale tables: %w", err)
		}

		if cfg.LocaleOverrides != "" {
			logger := log.New(os.Stderr, "[i18n] ", log.LstdFlags)
			if err := translator.WatchOverrides(cmd.Context(), cfg.LocaleOverrides, logger); err != nil {
				logger.Printf("Warning: locale overrides disabled: %v", err)
			}
		}

		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("owner", "", "Owner identity entries belong to")
	flags.String("server", "", "Base URL of the cuplog server")
	flags.String("locale", "", "Locale for user-facing messages (en, sv, nl, fr)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
