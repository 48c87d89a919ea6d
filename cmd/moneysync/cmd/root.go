// Package cmd provides CLI commands for moneysync.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/darcoto/mymoney2/pkg/config"
	"github.com/darcoto/mymoney2/pkg/db"
	"github.com/darcoto/mymoney2/pkg/logger"
)

var (
	cfgFile string
	debug   bool
	log     zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "moneysync",
	Short: "Import, sync and categorize bank transactions",
	Long: `moneysync ingests bank transactions into a local SQLite database.

It supports:
- Importing bank XML and CSV statement exports
- Syncing linked bank accounts through the GoCardless Bank Account Data API
- Normalizing amounts to a single accounting currency
- Rule-based categorization with a counterparty-history fallback

Example:
  moneysync import statement.xml
  moneysync link --institution BANK_XX
  moneysync sync
  moneysync categorize
  moneysync stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = logger.New(debug)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(categorizeCmd)
	rootCmd.AddCommand(statsCmd)
}

// loadConfig loads configuration from the --config file or the default .env.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.Load()
}

// openDatabase opens the configured database and seeds the defaults.
func openDatabase(cfg *config.Config) (*db.Connection, error) {
	conn, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Seed(conn, cfg.AccountingCurrency); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// exitOnError handles errors and exits.
func exitOnError(err error, msg string) {
	if err != nil {
		log.Error().Err(err).Msg(msg)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
