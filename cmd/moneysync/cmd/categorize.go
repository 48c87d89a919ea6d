package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darcoto/mymoney2/pkg/categorize"
	"github.com/darcoto/mymoney2/pkg/db"
)

// categorizeCmd represents the categorize command.
var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize all uncategorized transactions",
	Long: `Run the categorization rules over every transaction without a
category. Transactions the rules miss fall back to the category of the
most recent categorized transaction with the same counterparty.

Example:
  moneysync categorize`,
	Run: runCategorize,
}

func runCategorize(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	conn, err := openDatabase(cfg)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	engine := categorize.NewEngine(db.NewRuleStore(conn), db.NewTransactionStore(conn), log)
	result, err := engine.ApplyToAllUncategorized()
	exitOnError(err, "categorization failed")

	fmt.Printf("\n=== Categorization Summary ===\n")
	fmt.Printf("Uncategorized: %d\n", result.TotalUncategorized)
	fmt.Printf("Categorized:   %d\n", result.Categorized)
	fmt.Printf("Remaining:     %d\n\n", result.TotalUncategorized-result.Categorized)
}
