package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darcoto/mymoney2/pkg/db"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display database statistics",
	Long: `Display statistics about stored accounts and transactions.

Shows:
- Accounts with balance and last sync time
- Total and uncategorized transaction counts
- Number of categorization rules

Example:
  moneysync stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	conn, err := openDatabase(cfg)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	accounts, err := db.NewAccountStore(conn).GetAll()
	exitOnError(err, "failed to load accounts")

	transactions := db.NewTransactionStore(conn)
	total, err := transactions.Count()
	exitOnError(err, "failed to count transactions")
	uncategorized, err := transactions.CountUncategorized()
	exitOnError(err, "failed to count uncategorized transactions")
	ruleCount, err := db.NewRuleStore(conn).Count()
	exitOnError(err, "failed to count rules")

	fmt.Println("\n=== Accounts ===")
	for _, a := range accounts {
		synced := "(never)"
		if a.LastSyncedAt != nil {
			synced = a.LastSyncedAt.Format("2006-01-02 15:04")
		}
		fmt.Printf("%-40s %12.2f %s  last sync: %s\n", a.DisplayName, a.Balance, a.Currency, synced)
	}

	fmt.Println("\n=== Transactions ===")
	fmt.Printf("Total:         %d\n", total)
	fmt.Printf("Uncategorized: %d\n", uncategorized)
	fmt.Printf("Rules:         %d\n\n", ruleCount)
}
