package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/darcoto/mymoney2/pkg/categorize"
	"github.com/darcoto/mymoney2/pkg/currency"
	"github.com/darcoto/mymoney2/pkg/db"
	"github.com/darcoto/mymoney2/pkg/gocardless"
	"github.com/darcoto/mymoney2/pkg/syncer"
)

// syncCmd represents the sync command.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync linked bank accounts from the remote API",
	Long: `Sync accounts and transactions from the GoCardless Bank Account
Data API.

This command:
1. Obtains or refreshes the API token
2. Lists requisitions and mirrors them locally
3. For every linked requisition, refreshes account details and balance
4. Imports booked transactions from the lookback window
5. Applies categorization rules to the new transactions

One failing account does not stop the others.

Example:
  moneysync sync`,
	Run: runSync,
}

func runSync(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.ValidateRemote(), "invalid configuration")

	conn, err := openDatabase(cfg)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	converter, err := currency.NewConverter(cfg.AccountingCurrency, log)
	exitOnError(err, "failed to load currency rates")

	accounts := db.NewAccountStore(conn)
	transactions := db.NewTransactionStore(conn)
	requisitions := db.NewRequisitionStore(conn)
	rules := db.NewRuleStore(conn)
	tokens := db.NewTokenStore(conn)

	client := gocardless.NewClient(gocardless.ClientConfig{
		APIURL:    cfg.GoCardless.APIURL,
		SecretID:  cfg.GoCardless.SecretID,
		SecretKey: cfg.GoCardless.SecretKey,
		Timeout:   30 * time.Second,
	}, tokens, log)

	engine := categorize.NewEngine(rules, transactions, log)
	s := syncer.New(client, accounts, transactions, requisitions, converter, engine, cfg.SyncLookbackDays, log)

	ctx := context.Background()
	results, err := s.SyncAllAccounts(ctx)
	exitOnError(err, "sync failed")

	fmt.Printf("\n=== Sync Summary ===\n")
	if len(results) == 0 {
		fmt.Println("No syncable accounts. Run 'moneysync link' to connect a bank.")
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("%s: FAILED (%v)\n", r.AccountID, r.Err)
			continue
		}
		fmt.Printf("%s: %d new transactions\n", r.AccountID, r.Imported)
	}
	fmt.Println()

	if failed > 0 {
		exitOnError(fmt.Errorf("%d of %d accounts failed", failed, len(results)), "sync finished with errors")
	}
}
