package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/darcoto/mymoney2/pkg/db"
	"github.com/darcoto/mymoney2/pkg/gocardless"
)

var (
	linkInstitution string
	linkList        bool
)

// linkCmd represents the link command.
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link a bank account for syncing",
	Long: `Create a bank link (requisition) through the remote API.

Without --institution, lists the institutions available in the
configured country so you can pick one. With --institution, creates a
requisition and prints the consent URL; open it in a browser, approve
access at your bank, then run 'moneysync sync'.

Example:
  moneysync link --list
  moneysync link --institution BANK_XX_BGSOFBGSF`,
	Run: runLink,
}

func init() {
	linkCmd.Flags().StringVar(&linkInstitution, "institution", "", "institution id to link")
	linkCmd.Flags().BoolVar(&linkList, "list", false, "list available institutions")
}

func runLink(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.ValidateRemote(), "invalid configuration")

	conn, err := openDatabase(cfg)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	client := gocardless.NewClient(gocardless.ClientConfig{
		APIURL:    cfg.GoCardless.APIURL,
		SecretID:  cfg.GoCardless.SecretID,
		SecretKey: cfg.GoCardless.SecretKey,
		Timeout:   30 * time.Second,
	}, db.NewTokenStore(conn), log)

	ctx := context.Background()

	if linkInstitution == "" || linkList {
		institutions, err := client.ListInstitutions(ctx, cfg.Country)
		exitOnError(err, "failed to list institutions")

		fmt.Printf("\nInstitutions in %q:\n", cfg.Country)
		for _, inst := range institutions {
			fmt.Printf("  %-40s %s\n", inst.ID, inst.Name)
		}
		fmt.Println("\nRun 'moneysync link --institution <id>' to connect one.")
		return
	}

	created, err := client.CreateRequisition(ctx, linkInstitution, cfg.GoCardless.RedirectURL)
	exitOnError(err, "failed to create requisition")

	fmt.Printf("\nRequisition %s created.\n", created.ID)
	fmt.Printf("Open this URL to grant access:\n\n  %s\n\n", created.Link)
	fmt.Println("After approving, run 'moneysync sync'.")
}
