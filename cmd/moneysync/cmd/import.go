package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/darcoto/mymoney2/pkg/categorize"
	"github.com/darcoto/mymoney2/pkg/currency"
	"github.com/darcoto/mymoney2/pkg/db"
	"github.com/darcoto/mymoney2/pkg/importer"
	"github.com/darcoto/mymoney2/pkg/model"
	"github.com/darcoto/mymoney2/pkg/statement"
)

var (
	importAccount  string
	importCurrency string
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a bank statement export file",
	Long: `Import transactions from a bank statement export.

The format is chosen by file extension: .xml for bank XML exports,
.csv for delimited exports. Each record gets a deterministic id, so
importing the same file twice reports the duplicates as skipped.
Amounts are converted to the accounting currency and new records are
categorized by the active rules.

Example:
  moneysync import statement.xml
  moneysync import export.csv --account manual --currency EUR`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	importCmd.Flags().StringVar(&importAccount, "account", model.ManualAccountID, "account id to import into")
	importCmd.Flags().StringVar(&importCurrency, "currency", "", "currency of amounts without an explicit currency column")
}

func runImport(cmd *cobra.Command, args []string) {
	path := args[0]

	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	conn, err := openDatabase(cfg)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	data, err := os.ReadFile(path)
	exitOnError(err, "failed to read statement file")

	converter, err := currency.NewConverter(cfg.AccountingCurrency, log)
	exitOnError(err, "failed to load currency rates")

	currencyHint := importCurrency
	if currencyHint == "" {
		currencyHint = cfg.AccountingCurrency
	}

	var (
		records []model.Transaction
		stats   statement.ParseStats
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		normalizer := statement.NewXMLNormalizer(log)
		movements, err := normalizer.Parse(data)
		exitOnError(err, "failed to parse XML statement")
		records, stats = normalizer.ToCanonical(movements, importAccount, currencyHint)
	case ".csv":
		normalizer := statement.NewCSVNormalizer(log)
		rows, err := normalizer.Parse(bytes.NewReader(data))
		exitOnError(err, "failed to parse CSV export")
		records, stats = normalizer.ToCanonical(rows, importAccount, currencyHint)
	default:
		exitOnError(fmt.Errorf("unsupported extension %q", filepath.Ext(path)), "cannot detect statement format")
	}

	log.Info().Int("parsed", stats.Parsed).Int("skipped", stats.Skipped).Msg("statement parsed")

	transactions := db.NewTransactionStore(conn)
	rules := db.NewRuleStore(conn)
	engine := categorize.NewEngine(rules, transactions, log)

	for i := range records {
		converter.NormalizeTransaction(&records[i])

		categoryID, err := engine.Categorize(records[i].Description, records[i].CounterpartyName)
		exitOnError(err, "failed to categorize")
		if categoryID == nil {
			categoryID, err = engine.FallbackByCounterparty(records[i].CounterpartyName)
			exitOnError(err, "failed to look up counterparty history")
		}
		records[i].CategoryID = categoryID
	}

	result, err := importer.New(conn, transactions, log).ImportBatch(records)
	exitOnError(err, "failed to import batch")

	fmt.Printf("\n=== Import Summary ===\n")
	fmt.Printf("Parsed:    %d (%d rows skipped by parser)\n", stats.Parsed, stats.Skipped)
	fmt.Printf("Imported:  %d\n", result.Imported)
	fmt.Printf("Duplicates: %d\n", result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Printf("Failed:    %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s: %s\n", e.RecordID, e.Message)
		}
	}
	fmt.Println()
}
