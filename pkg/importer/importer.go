// Package importer persists batches of normalized transactions.
package importer

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/darcoto/mymoney2/pkg/db"
	"github.com/darcoto/mymoney2/pkg/model"
)

// RecordError describes a single record that failed to persist.
type RecordError struct {
	RecordID string `json:"recordId"`
	Message  string `json:"message"`
}

// Result summarizes a batch import. Imported counts inserts and updates;
// Skipped counts records already present with identical mutable fields.
type Result struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []RecordError `json:"errors,omitempty"`
}

// Importer writes transaction batches inside a single database transaction.
type Importer struct {
	conn         *db.Connection
	transactions *db.TransactionStore
	log          zerolog.Logger
}

// New creates a batch importer.
func New(conn *db.Connection, transactions *db.TransactionStore, log zerolog.Logger) *Importer {
	return &Importer{conn: conn, transactions: transactions, log: log}
}

// ImportBatch upserts every record of a batch within one database
// transaction. A record that fails to persist is reported in the result and
// does not abort the batch: the transaction commits with whatever succeeded.
// That makes re-running an import after a partial failure safe, since
// already-stored records come back as skipped.
//
// This intentionally bypasses Connection.Transaction, whose rollback-on-error
// contract would discard the successful records alongside the failed ones.
func (i *Importer) ImportBatch(records []model.Transaction) (Result, error) {
	result := Result{}
	if len(records) == 0 {
		return result, nil
	}

	tx, err := i.conn.Begin()
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, record := range records {
		outcome, err := i.transactions.UpsertIn(tx, record)
		if err != nil {
			i.log.Warn().Str("id", record.ID).Err(err).Msg("record failed, continuing batch")
			result.Errors = append(result.Errors, RecordError{RecordID: record.ID, Message: err.Error()})
			continue
		}
		switch outcome {
		case db.UpsertInserted, db.UpsertUpdated:
			result.Imported++
		case db.UpsertUnchanged:
			result.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return Result{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	i.log.Info().Int("imported", result.Imported).Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).Msg("batch import finished")
	return result, nil
}
