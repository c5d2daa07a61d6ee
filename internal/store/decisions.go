// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
)

// DecisionEntry is one audited adjudication.
type DecisionEntry struct {
	RecordedAt time.Time
	ReportPath string
	RefID      string
	Citekey    *string
	Source     string
	Confidence *float64
	Reason     string

	// Outcome is applied, rejected, skipped or unchanged.
	Outcome string
	Message string
}

// RecordDecisions appends entries to the audit log in one transaction. A
// zero RecordedAt is set to now.
func (s *Store) RecordDecisions(ctx context.Context, entries []DecisionEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO decisions (recorded_at, report_path, ref_id, citekey, source, confidence, reason, outcome, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, e := range entries {
		at := e.RecordedAt
		if at.IsZero() {
			at = now
		}
		_, err := stmt.ExecContext(ctx,
			at.UTC().Format(time.RFC3339Nano), e.ReportPath, e.RefID, e.Citekey,
			e.Source, e.Confidence, e.Reason, e.Outcome, e.Message,
		)
		if err != nil {
			return eris.Wrapf(err, "recording decision for ref_id=%s", e.RefID)
		}
	}
	return eris.Wrap(tx.Commit(), "committing decisions")
}

// History returns the audited decisions for refID, oldest first. An empty
// refID returns every decision.
func (s *Store) History(ctx context.Context, refID string) ([]DecisionEntry, error) {
	query := `SELECT recorded_at, report_path, ref_id, citekey, source, confidence, reason, outcome, message FROM decisions`
	var args []any
	if refID != "" {
		query += ` WHERE ref_id = ?`
		args = append(args, refID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "querying decisions")
	}
	defer rows.Close()

	var out []DecisionEntry
	for rows.Next() {
		var (
			e                       DecisionEntry
			at                      string
			citekey, source, reason sql.NullString
			message                 sql.NullString
			confidence              sql.NullFloat64
		)
		if err := rows.Scan(&at, &e.ReportPath, &e.RefID, &citekey, &source, &confidence, &reason, &e.Outcome, &message); err != nil {
			return nil, eris.Wrap(err, "scanning decision")
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339Nano, at)
		e.Citekey = nullable(citekey)
		e.Source = source.String
		e.Reason = reason.String
		e.Message = message.String
		if confidence.Valid {
			c := confidence.Float64
			e.Confidence = &c
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "iterating decisions")
}
