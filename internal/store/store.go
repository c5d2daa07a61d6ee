// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps a local SQLite copy of the library so that matching
// can run without Zotero, offers full-text title search over it, and logs
// every adjudication applied to a report.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/pdiddy/literature-match/pkg/types"
)

// DefaultPath is the snapshot database used when none is configured.
const DefaultPath = ".literature-match/library.db"

// ErrNoSnapshot is returned by LoadSnapshot when no library has been synced.
var ErrNoSnapshot = eris.New("no library snapshot; run `literature-match library sync` first")

// Store manages the snapshot database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and its schema.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrapf(err, "creating directory for %s", path)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, eris.Wrapf(err, "opening database %s", path)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "creating schema")
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at TEXT NOT NULL,
			source TEXT NOT NULL,
			total_items INTEGER NOT NULL,
			record_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
			position INTEGER NOT NULL,
			citekey TEXT NOT NULL,
			item_key TEXT,
			title TEXT NOT NULL,
			year TEXT,
			authors TEXT,
			doi TEXT,
			url TEXT,
			arxiv TEXT,
			tags TEXT,
			pdf_attachments TEXT,
			UNIQUE(snapshot_id, citekey)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_snapshot ON records(snapshot_id, position)`,
		`CREATE TABLE IF NOT EXISTS decisions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			report_path TEXT NOT NULL,
			ref_id TEXT NOT NULL,
			citekey TEXT,
			source TEXT,
			confidence REAL,
			reason TEXT,
			outcome TEXT NOT NULL,
			message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_ref ON decisions(ref_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}

	// FTS5 over record titles, kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='records_fts'`,
	).Scan(&ftsExists); err != nil {
		return eris.Wrap(err, "checking FTS table")
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE records_fts USING fts5(title, content=records, content_rowid=rowid, tokenize='unicode61 remove_diacritics 2')`,
			`CREATE TRIGGER records_ai AFTER INSERT ON records BEGIN
				INSERT INTO records_fts(rowid, title) VALUES (new.rowid, new.title);
			END`,
			`CREATE TRIGGER records_ad AFTER DELETE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, title) VALUES('delete', old.rowid, old.title);
			END`,
			`CREATE TRIGGER records_au AFTER UPDATE ON records BEGIN
				INSERT INTO records_fts(records_fts, rowid, title) VALUES('delete', old.rowid, old.title);
				INSERT INTO records_fts(rowid, title) VALUES (new.rowid, new.title);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return eris.Wrap(err, "creating FTS infrastructure")
			}
		}
	}

	return nil
}

// Snapshot is one saved copy of the library.
type Snapshot struct {
	ID         int64
	TakenAt    time.Time
	Source     string
	TotalItems int
	Records    []types.LibraryRecord
}

// SaveSnapshot replaces the stored library with records, kept in the given
// order, and returns the new snapshot id. Earlier snapshot metadata is kept
// as sync history.
func (s *Store) SaveSnapshot(ctx context.Context, source string, totalItems int, records []types.LibraryRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return 0, eris.Wrap(err, "clearing previous snapshot")
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, source, total_items, record_count) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), source, totalItems, len(records),
	)
	if err != nil {
		return 0, eris.Wrap(err, "inserting snapshot")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "reading snapshot id")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO records (snapshot_id, position, citekey, item_key, title, year, authors, doi, url, arxiv, tags, pdf_attachments)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "preparing insert")
	}
	defer stmt.Close()

	for i, rec := range records {
		authorsJSON, _ := json.Marshal(nonNil(rec.Authors))
		tagsJSON, _ := json.Marshal(nonNil(rec.Tags))
		attJSON, _ := json.Marshal(rec.PDFAttachments)
		_, err := stmt.ExecContext(ctx,
			id, i, rec.Citekey, rec.ItemKey, rec.Title,
			rec.Year, string(authorsJSON), rec.DOI, rec.URL, rec.Arxiv,
			string(tagsJSON), string(attJSON),
		)
		if err != nil {
			return 0, eris.Wrapf(err, "inserting record %s", rec.Citekey)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "committing snapshot")
	}
	return id, nil
}

// LoadSnapshot returns the most recent snapshot with its records in
// library order, or ErrNoSnapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	var (
		snap    Snapshot
		takenAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, taken_at, source, total_items FROM snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&snap.ID, &takenAt, &snap.Source, &snap.TotalItems)
	if eris.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, eris.Wrap(err, "reading snapshot")
	}
	snap.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)

	rows, err := s.db.QueryContext(ctx, selectRecords+` WHERE r.snapshot_id = ? ORDER BY r.position`, snap.ID)
	if err != nil {
		return Snapshot{}, eris.Wrap(err, "querying records")
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Records = append(snap.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, eris.Wrap(err, "iterating records")
	}
	if len(snap.Records) == 0 {
		return Snapshot{}, ErrNoSnapshot
	}
	return snap, nil
}

// SnapshotHistory returns metadata of every sync, newest first, without
// records.
func (s *Store) SnapshotHistory(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, taken_at, source, total_items FROM snapshots ORDER BY id DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "querying snapshots")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			takenAt string
		)
		if err := rows.Scan(&snap.ID, &takenAt, &snap.Source, &snap.TotalItems); err != nil {
			return nil, eris.Wrap(err, "scanning snapshot")
		}
		snap.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "iterating snapshots")
}

const (
	recordColumns = `r.citekey, r.item_key, r.title, r.year, r.authors, r.doi, r.url, r.arxiv, r.tags, r.pdf_attachments`
	selectRecords = `SELECT ` + recordColumns + ` FROM records r`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, extra ...any) (types.LibraryRecord, error) {
	var (
		rec                          types.LibraryRecord
		itemKey                      sql.NullString
		year, doi, url, arxiv        sql.NullString
		authorsJSON, tagsJSON, attJS sql.NullString
	)
	dest := []any{&rec.Citekey, &itemKey, &rec.Title, &year, &authorsJSON, &doi, &url, &arxiv, &tagsJSON, &attJS}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return rec, eris.Wrap(err, "scanning record")
	}

	rec.ItemKey = itemKey.String
	rec.Year = nullable(year)
	rec.DOI = nullable(doi)
	rec.URL = nullable(url)
	rec.Arxiv = nullable(arxiv)

	rec.Authors = []string{}
	rec.Tags = []string{}
	rec.PDFAttachments = []types.Attachment{}
	if authorsJSON.Valid {
		_ = json.Unmarshal([]byte(authorsJSON.String), &rec.Authors)
	}
	if tagsJSON.Valid {
		_ = json.Unmarshal([]byte(tagsJSON.String), &rec.Tags)
	}
	if attJS.Valid {
		_ = json.Unmarshal([]byte(attJS.String), &rec.PDFAttachments)
	}
	if rec.PDFAttachments == nil {
		rec.PDFAttachments = []types.Attachment{}
	}
	return rec, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return types.StringPtr(ns.String)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
