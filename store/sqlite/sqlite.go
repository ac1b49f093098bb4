// Copyright 2017 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2017 Charles University, Faculty of Arts,
//                Institute of the Czech National Corpus
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlite is the store.Writer backend for local, file-based
// session storage. Adapted from db/sqlite/main.go and
// db/sqlite/operations.go: same open/createSchema/prepareInsert/
// commit/rollback shape, repointed at store.SessionSchema.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/store"

	_ "github.com/mattn/go-sqlite3" // load the driver
)

// Writer is a store.Writer backed by a local sqlite3 file.
type Writer struct {
	database *sql.DB
	tx       *sql.Tx
	Path     string
}

func (w *Writer) DatabaseExists() bool {
	info, err := os.Stat(w.Path)
	return err == nil && !info.IsDir()
}

func openDatabase(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return database, nil
}

func (w *Writer) Initialize(appendMode bool) error {
	dbExisted := w.DatabaseExists()
	var err error
	w.database, err = openDatabase(w.Path)
	if err != nil {
		return err
	}

	if !appendMode && dbExisted {
		log.Warn().Str("path", w.Path).Msg("session store already exists, existing data will be deleted")
		if err := dropExisting(w.database); err != nil {
			return err
		}
	}
	if err := createSchema(w.database); err != nil {
		return err
	}

	for _, pragma := range []string{"PRAGMA synchronous = OFF", "PRAGMA journal_mode = MEMORY"} {
		if _, err := w.database.Exec(pragma); err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Msg("failed to apply store pragma")
		}
	}
	w.tx, err = w.database.Begin()
	return err
}

func (w *Writer) PrepareInsert(table string, attrs []string) (store.InsertOperation, error) {
	if w.tx == nil {
		return nil, fmt.Errorf("cannot prepare insert into %s - no transaction active", table)
	}
	placeholders := make([]string, len(attrs))
	for i := range attrs {
		placeholders[i] = "?"
	}
	stmt, err := w.tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(attrs, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	return &store.Insert{Stmt: stmt}, nil
}

func (w *Writer) RemoveSessionsOlderThan(cutoff string) (int, error) {
	res, err := w.tx.Exec("DELETE FROM sessions WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to remove old sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to determine number of removed sessions: %w", err)
	}
	return int(n), nil
}

// WriteSession inserts one session row plus its record/sub_entity/field
// tree and applied feedback entries, all within the open transaction.
func (w *Writer) WriteSession(session store.Session) error {
	res, err := w.tx.Exec(
		"INSERT INTO sessions (doc_hash, schema_version, started_at) VALUES (?, ?, ?)",
		session.DocHash, session.SchemaVersion, session.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new session id: %w", err)
	}

	for _, rec := range session.Records {
		if err := w.writeRecord(sessionID, rec); err != nil {
			return err
		}
	}
	for _, e := range session.Applied.Entries {
		if err := w.writeFeedbackEntry(sessionID, e); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeRecord(sessionID int64, rec joint.RecordSpan) error {
	res, err := w.tx.Exec(
		"INSERT INTO record_spans (session_id, start_line, end_line, file_start, file_end) VALUES (?, ?, ?, ?, ?)",
		sessionID, rec.StartLine, rec.EndLine, rec.FileStart, rec.FileEnd)
	if err != nil {
		return fmt.Errorf("failed to insert record span: %w", err)
	}
	recordID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new record id: %w", err)
	}
	for _, se := range rec.SubEntities {
		if err := w.writeSubEntity(sessionID, recordID, se); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeSubEntity(sessionID, recordID int64, se joint.SubEntitySpan) error {
	res, err := w.tx.Exec(
		`INSERT INTO sub_entity_spans
			(session_id, record_id, start_line, end_line, file_start, file_end, entity_type)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, recordID, se.StartLine, se.EndLine, se.FileStart, se.FileEnd, se.EntityType)
	if err != nil {
		return fmt.Errorf("failed to insert sub-entity span: %w", err)
	}
	subEntityID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new sub-entity id: %w", err)
	}
	for _, f := range se.Fields {
		_, err := w.tx.Exec(
			`INSERT INTO field_spans
				(session_id, sub_entity_id, line_index, start_offset, end_offset, file_start, file_end, field_type, confidence)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, subEntityID, f.LineIndex, f.Start, f.End, f.FileStart, f.FileEnd, f.FieldType, f.Confidence)
		if err != nil {
			return fmt.Errorf("failed to insert field span: %w", err)
		}
	}
	return nil
}

func (w *Writer) writeFeedbackEntry(sessionID int64, e joint.FeedbackEntry) error {
	hasConf := 0
	if e.HasConf {
		hasConf = 1
	}
	_, err := w.tx.Exec(
		`INSERT INTO feedback_entries
			(session_id, kind, line_index, start_offset, end_offset, field_type, action, confidence, has_confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, int(e.Kind), e.LineIndex, e.Start, e.End, e.FieldType, int(e.Action), e.Confidence, hasConf)
	if err != nil {
		return fmt.Errorf("failed to insert feedback entry: %w", err)
	}
	return nil
}

func (w *Writer) Commit() error {
	return w.tx.Commit()
}

func (w *Writer) Rollback() error {
	return w.tx.Rollback()
}

func (w *Writer) Close() {
	if err := w.database.Close(); err != nil {
		log.Warn().Err(err).Msg("error closing session store")
	}
}

func createSchema(database *sql.DB) error {
	log.Info().Msg("creating session store schema")
	for _, stmt := range store.SessionSchema {
		if _, err := database.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create session store schema: %w", err)
		}
	}
	return nil
}

func dropExisting(database *sql.DB) error {
	log.Info().Msg("dropping existing session store tables")
	for _, table := range []string{"feedback_entries", "field_spans", "sub_entity_spans", "record_spans", "sessions"} {
		if _, err := database.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
