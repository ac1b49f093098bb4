// Copyright 2022 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2022 Charles University, Faculty of Arts,
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

// Package mysql is the store.Writer backend for shared, networked
// session storage. Adapted from db/mysql/main.go and
// db/mysql/operations.go: same mysql.NewConfig()/DSN-based connection
// and create/drop schema shape, repointed at store.SessionSchema.
package mysql

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/store"

	"github.com/go-sql-driver/mysql"
)

// mysqlSchema is store.SessionSchema in MySQL dialect: AUTO_INCREMENT
// instead of sqlite's AUTOINCREMENT, and MySQL column types (VARCHAR,
// TINYINT, DOUBLE) in place of sqlite's TEXT/REAL.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTO_INCREMENT,
		doc_hash VARCHAR(255) NOT NULL,
		schema_version VARCHAR(64),
		started_at VARCHAR(64)
	)`,
	`CREATE TABLE IF NOT EXISTS record_spans (
		id INTEGER PRIMARY KEY AUTO_INCREMENT,
		session_id INTEGER NOT NULL,
		start_line INTEGER,
		end_line INTEGER,
		file_start INTEGER,
		file_end INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS sub_entity_spans (
		id INTEGER PRIMARY KEY AUTO_INCREMENT,
		session_id INTEGER NOT NULL,
		record_id INTEGER NOT NULL,
		start_line INTEGER,
		end_line INTEGER,
		file_start INTEGER,
		file_end INTEGER,
		entity_type VARCHAR(64)
	)`,
	`CREATE TABLE IF NOT EXISTS field_spans (
		id INTEGER PRIMARY KEY AUTO_INCREMENT,
		session_id INTEGER NOT NULL,
		sub_entity_id INTEGER NOT NULL,
		line_index INTEGER,
		start_offset INTEGER,
		end_offset INTEGER,
		file_start INTEGER,
		file_end INTEGER,
		field_type VARCHAR(64),
		confidence DOUBLE
	)`,
	`CREATE TABLE IF NOT EXISTS feedback_entries (
		id INTEGER PRIMARY KEY AUTO_INCREMENT,
		session_id INTEGER NOT NULL,
		kind TINYINT,
		line_index INTEGER,
		start_offset INTEGER,
		end_offset INTEGER,
		field_type VARCHAR(64),
		action TINYINT,
		confidence DOUBLE,
		has_confidence TINYINT
	)`,
}

// Writer is a store.Writer backed by a shared MySQL database.
type Writer struct {
	database *sql.DB
	tx       *sql.Tx
	dbName   string
}

// NewWriter opens a MySQL connection from conf. The connection is lazy -
// Initialize performs schema setup and starts the first transaction.
func NewWriter(conf store.Conf) (*Writer, error) {
	mconf := mysql.NewConfig()
	mconf.Net = "tcp"
	mconf.Addr = conf.Host
	mconf.User = conf.User
	mconf.Passwd = conf.Password
	mconf.DBName = conf.Name
	mconf.ParseTime = true
	mconf.Loc = time.Local
	database, err := sql.Open("mysql", mconf.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &Writer{database: database, dbName: conf.Name}, nil
}

func (w *Writer) DatabaseExists() bool {
	row := w.database.QueryRow(
		`SELECT COUNT(*) > 0 FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = 'sessions'`,
		w.dbName)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		log.Error().Err(err).Msg("failed to test session store existence")
		return false
	}
	return exists
}

func (w *Writer) Initialize(appendMode bool) error {
	dbExisted := w.DatabaseExists()
	if !appendMode {
		if dbExisted {
			log.Warn().Str("database", w.dbName).Msg("session store already exists, existing data will be deleted")
			if err := dropExisting(w.database); err != nil {
				return err
			}
		}
		if err := createSchema(w.database); err != nil {
			return err
		}
	}
	var err error
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
		"INSERT INTO `%s` (%s) VALUES (%s)", table, strings.Join(attrs, ", "), strings.Join(placeholders, ", ")))
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
	for _, stmt := range mysqlSchema {
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
