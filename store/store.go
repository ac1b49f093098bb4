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

// Package store persists decode sessions, their projected record trees,
// and applied feedback as an audit trail outside the core decode/train
// path (SPEC_FULL §3.1). Adapted from db/common.go: the same small
// Writer/InsertOperation contract, repointed at a session schema instead
// of a corpus positional-attribute schema.
package store

import (
	"database/sql"

	"github.com/czcorpus/jointextract/joint"
)

// Conf configures a store backend. Mirrors db/common.go's Conf.
type Conf struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// Insert wraps a prepared statement, replacing empty strings with SQL
// NULL the way db/common.go's Insert.Exec does.
type Insert struct {
	Stmt *sql.Stmt
}

func (ins *Insert) Exec(values ...any) error {
	for i, v := range values {
		if s, ok := v.(string); ok && s == "" {
			values[i] = sql.NullString{String: "", Valid: false}
		}
	}
	_, err := ins.Stmt.Exec(values...)
	return err
}

// InsertOperation is a single prepared INSERT a caller executes
// repeatedly with positional values.
type InsertOperation interface {
	Exec(values ...any) error
}

// Writer is the storage backend contract a decode/train session is
// persisted through. Mirrors db/common.go's Writer, minus the
// corpus-specific CreateBibView/self-join methods that have no analogue
// in a session audit trail.
type Writer interface {
	DatabaseExists() bool
	Initialize(appendMode bool) error
	PrepareInsert(table string, attrs []string) (InsertOperation, error)

	// RemoveSessionsOlderThan deletes the session rows started before
	// cutoff, returning how many were removed. The record, sub-entity,
	// field and feedback rows that reference those sessions are not
	// deleted. No matching rows is not an error.
	RemoveSessionsOlderThan(cutoff string) (int, error)

	// WriteSession persists one decode/train session: the record tree
	// it produced and the feedback entries that were applied to reach
	// it (either may be nil/empty).
	WriteSession(session Session) error

	Commit() error
	Rollback() error
	Close()
}

// Session is one audit-trail row: a decoded document plus everything
// produced and consumed while decoding it.
type Session struct {
	DocHash       string
	SchemaVersion string
	StartedAt     string
	Records       []joint.RecordSpan
	Applied       joint.Feedback
}

// SessionSchema is the fixed table layout every backend creates:
// sessions -> record_spans -> sub_entity_spans -> field_spans, plus a
// flat feedback_entries audit table keyed by session.
var SessionSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_hash TEXT NOT NULL,
		schema_version TEXT,
		started_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS record_spans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		start_line INTEGER,
		end_line INTEGER,
		file_start INTEGER,
		file_end INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS sub_entity_spans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		record_id INTEGER NOT NULL,
		start_line INTEGER,
		end_line INTEGER,
		file_start INTEGER,
		file_end INTEGER,
		entity_type TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS field_spans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		sub_entity_id INTEGER NOT NULL,
		line_index INTEGER,
		start_offset INTEGER,
		end_offset INTEGER,
		file_start INTEGER,
		file_end INTEGER,
		field_type TEXT,
		confidence REAL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		kind TEXT,
		line_index INTEGER,
		start_offset INTEGER,
		end_offset INTEGER,
		field_type TEXT,
		action TEXT,
		confidence REAL,
		has_confidence INTEGER
	)`,
}
