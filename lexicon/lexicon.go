// Copyright 2026 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2026 Charles University, Faculty of Arts,
//                Department of Linguistics
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

// Package lexicon is an optional MySQL-backed lookup of known field
// values (common first names, known email domains, ExtID prefixes). It
// is a standalone lookup: validation.IsCommonFirstName and the
// segment.is_preferred_name / segment.is_name features do not call it
// and use only their in-process predicates. Adapted from livetokens/backend.go and
// livetokens/searcher.go, dropping the Universal-Dependencies-feature
// half (livetokens/common.go's AttrList.IsUDFeats machinery) - this
// domain has no morphological features, only a flat field-name/value
// table.
package lexicon

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// Conf configures an optional lexicon connection. A zero value means "no
// lexicon configured" and every Searcher method degenerates to reporting
// no match, leaving callers to fall back to the static roster.
type Conf struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (c Conf) IsConfigured() bool {
	return c.Host != "" && c.Name != ""
}

// FieldValue is a single known-value lookup match.
type FieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Searcher looks values up in the known_values table. A nil DB (the
// zero value) is a valid, inert Searcher: IsKnown always reports false.
type Searcher struct {
	DB *sql.DB
}

// Open connects to the lexicon database named by conf. Returns a nil
// *Searcher.DB (inert) if conf is not configured.
func Open(conf Conf) (*Searcher, error) {
	if !conf.IsConfigured() {
		return &Searcher{}, nil
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", conf.User, conf.Password, conf.Host, conf.Name)
	database, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon: %w", err)
	}
	return &Searcher{DB: database}, nil
}

// IsKnown reports whether value is a recorded known_values entry for
// field, mirroring livetokens/searcher.go's dynamic-WHERE-clause
// FilterTokens shape but collapsed to a single field/value pair.
func (s *Searcher) IsKnown(ctx context.Context, field, value string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, nil
	}
	row := s.DB.QueryRowContext(
		ctx, "SELECT COUNT(*) > 0 FROM known_values WHERE field = ? AND value = ?", field, strings.ToLower(value))
	var known bool
	if err := row.Scan(&known); err != nil {
		return false, fmt.Errorf("failed to query lexicon: %w", err)
	}
	return known, nil
}

// FilterKnownValues returns the subset of candidates that are recorded
// known_values entries for field, preserving the dynamic-WHERE-IN
// construction livetokens/searcher.go's FilterTokens used for its
// attribute filters.
func (s *Searcher) FilterKnownValues(ctx context.Context, field string, candidates []string) ([]FieldValue, error) {
	if s == nil || s.DB == nil || len(candidates) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(candidates))
	args := make([]any, 0, len(candidates)+1)
	args = append(args, field)
	for i, c := range candidates {
		placeholders[i] = "?"
		args = append(args, strings.ToLower(c))
	}
	sqlq := fmt.Sprintf(
		"SELECT value, count FROM known_values WHERE field = ? AND value IN (%s)", strings.Join(placeholders, ", "))
	rows, err := s.DB.QueryContext(ctx, sqlq, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter known values: %w", err)
	}
	defer rows.Close()

	var ans []FieldValue
	for rows.Next() {
		var fv FieldValue
		fv.Field = field
		if err := rows.Scan(&fv.Value, &fv.Count); err != nil {
			return nil, fmt.Errorf("failed to scan known value: %w", err)
		}
		ans = append(ans, fv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating known values: %w", err)
	}
	return ans, nil
}

// Close releases the underlying connection, if any.
func (s *Searcher) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// KnownValuesSchema creates the flat lookup table this package queries.
const KnownValuesSchema = `CREATE TABLE IF NOT EXISTS known_values (
	id INTEGER PRIMARY KEY AUTO_INCREMENT,
	field VARCHAR(64) NOT NULL,
	value VARCHAR(255) NOT NULL,
	count INTEGER DEFAULT 0,
	UNIQUE KEY field_value_idx (field, value)
)`
