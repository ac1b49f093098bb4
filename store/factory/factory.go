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

// Package factory picks a store.Writer backend from store.Conf.Type,
// mirroring db/factory/main.go's switch on Conf.Type.
package factory

import (
	"fmt"

	"github.com/czcorpus/jointextract/store"
	"github.com/czcorpus/jointextract/store/mysql"
	"github.com/czcorpus/jointextract/store/sqlite"
)

// NullWriter is returned when no store is configured; every method
// reports the absence rather than silently discarding data.
type NullWriter struct{}

func (nw *NullWriter) DatabaseExists() bool { return false }

func (nw *NullWriter) Initialize(appendMode bool) error {
	return fmt.Errorf("no session store configured")
}

func (nw *NullWriter) PrepareInsert(table string, attrs []string) (store.InsertOperation, error) {
	return nil, fmt.Errorf("no session store configured")
}

func (nw *NullWriter) RemoveSessionsOlderThan(cutoff string) (int, error) {
	return 0, fmt.Errorf("no session store configured")
}

func (nw *NullWriter) WriteSession(session store.Session) error {
	return fmt.Errorf("no session store configured")
}

func (nw *NullWriter) Commit() error { return fmt.Errorf("no session store configured") }

func (nw *NullWriter) Rollback() error { return fmt.Errorf("no session store configured") }

func (nw *NullWriter) Close() {}

// NewWriter returns the store.Writer backend named by conf.Type
// ("sqlite" or "mysql"), or a NullWriter if conf.Type is empty/unknown.
func NewWriter(conf store.Conf) (store.Writer, error) {
	switch conf.Type {
	case "sqlite":
		return &sqlite.Writer{Path: conf.Name}, nil
	case "mysql":
		return mysql.NewWriter(conf)
	default:
		return &NullWriter{}, nil
	}
}
