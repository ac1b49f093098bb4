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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bytedance/sonic"

	"github.com/czcorpus/jointextract/cnf"
	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/library"
	"github.com/czcorpus/jointextract/spans"
	"github.com/czcorpus/jointextract/store"
	"github.com/czcorpus/jointextract/store/factory"
)

// decodeOpts collects the "decode" subcommand's flags.
type decodeOpts struct {
	confPath  string
	input     string
	statsPath string
	persist   bool
}

// runDecode decodes every document under opts.input with the config's
// weights and prints the projected records as JSON, mirroring vte.go's
// exportData but producing records on stdout instead of rows in a
// database (persistence is opt-in via -persist, §3.1).
func runDecode(opts decodeOpts) error {
	conf, err := cnf.LoadConf(opts.confPath)
	if err != nil {
		return err
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	stats, err := loadFieldStats(opts.statsPath)
	if err != nil {
		return err
	}

	jobs, err := library.JobsFromPath(opts.input)
	if err != nil {
		return fmt.Errorf("failed to expand input path: %w", err)
	}

	var writer store.Writer
	if opts.persist {
		writer, err = factory.NewWriter(conf.Store)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		if err := writer.Initialize(true); err != nil {
			return fmt.Errorf("failed to initialize session store: %w", err)
		}
		defer writer.Close()
	}

	r := features.NewDefaultRegistry()
	spanOpts := spans.DefaultOptions()
	enc := sonic.ConfigDefault.NewEncoder(os.Stdout)

	t0 := time.Now()
	statusChan, err := library.DecodeBatch(
		context.Background(), jobs, conf.Schema, conf.Weights, r, conf.Enum.ToOptions(conf.Schema), stats,
		func(line string) []joint.CandidateSpan { return spans.Generate(line, spanOpts) },
	)
	if err != nil {
		return err
	}

	var failed int
	for status := range statusChan {
		if status.Error != nil {
			log.Error().Err(status.Error).Str("job", status.Job).Msg("decode failed")
			failed++
			continue
		}
		if err := enc.Encode(status.Records); err != nil {
			return fmt.Errorf("failed to encode result for %s: %w", status.Job, err)
		}
		if writer != nil {
			if err := persistSession(writer, status.Job, status.Records); err != nil {
				log.Error().Err(err).Str("job", status.Job).Msg("failed to persist session")
			}
		}
	}
	if writer != nil {
		if err := writer.Commit(); err != nil {
			return fmt.Errorf("failed to commit session store: %w", err)
		}
	}
	log.Info().Int("jobs", len(jobs)).Int("failed", failed).Dur("elapsed", time.Since(t0)).Msg("decode finished")
	return nil
}

func persistSession(writer store.Writer, job string, records []joint.RecordSpan) error {
	return writer.WriteSession(store.Session{
		DocHash:       job,
		SchemaVersion: "1",
		StartedAt:     time.Now().Format(time.RFC3339),
		Records:       records,
	})
}
