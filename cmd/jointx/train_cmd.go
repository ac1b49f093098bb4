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
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bytedance/sonic"

	"github.com/czcorpus/jointextract/cnf"
	"github.com/czcorpus/jointextract/decode"
	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/proc"
	"github.com/czcorpus/jointextract/project"
	"github.com/czcorpus/jointextract/spans"
	"github.com/czcorpus/jointextract/store"
	"github.com/czcorpus/jointextract/store/factory"
	"github.com/czcorpus/jointextract/train"
)

// trainOpts collects the "train" subcommand's flags.
type trainOpts struct {
	confPath     string
	input        string
	feedbackPath string
	statsPath    string
	noSave       bool
	persist      bool
}

// runTrain decodes opts.input once under the config's current weights,
// applies the feedback file's corrections via train.Update, and prints
// the re-decoded records. Unless -noSave is given, the checkpointed
// weights are written back to confPath, mirroring vte.go's "append"
// updating an existing database rather than starting fresh.
func runTrain(opts trainOpts) error {
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
	fb, err := loadFeedback(opts.feedbackPath)
	if err != nil {
		return err
	}

	scanner, err := proc.NewMultiFileScanner(opts.input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer scanner.Close()

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	spanOpts := spans.DefaultOptions()
	spansPerLine := spans.GenerateAll(lines, spanOpts)
	lineStarts := make([]int, len(lines)+1)
	for i, l := range lines {
		lineStarts[i+1] = lineStarts[i] + len(l) + 1
	}

	r := features.NewDefaultRegistry()
	enumOpts := conf.Enum.ToOptions(conf.Schema)
	priorSeq := decode.Decode(lines, spansPerLine, conf.Weights, conf.Schema, r, enumOpts, stats)

	t0 := time.Now()
	newWeights, newSeq, sanitizedSpans := train.Update(
		lines, spansPerLine, priorSeq, fb, conf.Weights, r, conf.Schema,
		conf.Train.LearningRate, enumOpts, conf.Train.StabilizationFactor, lineStarts,
	)
	conf.Weights = newWeights

	records := project.Project(lines, sanitizedSpans, newSeq, newWeights, r, conf.Schema, lineStarts, nil)

	enc := sonic.ConfigDefault.NewEncoder(os.Stdout)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode trained result: %w", err)
	}

	if opts.persist {
		writer, err := factory.NewWriter(conf.Store)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		defer writer.Close()
		if err := writer.Initialize(true); err != nil {
			return fmt.Errorf("failed to initialize session store: %w", err)
		}
		if err := writer.WriteSession(store.Session{
			DocHash:       opts.input,
			SchemaVersion: "1",
			StartedAt:     time.Now().Format(time.RFC3339),
			Records:       records,
			Applied:       fb,
		}); err != nil {
			log.Error().Err(err).Msg("failed to persist trained session")
		}
		if err := writer.Commit(); err != nil {
			return fmt.Errorf("failed to commit session store: %w", err)
		}
	}

	if !opts.noSave {
		if err := conf.Save(opts.confPath); err != nil {
			return err
		}
	}

	log.Info().Dur("elapsed", time.Since(t0)).Int("entries", len(fb.Entries)).Msg("train finished")
	return nil
}
