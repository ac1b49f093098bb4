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
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/czcorpus/jointextract/cnf"
	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/fieldstats"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/library"
	"github.com/czcorpus/jointextract/spans"
)

// runStats decodes every document under inputPath with the config's
// current weights and folds the resulting field occurrences into a
// fieldstats.Accumulator, writing the closed-out joint.FieldStats to
// stdout so a later decode/train run can feed it back in via -stats.
func runStats(confPath, inputPath string) error {
	conf, err := cnf.LoadConf(confPath)
	if err != nil {
		return err
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	jobs, err := library.JobsFromPath(inputPath)
	if err != nil {
		return fmt.Errorf("failed to expand input path: %w", err)
	}

	r := features.NewDefaultRegistry()
	spanOpts := spans.DefaultOptions()
	statusChan, err := library.DecodeBatch(
		context.Background(), jobs, conf.Schema, conf.Weights, r, conf.Enum.ToOptions(conf.Schema), joint.FieldStats{},
		func(line string) []joint.CandidateSpan { return spans.Generate(line, spanOpts) },
	)
	if err != nil {
		return err
	}

	accum := fieldstats.NewAccumulator(len(jobs))
	docIndex := 0
	for status := range statusChan {
		if status.Error != nil {
			log.Warn().Err(status.Error).Str("job", status.Job).Msg("skipping job while gathering stats")
			docIndex++
			continue
		}
		observeRecords(accum, docIndex, status.Records, conf.Schema.NoiseLabel)
		docIndex++
	}

	out, err := json.MarshalIndent(accum.Finalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render field stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func observeRecords(accum *fieldstats.Accumulator, docIndex int, records []joint.RecordSpan, noiseLabel string) {
	for _, rec := range records {
		for _, sub := range rec.SubEntities {
			for _, f := range sub.Fields {
				if f.FieldType == noiseLabel {
					continue
				}
				bucket := joint.PositionBucket(f.LineIndex - sub.StartLine)
				accum.Observe(docIndex, bucket, f.FieldType)
			}
		}
	}
}

// loadFieldStats reads a previously-written joint.FieldStats JSON file,
// or returns the zero value (neutral for every feature) if path is empty.
func loadFieldStats(path string) (joint.FieldStats, error) {
	if path == "" {
		return joint.FieldStats{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return joint.FieldStats{}, fmt.Errorf("failed to read field stats file: %w", err)
	}
	var stats joint.FieldStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return joint.FieldStats{}, fmt.Errorf("failed to parse field stats file: %w", err)
	}
	return stats, nil
}
