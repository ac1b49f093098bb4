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

// Package library is the orchestration facade a CLI or service calls to
// decode many documents concurrently. Adapted from library/actions.go's
// ExtractData: a status-channel + goroutine fan-out, one subordinate
// goroutine per document, errors reported on the channel rather than
// aborting the batch.
package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/czcorpus/jointextract/decode"
	"github.com/czcorpus/jointextract/enumstate"
	"github.com/czcorpus/jointextract/features"
	"github.com/czcorpus/jointextract/fs"
	"github.com/czcorpus/jointextract/joint"
	"github.com/czcorpus/jointextract/proc"
	"github.com/czcorpus/jointextract/project"
	"github.com/czcorpus/jointextract/schema"
)

// JobsFromPath expands a single CLI argument into one Job per file: if
// path is a regular file it is one job, if it is a directory every file
// directly inside it becomes its own job, following library/actions.go's
// fs.IsFile/fs.IsDir dispatch on its VerticalFile config argument.
func JobsFromPath(path string) ([]Job, error) {
	if fs.IsFile(path) {
		return []Job{{ID: path, Paths: []string{path}}}, nil
	}
	if !fs.IsDir(path) {
		return nil, fmt.Errorf("%s is neither a file nor a directory", path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", path, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	jobs := make([]Job, len(names))
	for i, name := range names {
		full := filepath.Join(path, name)
		jobs[i] = Job{ID: full, Paths: []string{full}}
	}
	return jobs, nil
}

// Status is one batch-progress update, mirroring proc.Status's
// File/Datetime/Error shape from the teacher's extraction pipeline.
type Status struct {
	Datetime time.Time
	Job      string
	Records  []joint.RecordSpan
	Error    error
}

func sendErrStatus(statusChan chan Status, job string, err error) {
	statusChan <- Status{Datetime: time.Now(), Job: job, Error: err}
}

// Job is one decode unit: one or more file paths that together make up a
// single logical document, read in order via proc.MultiFileScanner - the
// same "several files, one stream" semantics the teacher's scanner
// provides for multi-part vertical files.
type Job struct {
	ID    string
	Paths []string
}

func readLines(job Job) ([]string, error) {
	scanner, err := proc.NewMultiFileScanner(job.Paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to open job %s: %w", job.ID, err)
	}
	defer scanner.Close()

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", job.ID, err)
	}
	return lines, nil
}

// candidateSpansFn produces the candidate spans for a line; callers
// supply their own tokenizer (spec.md §2 leaves span discovery to the
// caller, not the core).
type CandidateSpansFn func(line string) []joint.CandidateSpan

// DecodeBatch decodes every job concurrently and streams a Status per
// completed job. ctx cancellation stops scheduling of not-yet-started
// jobs; in-flight jobs still report their result.
func DecodeBatch(
	ctx context.Context,
	jobs []Job,
	sch schema.Schema,
	weights schema.Weights,
	r *features.Registry,
	enumOpts enumstate.Options,
	stats joint.FieldStats,
	spansFn CandidateSpansFn,
) (chan Status, error) {
	if err := sch.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no decode jobs given")
	}

	statusChan := make(chan Status)
	go func() {
		defer close(statusChan)
		var wg sync.WaitGroup
		wg.Add(len(jobs))
		for _, job := range jobs {
			job := job
			go func() {
				defer wg.Done()
				select {
				case <-ctx.Done():
					sendErrStatus(statusChan, job.ID, ctx.Err())
					return
				default:
				}

				log.Info().Str("job", job.ID).Msg("decoding document")
				lines, err := readLines(job)
				if err != nil {
					sendErrStatus(statusChan, job.ID, err)
					return
				}

				spansPerLine := make([][]joint.CandidateSpan, len(lines))
				for i, line := range lines {
					spansPerLine[i] = spansFn(line)
				}

				lineStarts := make([]int, len(lines)+1)
				for i, l := range lines {
					lineStarts[i+1] = lineStarts[i] + len(l) + 1
				}

				seq := decode.Decode(lines, spansPerLine, weights, sch, r, enumOpts, stats)
				records := project.Project(lines, spansPerLine, seq, weights, r, sch, lineStarts, nil)

				statusChan <- Status{Datetime: time.Now(), Job: job.ID, Records: records}
			}()
		}
		wg.Wait()
	}()

	return statusChan, nil
}
