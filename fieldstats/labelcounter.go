// Copyright 2019 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2019 Charles University, Faculty of Arts,
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

// Package fieldstats computes batch statistics over previously-decoded
// documents that feed field.relative_position_consistency and
// field.optional_penalty. Adapted from ptcount/colCounter.go (per-key
// occurrence counting) and ptcount/arf.go (two-pass dispersion).
package fieldstats

// LabelCounter tracks, per position bucket, how many times each field
// label occupied that bucket across a batch of decoded documents. It
// plays the role colCounter.NgramCounter plays for a single n-gram key:
// a small mutable occurrence tally keyed by a position bucket string
// rather than an n-gram id.
type LabelCounter struct {
	buckets map[string]map[string]int
}

// NewLabelCounter returns an empty counter.
func NewLabelCounter() *LabelCounter {
	return &LabelCounter{buckets: make(map[string]map[string]int)}
}

// IncCount records one occurrence of label at bucket.
func (c *LabelCounter) IncCount(bucket, label string) {
	labels, ok := c.buckets[bucket]
	if !ok {
		labels = make(map[string]int)
		c.buckets[bucket] = labels
	}
	labels[label]++
}

// Count returns how many times label occurred at bucket.
func (c *LabelCounter) Count(bucket, label string) int {
	labels, ok := c.buckets[bucket]
	if !ok {
		return 0
	}
	return labels[label]
}

// Total returns the occurrence count at bucket across all labels.
func (c *LabelCounter) Total(bucket string) int {
	labels, ok := c.buckets[bucket]
	if !ok {
		return 0
	}
	sum := 0
	for _, n := range labels {
		sum += n
	}
	return sum
}

// Buckets returns the set of buckets observed so far.
func (c *LabelCounter) Buckets() []string {
	out := make([]string, 0, len(c.buckets))
	for b := range c.buckets {
		out = append(out, b)
	}
	return out
}
