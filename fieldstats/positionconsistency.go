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

package fieldstats

import (
	"github.com/czcorpus/jointextract/joint"
)

// bucketAccum mirrors ptcount/arf.go's WordARF: a running dispersion sum
// plus the bookkeeping (first/prev document index) needed to close it out
// in Finalize.
type bucketAccum struct {
	counter  *LabelCounter
	arf      float64
	firstDoc int
	prevDoc  int
	hasFirst bool
	total    int
}

// Accumulator is the first pass of the two-pass position-consistency
// calculation: Observe is called once per non-noise field occurrence
// across a batch of previously-decoded documents, in document order.
type Accumulator struct {
	buckets map[string]*bucketAccum
	numDocs int
}

// NewAccumulator returns an accumulator scoped to a batch of numDocs
// documents.
func NewAccumulator(numDocs int) *Accumulator {
	return &Accumulator{buckets: make(map[string]*bucketAccum), numDocs: numDocs}
}

func minFloat(v1 float64, v2 int) float64 {
	if v1 < float64(v2) {
		return v1
	}
	return float64(v2)
}

// Observe records one occurrence of label at bucket within document
// docIndex.
func (a *Accumulator) Observe(docIndex int, bucket, label string) {
	bc, ok := a.buckets[bucket]
	if !ok {
		bc = &bucketAccum{counter: NewLabelCounter()}
		a.buckets[bucket] = bc
	}
	bc.counter.IncCount(bucket, label)
	bc.total++

	if !bc.hasFirst {
		bc.firstDoc = docIndex
		bc.prevDoc = docIndex
		bc.hasFirst = true
		return
	}
	avgDist := float64(a.numDocs) / float64(bc.total)
	bc.arf += minFloat(avgDist, docIndex-bc.prevDoc)
	bc.prevDoc = docIndex
}

// Finalize closes out the dispersion sums (ptcount/arf.go's Finalize
// step) and returns the joint.FieldStats a decode/train pass can consult.
// PositionConsistency[bucket] is the normalized dispersion of any-label
// occurrences at bucket, clamped to [0,1] (1 = perfectly evenly spread
// across the batch, 0 = always clustered in a handful of documents).
// OptionalPenalty[bucket] is 1 minus the occurrence rate, so a field that
// is rarely filled at that bucket receives a penalty near 1.
func (a *Accumulator) Finalize() joint.FieldStats {
	stats := joint.FieldStats{
		PositionConsistency: make(map[string]float64),
		OptionalPenalty:     make(map[string]float64),
	}
	if a.numDocs <= 0 {
		return stats
	}
	for bucket, bc := range a.buckets {
		avgDist := float64(a.numDocs) / float64(bc.total)
		arf := bc.arf + minFloat(avgDist, bc.firstDoc+a.numDocs-bc.prevDoc)
		consistency := arf / avgDist / float64(bc.total)
		stats.PositionConsistency[bucket] = clamp01(consistency)

		rate := float64(bc.total) / float64(a.numDocs)
		stats.OptionalPenalty[bucket] = clamp01(1 - rate)
	}
	return stats
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
